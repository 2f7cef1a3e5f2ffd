package pick

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/playcount"
	"github.com/xlthimolx/djpult/cmd/board/selector"
	"github.com/xlthimolx/djpult/cmd/common"
	"github.com/xlthimolx/djpult/cmd/common/config"
)

type Params struct {
	Dir      string `pos:"true" optional:"true" help:"Music folder. Defaults to music_dir from the config, then the current directory."`
	Opponent bool   `short:"o" optional:"true" help:"Pick from the opponent pool instead of the attack pool."`
	Count    int    `short:"n" help:"Number of tracks to pick." default:"1"`
	Record   bool   `optional:"true" help:"Count the picks as plays."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "pick",
		Short:       "Pick tracks the way the random buttons do",
		Long:        "Pick tracks with the soundboard's weighted random selection, without playing them. Rarely played tracks are more likely. Each pick counts against the following ones, so a longer run reads like a set list.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			kv := playcount.FileKV{Dir: common.StateDir()}
			if err := Run(params, kv, selector.New(nil), os.Stdout); err != nil {
				common.Fail("pick", err)
			}
		},
	}.ToCobra()
}

// overlay adds local picks on top of the stored counts.
type overlay struct {
	base  selector.Counts
	picks map[string]int
}

func (o overlay) Get(identity string) int {
	return o.base.Get(identity) + o.picks[identity]
}

func Run(params *Params, kv playcount.KV, sel *selector.Selector, out io.Writer) error {
	if params.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", params.Count)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir, err := common.ResolveMusicDir(params.Dir, cfg.MusicDir)
	if err != nil {
		return err
	}
	files, err := catalog.Scan(dir)
	if err != nil {
		return err
	}
	c := catalog.NewBuilder(catalog.NewRegistry(), catalog.BuilderOptions{MiscBuckets: cfg.MiscBuckets}).Classify(files)

	pool, name := selector.AttackPool(c), "attack"
	if params.Opponent {
		pool, name = selector.OpponentPool(c), "opponent"
	}
	if len(pool) == 0 {
		return fmt.Errorf("%s pool: %w", name, selector.ErrEmptyPool)
	}

	store := playcount.New(kv, slog.Default())
	store.Load()
	counts := overlay{base: store, picks: make(map[string]int)}

	for range params.Count {
		item, err := sel.PickFrom(pool, counts)
		if err != nil {
			return err
		}
		if params.Record {
			store.RecordPlay(item)
		} else {
			counts.picks[item.Identity]++
		}
		if _, err := fmt.Fprintln(out, item.DisplayName); err != nil {
			return err
		}
	}
	store.Flush()
	return nil
}
