package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/common"
	"github.com/xlthimolx/djpult/cmd/common/config"
	tbl "github.com/xlthimolx/djpult/cmd/common/table"
)

type Params struct {
	Dir         string `pos:"true" optional:"true" help:"Music folder. Defaults to music_dir from the config, then the current directory."`
	MiscBuckets int    `optional:"true" help:"Round-robin buckets for untagged files (2 or 3). 0 uses the config." default:"0"`
	JSON        bool   `long:"json" optional:"true" help:"Output as JSON"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "scan",
		Short:       "Show how a music folder is sorted",
		Long:        "Scan a music folder and list every track with the column or special slot it lands in. Files that match no rule are not listed.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout); err != nil {
				common.Fail("scan", err)
			}
		},
	}.ToCobra()
}

// Entry is one classified track.
type Entry struct {
	Slot     string `json:"slot"`
	Name     string `json:"name"`
	Identity string `json:"identity"`
	Ordinal  int    `json:"ordinal,omitempty"`
}

func Run(params *Params, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir, err := common.ResolveMusicDir(params.Dir, cfg.MusicDir)
	if err != nil {
		return err
	}
	buckets := cfg.MiscBuckets
	if params.MiscBuckets != 0 {
		buckets = params.MiscBuckets
	}

	files, err := catalog.Scan(dir)
	if err != nil {
		return err
	}
	c := catalog.NewBuilder(catalog.NewRegistry(), catalog.BuilderOptions{MiscBuckets: buckets}).Classify(files)
	entries := Entries(c)

	if params.JSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(out, "No tracks found in %s\n", dir)
		return nil
	}

	t := tbl.NewWriter(out, tbl.TerminalWidth())
	t.AppendHeader(table.Row{"Slot", "Track", "File"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Slot, e.Name, text.FgHiBlack.Sprint(e.Identity)})
	}
	t.Render()
	_, _ = fmt.Fprintf(out, "\n%d tracks from %d files (%d skipped)\n", len(entries), len(files), len(files)-len(entries))
	return nil
}

// Entries lists c column by column, then the special slots.
func Entries(c *catalog.Catalog) []Entry {
	var entries []Entry
	for _, cat := range c.ActiveCategories() {
		info := cat.Info()
		slot := info.Title
		if info.Title == "_" {
			slot = "_ (" + info.Key + ")"
		}
		for _, it := range c.Items(cat) {
			entries = append(entries, Entry{Slot: slot, Name: it.DisplayName, Identity: it.Identity})
		}
	}
	special := func(it *catalog.Item) {
		if it == nil {
			return
		}
		slot := it.Special.String()
		if it.Special == catalog.Pause {
			slot = fmt.Sprintf("Pause %d", it.Ordinal)
		}
		entries = append(entries, Entry{Slot: slot, Name: it.DisplayName, Identity: it.Identity, Ordinal: it.Ordinal})
	}
	special(c.Timeout)
	special(c.WalkOn)
	for _, p := range c.Pauses {
		special(&p)
	}
	return entries
}
