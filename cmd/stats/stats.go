package stats

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/board/playcount"
	"github.com/xlthimolx/djpult/cmd/board/selector"
	"github.com/xlthimolx/djpult/cmd/common"
	tbl "github.com/xlthimolx/djpult/cmd/common/table"
)

type Params struct {
	Reset bool `long:"reset" optional:"true" help:"Clear all play counts."`
	Top   int  `short:"n" optional:"true" help:"Show only the n most played tracks. 0 shows all." default:"0"`
	JSON  bool `long:"json" optional:"true" help:"Output as JSON"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "stats",
		Short:       "Show play counts",
		Long:        "Show how often each track was played, with the weight it currently has in random picks.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			kv := playcount.FileKV{Dir: common.StateDir()}
			if err := Run(params, kv, os.Stdout); err != nil {
				common.Fail("stats", err)
			}
		},
	}.ToCobra()
}

// Row is one track in the stats listing.
type Row struct {
	Identity string  `json:"identity"`
	Plays    int     `json:"plays"`
	Weight   float64 `json:"weight"`
	Share    float64 `json:"share"` // chance among all recorded tracks
}

func Run(params *Params, kv playcount.KV, out io.Writer) error {
	store := playcount.New(kv, slog.Default())
	store.Load()

	if params.Reset {
		store.ResetAll()
		store.Flush()
		_, _ = fmt.Fprintln(out, "Play counts reset")
		return nil
	}

	rows := Rows(store.Snapshot())
	if params.Top > 0 && len(rows) > params.Top {
		rows = rows[:params.Top]
	}

	if params.JSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "No plays recorded yet")
		return nil
	}

	t := tbl.NewWriter(out, tbl.TerminalWidth())
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Track", "Plays", "Weight", "Share"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Identity, r.Plays, fmt.Sprintf("%.4f", r.Weight), fmt.Sprintf("%.1f%%", r.Share*100)})
	}
	t.AppendFooter(table.Row{"Total", lo.SumBy(rows, func(r Row) int { return r.Plays }), "", ""})
	t.Render()
	return nil
}

// Rows orders counts by plays, most played first, and computes each
// track's selection weight and share of the total weight.
func Rows(counts map[string]int) []Row {
	rows := make([]Row, 0, len(counts))
	for id, n := range counts {
		rows = append(rows, Row{Identity: id, Plays: n, Weight: selector.Weight(n)})
	}
	slices.SortFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(b.Plays, a.Plays); c != 0 {
			return c
		}
		return cmp.Compare(a.Identity, b.Identity)
	})
	total := lo.SumBy(rows, func(r Row) float64 { return r.Weight })
	for i := range rows {
		if total > 0 {
			rows[i].Share = rows[i].Weight / total
		}
	}
	return rows
}
