package configure

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/common"
	"github.com/xlthimolx/djpult/cmd/common/config"
)

type Params struct {
	Set  []string `short:"s" optional:"true" help:"Set a value, as key=value (e.g. volume=0.8, music_dir=~/gym). Can be repeated."`
	Path bool     `optional:"true" help:"Print the config file path and exit."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "config",
		Short:       "Show or change settings",
		Long:        "Print the effective configuration, or change values with --set. Keys are the JSON names in the config file: music_dir, volume, misc_buckets, keep_previous, restricted_fade, gain_path, notify_warning.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, config.ConfigPath(), os.Stdout); err != nil {
				common.Fail("config", err)
			}
		},
	}.ToCobra()
}

func Run(params *Params, path string, out io.Writer) error {
	if params.Path {
		_, err := fmt.Fprintln(out, path)
		return err
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	for _, kv := range params.Set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", kv)
		}
		if err := cfg.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	if len(params.Set) > 0 {
		if err := config.SaveTo(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
