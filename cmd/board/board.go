// Package board is the interactive soundboard: a terminal grid of category
// columns with single-key playback, fade-out and a now-playing countdown.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/output"
	"github.com/xlthimolx/djpult/cmd/board/playcount"
	"github.com/xlthimolx/djpult/cmd/board/selector"
	"github.com/xlthimolx/djpult/cmd/board/session"
	"github.com/xlthimolx/djpult/cmd/common"
	"github.com/xlthimolx/djpult/cmd/common/config"
	"golang.org/x/term"
)

type Params struct {
	Dir            string  `pos:"true" optional:"true" help:"Music folder. Defaults to music_dir from the config, then the current directory."`
	Volume         float64 `short:"v" optional:"true" help:"Start volume between 0 and 1. Negative uses the configured volume." default:"-1"`
	MiscBuckets    int     `optional:"true" help:"Round-robin buckets for untagged files (2 or 3). 0 uses the config." default:"0"`
	KeepPrevious   bool    `optional:"true" help:"Keep playable references of replaced catalogs alive."`
	RestrictedFade bool    `optional:"true" help:"Stop without fading when no gain stage is available."`
	NoGain         bool    `optional:"true" help:"Disable the gain stage and fade the source volume instead."`
	Notify         bool    `optional:"true" help:"Desktop notification when the playing track is about to end."`
	NoWatch        bool    `optional:"true" help:"Do not reload the catalog when the folder changes."`
	Silent         bool    `optional:"true" help:"Run without audio output."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "board",
		Short:       "Open the soundboard",
		Long:        "Open the interactive soundboard for a music folder. Files are sorted into columns by their filename tags and played on a single shared output.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params); err != nil {
				common.Fail("board", err)
			}
		},
	}.ToCobra()
}

// apply folds command-line overrides into cfg.
func (p *Params) apply(cfg *config.Config) {
	if p.Volume >= 0 {
		cfg.Volume = min(p.Volume, 1)
	}
	if p.MiscBuckets != 0 {
		cfg.MiscBuckets = p.MiscBuckets
	}
	if p.KeepPrevious {
		cfg.KeepPrevious = true
	}
	if p.RestrictedFade {
		cfg.RestrictedFade = true
	}
	if p.NoGain {
		cfg.GainPath = false
	}
	if p.Notify {
		cfg.NotifyWarning = true
	}
}

// Setup holds what is needed to assemble a deck.
type Setup struct {
	Config *config.Config
	KV     playcount.KV
	Logger *slog.Logger
	Silent bool
}

// Open assembles a deck from cfg: handle registry, builder, play-count
// store, selector and a session over the default output.
func Open(s Setup) *Deck {
	cfg := s.Config
	registry := catalog.NewRegistry()
	store := playcount.New(s.KV, s.Logger)
	store.Load()

	outOpts := output.Options{
		Resolve: registry.Resolve,
		NoGain:  !cfg.GainPath,
		Logger:  s.Logger,
	}
	newSink := func() (session.Sink, error) { return output.NewDefault(outOpts) }
	if s.Silent {
		newSink = func() (session.Sink, error) { return output.NewSilent(outOpts), nil }
	}

	sess := session.New(session.Options{
		NewSink:        newSink,
		Counter:        store,
		Logger:         s.Logger,
		RestrictedFade: cfg.RestrictedFade,
	})
	sess.SetVolume(cfg.Volume)

	return NewDeck(DeckOptions{
		Builder: catalog.NewBuilder(registry, catalog.BuilderOptions{
			MiscBuckets:  cfg.MiscBuckets,
			KeepPrevious: cfg.KeepPrevious,
		}),
		Store:    store,
		Selector: selector.New(nil),
		Session:  sess,
		Logger:   s.Logger,
	})
}

func Run(params *Params) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the soundboard needs an interactive terminal")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	params.apply(cfg)

	dir, err := common.ResolveMusicDir(params.Dir, cfg.MusicDir)
	if err != nil {
		return err
	}

	// The screen belongs to the board, logs go to a file
	logger, logFile := common.FileLogger("board.log", slog.LevelInfo)
	defer logFile.Close()
	slog.SetDefault(logger)

	silent := params.Silent || !output.AudioAvailable
	if !output.AudioAvailable && !params.Silent {
		fmt.Fprintln(os.Stderr, "board: audio is not available in this build, running silent")
	}

	deck := Open(Setup{
		Config: cfg,
		KV:     playcount.FileKV{Dir: common.StateDir()},
		Logger: logger,
		Silent: silent,
	})
	defer deck.Close()

	if err := deck.Load(dir); err != nil {
		return err
	}

	var watcher *folderWatcher
	if !params.NoWatch {
		watcher, err = newFolderWatcher(dir)
		if err != nil {
			logger.Warn("folder watch unavailable", "dir", dir, "error", err)
			watcher = nil
		}
		defer watcher.Close()
	}

	var notifier Notifier
	if cfg.NotifyWarning {
		notifier = DesktopNotifier()
	}

	p := tea.NewProgram(newModel(deck, watcher, notifier), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running soundboard: %w", err)
	}
	return nil
}
