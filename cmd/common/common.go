package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GiGurra/boa/pkg/boa"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// Fail reports err for the named command and exits.
func Fail(cmd string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
	os.Exit(1)
}

// ResolveMusicDir picks the folder to load: the argument if given, else the
// configured folder, else the working directory.
func ResolveMusicDir(arg, configured string) (string, error) {
	dir := arg
	if dir == "" {
		dir = configured
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(ExpandHome(dir))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("music folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("music folder: %s is not a directory", abs)
	}
	return abs, nil
}

// ExpandHome replaces a leading ~/ with the home directory.
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// FileLogger returns a logger writing to name inside the cache directory,
// for commands that own the terminal. The returned closer is never nil.
func FileLogger(name string, level slog.Level) (*slog.Logger, io.Closer) {
	dir := CacheDir()
	if err := os.MkdirAll(dir, 0o750); err == nil {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil)
}
