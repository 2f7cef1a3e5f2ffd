package common

import (
	"os"
	"path/filepath"
)

const appName = "djpult"

func CacheDir() string {
	return filepath.Join(cacheHome(), appName)
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func cacheHome() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".cache")
	}
	return dir
}

// HomeDir returns ~/.djpult, where the config file and persisted state live.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+appName)
}

// StateDir returns the directory of the play-count store.
func StateDir() string {
	return filepath.Join(HomeDir(), "state")
}
