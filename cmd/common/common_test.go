package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir_HonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	if got := CacheDir(); got != filepath.Join("/tmp/xdg-cache", "djpult") {
		t.Errorf("CacheDir() = %q", got)
	}
}

func TestStateDir(t *testing.T) {
	t.Setenv("HOME", "/home/dj")
	if got := StateDir(); got != filepath.Join("/home/dj", ".djpult", "state") {
		t.Errorf("StateDir() = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/dj")
	tests := []struct {
		input string
		want  string
	}{
		{"~/music", filepath.Join("/home/dj", "music")},
		{"/abs/music", "/abs/music"},
		{"rel", "rel"},
		{"~", "~"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.input); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveMusicDir(t *testing.T) {
	argDir := t.TempDir()
	cfgDir := t.TempDir()
	file := filepath.Join(argDir, "track.mp3")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		arg, cfg   string
		want       string
		wantErrSub string
	}{
		{"argument wins", argDir, cfgDir, argDir, ""},
		{"config fallback", "", cfgDir, cfgDir, ""},
		{"missing folder", filepath.Join(argDir, "nope"), "", "", "music folder"},
		{"not a directory", file, "", "", "not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveMusicDir(tt.arg, tt.cfg)
			if tt.wantErrSub != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErrSub) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErrSub)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
