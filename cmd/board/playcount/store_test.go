package playcount

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingKV struct{}

func (failingKV) Get(string) ([]byte, error) { return nil, errors.New("storage unavailable") }
func (failingKV) Set(string, []byte) error   { return errors.New("quota exceeded") }

func TestIncrementThenGet(t *testing.T) {
	s := New(NewMemoryKV(), quietLogger())
	if got := s.Get("Foo_HIT.mp3"); got != 0 {
		t.Fatalf("Get on empty store = %d, want 0", got)
	}
	s.Increment("Foo_HIT.mp3")
	s.Increment("Foo_HIT.mp3")
	if got := s.Get("Foo_HIT.mp3"); got != 2 {
		t.Errorf("Get = %d, want 2", got)
	}
}

func TestPersistAndReload(t *testing.T) {
	kv := FileKV{Dir: t.TempDir()}
	s := New(kv, quietLogger())
	for _, id := range []string{"a.mp3", "b.mp3", "a.mp3", "c.mp3", "a.mp3"} {
		s.Increment(id)
	}
	s.Flush()

	reloaded := New(kv, quietLogger())
	reloaded.Load()
	want := s.Snapshot()
	got := reloaded.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("reloaded %v, want %v", got, want)
	}
	for id, n := range want {
		if got[id] != n {
			t.Errorf("reloaded[%s] = %d, want %d", id, got[id], n)
		}
	}
}

func TestRecordPlaySkipsComedic(t *testing.T) {
	s := New(NewMemoryKV(), quietLogger())
	fun := catalog.Item{Identity: "Die Maus_FUN.flac", Category: catalog.Comedic}
	hit := catalog.Item{Identity: "Sandstorm_HIT.mp3", Category: catalog.PrimaryAttack}
	walkon := catalog.Item{Identity: "In_WALKON.mp3", Category: catalog.NoCategory, Special: catalog.WalkOn}

	for i := 0; i < 5; i++ {
		if s.RecordPlay(fun) {
			t.Fatal("RecordPlay counted a comedic item")
		}
	}
	if got := s.Get(fun.Identity); got != 0 {
		t.Errorf("comedic count = %d, want 0", got)
	}
	if !s.RecordPlay(hit) || s.Get(hit.Identity) != 1 {
		t.Errorf("primary attack count = %d, want 1", s.Get(hit.Identity))
	}
	if !s.RecordPlay(walkon) {
		t.Error("special slot item not counted")
	}
}

func TestResetAll(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv, quietLogger())
	s.Increment("a")
	s.ResetAll()
	s.Flush()
	if s.Get("a") != 0 || len(s.Snapshot()) != 0 {
		t.Errorf("counts after reset = %v", s.Snapshot())
	}

	reloaded := New(kv, quietLogger())
	reloaded.Load()
	if len(reloaded.Snapshot()) != 0 {
		t.Errorf("persisted counts after reset = %v", reloaded.Snapshot())
	}
}

func TestLoadCorruptOrAbsent(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"absent", nil},
		{"garbage", []byte("{not json")},
		{"wrong shape", []byte(`["a","b"]`)},
		{"empty", []byte("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			if tt.data != nil {
				_ = kv.Set(StorageKey, tt.data)
			}
			s := New(kv, quietLogger())
			s.counts["stale"] = 1
			s.Load()
			if got := len(s.Snapshot()); got != 0 {
				t.Errorf("after Load counts = %v, want empty", s.Snapshot())
			}
		})
	}
}

func TestLoadDropsNegativeCounts(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(StorageKey, []byte(`{"a":3,"b":-2}`))
	s := New(kv, quietLogger())
	s.Load()
	if s.Get("a") != 3 || s.Get("b") != 0 {
		t.Errorf("loaded %v", s.Snapshot())
	}
}

func TestWriteFailureDoesNotBlockOrPanic(t *testing.T) {
	s := New(failingKV{}, quietLogger())
	s.Load()
	s.Increment("a")
	s.Increment("a")
	s.Flush()
	if got := s.Get("a"); got != 2 {
		t.Errorf("in-memory count = %d, want 2 despite storage failure", got)
	}
}

func TestLatestSnapshotWins(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv, quietLogger())
	for i := 0; i < 50; i++ {
		s.Increment("a")
	}
	s.Flush()

	reloaded := New(kv, quietLogger())
	reloaded.Load()
	if got := reloaded.Get("a"); got != 50 {
		t.Errorf("persisted count = %d, want 50", got)
	}
}

func TestFileKV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	kv := FileKV{Dir: dir}
	if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing err = %v, want ErrNotFound", err)
	}
	if err := kv.Set("k", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := kv.Get("k")
	if err != nil || string(data) != `{"x":1}` {
		t.Errorf("Get = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "k.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
