// Package playcount keeps the per-track play counter that drives weighted
// selection and the heatmap. Counts survive restarts through a KV store.
package playcount

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"sync"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

// StorageKey is the fixed key the counter map is stored under.
const StorageKey = "djpult-play-counts"

// Store maps track identity to play count.
type Store struct {
	mu     sync.RWMutex
	counts map[string]int
	kv     KV
	log    *slog.Logger

	// seq orders snapshots so a slow older write never lands after a newer one
	seq     uint64
	writeMu sync.Mutex
	written uint64
	pending sync.WaitGroup
}

// New creates an empty store backed by kv. Call Load to read persisted counts.
func New(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		counts: make(map[string]int),
		kv:     kv,
		log:    logger,
	}
}

// Load replaces the in-memory counts with the persisted ones. Absent or
// corrupt data leaves the store empty.
func (s *Store) Load() {
	counts := make(map[string]int)
	data, err := s.kv.Get(StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		s.log.Warn("failed to read play counts, starting empty", "error", err)
	default:
		if err := json.Unmarshal(data, &counts); err != nil {
			s.log.Warn("corrupt play counts, starting empty", "error", err)
			counts = make(map[string]int)
		}
	}
	for id, n := range counts {
		if n < 0 {
			delete(counts, id)
		}
	}

	s.mu.Lock()
	s.counts = counts
	s.mu.Unlock()
}

// Get returns the play count of identity, 0 when never played.
func (s *Store) Get(identity string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[identity]
}

// Increment bumps the count of identity by one and persists in the background.
func (s *Store) Increment(identity string) {
	s.mu.Lock()
	s.counts[identity]++
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.persist(snap, seq)
}

// RecordPlay increments the count of item if its category is counted.
// It reports whether the count changed.
func (s *Store) RecordPlay(item catalog.Item) bool {
	if !item.Counted() {
		return false
	}
	s.Increment(item.Identity)
	return true
}

// ResetAll clears every count.
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.counts = make(map[string]int)
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.persist(snap, seq)
}

// Snapshot returns a copy of the current counts.
func (s *Store) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.counts)
}

// Flush blocks until every scheduled write has finished.
func (s *Store) Flush() {
	s.pending.Wait()
}

func (s *Store) snapshotLocked() (map[string]int, uint64) {
	s.seq++
	return maps.Clone(s.counts), s.seq
}

// persist writes snap without blocking the caller. Failures are logged;
// the in-memory counts stay authoritative.
func (s *Store) persist(snap map[string]int, seq uint64) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		if seq <= s.written {
			return
		}
		data, err := json.Marshal(snap)
		if err != nil {
			s.log.Warn("failed to encode play counts", "error", err)
			return
		}
		if err := s.kv.Set(StorageKey, data); err != nil {
			s.log.Warn("failed to persist play counts", "error", err)
			return
		}
		s.written = seq
	}()
}
