package board

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/playcount"
	"github.com/xlthimolx/djpult/cmd/board/selector"
	"github.com/xlthimolx/djpult/cmd/board/session"
)

var (
	ErrNothingAvailable = errors.New("nothing available")
	ErrNotStarted       = errors.New("playback did not start, see log")
	ErrMissingSlot      = errors.New("special track missing")
)

// MissingSlotError names a special slot that has no track.
type MissingSlotError struct {
	Slot string
}

func (e *MissingSlotError) Error() string {
	return fmt.Sprintf("no %s track loaded", e.Slot)
}

func (e *MissingSlotError) Is(target error) bool {
	return target == ErrMissingSlot
}

// Pool names a random-selection pool.
type Pool int

const (
	PoolAttack Pool = iota
	PoolOpponent
)

func (p Pool) String() string {
	if p == PoolOpponent {
		return "opponent"
	}
	return "attack"
}

// Deck ties the catalog, counts, selector and session together. It is the
// only thing the view layer talks to.
type Deck struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	dir     string

	builder  *catalog.Builder
	store    *playcount.Store
	selector *selector.Selector
	session  *session.Session
	log      *slog.Logger
}

// DeckOptions holds the collaborators of a Deck.
type DeckOptions struct {
	Builder  *catalog.Builder
	Store    *playcount.Store
	Selector *selector.Selector
	Session  *session.Session
	Logger   *slog.Logger
}

// NewDeck creates a deck with an empty catalog.
func NewDeck(opts DeckOptions) *Deck {
	if opts.Selector == nil {
		opts.Selector = selector.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Deck{
		catalog:  opts.Builder.Classify(nil),
		builder:  opts.Builder,
		store:    opts.Store,
		selector: opts.Selector,
		session:  opts.Session,
		log:      opts.Logger,
	}
}

// Load scans dir and replaces the catalog.
func (d *Deck) Load(dir string) error {
	files, err := catalog.Scan(dir)
	if err != nil {
		return err
	}
	d.LoadFiles(files)
	d.mu.Lock()
	d.dir = dir
	d.mu.Unlock()
	return nil
}

// LoadFiles classifies files into a fresh catalog.
func (d *Deck) LoadFiles(files []catalog.RawFile) *catalog.Catalog {
	c := d.builder.Classify(files)
	d.mu.Lock()
	d.catalog = c
	d.mu.Unlock()
	d.log.Info("catalog loaded", "generation", c.Generation, "items", c.Len(), "files", len(files))
	return c
}

// Dir returns the folder of the last successful Load.
func (d *Deck) Dir() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dir
}

// Catalog returns the current catalog.
func (d *Deck) Catalog() *catalog.Catalog {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog
}

// Play starts item.
func (d *Deck) Play(item catalog.Item) error {
	if !d.session.Play(item) {
		return ErrNotStarted
	}
	return nil
}

// PlayRandom picks from pool weighted by play counts and starts the pick.
func (d *Deck) PlayRandom(pool Pool) (catalog.Item, error) {
	c := d.Catalog()
	items := selector.AttackPool(c)
	if pool == PoolOpponent {
		items = selector.OpponentPool(c)
	}
	if len(items) == 0 {
		return catalog.Item{}, fmt.Errorf("%s pool: %w", pool, ErrNothingAvailable)
	}
	item, err := d.selector.PickFrom(items, d.store)
	if err != nil {
		return catalog.Item{}, err
	}
	return item, d.Play(item)
}

// PlaySpecial starts a special slot. ordinal selects the pause track.
func (d *Deck) PlaySpecial(kind catalog.Special, ordinal int) (catalog.Item, error) {
	c := d.Catalog()
	var (
		item *catalog.Item
		name = kind.String()
	)
	switch kind {
	case catalog.Timeout:
		item = c.Timeout
	case catalog.WalkOn:
		item = c.WalkOn
	case catalog.Pause:
		name = fmt.Sprintf("Pause %d", ordinal)
		if p, ok := c.PauseTrack(ordinal); ok {
			item = &p
		}
	}
	if item == nil {
		return catalog.Item{}, &MissingSlotError{Slot: name}
	}
	return *item, d.Play(*item)
}

// Stop ends playback, fading unless force is set.
func (d *Deck) Stop(force bool) {
	d.session.Stop(force)
}

// AdjustVolume changes the volume by delta and returns the new level.
func (d *Deck) AdjustVolume(delta float64) float64 {
	d.session.SetVolume(d.session.Volume() + delta)
	return d.session.Volume()
}

// SetVolume sets the volume.
func (d *Deck) SetVolume(v float64) {
	d.session.SetVolume(v)
}

// Status returns the session status.
func (d *Deck) Status() session.Status {
	return d.session.Status()
}

// Counts returns a snapshot of the play counts.
func (d *Deck) Counts() map[string]int {
	return d.store.Snapshot()
}

// PlayCount returns the plays of one identity.
func (d *Deck) PlayCount(identity string) int {
	return d.store.Get(identity)
}

// ResetCounts clears every play count.
func (d *Deck) ResetCounts() {
	d.store.ResetAll()
	d.log.Info("play counts reset")
}

// Close stops playback and waits for pending count writes.
func (d *Deck) Close() {
	d.session.Stop(true)
	d.store.Flush()
}
