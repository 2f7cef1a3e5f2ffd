package session

import (
	"time"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

// Events are the notifications a sink delivers for the source it was
// loaded with. Sinks must deliver them from their own goroutines, never
// from inside a Sink method call.
type Events struct {
	OnReady    func(duration time.Duration)
	OnProgress func(position time.Duration)
	OnEnded    func()
}

// GainControl is a persistent gain stage between the source and the
// output. It outlives individual sources.
type GainControl interface {
	Value() float64
	SetValue(v float64)
}

// Sink is the single shared audio output.
type Sink interface {
	// Load replaces the current source with item and subscribes ev to it.
	Load(item catalog.Item, ev Events) error
	Play() error
	Pause()
	Rewind()

	// ElementVolume is the per-source volume, used when no gain stage exists.
	ElementVolume() float64
	SetElementVolume(v float64) error

	// Gain returns nil when the platform offers no gain stage.
	Gain() GainControl

	// Suspended reports whether the output pipeline must be resumed
	// before playback is audible.
	Suspended() bool
	Resume() error
}
