package session

import (
	"fmt"
	"time"
)

// WarningThreshold is the remaining time below which the warning flag is set.
const WarningThreshold = 10 * time.Second

// NowPlaying is the telemetry of the active track. The zero value is the
// neutral state shown when nothing plays.
type NowPlaying struct {
	Title    string
	Duration time.Duration // zero until the source reports it
	Position time.Duration
}

// DurationKnown reports whether the source has reported its length.
func (n NowPlaying) DurationKnown() bool {
	return n.Duration > 0
}

// Remaining returns the time left and whether it is known.
func (n NowPlaying) Remaining() (time.Duration, bool) {
	if !n.DurationKnown() {
		return 0, false
	}
	return max(n.Duration-n.Position, 0), true
}

// Warning reports whether the track is about to end.
func (n NowPlaying) Warning() bool {
	remaining, ok := n.Remaining()
	return ok && remaining < WarningThreshold
}

// RemainingText formats the remaining time for display.
func (n NowPlaying) RemainingText() string {
	remaining, ok := n.Remaining()
	return FormatClock(remaining, ok)
}

// FormatClock renders d as M:SS, or --:-- when the value is unknown.
func FormatClock(d time.Duration, known bool) string {
	if !known || d < 0 {
		return "--:--"
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
