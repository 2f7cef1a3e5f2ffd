package session

import (
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d     time.Duration
		known bool
		want  string
	}{
		{0, false, "--:--"},
		{time.Minute, false, "--:--"},
		{0, true, "0:00"},
		{9*time.Second + 900*time.Millisecond, true, "0:09"},
		{61 * time.Second, true, "1:01"},
		{12*time.Minute + 5*time.Second, true, "12:05"},
		{-time.Second, true, "--:--"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.d, tt.known); got != tt.want {
			t.Errorf("FormatClock(%v, %v) = %q, want %q", tt.d, tt.known, got, tt.want)
		}
	}
}

func TestNowPlaying_Warning(t *testing.T) {
	tests := []struct {
		name string
		np   NowPlaying
		want bool
	}{
		{"unknown duration", NowPlaying{Title: "x", Position: time.Hour}, false},
		{"plenty left", NowPlaying{Duration: time.Minute, Position: 20 * time.Second}, false},
		{"exactly threshold", NowPlaying{Duration: time.Minute, Position: 50 * time.Second}, false},
		{"below threshold", NowPlaying{Duration: time.Minute, Position: 51 * time.Second}, true},
		{"past the end", NowPlaying{Duration: time.Minute, Position: 2 * time.Minute}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.np.Warning(); got != tt.want {
				t.Errorf("Warning() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNowPlaying_Remaining(t *testing.T) {
	np := NowPlaying{Duration: 3 * time.Minute, Position: 45 * time.Second}
	if got := np.RemainingText(); got != "2:15" {
		t.Errorf("RemainingText = %s, want 2:15", got)
	}
	if got := (NowPlaying{Duration: time.Second, Position: time.Minute}).RemainingText(); got != "0:00" {
		t.Errorf("overrun RemainingText = %s, want 0:00", got)
	}
}
