package output

import (
	"sync"
	"time"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/session"
)

// Silent is a sink without sound. It decodes each source for its length
// and replays the timeline on a clock, so telemetry and natural ends work
// on machines without an audio device.
type Silent struct {
	opts Options

	mu      sync.Mutex
	gain    *knob
	element *knob
	cur     *silentTrack
}

type silentTrack struct {
	ev      session.Events
	length  time.Duration
	pos     time.Duration
	running chan struct{} // closed to stop the clock, nil while paused
}

// NewSilent creates a silent sink.
func NewSilent(opts Options) *Silent {
	opts = opts.withDefaults()
	s := &Silent{opts: opts, element: newKnob(1)}
	if !opts.NoGain {
		s.gain = newKnob(1)
	}
	return s
}

func (s *Silent) Load(item catalog.Item, ev session.Events) error {
	path, err := s.opts.path(item)
	if err != nil {
		return err
	}
	stream, format, err := Decode(path)
	if err != nil {
		return err
	}
	length := Length(stream, format)
	stream.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	s.cur = &silentTrack{ev: ev, length: length}
	if ev.OnReady != nil {
		go ev.OnReady(length)
	}
	return nil
}

func (s *Silent) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.cur
	if t == nil || t.running != nil {
		return nil
	}
	t.running = make(chan struct{})
	go s.clock(t, t.running)
	return nil
}

func (s *Silent) clock(t *silentTrack, stop chan struct{}) {
	ticker := time.NewTicker(s.opts.ProgressInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			if t.running != stop {
				s.mu.Unlock()
				return
			}
			t.pos += now.Sub(last)
			last = now
			pos, ended := t.pos, t.pos >= t.length
			if ended {
				t.pos = t.length
				t.running = nil
			}
			s.mu.Unlock()

			if t.ev.OnProgress != nil {
				t.ev.OnProgress(min(pos, t.length))
			}
			if ended {
				if t.ev.OnEnded != nil {
					t.ev.OnEnded()
				}
				return
			}
		}
	}
}

func (s *Silent) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
}

func (s *Silent) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		s.cur.pos = 0
	}
}

func (s *Silent) stopClockLocked() {
	if s.cur != nil && s.cur.running != nil {
		close(s.cur.running)
		s.cur.running = nil
	}
}

func (s *Silent) ElementVolume() float64 { return s.element.Value() }

func (s *Silent) SetElementVolume(v float64) error {
	s.element.SetValue(v)
	return nil
}

func (s *Silent) Gain() session.GainControl {
	if s.gain == nil {
		return nil
	}
	return s.gain
}

func (s *Silent) Suspended() bool { return false }

func (s *Silent) Resume() error { return nil }

// Position returns the clock position of the current source.
func (s *Silent) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return 0
	}
	return s.cur.pos
}
