package session

import (
	"log/slog"
	"time"
)

const (
	FadeDuration = 1000 * time.Millisecond
	FadeSteps    = 30
	FadeInterval = FadeDuration / FadeSteps

	// levels at or below fadeFloor count as silent
	fadeFloor = 1e-6
)

// level is the volume path a fade runs on.
type level interface {
	get() float64
	set(v float64)
}

type gainLevel struct{ g GainControl }

func (l gainLevel) get() float64  { return l.g.Value() }
func (l gainLevel) set(v float64) { l.g.SetValue(v) }

type elementLevel struct {
	sink Sink
	log  *slog.Logger
}

func (l elementLevel) get() float64 { return l.sink.ElementVolume() }

func (l elementLevel) set(v float64) {
	if err := l.sink.SetElementVolume(v); err != nil {
		l.log.Warn("failed to set volume during fade", "error", err)
	}
}

type fadeTask struct {
	id     uint64
	level  level
	step   float64
	ticks  int
	gain   bool
	ticket Ticket
}

func (s *Session) startFadeLocked(l level, gain bool) {
	start := l.get()
	if start <= 0 {
		start = s.volume
	}
	if start <= 0 {
		start = 1
	}
	s.fadeSeq++
	f := &fadeTask{id: s.fadeSeq, level: l, step: start / FadeSteps, gain: gain}
	s.fade = f
	s.setStateLocked(StateFadingOut)
	f.ticket = s.scheduler.Every(FadeInterval, func() { s.fadeTick(f.id) })
}

func (s *Session) fadeTick(id uint64) {
	s.mu.Lock()
	defer s.unlock()

	f := s.fade
	if f == nil || f.id != id {
		return
	}
	f.ticks++
	next := f.level.get() - f.step
	if next > fadeFloor && f.ticks < FadeSteps {
		f.level.set(next)
		return
	}

	s.cancelFadeLocked()
	s.haltLocked()
	if f.gain {
		// restore the baseline for the next start, after the output is paused
		f.level.set(s.volume)
	}
	s.setStateLocked(StateIdle)
}

func (s *Session) cancelFadeLocked() {
	if s.fade == nil {
		return
	}
	s.fade.ticket.Cancel()
	s.fade = nil
}
