// Package session owns the single audio output of the soundboard and
// mediates every start, stop and fade on it.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

// State is the playback state of the session.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StatePlaying   State = "playing"
	StateFadingOut State = "fading_out"
	StateStopped   State = "stopped" // transient, always followed by idle
)

// Counter records successful play starts.
type Counter interface {
	RecordPlay(item catalog.Item) bool
}

// Options configures a Session.
type Options struct {
	// NewSink creates the shared output on first need. It is called
	// again only if a previous call failed.
	NewSink   func() (Sink, error)
	Scheduler Scheduler
	Counter   Counter
	Logger    *slog.Logger

	// RestrictedFade marks platforms where element volume cannot be
	// changed live. Without a gain stage they stop without fading.
	RestrictedFade bool

	// OnChange is called after every state or telemetry change, outside
	// the session lock.
	OnChange func(Status)
}

// Status is a snapshot of the session.
type Status struct {
	State      State
	Item       catalog.Item // zero value when nothing is active
	Active     bool
	Volume     float64
	NowPlaying NowPlaying
}

// Session is the playback state machine. All methods are safe for
// concurrent use; sink callbacks and fade ticks serialize on the same lock.
type Session struct {
	mu sync.Mutex

	newSink    func() (Sink, error)
	sink       Sink
	scheduler  Scheduler
	counter    Counter
	log        *slog.Logger
	restricted bool
	onChange   func(Status)

	state  State
	volume float64
	active *catalog.Item
	now    NowPlaying

	// playbackID tags sink subscriptions so callbacks of superseded
	// sources are ignored
	playbackID uint64

	// fadeSeq is bumped for every fade so queued ticks of a cancelled
	// fade do nothing
	fadeSeq uint64
	fade    *fadeTask

	pending []Status
}

// New creates an idle session at full volume.
func New(opts Options) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		newSink:    opts.NewSink,
		scheduler:  opts.Scheduler,
		counter:    opts.Counter,
		log:        opts.Logger,
		restricted: opts.RestrictedFade,
		onChange:   opts.OnChange,
		state:      StateIdle,
		volume:     1,
	}
}

// Play starts item from the beginning, replacing whatever plays. Failures
// are logged and leave the session idle; the result reports whether
// playback started.
func (s *Session) Play(item catalog.Item) bool {
	s.mu.Lock()
	defer s.unlock()

	s.cancelFadeLocked()

	sink, err := s.sinkLocked()
	if err != nil {
		s.log.Error("audio output unavailable", "error", err)
		s.clearLocked()
		s.setStateLocked(StateIdle)
		return false
	}

	s.clearLocked()
	s.playbackID++
	id := s.playbackID
	s.setStateLocked(StateLoading)

	sink.Pause()
	sink.Rewind()
	if err := sink.Load(item, s.eventsFor(id)); err != nil {
		s.log.Error("failed to load track", "track", item.Identity, "error", err)
		s.clearLocked()
		s.setStateLocked(StateIdle)
		return false
	}
	s.applyVolumeLocked()

	if sink.Suspended() {
		if err := sink.Resume(); err != nil {
			s.log.Warn("failed to resume audio output", "error", err)
		}
	}
	if err := sink.Play(); err != nil {
		s.log.Error("playback blocked or failed", "track", item.Identity, "error", err)
		s.clearLocked()
		s.setStateLocked(StateIdle)
		return false
	}

	s.active = &item
	s.now = NowPlaying{Title: item.DisplayName}
	if s.counter != nil {
		s.counter.RecordPlay(item)
	}
	s.log.Debug("playing", "track", item.Identity, "volume", s.volume)
	s.setStateLocked(StatePlaying)
	return true
}

// Stop ends the active track. Unless forceImmediate is set it fades out
// through the gain stage, or through the element volume when there is no
// gain stage and the platform allows it. No-op when nothing is active.
func (s *Session) Stop(forceImmediate bool) {
	s.mu.Lock()
	defer s.unlock()

	if s.active == nil || s.sink == nil {
		return
	}
	s.cancelFadeLocked()

	switch {
	case !forceImmediate && s.sink.Gain() != nil:
		s.startFadeLocked(gainLevel{s.sink.Gain()}, true)
	case !forceImmediate && !s.restricted:
		s.startFadeLocked(elementLevel{sink: s.sink, log: s.log}, false)
	default:
		s.haltLocked()
		s.setStateLocked(StateStopped)
		s.setStateLocked(StateIdle)
	}
}

// SetVolume sets the baseline volume, clamped to [0,1], and applies it to
// the live output. During a fade the live level is only ever lowered.
func (s *Session) SetVolume(v float64) {
	v = min(max(v, 0), 1)

	s.mu.Lock()
	defer s.unlock()

	s.volume = v
	switch {
	case s.fade != nil:
		if v < s.fade.level.get() {
			s.fade.level.set(v)
		}
	case s.sink != nil:
		s.applyVolumeLocked()
	}
	s.emitLocked()
}

// Volume returns the baseline volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{State: s.state, Volume: s.volume, NowPlaying: s.now}
	if s.active != nil {
		st.Item = *s.active
		st.Active = true
	}
	return st
}

func (s *Session) sinkLocked() (Sink, error) {
	if s.sink != nil {
		return s.sink, nil
	}
	sink, err := s.newSink()
	if err != nil {
		return nil, err
	}
	s.sink = sink
	return sink, nil
}

func (s *Session) applyVolumeLocked() {
	if gain := s.sink.Gain(); gain != nil {
		gain.SetValue(s.volume)
		return
	}
	if err := s.sink.SetElementVolume(s.volume); err != nil {
		s.log.Warn("failed to set volume", "error", err)
	}
}

func (s *Session) eventsFor(id uint64) Events {
	return Events{
		OnReady:    func(d time.Duration) { s.onReady(id, d) },
		OnProgress: func(p time.Duration) { s.onProgress(id, p) },
		OnEnded:    func() { s.onEnded(id) },
	}
}

func (s *Session) current(id uint64) bool {
	return id == s.playbackID && s.active != nil
}

func (s *Session) onReady(id uint64, d time.Duration) {
	s.mu.Lock()
	defer s.unlock()
	if !s.current(id) {
		return
	}
	s.now.Duration = d
	s.emitLocked()
}

func (s *Session) onProgress(id uint64, p time.Duration) {
	s.mu.Lock()
	defer s.unlock()
	if !s.current(id) {
		return
	}
	s.now.Position = p
	s.emitLocked()
}

func (s *Session) onEnded(id uint64) {
	s.mu.Lock()
	defer s.unlock()
	if !s.current(id) {
		return
	}
	s.log.Debug("track ended", "track", s.active.Identity)
	s.cancelFadeLocked()
	s.clearLocked()
	s.setStateLocked(StateIdle)
}

// haltLocked pauses and rewinds the output and forgets the active track.
func (s *Session) haltLocked() {
	s.sink.Pause()
	s.sink.Rewind()
	s.clearLocked()
}

func (s *Session) clearLocked() {
	s.active = nil
	s.now = NowPlaying{}
	s.playbackID++
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	s.emitLocked()
}

func (s *Session) emitLocked() {
	if s.onChange != nil {
		s.pending = append(s.pending, s.statusLocked())
	}
}

// unlock releases the lock and delivers queued status changes.
func (s *Session) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, st := range pending {
		s.onChange(st)
	}
}
