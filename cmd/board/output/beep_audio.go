//go:build (linux && cgo) || windows || darwin

package output

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/board/session"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// NewDefault returns the speaker-backed sink.
func NewDefault(opts Options) (session.Sink, error) {
	return NewBeep(opts), nil
}

// Beep plays through the system speaker. The speaker is initialized on
// Resume and stays initialized for the process lifetime.
type Beep struct {
	opts       Options
	sampleRate beep.SampleRate

	mu          sync.Mutex
	initialized bool
	gain        *knob
	element     *knob
	cur         *beepTrack
}

type beepTrack struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	ev       session.Events
	queued   bool
	done     chan struct{}
	once     sync.Once
}

// finish stops the progress ticker and suppresses the end callback.
func (t *beepTrack) finish() {
	t.once.Do(func() { close(t.done) })
}

// NewBeep creates a speaker sink. Call Resume before Play.
func NewBeep(opts Options) *Beep {
	opts = opts.withDefaults()
	b := &Beep{
		opts:       opts,
		sampleRate: beep.SampleRate(44100),
		element:    newKnob(1),
	}
	if !opts.NoGain {
		b.gain = newKnob(1)
	}
	return b
}

func (b *Beep) Load(item catalog.Item, ev session.Events) error {
	path, err := b.opts.path(item)
	if err != nil {
		return err
	}
	streamer, format, err := Decode(path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()

	resampled := beep.Resample(4, format.SampleRate, b.sampleRate, streamer)
	b.cur = &beepTrack{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: resampled, Paused: true},
		ev:       ev,
		done:     make(chan struct{}),
	}
	if ev.OnReady != nil {
		go ev.OnReady(Length(streamer, format))
	}
	return nil
}

// releaseLocked removes the current source from the speaker and closes it.
func (b *Beep) releaseLocked() {
	t := b.cur
	if t == nil {
		return
	}
	t.finish()
	if b.initialized {
		speaker.Clear()
	}
	speaker.Lock()
	t.streamer.Close()
	speaker.Unlock()
	b.cur = nil
}

func (b *Beep) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrSuspended
	}
	t := b.cur
	if t == nil {
		return nil
	}
	if !t.queued {
		t.queued = true
		out := &amplify{Streamer: t.ctrl, gain: b.gain, element: b.element}
		speaker.Play(beep.Seq(out, beep.Callback(func() {
			select {
			case <-t.done:
				return
			default:
			}
			t.finish()
			if t.ev.OnEnded != nil {
				// the callback runs with the speaker locked
				go t.ev.OnEnded()
			}
		})))
		go b.progress(t)
	}

	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (b *Beep) progress(t *beepTrack) {
	ticker := time.NewTicker(b.opts.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			speaker.Lock()
			pos := t.format.SampleRate.D(t.streamer.Position())
			paused := t.ctrl.Paused
			speaker.Unlock()
			if !paused && t.ev.OnProgress != nil {
				t.ev.OnProgress(pos)
			}
		}
	}
}

func (b *Beep) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur == nil {
		return
	}
	speaker.Lock()
	b.cur.ctrl.Paused = true
	speaker.Unlock()
}

func (b *Beep) Rewind() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur == nil {
		return
	}
	speaker.Lock()
	defer speaker.Unlock()
	if err := b.cur.streamer.Seek(0); err != nil {
		b.opts.Logger.Warn("failed to rewind", "error", err)
	}
}

func (b *Beep) ElementVolume() float64 { return b.element.Value() }

func (b *Beep) SetElementVolume(v float64) error {
	b.element.SetValue(v)
	return nil
}

func (b *Beep) Gain() session.GainControl {
	if b.gain == nil {
		return nil
	}
	return b.gain
}

func (b *Beep) Suspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.initialized
}

func (b *Beep) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	if err := speaker.Init(b.sampleRate, b.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	b.initialized = true
	return nil
}

// Close releases the current source.
func (b *Beep) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}
