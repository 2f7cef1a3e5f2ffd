// Package output provides the audio sinks the playback session drives.
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
)

var (
	ErrReleased    = errors.New("playable reference released")
	ErrUnsupported = errors.New("unsupported audio format")
	ErrSuspended   = errors.New("audio output not initialized")
)

const defaultProgressInterval = 250 * time.Millisecond

// Resolver maps a handle back to the file it was allocated for.
type Resolver func(h catalog.Handle) (string, bool)

// Options configures a sink.
type Options struct {
	// Resolve turns item handles into paths. Without it Item.Path is used.
	Resolve Resolver
	// NoGain removes the persistent gain stage, leaving only the
	// per-source volume.
	NoGain           bool
	ProgressInterval time.Duration
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = defaultProgressInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) path(item catalog.Item) (string, error) {
	if o.Resolve == nil {
		return item.Path, nil
	}
	path, ok := o.Resolve(item.Handle)
	if !ok {
		return "", fmt.Errorf("%s: %w", item.Identity, ErrReleased)
	}
	return path, nil
}

// Decode opens path and decodes it by extension.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	default:
		err = fmt.Errorf("%s: %w", ext, ErrUnsupported)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &closeBoth{StreamSeekCloser: s, file: f}, format, nil
}

// closeBoth closes the underlying file too; flac and wav decoders leave it open.
type closeBoth struct {
	beep.StreamSeekCloser
	file *os.File
}

func (c *closeBoth) Close() error {
	err := c.StreamSeekCloser.Close()
	c.file.Close()
	return err
}

// Length returns the duration of the decoded stream.
func Length(s beep.StreamSeekCloser, format beep.Format) time.Duration {
	return format.SampleRate.D(s.Len())
}

// knob is a float read lock-free by the audio goroutine.
type knob struct {
	bits atomic.Uint64
}

func newKnob(v float64) *knob {
	k := &knob{}
	k.SetValue(v)
	return k
}

func (k *knob) Value() float64 {
	return math.Float64frombits(k.bits.Load())
}

func (k *knob) SetValue(v float64) {
	k.bits.Store(math.Float64bits(min(max(v, 0), 1)))
}

// amplify scales a stream by the element volume and, when present, the
// shared gain stage.
type amplify struct {
	beep.Streamer
	gain    *knob
	element *knob
}

func (a *amplify) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.Streamer.Stream(samples)
	factor := a.element.Value()
	if a.gain != nil {
		factor *= a.gain.Value()
	}
	for i := range samples[:n] {
		samples[i][0] *= factor
		samples[i][1] *= factor
	}
	return n, ok
}
