//go:build !((linux && cgo) || windows || darwin)

package output

import "github.com/xlthimolx/djpult/cmd/board/session"

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// NewDefault returns a silent sink; the board works but without sound.
func NewDefault(opts Options) (session.Sink, error) {
	return NewSilent(opts), nil
}
