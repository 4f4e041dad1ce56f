//go:build !linux || !cgo

package speaker

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sweeney/ember-trigger/internal/audio"
)

var errUnsupported = errors.New("speaker: not supported on this platform (requires Linux with cgo)")

// Speaker is not available without Linux and cgo.
type Speaker struct{}

// New returns an error without Linux and cgo.
func New(dir string, sampleRate int, buffer time.Duration) (*Speaker, error) {
	return nil, errUnsupported
}

// Play is not implemented without Linux and cgo.
func (s *Speaker) Play(clip string) (audio.Playback, error) {
	return nil, errUnsupported
}

// Close is not implemented without Linux and cgo.
func (s *Speaker) Close() error {
	return nil
}
