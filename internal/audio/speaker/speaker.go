//go:build linux && cgo

package speaker

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	beepspeaker "github.com/faiface/beep/speaker"
	"github.com/pkg/errors"

	"github.com/sweeney/ember-trigger/internal/audio"
)

// resampleQuality is passed to beep.Resample when a clip's sample rate
// differs from the speaker's.
const resampleQuality = 4

// Speaker plays clips through the default audio output.
type Speaker struct {
	dir  string
	rate beep.SampleRate
}

var _ audio.Player = (*Speaker)(nil)

// New initializes the audio output at sampleRate with the given buffer
// length and plays clips from dir.
func New(dir string, sampleRate int, buffer time.Duration) (*Speaker, error) {
	rate := beep.SampleRate(sampleRate)
	if err := beepspeaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker")
	}
	return &Speaker{dir: dir, rate: rate}, nil
}

// Play decodes dir/clip and queues it on the speaker.
func (s *Speaker) Play(clip string) (audio.Playback, error) {
	stream, format, err := decode(filepath.Join(s.dir, clip))
	if err != nil {
		return nil, err
	}

	var src beep.Streamer = stream
	if format.SampleRate != s.rate {
		src = beep.Resample(resampleQuality, format.SampleRate, s.rate, stream)
	}

	pb := &playback{}
	pb.playing.Store(true)
	beepspeaker.Play(beep.Seq(src, beep.Callback(func() {
		stream.Close()
		pb.playing.Store(false)
	})))

	return pb, nil
}

// Close stops playback and releases the audio device.
func (s *Speaker) Close() error {
	beepspeaker.Close()
	return nil
}

type playback struct {
	playing atomic.Bool
}

func (p *playback) IsPlaying() bool {
	return p.playing.Load()
}
