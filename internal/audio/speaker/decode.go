// Package speaker plays clips on the board's audio output.
// Only the daemon binary imports it, so the rest of the tree builds without
// the ALSA headers.
package speaker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

// decode opens and decodes a wav or mp3 file.
func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to open clip")
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		err = errors.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", filepath.Base(path))
	}

	return stream, format, nil
}
