// Package audio plays clips from the asset directory.
package audio

import "strings"

// Player starts clip playback. Only one clip plays at a time.
type Player interface {
	// Play opens, decodes and starts the named clip.
	// It returns once playback has started.
	Play(clip string) (Playback, error)
}

// Playback is a clip that was started by a Player.
type Playback interface {
	// IsPlaying reports whether the clip is still playing.
	IsPlaying() bool
}

// Supported reports whether ext (with leading dot, any case) can be decoded.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".wav", ".mp3":
		return true
	}
	return false
}
