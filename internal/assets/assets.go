// Package assets lists the playable clips in the audio directory.
package assets

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/sweeney/ember-trigger/internal/logic"
)

// List returns the names of regular files in dir whose extension matches ext
// (case-insensitive), sorted by name. Hidden files (including "._" resource
// forks left by macOS) are skipped. Non-matching files are skipped, not
// rejected. Returns an error wrapping logic.ErrNoClips if nothing matches.
func List(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read audio directory")
	}

	var clips []string
	for _, e := range entries {
		if !Matches(e.Name(), ext) {
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		clips = append(clips, e.Name())
	}

	if len(clips) == 0 {
		return nil, errors.Wrapf(logic.ErrNoClips, "no %s files in %s", ext, dir)
	}
	return clips, nil
}

// Matches reports whether name is a visible file with extension ext.
func Matches(name, ext string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return len(name) > len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}
