package strip

import "github.com/sweeney/ember-trigger/internal/logic"

// Fake records every frame shown.
type Fake struct {
	// Frames contains a copy of every frame passed to Show.
	Frames [][]logic.Color

	// OnShow, if set, is called with each frame before it is recorded.
	OnShow func(pix []logic.Color)

	// ShowError, if set, will be returned by Show.
	ShowError error

	Closed bool

	n int
}

var _ Strip = (*Fake)(nil)

// NewFake creates a fake strip of n pixels.
func NewFake(n int) *Fake {
	return &Fake{n: n}
}

func (f *Fake) Len() int { return f.n }

// Show records a copy of pix.
func (f *Fake) Show(pix []logic.Color) error {
	if f.ShowError != nil {
		return f.ShowError
	}
	if err := checkLen(f.n, pix); err != nil {
		return err
	}
	if f.OnShow != nil {
		f.OnShow(pix)
	}
	f.Frames = append(f.Frames, append([]logic.Color(nil), pix...))
	return nil
}

// Last returns the most recent frame, or nil.
func (f *Fake) Last() []logic.Color {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}

// Close marks the strip as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
