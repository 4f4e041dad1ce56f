package logic

// Rotator hands out clips in round-robin order.
type Rotator struct {
	clips []string
	idx   int
}

// NewRotator creates a rotator over a copy of clips.
// Returns ErrNoClips if clips is empty.
func NewRotator(clips []string) (*Rotator, error) {
	if len(clips) == 0 {
		return nil, ErrNoClips
	}
	return &Rotator{clips: append([]string(nil), clips...)}, nil
}

// Next returns the current clip and advances, wrapping at the end of the list.
func (r *Rotator) Next() string {
	clip := r.clips[r.idx]
	r.idx = (r.idx + 1) % len(r.clips)
	return clip
}

// Len returns the number of clips.
func (r *Rotator) Len() int {
	return len(r.clips)
}

// Clips returns a copy of the clip list.
func (r *Rotator) Clips() []string {
	return append([]string(nil), r.clips...)
}
