package audio

import "time"

// FakePlayer is a test double that plays nothing.
type FakePlayer struct {
	// Played contains every clip passed to Play, including failed ones.
	Played []string

	// Polls is how many IsPlaying calls report true before a playback ends.
	Polls int

	// Errors maps clip names to the error Play returns for them.
	Errors map[string]error

	// OnPoll, if set, is called on every IsPlaying call while the clip is
	// still playing.
	OnPoll func(clip string)

	// Started records when each successful playback started, if Now is set.
	Now     func() time.Time
	Started []time.Time
}

var _ Player = (*FakePlayer)(nil)

// NewFakePlayer creates a FakePlayer whose clips play for polls polls.
func NewFakePlayer(polls int) *FakePlayer {
	return &FakePlayer{Polls: polls}
}

// Play records clip and returns a playback that ends after Polls polls.
func (f *FakePlayer) Play(clip string) (Playback, error) {
	f.Played = append(f.Played, clip)
	if err := f.Errors[clip]; err != nil {
		return nil, err
	}
	if f.Now != nil {
		f.Started = append(f.Started, f.Now())
	}
	return &fakePlayback{player: f, clip: clip, left: f.Polls}, nil
}

type fakePlayback struct {
	player *FakePlayer
	clip   string
	left   int
}

func (p *fakePlayback) IsPlaying() bool {
	if p.left <= 0 {
		return false
	}
	p.left--
	if p.player.OnPoll != nil {
		p.player.OnPoll(p.clip)
	}
	return true
}
