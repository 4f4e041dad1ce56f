package logic

import (
	"math/rand"
	"time"
)

// FlickerConfig configures the ember flicker animation.
type FlickerConfig struct {
	Color     Color
	Scaler    float64
	MaxOffset int
	DelayMin  time.Duration
	DelayMax  time.Duration
}

// DefaultFlickerConfig returns the stock ember parameters.
func DefaultFlickerConfig() FlickerConfig {
	return FlickerConfig{
		Color:     Ember,
		Scaler:    0.3,
		MaxOffset: 55,
		DelayMin:  10 * time.Millisecond,
		DelayMax:  100 * time.Millisecond,
	}
}

// Flicker generates randomized ember frames.
// Not safe for concurrent use; the *rand.Rand is owned by the flicker.
type Flicker struct {
	cfg FlickerConfig
	rng *rand.Rand
}

// NewFlicker creates a flicker engine drawing from rng.
func NewFlicker(cfg FlickerConfig, rng *rand.Rand) *Flicker {
	return &Flicker{cfg: cfg, rng: rng}
}

// Tick writes a fresh frame into buf. Each pixel gets its own offset, drawn
// uniformly from [0, MaxOffset].
func (f *Flicker) Tick(buf []Color) {
	for i := range buf {
		offset := f.rng.Intn(f.cfg.MaxOffset + 1)
		buf[i] = f.cfg.Color.Flicker(offset, f.cfg.Scaler)
	}
}

// Delay returns the pause before the next frame, uniform in [DelayMin, DelayMax].
func (f *Flicker) Delay() time.Duration {
	span := f.cfg.DelayMax - f.cfg.DelayMin
	if span <= 0 {
		return f.cfg.DelayMin
	}
	return f.cfg.DelayMin + time.Duration(f.rng.Int63n(int64(span)+1))
}
