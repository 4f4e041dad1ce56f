package logic

import "fmt"

// Color is an RGB pixel color.
type Color struct {
	R, G, B uint8
}

var (
	// Ember is the base color of the flicker animation.
	Ember = Color{226, 121, 35}
	// Red is the default event color shown while a clip plays.
	Red = Color{255, 0, 0}
	// Black turns a pixel off.
	Black = Color{}
)

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Flicker returns c with offset subtracted from every channel and the result
// scaled by scaler.
func (c Color) Flicker(offset int, scaler float64) Color {
	return Color{
		R: ScaleAndClamp(int(c.R), offset, scaler),
		G: ScaleAndClamp(int(c.G), offset, scaler),
		B: ScaleAndClamp(int(c.B), offset, scaler),
	}
}

// ScaleAndClamp computes (base - offset) * scaler, truncated toward zero and
// clamped to [0, 255].
func ScaleAndClamp(base, offset int, scaler float64) uint8 {
	v := int(float64(base-offset) * scaler)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
