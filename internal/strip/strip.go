// Package strip drives the addressable LED strip.
package strip

import (
	"fmt"

	"github.com/sweeney/ember-trigger/internal/logic"
)

// Strip is an addressable RGB LED strip.
type Strip interface {
	// Len returns the number of pixels.
	Len() int
	// Show writes a full frame to the strip and latches it.
	// len(pix) must equal Len().
	Show(pix []logic.Color) error
	// Close turns the strip off and releases the device.
	Close() error
}

// Order is the wire channel order of the strip.
type Order string

const (
	OrderRGB Order = "RGB"
	OrderGRB Order = "GRB"
	OrderBGR Order = "BGR"
)

// Valid reports whether o is a known channel order.
func (o Order) Valid() bool {
	switch o {
	case OrderRGB, OrderGRB, OrderBGR:
		return true
	}
	return false
}

// encode appends c in wire order with brightness applied.
func (o Order) encode(dst []byte, c logic.Color, brightness float64) []byte {
	r := scale(c.R, brightness)
	g := scale(c.G, brightness)
	b := scale(c.B, brightness)
	switch o {
	case OrderGRB:
		return append(dst, g, r, b)
	case OrderBGR:
		return append(dst, b, g, r)
	default:
		return append(dst, r, g, b)
	}
}

func scale(v uint8, brightness float64) uint8 {
	return uint8(float64(v) * brightness)
}

// Fill returns a frame of n pixels all set to c.
func Fill(n int, c logic.Color) []logic.Color {
	pix := make([]logic.Color, n)
	for i := range pix {
		pix[i] = c
	}
	return pix
}

func checkLen(want int, pix []logic.Color) error {
	if len(pix) != want {
		return fmt.Errorf("frame has %d pixels, strip has %d", len(pix), want)
	}
	return nil
}
