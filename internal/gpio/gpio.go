// Package gpio provides GPIO input and output lines with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Input reads a digital input line.
type Input interface {
	// Read returns the logical level of the line (true = asserted).
	// Active-low inversion, if configured, is already applied.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Output drives a digital output line.
type Output interface {
	// Set drives the line to the given logical level.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Pull selects the input bias.
type Pull string

const (
	PullNone Pull = "none"
	PullUp   Pull = "up"
	PullDown Pull = "down"
)

// PinDisabled marks an optional output as not wired.
const PinDisabled = -1

// NopOutput is an Output that is not wired to anything.
type NopOutput struct{}

func (NopOutput) Set(bool) error { return nil }
func (NopOutput) Close() error   { return nil }
