//go:build !linux

package gpio

import "github.com/pkg/errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// LineInput is not available on non-Linux platforms.
type LineInput struct{}

// NewLineInput returns an error on non-Linux platforms.
func NewLineInput(chipName string, pin int, pull Pull, activeLow bool) (*LineInput, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *LineInput) Read() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *LineInput) Close() error {
	return nil
}

// LineOutput is not available on non-Linux platforms.
type LineOutput struct{}

// NewLineOutput returns an error on non-Linux platforms.
func NewLineOutput(chipName string, pin int, name string) (*LineOutput, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (o *LineOutput) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (o *LineOutput) Close() error {
	return nil
}
