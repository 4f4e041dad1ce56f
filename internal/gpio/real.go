//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// LineInput reads a trigger line from actual hardware using Linux GPIO character device.
type LineInput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewLineInput requests pin on the named chip as an input.
func NewLineInput(chipName string, pin int, pull Pull, activeLow bool) (*LineInput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", chipName)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, biasOption(pull)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := chip.RequestLine(pin, opts...)
	if err != nil {
		chip.Close()
		return nil, errors.Wrapf(err, "request trigger pin %d", pin)
	}

	return &LineInput{chip: chip, line: line}, nil
}

// Read returns the logical level of the trigger line.
func (r *LineInput) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, errors.Wrap(err, "read trigger pin")
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Reconfigures the pin to input with pull-down (matching Pi boot defaults)
// before closing.
func (r *LineInput) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, errors.Wrap(err, "reconfigure trigger pin"))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close trigger pin"))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close chip"))
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

// LineOutput drives an output line (status LED, indicator, amp enable).
type LineOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	name string
}

// NewLineOutput requests pin on the named chip as an output, initially low.
func NewLineOutput(chipName string, pin int, name string) (*LineOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", chipName)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, errors.Wrapf(err, "request %s pin %d", name, pin)
	}

	return &LineOutput{chip: chip, line: line, name: name}, nil
}

// Set drives the line high (true) or low (false).
func (o *LineOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return errors.Wrapf(err, "set %s pin", o.name)
	}
	return nil
}

// Close drives the line low and returns it to an input with pull-down.
func (o *LineOutput) Close() error {
	var errs []error

	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, errors.Wrapf(err, "clear %s pin", o.name))
		}
		if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, errors.Wrapf(err, "reconfigure %s pin", o.name))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close %s pin", o.name))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close chip"))
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

func biasOption(p Pull) gpiocdev.LineReqOption {
	switch p {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullNone:
		return gpiocdev.WithBiasDisabled
	default:
		return gpiocdev.WithPullDown
	}
}
