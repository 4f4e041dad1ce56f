package gpio

import "errors"

// FakeInput is a test double that returns scripted trigger levels.
type FakeInput struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInput) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	f.Reads++
	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the input to the beginning of samples.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeOutput records every level it is driven to.
type FakeOutput struct {
	// Values contains every level passed to Set, in order.
	Values []bool

	// SetError, if set, will be returned by Set().
	SetError error

	Closed bool
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, on)
	return nil
}

// Last returns the most recent level, or false if Set was never called.
func (f *FakeOutput) Last() bool {
	if len(f.Values) == 0 {
		return false
	}
	return f.Values[len(f.Values)-1]
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
