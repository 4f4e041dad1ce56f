package mqtt

import (
	"github.com/sweeney/ember-trigger/internal/logic"
)

// Failure is a PLAYBACK_FAILED event as seen by the fake.
type Failure struct {
	Clip   string
	Reason string
}

// FakePublisher records what the controller and daemon publish.
type FakePublisher struct {
	Events   []logic.Event
	Payloads [][]byte

	// Triggered lists the clip of every TRIGGERED event, in dispatch order.
	Triggered []string
	// Played lists clips that reached PLAYBACK_DONE.
	Played   []string
	Failures []Failure

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError is returned by Publish for every event.
	PublishError error
	// FailOn returns an error for events of one type only.
	FailOn map[logic.EventType]error
	// PublishSystemError is returned by PublishSystem.
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the controller event and files its clip by type.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	if err := f.FailOn[event.Type]; err != nil {
		return err
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)

	switch event.Type {
	case logic.EventTriggered:
		f.Triggered = append(f.Triggered, event.Clip)
	case logic.EventPlaybackDone:
		f.Played = append(f.Played, event.Clip)
	case logic.EventPlaybackFailed:
		f.Failures = append(f.Failures, Failure{Clip: event.Clip, Reason: event.Err})
	}
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// EventTypes returns the types of the recorded events in order.
func (f *FakePublisher) EventTypes() []logic.EventType {
	types := make([]logic.EventType, len(f.Events))
	for i, e := range f.Events {
		types[i] = e.Type
	}
	return types
}

// LastSystem returns the most recent system event named name.
func (f *FakePublisher) LastSystem(name string) (SystemEvent, bool) {
	for i := len(f.SystemEvents) - 1; i >= 0; i-- {
		if f.SystemEvents[i].Event == name {
			return f.SystemEvents[i], true
		}
	}
	return SystemEvent{}, false
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset forgets everything recorded and clears injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
