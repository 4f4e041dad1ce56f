package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ember-trigger/internal/logic"
)

func TestFormatPayloadExactJSON(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventTriggered,
		Clip:      "cackle.wav",
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"trigger":{"timestamp":"2026-02-02T22:18:12Z","event":"TRIGGERED","clip":"cackle.wav"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadAllEventTypes(t *testing.T) {
	tests := []struct {
		event        logic.Event
		wantEvent    string
		wantDuration int64
		wantError    string
	}{
		{logic.Event{Type: logic.EventTriggered, Clip: "a.wav"}, "TRIGGERED", 0, ""},
		{logic.Event{Type: logic.EventPlaybackDone, Clip: "a.wav", Duration: 2500 * time.Millisecond}, "PLAYBACK_DONE", 2500, ""},
		{logic.Event{Type: logic.EventPlaybackFailed, Clip: "a.wav", Err: "decode: bad header"}, "PLAYBACK_FAILED", 0, "decode: bad header"},
	}

	for _, tt := range tests {
		t.Run(tt.wantEvent, func(t *testing.T) {
			tt.event.Timestamp = time.Now()
			payload, err := FormatPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if parsed.Trigger.Event != tt.wantEvent {
				t.Errorf("event: got %s, want %s", parsed.Trigger.Event, tt.wantEvent)
			}
			if parsed.Trigger.Clip != "a.wav" {
				t.Errorf("clip: got %s, want a.wav", parsed.Trigger.Clip)
			}
			if parsed.Trigger.DurationMs != tt.wantDuration {
				t.Errorf("duration_ms: got %d, want %d", parsed.Trigger.DurationMs, tt.wantDuration)
			}
			if parsed.Trigger.Error != tt.wantError {
				t.Errorf("error: got %q, want %q", parsed.Trigger.Error, tt.wantError)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 3, 3, 0, 0, 0, loc),
		Type:      logic.EventTriggered,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Trigger.Timestamp != "2026-02-02T22:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Trigger.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "ember/trigger/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "ember/trigger/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestWillPayloadOmitsTimestamp(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"event":"OFFLINE"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"system":{"event":"HEARTBEAT","counts":{"triggers":3}}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload returned as-is, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	events := []logic.Event{
		{Timestamp: time.Now(), Type: logic.EventTriggered, Clip: "a.wav"},
		{Timestamp: time.Now(), Type: logic.EventPlaybackDone, Clip: "a.wav"},
	}
	for _, e := range events {
		if err := f.Publish(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got := f.EventTypes()
	want := []logic.EventType{logic.EventTriggered, logic.EventPlaybackDone}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if len(f.Payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(f.Payloads))
	}
}

func TestFakePublisherFilesClipsByType(t *testing.T) {
	f := NewFakePublisher()
	for _, e := range []logic.Event{
		{Type: logic.EventTriggered, Clip: "a.wav"},
		{Type: logic.EventPlaybackDone, Clip: "a.wav"},
		{Type: logic.EventTriggered, Clip: "b.wav"},
		{Type: logic.EventPlaybackFailed, Clip: "b.wav", Err: "bad header"},
	} {
		if err := f.Publish(e); err != nil {
			t.Fatalf("Publish(%s): %v", e.Type, err)
		}
	}

	if got := strings.Join(f.Triggered, ","); got != "a.wav,b.wav" {
		t.Errorf("Triggered = %s", got)
	}
	if got := strings.Join(f.Played, ","); got != "a.wav" {
		t.Errorf("Played = %s", got)
	}
	if len(f.Failures) != 1 || f.Failures[0] != (Failure{Clip: "b.wav", Reason: "bad header"}) {
		t.Errorf("Failures = %+v", f.Failures)
	}
}

func TestFakePublisherFailOn(t *testing.T) {
	f := NewFakePublisher()
	f.FailOn = map[logic.EventType]error{logic.EventPlaybackDone: errors.New("dropped")}

	if err := f.Publish(logic.Event{Type: logic.EventTriggered, Clip: "a.wav"}); err != nil {
		t.Fatalf("TRIGGERED should publish: %v", err)
	}
	if err := f.Publish(logic.Event{Type: logic.EventPlaybackDone, Clip: "a.wav"}); err == nil {
		t.Error("expected PLAYBACK_DONE to fail")
	}
	if len(f.Played) != 0 || len(f.Events) != 1 {
		t.Errorf("failed publish recorded: events=%d played=%v", len(f.Events), f.Played)
	}
}

func TestFakePublisherLastSystem(t *testing.T) {
	f := NewFakePublisher()
	_ = f.PublishSystem(SystemEvent{Event: "HEARTBEAT", Reason: "first"})
	_ = f.PublishSystem(SystemEvent{Event: "STARTUP"})
	_ = f.PublishSystem(SystemEvent{Event: "HEARTBEAT", Reason: "second"})

	ev, ok := f.LastSystem("HEARTBEAT")
	if !ok || ev.Reason != "second" {
		t.Errorf("LastSystem(HEARTBEAT) = %+v, %v", ev, ok)
	}
	if _, ok := f.LastSystem("SHUTDOWN"); ok {
		t.Error("LastSystem(SHUTDOWN) should not be found")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(logic.Event{Type: logic.EventTriggered}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	f := NewFakePublisher()

	err := f.PublishSystem(SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	if !f.SystemEvents[0].Retained {
		t.Error("retained flag should be recorded")
	}
	if len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system payload, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherResetAndClose(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	_ = f.Publish(logic.Event{Type: logic.EventTriggered})
	_ = f.PublishSystem(SystemEvent{Event: "STARTUP"})
	_ = f.Close()

	if !f.Closed {
		t.Error("expected Closed after Close")
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.Payloads) != 0 || len(f.Triggered) != 0 || len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("Reset should clear recorded events")
	}
	if f.Closed || f.Connected {
		t.Error("Reset should clear flags")
	}

	// Reusable after reset.
	if err := f.Publish(logic.Event{Type: logic.EventPlaybackDone}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Events) != 1 {
		t.Errorf("expected 1 event after reset, got %d", len(f.Events))
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(logic.Event{Type: logic.EventTriggered}); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Errorf("PublishSystem: %v", err)
	}
	if (Nop{}).IsConnected() {
		t.Error("Nop should never report connected")
	}
}
