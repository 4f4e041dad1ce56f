package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event             string     `json:"event,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	State             string     `json:"state"`
	Trigger           bool       `json:"trigger"`
	LastClip          string     `json:"last_clip"`
	CooldownRemaining int64      `json:"cooldown_remaining_ms"`
	UptimeSeconds     int64      `json:"uptime_seconds"`
	StartTime         string     `json:"start_time"`
	Timestamp         string     `json:"timestamp"`
	MQTT              MQTTStatus `json:"mqtt"`
	Counts            CountsJSON `json:"counts"`
	Clips             []string   `json:"clips"`
	Config            ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Triggers int `json:"triggers"`
	Ignored  int `json:"ignored"`
	Failures int `json:"failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	CooldownMs  int64  `json:"cooldown_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	NumPixels   int    `json:"num_pixels"`
	AudioDir    string `json:"audio_dir"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}
	clips := snap.Clips
	if clips == nil {
		clips = []string{}
	}

	return StatusInner{
		State:             state,
		Trigger:           snap.Trigger,
		LastClip:          snap.LastClip,
		CooldownRemaining: snap.CooldownRemaining.Milliseconds(),
		UptimeSeconds:     int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:         snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:         snap.Now.UTC().Format(time.RFC3339),
		MQTT:              MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Triggers: snap.Counts.Triggers,
			Ignored:  snap.Counts.Ignored,
			Failures: snap.Counts.Failures,
		},
		Clips: clips,
		Config: ConfigJSON{
			CooldownMs:  snap.Config.CooldownMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			NumPixels:   snap.Config.NumPixels,
			AudioDir:    snap.Config.AudioDir,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
