// Package logic contains the pure control logic for the ember trigger.
// This package has NO external dependencies (no GPIO, audio, LEDs, OS, or time.Sleep).
// Time is always injectable via time.Time parameters and randomness via *rand.Rand.
package logic

import (
	"errors"
	"time"
)

// ErrNoClips is returned when the clip list is empty. It is a configuration
// error: the controller cannot run without at least one clip.
var ErrNoClips = errors.New("no playable clips")

// State is the controller state.
type State string

const (
	// StateIdle means the cooldown window is still active. Edges are ignored.
	StateIdle State = "IDLE"
	// StateArmed means the cooldown has elapsed and a rising edge will trigger.
	StateArmed State = "ARMED"
	// StatePlaying means a clip is playing and the strip holds the event color.
	StatePlaying State = "PLAYING"
)

// Edge is the result of polling the trigger monitor.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
)

func (e Edge) String() string {
	if e == EdgeRising {
		return "RISING"
	}
	return "NONE"
}

// EventType represents a controller event to be published.
type EventType string

const (
	EventTriggered      EventType = "TRIGGERED"
	EventPlaybackDone   EventType = "PLAYBACK_DONE"
	EventPlaybackFailed EventType = "PLAYBACK_FAILED"
)

// Event represents something the controller did that is worth reporting.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Clip      string
	// Duration is the playback duration (PLAYBACK_DONE only).
	Duration time.Duration
	// Err is the failure reason (PLAYBACK_FAILED only).
	Err string
}

// Counts tracks controller activity since startup.
type Counts struct {
	Triggers int
	Ignored  int
	Failures int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
