package logic

import "time"

// Input represents a single trigger sample.
type Input struct {
	Trigger bool // true = asserted
	Time    time.Time
}

// Decision tells the caller what to do with the outputs after a sample.
type Decision struct {
	// Edge is what the monitor saw on this sample, gated or not.
	Edge Edge
	// Armed drives the status LED: on only while the cooldown has elapsed
	// and no trigger has been accepted on this sample.
	Armed bool
	// Play is set when a trigger was accepted. Clip names what to play.
	Play bool
	Clip string
}

// ControllerState holds all mutable state of the main loop.
type ControllerState struct {
	monitor       Monitor
	cooldown      *Cooldown
	rotator       *Rotator
	state         State
	lastClip      string
	counts        Counts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewControllerState creates the loop state. The cooldown window starts closed
// at startTime, so the first trigger is accepted no earlier than
// startTime+cooldown. Returns ErrNoClips if clips is empty.
func NewControllerState(clips []string, cooldown time.Duration, startTime time.Time) (*ControllerState, error) {
	rotator, err := NewRotator(clips)
	if err != nil {
		return nil, err
	}
	return &ControllerState{
		cooldown:      NewCooldown(cooldown, startTime),
		rotator:       rotator,
		state:         StateIdle,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}, nil
}

// Process takes a trigger sample and decides whether to start playback.
// The monitor is polled on every sample, so edges during cooldown are consumed.
func (s *ControllerState) Process(in Input) Decision {
	edge := s.monitor.Poll(in.Trigger)

	if !s.cooldown.Elapsed(in.Time) {
		s.state = StateIdle
		if edge == EdgeRising {
			s.counts.Ignored++
		}
		return Decision{Edge: edge}
	}

	if edge != EdgeRising {
		s.state = StateArmed
		return Decision{Edge: edge, Armed: true}
	}

	s.cooldown.Reset(in.Time)
	s.state = StatePlaying
	s.lastClip = s.rotator.Next()
	s.counts.Triggers++
	return Decision{Edge: edge, Play: true, Clip: s.lastClip}
}

// FinishPlayback leaves the playing state. The cooldown was reset when the
// trigger was accepted, so the loop is back in idle until it elapses.
func (s *ControllerState) FinishPlayback(failed bool) {
	if failed {
		s.counts.Failures++
	}
	s.state = StateIdle
}

// State returns the current controller state.
func (s *ControllerState) State() State {
	return s.state
}

// LastClip returns the most recently dispatched clip, or "" if none.
func (s *ControllerState) LastClip() string {
	return s.lastClip
}

// Counts returns a copy of the activity counters.
func (s *ControllerState) Counts() Counts {
	return s.counts
}

// Clips returns the clip list in rotation order.
func (s *ControllerState) Clips() []string {
	return s.rotator.Clips()
}

// CooldownRemaining returns the time left before the controller re-arms.
func (s *ControllerState) CooldownRemaining(now time.Time) time.Duration {
	return s.cooldown.Remaining(now)
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (s *ControllerState) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Counts:    s.counts,
	}
}
