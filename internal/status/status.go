// Package status provides a thread-safe status tracker for the ember-trigger daemon.
// The control loop writes to it; HTTP handlers and MQTT heartbeats read from it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ember-trigger/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	CooldownMs  int64
	HeartbeatMs int64
	NumPixels   int
	AudioDir    string
	Broker      string
	HTTPAddr    string
}

// Live is the part of the snapshot the control loop refreshes every tick.
type Live struct {
	State             logic.State
	Trigger           bool
	LastClip          string
	Counts            logic.Counts
	CooldownRemaining time.Duration
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Live
	Clips         []string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, clip list and config.
func NewTracker(startTime time.Time, clips []string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Live:      Live{State: logic.StateIdle},
			Clips:     append([]string(nil), clips...),
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the clock used to stamp snapshots.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update replaces the live loop state. Called from the controller on every tick.
func (t *Tracker) Update(l Live) {
	t.mu.Lock()
	t.snap.Live = l
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set from the tracker's clock at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Clips = append([]string(nil), s.Clips...)
	s.Now = now()
	return s
}
