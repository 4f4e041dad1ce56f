// Package metrics provides Prometheus metrics for the trigger loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/ember-trigger/internal/logic"
)

const namespace = "ember_trigger"

var allStates = []logic.State{logic.StateIdle, logic.StateArmed, logic.StatePlaying}

var (
	triggers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "triggers_total",
		Help:      "Rising edges accepted as triggers",
	})

	ignoredEdges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ignored_edges_total",
		Help:      "Rising edges ignored because the cooldown was active",
	})

	playbackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "playback",
		Name:      "failures_total",
		Help:      "Clips that failed to open, decode or start",
	})

	playbackDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "playback",
		Name:      "duration_seconds",
		Help:      "Time the loop spent blocked on a playing clip",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	state = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "state",
		Help:      "1 for the current controller state, 0 otherwise",
	}, []string{"state"})

	triggerLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trigger_level",
		Help:      "Raw level of the trigger input",
	})

	cooldownRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cooldown_remaining_seconds",
		Help:      "Time left before the controller re-arms, 0 when armed",
	})
)

// RecordTrigger counts an accepted trigger.
func RecordTrigger() {
	triggers.Inc()
}

// RecordIgnored counts a rising edge seen during cooldown.
func RecordIgnored() {
	ignoredEdges.Inc()
}

// RecordPlayback observes a finished playback. Failed playbacks are counted
// but not observed in the duration histogram.
func RecordPlayback(d time.Duration, failed bool) {
	if failed {
		playbackFailures.Inc()
		return
	}
	playbackDuration.Observe(d.Seconds())
}

// SetState marks s as the current controller state.
func SetState(s logic.State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		state.WithLabelValues(string(st)).Set(v)
	}
}

// SetTrigger records the raw trigger level.
func SetTrigger(level bool) {
	if level {
		triggerLevel.Set(1)
	} else {
		triggerLevel.Set(0)
	}
}

// SetCooldown records the time left in the cooldown window.
func SetCooldown(remaining time.Duration) {
	cooldownRemaining.Set(remaining.Seconds())
}
