package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/ember-trigger/internal/logic"
)

// value returns the first sample of the named family, or -1 if absent.
func value(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metric:
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return -1
}

func TestCounters(t *testing.T) {
	before := value(t, "ember_trigger_triggers_total", nil)
	RecordTrigger()
	RecordTrigger()
	if got := value(t, "ember_trigger_triggers_total", nil); got != before+2 {
		t.Errorf("triggers_total = %v, want %v", got, before+2)
	}

	before = value(t, "ember_trigger_ignored_edges_total", nil)
	RecordIgnored()
	if got := value(t, "ember_trigger_ignored_edges_total", nil); got != before+1 {
		t.Errorf("ignored_edges_total = %v, want %v", got, before+1)
	}
}

func TestRecordPlayback(t *testing.T) {
	RecordPlayback(2*time.Second, false)
	count := value(t, "ember_trigger_playback_duration_seconds", nil)
	if count < 1 {
		t.Fatalf("duration histogram sample count = %v, want >= 1", count)
	}
	failures := value(t, "ember_trigger_playback_failures_total", nil)

	RecordPlayback(0, true)
	if got := value(t, "ember_trigger_playback_failures_total", nil); got != failures+1 {
		t.Errorf("failures_total = %v, want one more than %v", got, failures)
	}
	if got := value(t, "ember_trigger_playback_duration_seconds", nil); got != count {
		t.Errorf("failed playback should not be observed: count %v -> %v", count, got)
	}
}

func TestSetStateIsExclusive(t *testing.T) {
	SetState(logic.StatePlaying)
	SetState(logic.StateArmed)

	for _, tc := range []struct {
		state logic.State
		want  float64
	}{
		{logic.StateIdle, 0},
		{logic.StateArmed, 1},
		{logic.StatePlaying, 0},
	} {
		got := value(t, "ember_trigger_state", map[string]string{"state": string(tc.state)})
		if got != tc.want {
			t.Errorf("state{%s} = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestSetTrigger(t *testing.T) {
	SetTrigger(true)
	if got := value(t, "ember_trigger_trigger_level", nil); got != 1 {
		t.Errorf("trigger_level = %v, want 1", got)
	}
	SetTrigger(false)
	if got := value(t, "ember_trigger_trigger_level", nil); got != 0 {
		t.Errorf("trigger_level = %v, want 0", got)
	}
}

func TestSetCooldown(t *testing.T) {
	SetCooldown(1500 * time.Millisecond)
	if got := value(t, "ember_trigger_cooldown_remaining_seconds", nil); got != 1.5 {
		t.Errorf("cooldown_remaining_seconds = %v, want 1.5", got)
	}
	SetCooldown(0)
	if got := value(t, "ember_trigger_cooldown_remaining_seconds", nil); got != 0 {
		t.Errorf("cooldown_remaining_seconds = %v, want 0", got)
	}
}
