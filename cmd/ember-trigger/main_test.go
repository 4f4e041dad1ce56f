package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/ember-trigger/internal/audio"
	"github.com/sweeney/ember-trigger/internal/config"
	"github.com/sweeney/ember-trigger/internal/gpio"
	"github.com/sweeney/ember-trigger/internal/logic"
	"github.com/sweeney/ember-trigger/internal/mqtt"
	"github.com/sweeney/ember-trigger/internal/strip"
)

var start = time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)

type fakes struct {
	trigger   *gpio.FakeInput
	statusLED *gpio.FakeOutput
	indicator *gpio.FakeOutput
	amp       *gpio.FakeOutput
	strip     *strip.Fake
	player    *audio.FakePlayer
	pub       *mqtt.FakePublisher
}

// newDaemon builds a daemon on fake hardware. The fake sleep advances the
// clock and, once sigAfter flicker sleeps have passed, delivers SIGTERM and
// waits for the loop to be cancelled.
func newDaemon(t *testing.T, clips []string, samples []bool, sigAfter int) (*daemon, *fakes) {
	t.Helper()

	f := &fakes{
		trigger:   gpio.NewFakeInput(samples...),
		statusLED: gpio.NewFakeOutput(),
		indicator: gpio.NewFakeOutput(),
		amp:       gpio.NewFakeOutput(),
		strip:     strip.NewFake(8),
		player:    audio.NewFakePlayer(2),
		pub:       mqtt.NewFakePublisher(),
	}

	cfg := config.Default()
	cfg.Cooldown = 0
	cfg.HTTP.Addr = ""
	cfg.MQTT.Heartbeat = 0

	now := start
	sig := make(chan os.Signal, 1)
	flickerSleeps := 0

	d := &daemon{
		cfg:   cfg,
		clips: clips,
		hw: &hardware{
			trigger:   f.trigger,
			statusLED: f.statusLED,
			indicator: f.indicator,
			amp:       f.amp,
			strip:     f.strip,
			player:    f.player,
		},
		publisher:  f.pub,
		mqttStatus: f.pub,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:        rand.New(rand.NewSource(1)),
		now:        func() time.Time { return now },
		sig:        sig,
	}
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		now = now.Add(dur)
		if ctx.Done() == nil {
			// playback wait, detached from shutdown
			return nil
		}
		flickerSleeps++
		if flickerSleeps == sigAfter {
			sig <- syscall.SIGTERM
			<-ctx.Done()
		}
		return ctx.Err()
	}
	return d, f
}

func TestDaemonLifecycle(t *testing.T) {
	d, f := newDaemon(t, []string{"a.wav", "b.wav"}, []bool{false, true, false, true, false}, 5)

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Amplifier on for the whole run.
	if len(f.amp.Values) != 2 || !f.amp.Values[0] || f.amp.Values[1] {
		t.Errorf("amp values = %v, want [true false]", f.amp.Values)
	}

	// Strip blanked at startup and shutdown.
	if len(f.strip.Frames) < 2 {
		t.Fatalf("expected frames, got %d", len(f.strip.Frames))
	}
	for _, i := range []int{0, len(f.strip.Frames) - 1} {
		for _, p := range f.strip.Frames[i] {
			if p != logic.Black {
				t.Errorf("frame %d not blank: %v", i, f.strip.Frames[i])
				break
			}
		}
	}

	if got := strings.Join(f.player.Played, ","); got != "a.wav,b.wav" {
		t.Errorf("played %s, want a.wav,b.wav", got)
	}

	if len(f.pub.SystemEvents) != 2 {
		t.Fatalf("expected STARTUP and SHUTDOWN, got %d system events", len(f.pub.SystemEvents))
	}
	startup, shutdown := f.pub.SystemEvents[0], f.pub.SystemEvents[1]
	if startup.Event != "STARTUP" || !startup.Retained {
		t.Errorf("first system event = %+v, want retained STARTUP", startup)
	}
	if shutdown.Event != "SHUTDOWN" || shutdown.Reason != "SIGTERM" {
		t.Errorf("last system event = %s/%s, want SHUTDOWN/SIGTERM", shutdown.Event, shutdown.Reason)
	}
	if !strings.Contains(string(shutdown.RawPayload), `"triggers":2`) {
		t.Errorf("shutdown payload missing counts: %s", shutdown.RawPayload)
	}

	types := f.pub.EventTypes()
	want := []logic.EventType{
		logic.EventTriggered, logic.EventPlaybackDone,
		logic.EventTriggered, logic.EventPlaybackDone,
	}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestDaemonNoClipsNeverStartsLoop(t *testing.T) {
	d, f := newDaemon(t, nil, []bool{true}, 1)

	err := d.run(context.Background())
	if !errors.Is(err, logic.ErrNoClips) {
		t.Fatalf("expected ErrNoClips, got %v", err)
	}
	if f.trigger.Reads != 0 {
		t.Errorf("trigger read %d times, loop should not have run", f.trigger.Reads)
	}
	if len(f.pub.SystemEvents) != 0 {
		t.Errorf("no lifecycle events expected, got %d", len(f.pub.SystemEvents))
	}
	if len(f.amp.Values) != 0 {
		t.Errorf("amp should not be touched, got %v", f.amp.Values)
	}
}

func TestDaemonHardwareError(t *testing.T) {
	d, f := newDaemon(t, []string{"a.wav"}, []bool{false}, 100)
	f.trigger.ReadError = errors.New("line released")

	err := d.run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read trigger") {
		t.Fatalf("expected trigger read error, got %v", err)
	}

	shutdown, ok := f.pub.LastSystem("SHUTDOWN")
	if !ok || shutdown.Reason != "ERROR" {
		t.Errorf("SHUTDOWN = %+v (found %v), want reason ERROR", shutdown, ok)
	}
	if f.amp.Last() {
		t.Error("amp should be disabled after an error")
	}
}

func TestDaemonPublishErrorsAreNotFatal(t *testing.T) {
	d, f := newDaemon(t, []string{"a.wav"}, []bool{false, true}, 3)
	f.pub.PublishError = errors.New("broker down")
	f.pub.PublishSystemError = errors.New("broker down")

	if err := d.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(f.player.Played) != 1 {
		t.Errorf("clip should play without a broker, played %v", f.player.Played)
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "ember.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigAndClips(t *testing.T) {
	dir := t.TempDir()
	audioDir := filepath.Join(dir, "audio")
	if err := os.Mkdir(audioDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.wav", "a.WAV", "notes.txt", "._a.wav"} {
		if err := os.WriteFile(filepath.Join(audioDir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	path := writeConfig(t, dir, "cooldown = \"2s\"\n[playback]\ndir = \""+filepath.ToSlash(audioDir)+"\"\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cooldown.D() != 2*time.Second {
		t.Errorf("cooldown = %v, want 2s", cfg.Cooldown.D())
	}

	clips, err := loadClips(cfg)
	if err != nil {
		t.Fatalf("loadClips: %v", err)
	}
	if got := strings.Join(clips, ","); got != "a.WAV,b.wav" {
		t.Errorf("clips = %s, want a.WAV,b.wav", got)
	}
}

func TestLoadClipsEmptyDirIsConfigError(t *testing.T) {
	cfg := config.Default()
	cfg.Playback.Dir = t.TempDir()

	_, err := loadClips(cfg)
	if !errors.Is(err, logic.ErrNoClips) {
		t.Fatalf("expected ErrNoClips, got %v", err)
	}
}

func TestLoadClipsMissingDir(t *testing.T) {
	cfg := config.Default()
	cfg.Playback.Dir = filepath.Join(t.TempDir(), "missing")

	if _, err := loadClips(cfg); err == nil {
		t.Fatal("expected error for missing asset directory")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[strip]\nnum_pixels = 0\n")
	_, err := loadConfig(path)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tc := range tests {
		if got := signalName(tc.sig); got != tc.want {
			t.Errorf("signalName(%v) = %q, want %q", tc.sig, got, tc.want)
		}
	}
}

func TestHardwareCloseReverseOrder(t *testing.T) {
	var order []string
	hw := &hardware{}
	for _, name := range []string{"trigger", "strip", "speaker"} {
		name := name
		hw.closers = append(hw.closers, closerFunc(func() error {
			order = append(order, name)
			return nil
		}))
	}

	if err := hw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := strings.Join(order, ","); got != "speaker,strip,trigger" {
		t.Errorf("close order = %s", got)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
