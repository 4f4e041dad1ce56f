// Package controller runs the trigger loop: it samples the trigger input,
// gates edges through the cooldown, plays clips with the strip held at the
// event color, and animates the ember flicker the rest of the time.
package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/sweeney/ember-trigger/internal/audio"
	"github.com/sweeney/ember-trigger/internal/gpio"
	"github.com/sweeney/ember-trigger/internal/logic"
	"github.com/sweeney/ember-trigger/internal/metrics"
	"github.com/sweeney/ember-trigger/internal/mqtt"
	"github.com/sweeney/ember-trigger/internal/status"
	"github.com/sweeney/ember-trigger/internal/strip"
)

// DefaultPollInterval is how often a playing clip is checked for completion.
const DefaultPollInterval = 5 * time.Millisecond

// Options wires a Controller to its hardware and collaborators.
// Trigger, Strip, Player and Flicker are required.
type Options struct {
	Clips    []string
	Cooldown time.Duration

	Trigger   gpio.Input
	StatusLED gpio.Output // nil disables
	Indicator gpio.Output // nil disables
	Strip     strip.Strip
	Player    audio.Player
	Flicker   *logic.Flicker

	EventColor     logic.Color
	FailureColor   logic.Color
	FailureFlashes int
	FailureFlash   time.Duration
	PollInterval   time.Duration
	Heartbeat      time.Duration // 0 disables

	Publisher  mqtt.Publisher        // nil drops events
	MQTTStatus mqtt.ConnectionStatus // optional
	Tracker    *status.Tracker       // optional
	Logger     *slog.Logger

	// Now and Sleep default to the wall clock. Sleep must return ctx.Err()
	// when ctx is cancelled before d has passed.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller owns the loop state and drives the outputs. It is not safe for
// concurrent use; other goroutines observe it through the status tracker.
type Controller struct {
	state   *logic.ControllerState
	flicker *logic.Flicker
	pix     []logic.Color

	trigger   gpio.Input
	statusLED gpio.Output
	indicator gpio.Output
	strip     strip.Strip
	player    audio.Player

	eventColor     logic.Color
	failureColor   logic.Color
	failureFlashes int
	failureFlash   time.Duration
	poll           time.Duration
	heartbeat      time.Duration

	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	log        *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	level bool
}

// New creates a Controller. The cooldown starts at the current time, so the
// first trigger is accepted once it has elapsed. Returns an error wrapping
// logic.ErrNoClips if opts.Clips is empty.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Trigger == nil:
		return nil, errors.New("controller: trigger input is required")
	case opts.Strip == nil:
		return nil, errors.New("controller: strip is required")
	case opts.Player == nil:
		return nil, errors.New("controller: player is required")
	case opts.Flicker == nil:
		return nil, errors.New("controller: flicker is required")
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = mqtt.Nop{}
	}
	if opts.StatusLED == nil {
		opts.StatusLED = gpio.NopOutput{}
	}
	if opts.Indicator == nil {
		opts.Indicator = gpio.NopOutput{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	state, err := logic.NewControllerState(opts.Clips, opts.Cooldown, opts.Now())
	if err != nil {
		return nil, errors.Wrap(err, "controller")
	}

	return &Controller{
		state:          state,
		flicker:        opts.Flicker,
		pix:            make([]logic.Color, opts.Strip.Len()),
		trigger:        opts.Trigger,
		statusLED:      opts.StatusLED,
		indicator:      opts.Indicator,
		strip:          opts.Strip,
		player:         opts.Player,
		eventColor:     opts.EventColor,
		failureColor:   opts.FailureColor,
		failureFlashes: opts.FailureFlashes,
		failureFlash:   opts.FailureFlash,
		poll:           opts.PollInterval,
		heartbeat:      opts.Heartbeat,
		publisher:      opts.Publisher,
		mqttStatus:     opts.MQTTStatus,
		tracker:        opts.Tracker,
		log:            opts.Logger,
		now:            opts.Now,
		sleep:          opts.Sleep,
	}, nil
}

// Run steps the loop until ctx is cancelled, sleeping the flicker delay
// between iterations. A clip that is playing when ctx is cancelled is played
// to the end first. Run returns nil on cancellation and the first hardware
// error otherwise.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.Step(ctx); err != nil {
			return err
		}
		if err := c.sleep(ctx, c.flicker.Delay()); err != nil {
			return nil
		}
	}
}

// Step runs one iteration of the loop: sample the trigger, act on the
// decision, then draw one flicker frame.
func (c *Controller) Step(ctx context.Context) error {
	now := c.now()

	level, err := c.trigger.Read()
	if err != nil {
		return errors.Wrap(err, "read trigger")
	}
	c.level = level
	if err := c.indicator.Set(level); err != nil {
		return errors.Wrap(err, "set indicator")
	}
	metrics.SetTrigger(level)

	d := c.state.Process(logic.Input{Trigger: level, Time: now})
	if d.Edge == logic.EdgeRising && !d.Play {
		metrics.RecordIgnored()
		c.log.Debug("edge ignored during cooldown", "remaining", c.state.CooldownRemaining(now))
	}
	if err := c.statusLED.Set(d.Armed); err != nil {
		return errors.Wrap(err, "set status led")
	}

	if d.Play {
		if err := c.play(ctx, d.Clip, now); err != nil {
			return err
		}
	}
	metrics.SetState(c.state.State())
	metrics.SetCooldown(c.state.CooldownRemaining(c.now()))

	c.flicker.Tick(c.pix)
	if err := c.strip.Show(c.pix); err != nil {
		return errors.Wrap(err, "show flicker")
	}

	c.checkHeartbeat(c.now())
	c.updateTracker()
	return nil
}

// play shows the event color and blocks until clip has finished. The wait is
// detached from ctx so a shutdown never cuts a clip short.
func (c *Controller) play(ctx context.Context, clip string, at time.Time) error {
	metrics.RecordTrigger()
	metrics.SetState(logic.StatePlaying)
	c.updateTracker()
	c.log.Info("triggered", "clip", clip)
	c.publish(logic.Event{Timestamp: at, Type: logic.EventTriggered, Clip: clip})

	if err := c.strip.Show(strip.Fill(len(c.pix), c.eventColor)); err != nil {
		return errors.Wrap(err, "show event color")
	}

	wait := context.WithoutCancel(ctx)

	pb, err := c.player.Play(clip)
	if err != nil {
		return c.failed(wait, clip, err)
	}

	started := c.now()
	for pb.IsPlaying() {
		_ = c.sleep(wait, c.poll)
	}
	dur := c.now().Sub(started)

	c.state.FinishPlayback(false)
	metrics.RecordPlayback(dur, false)
	c.log.Info("playback done", "clip", clip, "duration", dur)
	c.publish(logic.Event{Timestamp: c.now(), Type: logic.EventPlaybackDone, Clip: clip, Duration: dur})
	return nil
}

// failed skips a clip that could not be started: the strip flashes the
// failure color and the loop carries on with the cooldown already running.
func (c *Controller) failed(ctx context.Context, clip string, cause error) error {
	c.log.Error("playback failed", "clip", clip, "err", cause)

	on := strip.Fill(len(c.pix), c.failureColor)
	off := strip.Fill(len(c.pix), logic.Black)
	for i := 0; i < c.failureFlashes; i++ {
		if err := c.strip.Show(on); err != nil {
			return errors.Wrap(err, "show failure flash")
		}
		_ = c.sleep(ctx, c.failureFlash)
		if err := c.strip.Show(off); err != nil {
			return errors.Wrap(err, "show failure flash")
		}
		_ = c.sleep(ctx, c.failureFlash)
	}

	c.state.FinishPlayback(true)
	metrics.RecordPlayback(0, true)
	c.publish(logic.Event{Timestamp: c.now(), Type: logic.EventPlaybackFailed, Clip: clip, Err: cause.Error()})
	return nil
}

func (c *Controller) publish(e logic.Event) {
	if err := c.publisher.Publish(e); err != nil {
		// Don't crash on publish failure
		c.log.Warn("publish error", "event", e.Type, "err", err)
	}
}

func (c *Controller) checkHeartbeat(now time.Time) {
	hb := c.state.CheckHeartbeat(now, c.heartbeat)
	if hb == nil {
		return
	}
	c.log.Info("heartbeat", "uptime", hb.Uptime, "triggers", hb.Counts.Triggers,
		"ignored", hb.Counts.Ignored, "failures", hb.Counts.Failures)

	ev := mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"}
	if c.tracker != nil {
		c.updateTracker()
		ev.RawPayload = status.FormatStatusEvent(c.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := c.publisher.PublishSystem(ev); err != nil {
		c.log.Warn("heartbeat publish error", "err", err)
	}
}

func (c *Controller) updateTracker() {
	if c.tracker == nil {
		return
	}
	c.tracker.Update(status.Live{
		State:             c.state.State(),
		Trigger:           c.level,
		LastClip:          c.state.LastClip(),
		Counts:            c.state.Counts(),
		CooldownRemaining: c.state.CooldownRemaining(c.now()),
	})
	if c.mqttStatus != nil {
		c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
	}
}

// Clear blanks the strip and turns the status outputs off.
func (c *Controller) Clear() error {
	if err := c.strip.Show(strip.Fill(len(c.pix), logic.Black)); err != nil {
		return errors.Wrap(err, "clear strip")
	}
	if err := c.statusLED.Set(false); err != nil {
		return errors.Wrap(err, "clear status led")
	}
	return errors.Wrap(c.indicator.Set(false), "clear indicator")
}

// State returns the current controller state.
func (c *Controller) State() logic.State {
	return c.state.State()
}

// Counts returns the activity counters.
func (c *Controller) Counts() logic.Counts {
	return c.state.Counts()
}

// Clips returns the clip list in rotation order.
func (c *Controller) Clips() []string {
	return c.state.Clips()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
