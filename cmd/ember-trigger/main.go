// Command ember-trigger plays an audio clip with the LED strip held at a solid
// color whenever its trigger input fires, and runs an ember flicker otherwise.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/ember-trigger/internal/assets"
	"github.com/sweeney/ember-trigger/internal/audio"
	"github.com/sweeney/ember-trigger/internal/audio/speaker"
	"github.com/sweeney/ember-trigger/internal/config"
	"github.com/sweeney/ember-trigger/internal/controller"
	"github.com/sweeney/ember-trigger/internal/gpio"
	"github.com/sweeney/ember-trigger/internal/logic"
	"github.com/sweeney/ember-trigger/internal/mqtt"
	"github.com/sweeney/ember-trigger/internal/status"
	"github.com/sweeney/ember-trigger/internal/strip"
	"github.com/sweeney/ember-trigger/internal/web"
)

var (
	configPath = ""
	verbose    = false
	printState = false
	listClips  = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file (defaults are used if empty)")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
	pflag.BoolVar(&printState, "print-state", printState, "print the trigger level and exit")
	pflag.BoolVar(&listClips, "list-clips", listClips, "print the clip rotation and exit")
}

func main() {
	pflag.Parse()

	logger := newLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newLogger(f *os.File, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(f, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(f.Fd()),
	}))
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if printState {
		in, err := gpio.NewLineInput(cfg.Trigger.Chip, cfg.Trigger.Pin, gpio.Pull(cfg.Trigger.Pull), cfg.Trigger.ActiveLow)
		if err != nil {
			return errors.Wrap(err, "init trigger")
		}
		defer in.Close()

		level, err := in.Read()
		if err != nil {
			return errors.Wrap(err, "read trigger")
		}
		fmt.Printf("trigger: %s\n", levelString(level))
		return nil
	}

	clips, err := loadClips(cfg)
	if err != nil {
		return err
	}

	if listClips {
		for _, c := range clips {
			fmt.Println(c)
		}
		return nil
	}

	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	publisher, connStatus := openPublisher(cfg.MQTT, logger)
	defer publisher.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	d := &daemon{
		cfg:        cfg,
		clips:      clips,
		hw:         hw,
		publisher:  publisher,
		mqttStatus: connStatus,
		logger:     logger,
		rng:        rand.New(rand.NewSource(seed)),
		now:        time.Now,
		sig:        sigCh,
	}
	return d.run(context.Background())
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadClips lists the clip rotation. An empty rotation is a configuration
// error and stops the daemon before any hardware is touched.
func loadClips(cfg *config.Config) ([]string, error) {
	clips, err := assets.List(cfg.Playback.Dir, cfg.Playback.Extension)
	if err != nil {
		return nil, errors.Wrap(err, "load clips")
	}
	return clips, nil
}

func openPublisher(cfg config.MQTTConfig, logger *slog.Logger) (mqtt.Publisher, mqtt.ConnectionStatus) {
	if cfg.Broker == "" {
		logger.Info("mqtt disabled")
		return mqtt.Nop{}, mqtt.Nop{}
	}

	p, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.Broker,
		ClientID:   cfg.ClientID,
		BufferSize: cfg.Buffer,
		Logger:     logger,
	})
	if err != nil {
		// Events are not worth dying for.
		logger.Warn("mqtt unavailable, events will be dropped", "broker", cfg.Broker, "err", err)
		return mqtt.Nop{}, mqtt.Nop{}
	}
	return p, p
}

// hardware is the set of devices the controller drives.
type hardware struct {
	trigger   gpio.Input
	statusLED gpio.Output
	indicator gpio.Output
	amp       gpio.Output
	strip     strip.Strip
	player    audio.Player

	closers []io.Closer
}

func openHardware(cfg *config.Config) (_ *hardware, err error) {
	hw := &hardware{}
	defer func() {
		if err != nil {
			hw.Close()
		}
	}()

	trigger, err := gpio.NewLineInput(cfg.Trigger.Chip, cfg.Trigger.Pin, gpio.Pull(cfg.Trigger.Pull), cfg.Trigger.ActiveLow)
	if err != nil {
		return nil, errors.Wrap(err, "init trigger")
	}
	hw.trigger = trigger
	hw.closers = append(hw.closers, trigger)

	if hw.statusLED, err = hw.openOutput(cfg.Outputs.Chip, cfg.Outputs.StatusLED, "ember-status"); err != nil {
		return nil, err
	}
	if hw.indicator, err = hw.openOutput(cfg.Outputs.Chip, cfg.Outputs.Indicator, "ember-indicator"); err != nil {
		return nil, err
	}
	if hw.amp, err = hw.openOutput(cfg.Outputs.Chip, cfg.Outputs.AmpEnable, "ember-amp"); err != nil {
		return nil, err
	}

	s, err := strip.OpenSerial(strip.SerialConfig{
		Device:     cfg.Strip.Device,
		Baud:       cfg.Strip.Baud,
		NumPixels:  cfg.Strip.NumPixels,
		Brightness: cfg.Strip.Brightness,
		Order:      strip.Order(cfg.Strip.Order),
	})
	if err != nil {
		return nil, errors.Wrap(err, "init strip")
	}
	hw.strip = s
	hw.closers = append(hw.closers, s)

	sp, err := speaker.New(cfg.Playback.Dir, cfg.Playback.SampleRate, cfg.Playback.Buffer.D())
	if err != nil {
		return nil, errors.Wrap(err, "init audio")
	}
	hw.player = sp
	hw.closers = append(hw.closers, sp)

	return hw, nil
}

func (hw *hardware) openOutput(chip string, pin int, name string) (gpio.Output, error) {
	if pin == gpio.PinDisabled {
		return gpio.NopOutput{}, nil
	}
	out, err := gpio.NewLineOutput(chip, pin, name)
	if err != nil {
		return nil, errors.Wrapf(err, "init %s output", name)
	}
	hw.closers = append(hw.closers, out)
	return out, nil
}

// Close releases every opened device in reverse order.
func (hw *hardware) Close() error {
	var first error
	for i := len(hw.closers) - 1; i >= 0; i-- {
		if err := hw.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	hw.closers = nil
	return first
}

// daemon ties the controller to its ambient services: the status tracker,
// MQTT lifecycle events, the HTTP server and the signal watcher.
type daemon struct {
	cfg        *config.Config
	clips      []string
	hw         *hardware
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	logger     *slog.Logger
	rng        *rand.Rand

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error // nil uses the wall clock
	sig   <-chan os.Signal
}

func (d *daemon) run(ctx context.Context) error {
	cfg := d.cfg

	tracker := status.NewTracker(d.now(), d.clips, status.Config{
		CooldownMs:  cfg.Cooldown.D().Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.D().Milliseconds(),
		NumPixels:   cfg.Strip.NumPixels,
		AudioDir:    cfg.Playback.Dir,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})

	ctrl, err := controller.New(controller.Options{
		Clips:          d.clips,
		Cooldown:       cfg.Cooldown.D(),
		Trigger:        d.hw.trigger,
		StatusLED:      d.hw.statusLED,
		Indicator:      d.hw.indicator,
		Strip:          d.hw.strip,
		Player:         d.hw.player,
		Flicker:        logic.NewFlicker(cfg.FlickerParams(), d.rng),
		EventColor:     cfg.EventColor(),
		FailureColor:   cfg.FailureColor(),
		FailureFlashes: cfg.Playback.FailureFlashes,
		FailureFlash:   cfg.Playback.FailureFlash.D(),
		PollInterval:   cfg.Playback.Poll.D(),
		Heartbeat:      cfg.MQTT.Heartbeat.D(),
		Publisher:      d.publisher,
		MQTTStatus:     d.mqttStatus,
		Tracker:        tracker,
		Logger:         d.logger,
		Now:            d.now,
		Sleep:          d.sleep,
	})
	if err != nil {
		return err
	}

	if err := d.hw.amp.Set(true); err != nil {
		return errors.Wrap(err, "enable amplifier")
	}
	defer d.hw.amp.Set(false)

	if err := ctrl.Clear(); err != nil {
		return err
	}

	d.publishSystem(tracker, "STARTUP", "")
	d.logger.Info("started",
		"clips", len(d.clips),
		"cooldown", cfg.Cooldown.D(),
		"pixels", cfg.Strip.NumPixels,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.MQTT.Heartbeat.D())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reason := "CONTEXT"
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case s := <-d.sig:
			reason = signalName(s)
			d.logger.Info("shutting down", "signal", s)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		return ctrl.Run(gctx)
	})

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, nil)
		g.Go(func() error {
			d.logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()
	if runErr != nil {
		reason = "ERROR"
	}

	if err := ctrl.Clear(); err != nil {
		d.logger.Warn("failed to clear outputs", "err", err)
	}
	d.publishSystem(tracker, "SHUTDOWN", reason)
	return runErr
}

func (d *daemon) publishSystem(tracker *status.Tracker, event, reason string) {
	tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	snap := tracker.Snapshot()

	err := d.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  d.now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		d.logger.Warn("failed to publish system event", "event", event, "err", err)
		return
	}
	d.logger.Debug("published system event", "event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func levelString(on bool) string {
	if on {
		return "HIGH"
	}
	return "LOW"
}
