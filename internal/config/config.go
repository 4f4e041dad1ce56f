// Package config loads the daemon configuration from TOML.
package config

import (
	"encoding"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/sweeney/ember-trigger/internal/audio"
	"github.com/sweeney/ember-trigger/internal/gpio"
	"github.com/sweeney/ember-trigger/internal/logic"
	"github.com/sweeney/ember-trigger/internal/strip"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration for the ember trigger daemon.
type Config struct {
	// Cooldown is the minimum time between accepted triggers. The daemon
	// also waits this long after startup before arming.
	Cooldown Duration `toml:"cooldown"`
	// Seed seeds the flicker PRNG. Zero means seed from the clock.
	Seed int64 `toml:"seed"`

	Trigger  TriggerConfig  `toml:"trigger"`
	Outputs  OutputsConfig  `toml:"outputs"`
	Strip    StripConfig    `toml:"strip"`
	Flicker  FlickerConfig  `toml:"flicker"`
	Playback PlaybackConfig `toml:"playback"`
	MQTT     MQTTConfig     `toml:"mqtt"`
	HTTP     HTTPConfig     `toml:"http"`
}

// TriggerConfig selects the trigger input line.
type TriggerConfig struct {
	Chip      string `toml:"chip"`
	Pin       int    `toml:"pin"`
	ActiveLow bool   `toml:"active_low"`
	// Pull is one of "up", "down" or "none".
	Pull string `toml:"pull"`
}

// OutputsConfig selects the indicator lines. A pin of -1 disables the output.
type OutputsConfig struct {
	Chip string `toml:"chip"`
	// StatusLED is lit while the daemon is armed.
	StatusLED int `toml:"status_led"`
	// Indicator mirrors the raw trigger level.
	Indicator int `toml:"indicator"`
	// AmpEnable is held high while running to keep the amplifier on.
	AmpEnable int `toml:"amp_enable"`
}

// StripConfig configures the LED strip.
type StripConfig struct {
	// Device is the serial device of the LED controller.
	Device     string  `toml:"device"`
	Baud       int     `toml:"baud"`
	NumPixels  int     `toml:"num_pixels"`
	Brightness float64 `toml:"brightness"`
	// Order is the wire channel order: RGB, GRB or BGR.
	Order string `toml:"order"`
}

// FlickerConfig configures the ember animation.
type FlickerConfig struct {
	Color     []int    `toml:"color"`
	Scaler    float64  `toml:"scaler"`
	MaxOffset int      `toml:"max_offset"`
	DelayMin  Duration `toml:"delay_min"`
	DelayMax  Duration `toml:"delay_max"`
}

// PlaybackConfig configures clip playback.
type PlaybackConfig struct {
	// Dir is the audio asset directory.
	Dir string `toml:"dir"`
	// Extension selects which files in Dir are clips.
	Extension  string `toml:"extension"`
	EventColor []int  `toml:"event_color"`
	// Poll is the pause between playback completion checks.
	Poll Duration `toml:"poll"`

	FailureColor   []int    `toml:"failure_color"`
	FailureFlashes int      `toml:"failure_flashes"`
	FailureFlash   Duration `toml:"failure_flash"`

	SampleRate int      `toml:"sample_rate"`
	Buffer     Duration `toml:"buffer"`
}

// MQTTConfig configures event publishing. An empty broker disables it.
type MQTTConfig struct {
	Broker    string   `toml:"broker"`
	ClientID  string   `toml:"client_id"`
	Heartbeat Duration `toml:"heartbeat"`
	// Buffer is how many messages are kept while disconnected.
	Buffer int `toml:"buffer"`
}

// HTTPConfig configures the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a duration that can be parsed from TOML.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns d as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := ParseConfig(nil)
	if err != nil {
		panic("config: bad defaults: " + err.Error())
	}
	return cfg
}

// Load reads the configuration file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, nil
}

// ParseConfig parses a configuration from a reader. Keys missing from r keep
// their default values. A nil reader yields the defaults.
func ParseConfig(r io.Reader) (*Config, error) {
	tree, err := toml.Load(defaultTOML)
	if err != nil {
		return nil, err
	}

	if r != nil {
		user, err := toml.LoadReader(r)
		if err != nil {
			return nil, err
		}
		merge(tree, user)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge copies every key of src into dst, descending into tables present in both.
func merge(dst, src *toml.Tree) {
	for _, key := range src.Keys() {
		sv := src.Get(key)
		if st, ok := sv.(*toml.Tree); ok {
			if dt, ok := dst.Get(key).(*toml.Tree); ok {
				merge(dt, st)
				continue
			}
		}
		dst.Set(key, sv)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Cooldown < 0 {
		return errors.Wrap(ErrInvalid, "cooldown must not be negative")
	}

	switch gpio.Pull(c.Trigger.Pull) {
	case gpio.PullUp, gpio.PullDown, gpio.PullNone:
	default:
		return errors.Wrapf(ErrInvalid, "trigger.pull %q must be up, down or none", c.Trigger.Pull)
	}
	if c.Trigger.Pin < 0 {
		return errors.Wrap(ErrInvalid, "trigger.pin must be set")
	}

	if c.Strip.Device == "" {
		return errors.Wrap(ErrInvalid, "strip.device must be set")
	}
	if c.Strip.NumPixels <= 0 || c.Strip.NumPixels > 0xffff {
		return errors.Wrapf(ErrInvalid, "strip.num_pixels %d out of range", c.Strip.NumPixels)
	}
	if c.Strip.Brightness < 0 || c.Strip.Brightness > 1 {
		return errors.Wrapf(ErrInvalid, "strip.brightness %v must be in [0, 1]", c.Strip.Brightness)
	}
	if !strip.Order(c.Strip.Order).Valid() {
		return errors.Wrapf(ErrInvalid, "strip.order %q must be RGB, GRB or BGR", c.Strip.Order)
	}

	if c.Flicker.Scaler < 0 || c.Flicker.Scaler > 1 {
		return errors.Wrapf(ErrInvalid, "flicker.scaler %v must be in [0, 1]", c.Flicker.Scaler)
	}
	if c.Flicker.MaxOffset < 0 || c.Flicker.MaxOffset > 255 {
		return errors.Wrapf(ErrInvalid, "flicker.max_offset %d must be in [0, 255]", c.Flicker.MaxOffset)
	}
	if c.Flicker.DelayMin < 0 || c.Flicker.DelayMin > c.Flicker.DelayMax {
		return errors.Wrap(ErrInvalid, "flicker.delay_min must be in [0, delay_max]")
	}

	if c.Playback.Dir == "" {
		return errors.Wrap(ErrInvalid, "playback.dir must be set")
	}
	if !audio.Supported(c.Playback.Extension) {
		return errors.Wrapf(ErrInvalid, "playback.extension %q is not a supported audio format", c.Playback.Extension)
	}
	if c.Playback.Poll <= 0 {
		return errors.Wrap(ErrInvalid, "playback.poll must be positive")
	}
	if c.Playback.SampleRate <= 0 {
		return errors.Wrap(ErrInvalid, "playback.sample_rate must be positive")
	}
	if c.Playback.FailureFlashes < 0 {
		return errors.Wrap(ErrInvalid, "playback.failure_flashes must not be negative")
	}

	for name, rgb := range map[string][]int{
		"flicker.color":          c.Flicker.Color,
		"playback.event_color":   c.Playback.EventColor,
		"playback.failure_color": c.Playback.FailureColor,
	} {
		if _, err := toColor(rgb); err != nil {
			return errors.Wrapf(ErrInvalid, "%s: %v", name, err)
		}
	}

	if c.MQTT.Broker != "" && c.MQTT.Buffer <= 0 {
		return errors.Wrap(ErrInvalid, "mqtt.buffer must be positive")
	}

	return nil
}

// FlickerParams returns the flicker engine parameters.
func (c *Config) FlickerParams() logic.FlickerConfig {
	color, _ := toColor(c.Flicker.Color)
	return logic.FlickerConfig{
		Color:     color,
		Scaler:    c.Flicker.Scaler,
		MaxOffset: c.Flicker.MaxOffset,
		DelayMin:  c.Flicker.DelayMin.D(),
		DelayMax:  c.Flicker.DelayMax.D(),
	}
}

// EventColor returns the color shown while a clip plays.
func (c *Config) EventColor() logic.Color {
	color, _ := toColor(c.Playback.EventColor)
	return color
}

// FailureColor returns the color flashed when a clip fails to play.
func (c *Config) FailureColor() logic.Color {
	color, _ := toColor(c.Playback.FailureColor)
	return color
}

func toColor(rgb []int) (logic.Color, error) {
	if len(rgb) != 3 {
		return logic.Color{}, errors.Errorf("color needs 3 channels, got %d", len(rgb))
	}
	for _, v := range rgb {
		if v < 0 || v > 255 {
			return logic.Color{}, errors.Errorf("channel %d out of range", v)
		}
	}
	return logic.Color{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2])}, nil
}
