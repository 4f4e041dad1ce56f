package strip

import (
	"io"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/sweeney/ember-trigger/internal/logic"
)

// SerialConfig configures a strip behind a serial LED controller.
type SerialConfig struct {
	// Device is the serial device, usually /dev/ttyACM0 or /dev/ttyUSB0.
	Device string
	// Baud is the baud rate for the serial connection.
	Baud int
	// NumPixels is the number of LEDs on the strip.
	NumPixels int
	// Brightness scales every channel, in [0, 1].
	Brightness float64
	// Order is the strip's wire channel order.
	Order Order
}

// Serial is a Strip driven over the LED serial protocol.
type Serial struct {
	port       io.WriteCloser
	numPixels  int
	brightness float64
	order      Order
	buf        []byte
}

var _ Strip = (*Serial)(nil)

// OpenSerial opens the serial device and initializes the controller with the
// strip length.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", cfg.Device)
	}

	s, err := NewSerial(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// NewSerial drives a strip over an already open connection.
func NewSerial(port io.WriteCloser, cfg SerialConfig) (*Serial, error) {
	if !cfg.Order.Valid() {
		return nil, errors.Errorf("unknown channel order %q", cfg.Order)
	}

	s := &Serial{
		port:       port,
		numPixels:  cfg.NumPixels,
		brightness: cfg.Brightness,
		order:      cfg.Order,
		buf:        make([]byte, 0, 3*cfg.NumPixels),
	}

	if err := WritePacket(port, InitializePacket{NumLEDs: uint16(cfg.NumPixels)}); err != nil {
		return nil, errors.Wrap(err, "failed to initialize LEDs")
	}
	return s, nil
}

// Len returns the number of pixels.
func (s *Serial) Len() int {
	return s.numPixels
}

// Show sends one set packet with the whole frame.
func (s *Serial) Show(pix []logic.Color) error {
	if err := checkLen(s.numPixels, pix); err != nil {
		return err
	}

	s.buf = s.buf[:0]
	for _, c := range pix {
		s.buf = s.order.encode(s.buf, c, s.brightness)
	}

	if err := WritePacket(s.port, SetPacket{Pix: s.buf}); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}
	return nil
}

// Close clears the strip and closes the port.
func (s *Serial) Close() error {
	clearErr := WritePacket(s.port, ClearPacket{})
	if err := s.port.Close(); err != nil {
		return errors.Wrap(err, "failed to close serial port")
	}
	return errors.Wrap(clearErr, "failed to clear LEDs")
}
