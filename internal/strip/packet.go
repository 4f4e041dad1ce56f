package strip

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// Endianness defines the endianness of the LED serial protocol.
var Endianness = binary.LittleEndian

// PacketType is the type of a packet sent to the strip controller.
type PacketType uint8

const (
	TypeInitializePacket PacketType = iota
	TypeClearPacket
	TypeSetPacket
)

// String returns a string representation of the packet type.
func (t PacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeClearPacket:
		return "clear"
	case TypeSetPacket:
		return "set"
	default:
		return fmt.Sprintf("PacketType(%d)", t)
	}
}

// Packet is a packet sent over the wire to the strip controller.
type Packet interface {
	// Type returns the type of packet.
	Type() PacketType
}

// InitializePacket tells the controller how many LEDs the strip has.
type InitializePacket struct {
	NumLEDs uint16
}

// ClearPacket turns every LED off.
type ClearPacket struct{}

// SetPacket sets the strip to the given wire-ordered channel bytes.
type SetPacket struct {
	Pix []uint8
}

func (p InitializePacket) Type() PacketType { return TypeInitializePacket }
func (p ClearPacket) Type() PacketType      { return TypeClearPacket }
func (p SetPacket) Type() PacketType        { return TypeSetPacket }

// ErrChecksum is returned by ReadPacket when the trailing CRC32 does not match.
var ErrChecksum = errors.New("packet checksum mismatch")

// WritePacket writes p to w followed by a CRC32 of the type and body.
func WritePacket(w io.Writer, p Packet) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	if err := binary.Write(w, Endianness, p.Type()); err != nil {
		return errors.Wrap(err, "failed to write packet type")
	}

	switch p := p.(type) {
	case InitializePacket:
		if err := binary.Write(w, Endianness, p); err != nil {
			return errors.Wrap(err, "failed to write packet")
		}
	case ClearPacket:
	case SetPacket:
		if _, err := w.Write(p.Pix); err != nil {
			return errors.Wrap(err, "failed to write packet")
		}
	default:
		return errors.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return errors.Wrap(err, "failed to write packet checksum")
	}

	return nil
}

// ReadPacket reads a packet written by WritePacket. numLEDs sizes set packets.
func ReadPacket(r io.Reader, numLEDs uint16) (Packet, error) {
	hash := crc32.NewIEEE()
	tr := io.TeeReader(r, hash)

	var ptypeBuf [1]byte
	if _, err := io.ReadFull(tr, ptypeBuf[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read packet type")
	}

	var packet Packet
	switch ptype := PacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(tr, Endianness, &p); err != nil {
			return nil, errors.Wrap(err, "failed to read number of LEDs")
		}
		packet = p

	case TypeClearPacket:
		packet = ClearPacket{}

	case TypeSetPacket:
		p := SetPacket{Pix: make([]uint8, 3*int(numLEDs))}
		if _, err := io.ReadFull(tr, p.Pix); err != nil {
			return nil, errors.Wrap(err, "failed to read pixel data")
		}
		packet = p

	default:
		return nil, errors.Errorf("unknown packet type: %s", ptype)
	}

	sum := hash.Sum32()
	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return nil, errors.Wrap(err, "failed to read packet checksum")
	}
	if checksum != sum {
		return nil, ErrChecksum
	}

	return packet, nil
}
