// Package ddp implements the DDP pixel-streaming wire protocol: packet
// layout, full-frame and sparse encoders, and a fire-and-forget UDP client.
//
// DDP is an unacknowledged datagram protocol. Individual packet loss is an
// accepted, silent possibility; the receiving controller latches buffered
// pixel data when it sees a packet with the PUSH flag set.
package ddp

import (
	"encoding/binary"
	"fmt"
)

// DDP wire constants. The header is 10 bytes; all multi-byte integers are
// big-endian.
const (
	// DefaultPort is the standard DDP UDP port.
	DefaultPort = 4048
	// HeaderLen is the fixed header size in bytes.
	HeaderLen = 10

	// FlagVer1 marks a DDP v1 packet (bit 6 of the flags byte).
	FlagVer1 = 0x40
	// FlagPush instructs the controller to latch and display the buffered
	// pixel data immediately (bit 0 of the flags byte).
	FlagPush = 0x01

	// DataTypeRGB8 is the datatype byte for 8-bit RGB pixels.
	// Layout is C R TTT SSS: TTT=001 (RGB), SSS=011 (8-bit) => 0x0B.
	DataTypeRGB8 = 0x0B

	// BytesPerPixel is the payload size of one RGB pixel.
	BytesPerPixel = 3

	// DefaultMaxPixelsPerPacket is the commonly used per-packet pixel
	// ceiling: 480 pixels * 3 bytes = 1440 payload bytes, as referenced by
	// the DDP spec sample code.
	DefaultMaxPixelsPerPacket = 480

	// MaxSequence is the largest active sequence number. Sequence numbers
	// roll 1..15; 0 means sequencing is disabled.
	MaxSequence = 15
)

// Packet is a single decoded DDP packet: the header fields plus the pixel
// payload. Packets are transient, constructed per frame and not retained.
type Packet struct {
	Flags       uint8
	Sequence    uint8
	DataType    uint8
	Destination uint8
	Offset      uint32 // byte offset into the pixel byte stream
	Length      uint16 // payload length in bytes
	Payload     []byte
}

// Push reports whether the PUSH flag is set.
func (p *Packet) Push() bool { return p.Flags&FlagPush != 0 }

// Marshal serialises the packet into its wire form: 10-byte header followed
// by the payload.
func (p *Packet) Marshal() []byte {
	buf := make([]byte, HeaderLen+len(p.Payload))
	buf[0] = p.Flags
	buf[1] = p.Sequence
	buf[2] = p.DataType
	buf[3] = p.Destination
	binary.BigEndian.PutUint32(buf[4:8], p.Offset)
	binary.BigEndian.PutUint16(buf[8:10], p.Length)
	copy(buf[HeaderLen:], p.Payload)
	return buf
}

// ParsePacket decodes a wire packet back into header fields and payload.
// Used by the offline analysis tooling and by tests that round-trip encoder
// output; the driver itself only transmits.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("packet too short for header: need %d bytes, have %d", HeaderLen, len(data))
	}

	p := &Packet{
		Flags:       data[0],
		Sequence:    data[1],
		DataType:    data[2],
		Destination: data[3],
		Offset:      binary.BigEndian.Uint32(data[4:8]),
		Length:      binary.BigEndian.Uint16(data[8:10]),
	}

	if p.Flags&FlagVer1 == 0 {
		return nil, fmt.Errorf("unsupported DDP version in flags byte 0x%02x", p.Flags)
	}
	if int(p.Length) != len(data)-HeaderLen {
		return nil, fmt.Errorf("payload length mismatch: header says %d, packet carries %d", p.Length, len(data)-HeaderLen)
	}
	if p.Length > 0 {
		p.Payload = make([]byte, p.Length)
		copy(p.Payload, data[HeaderLen:])
	}
	return p, nil
}
