package ddp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketMarshal_WireLayout(t *testing.T) {
	t.Parallel()

	p := &Packet{
		Flags:       FlagVer1 | FlagPush,
		Sequence:    7,
		DataType:    DataTypeRGB8,
		Destination: 1,
		Offset:      0x01020304,
		Length:      3,
		Payload:     []byte{0xAA, 0xBB, 0xCC},
	}

	wire := p.Marshal()
	require.Len(t, wire, HeaderLen+3)

	assert.Equal(t, byte(0x41), wire[0], "VER1|PUSH flags")
	assert.Equal(t, byte(7), wire[1], "sequence")
	assert.Equal(t, byte(0x0B), wire[2], "RGB 8-bit datatype")
	assert.Equal(t, byte(1), wire[3], "destination")
	// Offset and length are big-endian.
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, wire[4:8])
	assert.Equal(t, []byte{0x00, 0x03}, wire[8:10])
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, wire[10:])
}

func TestPacketMarshal_EmptyPayload(t *testing.T) {
	t.Parallel()

	p := &Packet{Flags: FlagVer1 | FlagPush, DataType: DataTypeRGB8}
	wire := p.Marshal()
	assert.Len(t, wire, HeaderLen)
}

func TestParsePacket_RoundTrip(t *testing.T) {
	t.Parallel()

	orig := &Packet{
		Flags:       FlagVer1,
		Sequence:    3,
		DataType:    DataTypeRGB8,
		Destination: 4,
		Offset:      1440,
		Length:      6,
		Payload:     []byte{1, 2, 3, 4, 5, 6},
	}

	parsed, err := ParsePacket(orig.Marshal())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
	assert.False(t, parsed.Push())
}

func TestParsePacket_Errors(t *testing.T) {
	t.Parallel()

	t.Run("too short", func(t *testing.T) {
		_, err := ParsePacket([]byte{0x41, 0x00})
		assert.Error(t, err)
	})

	t.Run("missing version bit", func(t *testing.T) {
		p := &Packet{Flags: FlagPush, DataType: DataTypeRGB8}
		_, err := ParsePacket(p.Marshal())
		assert.Error(t, err)
	})

	t.Run("length mismatch", func(t *testing.T) {
		p := &Packet{Flags: FlagVer1, Length: 10, Payload: []byte{1, 2, 3}}
		wire := p.Marshal()
		// Marshal allocates for the payload, header still claims 10.
		_, err := ParsePacket(wire)
		assert.Error(t, err)
	})
}

func TestPush(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Packet{Flags: FlagVer1 | FlagPush}).Push())
	assert.False(t, (&Packet{Flags: FlagVer1}).Push())
}
