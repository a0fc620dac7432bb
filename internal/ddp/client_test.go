package ddp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, config ClientConfig) (*Client, *MockUDPConn) {
	t.Helper()
	conn := NewMockUDPConn()
	config.Dialer = NewMockUDPDialer(conn)
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	client, err := NewClient(config)
	require.NoError(t, err)
	return client, conn
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, ClientConfig{})
	assert.Equal(t, DefaultPort, client.Port())
	assert.Equal(t, 1, client.Destination())
	assert.Equal(t, uint8(1), client.Sequence(), "sequence starts at 1, not 0")
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{})
	assert.Error(t, err, "host is required")

	_, err = NewClient(ClientConfig{Host: "h", Destination: 300, Dialer: NewMockUDPDialer(NewMockUDPConn())})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{Host: "h", MaxPixelsPerPacket: -1, Dialer: NewMockUDPDialer(NewMockUDPConn())})
	assert.Error(t, err)
}

func TestNewClient_DialError(t *testing.T) {
	t.Parallel()

	dialer := NewMockUDPDialer(nil)
	dialer.Error = errors.New("no route")
	_, err := NewClient(ClientConfig{Host: "127.0.0.1", Dialer: dialer})
	assert.Error(t, err)
}

func TestSendFrame_WritesDatagrams(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t, ClientConfig{MaxPixelsPerPacket: 4})

	rgb := rgbBytes(10) // 3 packets at 4 pixels per packet
	report, err := client.SendFrame(rgb)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Packets)
	assert.Equal(t, 30, report.Bytes)
	assert.Equal(t, 0, report.Dropped)
	require.Len(t, conn.Datagrams, 3)

	// Every datagram must parse back; PUSH only on the last.
	for i, d := range conn.Datagrams {
		p, err := ParsePacket(d)
		require.NoError(t, err)
		assert.Equal(t, uint8(1), p.Sequence, "all packets of one frame share a sequence")
		assert.Equal(t, i == 2, p.Push())
	}
}

func TestSequence_RollsOncePerFrame(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t, ClientConfig{MaxPixelsPerPacket: 2})

	// A multi-packet frame advances the counter exactly once.
	_, err := client.SendFrame(rgbBytes(6))
	require.NoError(t, err)
	assert.Equal(t, uint8(2), client.Sequence())
	require.Len(t, conn.Datagrams, 3)

	_, err = client.SendSparse([]SparseUpdate{{Index: 0, RGB: [3]byte{1, 1, 1}}})
	require.NoError(t, err)
	assert.Equal(t, uint8(3), client.Sequence())
}

func TestSequence_WrapsFifteenToOne(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, ClientConfig{})

	// Drive the counter through a full cycle; 15 wraps to 1, never 0.
	seen := make(map[uint8]bool)
	for i := 0; i < 31; i++ {
		seq := client.Sequence()
		assert.NotEqual(t, uint8(0), seq)
		assert.LessOrEqual(t, seq, uint8(MaxSequence))
		seen[seq] = true
		_, err := client.SendSparse(nil)
		require.NoError(t, err)
	}
	assert.Len(t, seen, MaxSequence)
}

func TestTransmit_ContinuesPastWriteFailure(t *testing.T) {
	t.Parallel()

	conn := NewMockUDPConn()
	conn.WriteErrors = map[int]error{1: errors.New("tx queue full")}
	client, err := NewClient(ClientConfig{Host: "127.0.0.1", MaxPixelsPerPacket: 2, Dialer: NewMockUDPDialer(conn)})
	require.NoError(t, err)

	report, err := client.SendFrame(rgbBytes(6)) // 3 packets, middle one fails
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dropped 1 of 3")

	assert.Equal(t, 3, report.Packets)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, 12, report.Bytes, "only delivered payload is counted")
	assert.Len(t, conn.Datagrams, 2, "the failed write must not block later packets")

	// The sequence still advances: the frame is not retried.
	assert.Equal(t, uint8(2), client.Sequence())
}

func TestSendSparse_EmptyStillPushes(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t, ClientConfig{})
	report, err := client.SendSparse(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Packets)
	assert.Equal(t, 0, report.Bytes)
	require.Len(t, conn.Datagrams, 1)
	p, err := ParsePacket(conn.Datagrams[0])
	require.NoError(t, err)
	assert.True(t, p.Push())
	assert.Equal(t, uint16(0), p.Length)
}

func TestClose(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t, ClientConfig{})
	require.NoError(t, client.Close())
	assert.True(t, conn.Closed)
}
