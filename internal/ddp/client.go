package ddp

import (
	"fmt"
	"net"
)

// ClientConfig contains configuration options for a DDP client.
type ClientConfig struct {
	Host               string
	Port               int // defaults to DefaultPort
	Destination        int // defaults to 1
	MaxPixelsPerPacket int // defaults to DefaultMaxPixelsPerPacket
	Dialer             UDPDialer
}

// SendReport summarises one transmitted logical frame: how many packets were
// constructed, how many payload bytes they carried, and how many datagrams
// failed to send. Lost datagrams are not retried; DDP accepts silent loss.
type SendReport struct {
	Packets int
	Bytes   int
	Dropped int
}

// Client streams DDP packets to a single controller over UDP.
//
// The client owns the rolling sequence counter: values roll 1..15 (0 is
// reserved to mean sequencing disabled) and advance exactly once per logical
// frame, after packet construction, so partial delivery of a frame's packets
// never skews the counter.
type Client struct {
	host        string
	port        int
	destination int
	maxPixels   int
	conn        UDPConn
	sequence    uint8
}

// NewClient dials the controller and returns a ready client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("ddp client requires a host")
	}
	port := config.Port
	if port == 0 {
		port = DefaultPort
	}
	destination := config.Destination
	if destination == 0 {
		destination = 1
	}
	if destination < 0 || destination > 255 {
		return nil, fmt.Errorf("destination id must be in range 0..255, got %d", destination)
	}
	maxPixels := config.MaxPixelsPerPacket
	if maxPixels == 0 {
		maxPixels = DefaultMaxPixelsPerPacket
	}
	if maxPixels < 0 {
		return nil, fmt.Errorf("max pixels per packet must be positive, got %d", maxPixels)
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = NewRealUDPDialer()
	}

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", config.Host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DDP address: %w", err)
	}
	conn, err := dialer.DialUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial DDP controller: %w", err)
	}

	return &Client{
		host:        config.Host,
		port:        port,
		destination: destination,
		maxPixels:   maxPixels,
		conn:        conn,
		sequence:    1,
	}, nil
}

// Port returns the UDP port the client is connected to.
func (c *Client) Port() int { return c.port }

// Destination returns the DDP destination id stamped on outgoing packets.
func (c *Client) Destination() int { return c.destination }

// Sequence returns the sequence number the next frame will carry.
func (c *Client) Sequence() uint8 { return c.sequence }

// Close closes the underlying UDP socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SendFrame encodes a full frame of pixel bytes and transmits it.
func (c *Client) SendFrame(rgb []byte) (SendReport, error) {
	packets, err := EncodeFrame(rgb, c.sequence, c.destination, c.maxPixels)
	if err != nil {
		return SendReport{}, err
	}
	return c.transmit(packets)
}

// SendSparse encodes a sparse update set and transmits it.
func (c *Client) SendSparse(updates []SparseUpdate) (SendReport, error) {
	packets, err := EncodeSparse(updates, c.sequence, c.destination, c.maxPixels)
	if err != nil {
		return SendReport{}, err
	}
	return c.transmit(packets)
}

// transmit writes every packet of one logical frame, then advances the
// sequence counter. A failed write does not block subsequent packets in the
// same frame; the last error is reported alongside the drop count.
func (c *Client) transmit(packets []*Packet) (SendReport, error) {
	report := SendReport{Packets: len(packets)}
	var lastErr error

	for _, p := range packets {
		if _, err := c.conn.Write(p.Marshal()); err != nil {
			report.Dropped++
			lastErr = err
			continue
		}
		report.Bytes += len(p.Payload)
	}

	// Roll 1..15; 0 is reserved for "sequencing disabled".
	c.sequence = c.sequence%MaxSequence + 1

	if lastErr != nil {
		return report, fmt.Errorf("dropped %d of %d packets (last error: %w)", report.Dropped, report.Packets, lastErr)
	}
	return report, nil
}
