// Package display is the output layer that turns a logical framebuffer into
// traffic for the LED controller. It is the only place that understands the
// panel's physical wiring: renderers draw into a row-major framebuffer and
// Show decides, per frame, how the pixels reach the device.
package display

import (
	"errors"
	"fmt"

	"github.com/banshee-data/ledwall/internal/ddp"
	"github.com/banshee-data/ledwall/internal/matrix"
)

// ErrSizeMismatch is returned when a framebuffer's dimensions disagree with
// the display's configured dimensions.
var ErrSizeMismatch = errors.New("framebuffer size does not match display")

// DefaultSparseThreshold is the dirty-ratio at or above which a differential
// display sends a full frame instead of sparse runs. Large deltas favour one
// dense payload over many small per-run headers.
const DefaultSparseThreshold = 0.5

// Protocol selects how frames are delivered to the controller.
type Protocol int

const (
	// ProtocolJSON sends every frame through the reliable JSON control
	// channel. Slow but acknowledged.
	ProtocolJSON Protocol = iota
	// ProtocolDDPFull streams every frame in full over the datagram path.
	ProtocolDDPFull
	// ProtocolDDP streams over the datagram path, choosing per frame
	// between sparse runs and a full frame based on the dirty ratio.
	ProtocolDDP
)

// String returns the config-file spelling of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolJSON:
		return "json"
	case ProtocolDDPFull:
		return "ddp-full"
	case ProtocolDDP:
		return "ddp"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol converts a config string into a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "json":
		return ProtocolJSON, nil
	case "ddp-full":
		return ProtocolDDPFull, nil
	case "ddp":
		return ProtocolDDP, nil
	default:
		return 0, fmt.Errorf("unknown output protocol %q (want json, ddp or ddp-full)", s)
	}
}

// FrameSender is the unacknowledged datagram path for pixel data.
// *ddp.Client implements it.
type FrameSender interface {
	SendFrame(rgb []byte) (ddp.SendReport, error)
	SendSparse(updates []ddp.SparseUpdate) (ddp.SendReport, error)
}

// PixelSink is the reliable full-frame path. *wled.Controller implements it.
type PixelSink interface {
	SetPixels(colors []matrix.Color) error
	SetSolidColor(col matrix.Color) error
}

// FrameReport describes what one Show call put on the wire.
type FrameReport struct {
	Mode    string // "full", "sparse", "json" or "skip"
	Dirty   int    // dirty pixels drained from the framebuffer
	Packets int    // datagram count (zero on the JSON path)
	Bytes   int    // payload bytes actually sent
}

// Config contains configuration options for an Output.
type Config struct {
	Width    int
	Height   int
	Wiring   matrix.WiringMode
	Protocol Protocol

	// SparseThreshold overrides DefaultSparseThreshold when positive.
	SparseThreshold float64

	// Sender carries pixel datagrams; required for the DDP protocols.
	Sender FrameSender
	// Sink is the reliable path; required for ProtocolJSON and used by
	// Clear regardless of protocol.
	Sink PixelSink
}

// Output drives one LED matrix. It composes the wiring map, the packet
// encoders (via the sender) and the per-frame full-versus-sparse decision.
type Output struct {
	width     int
	height    int
	mapping   *matrix.Mapping
	protocol  Protocol
	threshold float64
	sender    FrameSender
	sink      PixelSink
}

// NewOutput builds an Output, precomputing the logical-to-physical mapping
// table once for the session.
func NewOutput(config Config) (*Output, error) {
	mapping, err := matrix.NewMapping(config.Width, config.Height, config.Wiring)
	if err != nil {
		return nil, err
	}

	switch config.Protocol {
	case ProtocolJSON:
		if config.Sink == nil {
			return nil, fmt.Errorf("protocol %s requires a pixel sink", config.Protocol)
		}
	case ProtocolDDP, ProtocolDDPFull:
		if config.Sender == nil {
			return nil, fmt.Errorf("protocol %s requires a frame sender", config.Protocol)
		}
	default:
		return nil, fmt.Errorf("unknown output protocol %d", int(config.Protocol))
	}

	threshold := config.SparseThreshold
	if threshold <= 0 {
		threshold = DefaultSparseThreshold
	}

	return &Output{
		width:     config.Width,
		height:    config.Height,
		mapping:   mapping,
		protocol:  config.Protocol,
		threshold: threshold,
		sender:    config.Sender,
		sink:      config.Sink,
	}, nil
}

// Width returns the display width in pixels.
func (o *Output) Width() int { return o.width }

// Height returns the display height in pixels.
func (o *Output) Height() int { return o.height }

// Show transmits the framebuffer's current state and drains its dirty set.
//
// On the differential protocol the frame is skipped entirely when nothing is
// dirty, sent sparse below the threshold, and sent full at or above it. The
// dirty set is cleared after the send attempt, win or lose, so a transport
// failure never causes the same delta to be re-sent and grow stale.
func (o *Output) Show(fb *matrix.FrameBuffer) (FrameReport, error) {
	if fb.Width() != o.width || fb.Height() != o.height {
		return FrameReport{}, fmt.Errorf("%w: framebuffer %dx%d, display %dx%d",
			ErrSizeMismatch, fb.Width(), fb.Height(), o.width, o.height)
	}

	switch o.protocol {
	case ProtocolJSON:
		defer fb.ClearDirty()
		if err := o.sink.SetPixels(o.remapFull(fb)); err != nil {
			return FrameReport{}, err
		}
		return FrameReport{Mode: "json", Dirty: fb.DirtyCount()}, nil

	case ProtocolDDPFull:
		defer fb.ClearDirty()
		report, err := o.sender.SendFrame(o.remapFullBytes(fb))
		return FrameReport{Mode: "full", Dirty: fb.DirtyCount(), Packets: report.Packets, Bytes: report.Bytes}, err

	case ProtocolDDP:
		dirty := fb.DirtyPixels()
		defer fb.ClearDirty()

		if len(dirty) == 0 {
			// Nothing changed: no network traffic at all.
			return FrameReport{Mode: "skip"}, nil
		}

		ratio := float64(len(dirty)) / float64(o.width*o.height)
		if ratio >= o.threshold {
			report, err := o.sender.SendFrame(o.remapFullBytes(fb))
			return FrameReport{Mode: "full", Dirty: len(dirty), Packets: report.Packets, Bytes: report.Bytes}, err
		}

		updates := make([]ddp.SparseUpdate, len(dirty))
		for i, d := range dirty {
			phys, err := o.mapping.Physical(d.Index)
			if err != nil {
				return FrameReport{}, err
			}
			updates[i] = ddp.SparseUpdate{
				Index: phys,
				RGB:   [ddp.BytesPerPixel]byte{d.Color.R, d.Color.G, d.Color.B},
			}
		}
		report, err := o.sender.SendSparse(updates)
		return FrameReport{Mode: "sparse", Dirty: len(dirty), Packets: report.Packets, Bytes: report.Bytes}, err

	default:
		return FrameReport{}, fmt.Errorf("unknown output protocol %d", int(o.protocol))
	}
}

// Clear pushes a solid colour to the whole panel, bypassing any framebuffer.
// On the datagram protocols this is a full frame; on the JSON protocol it is
// a single solid-colour command.
func (o *Output) Clear(col matrix.Color) error {
	if o.protocol == ProtocolJSON {
		return o.sink.SetSolidColor(col)
	}

	rgb := make([]byte, o.width*o.height*ddp.BytesPerPixel)
	for i := 0; i < o.width*o.height; i++ {
		rgb[i*ddp.BytesPerPixel] = col.R
		rgb[i*ddp.BytesPerPixel+1] = col.G
		rgb[i*ddp.BytesPerPixel+2] = col.B
	}
	_, err := o.sender.SendFrame(rgb)
	return err
}

// remapFull reorders the framebuffer's logical pixels into physical chain
// order as colours (for the JSON path).
func (o *Output) remapFull(fb *matrix.FrameBuffer) []matrix.Color {
	logical := fb.Snapshot()
	out := make([]matrix.Color, len(logical))
	for idx, col := range logical {
		phys, _ := o.mapping.Physical(idx) // idx always in range: same dimensions
		out[phys] = col
	}
	return out
}

// remapFullBytes reorders the framebuffer's logical pixels into a
// physical-index-ordered byte stream (for the datagram path).
func (o *Output) remapFullBytes(fb *matrix.FrameBuffer) []byte {
	logical := fb.Snapshot()
	out := make([]byte, len(logical)*ddp.BytesPerPixel)
	for idx, col := range logical {
		phys, _ := o.mapping.Physical(idx)
		out[phys*ddp.BytesPerPixel] = col.R
		out[phys*ddp.BytesPerPixel+1] = col.G
		out[phys*ddp.BytesPerPixel+2] = col.B
	}
	return out
}
