package ddp

import (
	"fmt"
	"sort"
)

// SparseUpdate is one changed pixel for the sparse encoder: a physical pixel
// index and its RGB value. The encoder is deliberately independent of the
// framebuffer types; the display layer converts and remaps before encoding.
type SparseUpdate struct {
	Index int
	RGB   [BytesPerPixel]byte
}

func validateEncodeArgs(destination, maxPixels int) error {
	if maxPixels <= 0 {
		return fmt.Errorf("max pixels per packet must be positive, got %d", maxPixels)
	}
	if destination < 0 || destination > 255 {
		return fmt.Errorf("destination id must be in range 0..255, got %d", destination)
	}
	return nil
}

// pushOnly builds the canonical "refresh only" packet: offset 0, length 0,
// PUSH set. Emitted for empty frames and empty update sets so the controller
// still latches its buffer.
func pushOnly(sequence uint8, destination int) *Packet {
	return &Packet{
		Flags:       FlagVer1 | FlagPush,
		Sequence:    sequence,
		DataType:    DataTypeRGB8,
		Destination: uint8(destination),
	}
}

// EncodeFrame splits a full frame of pixel bytes into ordered DDP packets.
//
// The byte stream is chunked into payloads of at most maxPixels*3 bytes, each
// chunk carrying its byte offset into the stream. The PUSH flag is set only
// on the chunk that reaches the end of the stream. An empty stream yields
// exactly one zero-length PUSH packet.
//
// The encoder stamps the sequence number it is given and owns no counter
// state; the client advances its rolling counter once per logical frame.
func EncodeFrame(rgb []byte, sequence uint8, destination, maxPixels int) ([]*Packet, error) {
	if err := validateEncodeArgs(destination, maxPixels); err != nil {
		return nil, err
	}

	if len(rgb) == 0 {
		return []*Packet{pushOnly(sequence, destination)}, nil
	}

	maxPayload := maxPixels * BytesPerPixel
	packets := make([]*Packet, 0, (len(rgb)+maxPayload-1)/maxPayload)

	for offset := 0; offset < len(rgb); {
		end := offset + maxPayload
		if end > len(rgb) {
			end = len(rgb)
		}
		chunk := rgb[offset:end]

		flags := uint8(FlagVer1)
		if end == len(rgb) {
			flags |= FlagPush
		}

		payload := make([]byte, len(chunk))
		copy(payload, chunk)

		packets = append(packets, &Packet{
			Flags:       flags,
			Sequence:    sequence,
			DataType:    DataTypeRGB8,
			Destination: uint8(destination),
			Offset:      uint32(offset),
			Length:      uint16(len(chunk)),
			Payload:     payload,
		})
		offset = end
	}

	return packets, nil
}

// EncodeSparse builds DDP packets for a set of changed pixels.
//
// Updates are sorted by pixel index and greedily merged into maximal runs of
// strictly consecutive indices. A run is closed as soon as the next index is
// non-consecutive or appending it would exceed the maxPixels*3 byte ceiling;
// each closed run becomes one packet with offset = runStart*3 (chunked
// further with the full-frame rule if a single run still exceeds the
// ceiling). The PUSH flag is set only on the final packet of the whole
// update set, which requires buffering the complete list before flagging.
//
// An empty update set yields the same single zero-length PUSH packet as an
// empty full frame.
func EncodeSparse(updates []SparseUpdate, sequence uint8, destination, maxPixels int) ([]*Packet, error) {
	if err := validateEncodeArgs(destination, maxPixels); err != nil {
		return nil, err
	}

	if len(updates) == 0 {
		return []*Packet{pushOnly(sequence, destination)}, nil
	}

	sorted := make([]SparseUpdate, len(updates))
	copy(sorted, updates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	maxPayload := maxPixels * BytesPerPixel
	var packets []*Packet

	flushRun := func(runStart int, runBytes []byte) {
		byteOffset := runStart * BytesPerPixel
		for chunkStart := 0; chunkStart < len(runBytes); {
			end := chunkStart + maxPayload
			if end > len(runBytes) {
				end = len(runBytes)
			}
			payload := make([]byte, end-chunkStart)
			copy(payload, runBytes[chunkStart:end])

			packets = append(packets, &Packet{
				Flags:       FlagVer1, // PUSH applied to the very last packet below
				Sequence:    sequence,
				DataType:    DataTypeRGB8,
				Destination: uint8(destination),
				Offset:      uint32(byteOffset + chunkStart),
				Length:      uint16(len(payload)),
				Payload:     payload,
			})
			chunkStart = end
		}
	}

	runStart := sorted[0].Index
	runBytes := make([]byte, 0, maxPayload)

	for _, u := range sorted {
		expectedNext := runStart + len(runBytes)/BytesPerPixel
		if u.Index == expectedNext && len(runBytes)+BytesPerPixel <= maxPayload {
			runBytes = append(runBytes, u.RGB[0], u.RGB[1], u.RGB[2])
			continue
		}
		flushRun(runStart, runBytes)
		runStart = u.Index
		runBytes = append(runBytes[:0], u.RGB[0], u.RGB[1], u.RGB[2])
	}
	flushRun(runStart, runBytes)

	packets[len(packets)-1].Flags |= FlagPush
	return packets, nil
}
