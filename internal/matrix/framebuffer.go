// Package matrix provides the logical pixel model for an LED matrix:
// a row-major framebuffer with dirty tracking, and the logical-to-physical
// index mapping for serpentine panel wirings.
//
// The framebuffer deliberately knows nothing about the panel's physical
// wiring or the wire protocol. Mapping and transmission are handled by the
// display output layer (see internal/display).
package matrix

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfBounds is returned when a pixel coordinate falls outside the
// configured grid.
var ErrOutOfBounds = errors.New("pixel coordinate out of bounds")

// Color is an 8-bit-per-channel RGB colour. The zero value is black.
type Color struct {
	R, G, B uint8
}

// PixelUpdate pairs a logical pixel index with its current colour. Slices of
// PixelUpdate are the unit of exchange between the framebuffer's dirty set
// and the sparse packet encoder.
type PixelUpdate struct {
	Index int
	Color Color
}

// FrameBuffer is an in-memory logical pixel grid with change tracking.
//
// Pixels are stored in row-major order (index = y*Width + x). Every mutation
// that actually changes a stored value records the logical index in a dirty
// set; the display layer drains that set after each transmitted frame.
//
// A FrameBuffer is owned by exactly one renderer at a time and provides no
// internal locking. One render tick performs at most one mutation pass
// followed by at most one transmit pass.
type FrameBuffer struct {
	width  int
	height int
	pixels []Color
	dirty  map[int]struct{}
}

// NewFrameBuffer creates a framebuffer of the given dimensions with all
// pixels black and nothing marked dirty.
func NewFrameBuffer(width, height int) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("framebuffer dimensions must be positive, got %dx%d", width, height)
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		pixels: make([]Color, width*height),
		dirty:  make(map[int]struct{}),
	}, nil
}

// Width returns the logical grid width in pixels.
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the logical grid height in pixels.
func (fb *FrameBuffer) Height() int { return fb.height }

// SetPixel writes a colour at (x, y). The pixel is added to the dirty set
// only when the stored value actually changes, so repeated identical writes
// never produce no-op entries in a sparse update.
func (fb *FrameBuffer) SetPixel(x, y int, c Color) error {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return fmt.Errorf("%w: x=%d y=%d grid=%dx%d", ErrOutOfBounds, x, y, fb.width, fb.height)
	}
	idx := y*fb.width + x
	if fb.pixels[idx] != c {
		fb.pixels[idx] = c
		fb.dirty[idx] = struct{}{}
	}
	return nil
}

// PixelAt returns the stored colour at (x, y).
func (fb *FrameBuffer) PixelAt(x, y int) (Color, error) {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return Color{}, fmt.Errorf("%w: x=%d y=%d grid=%dx%d", ErrOutOfBounds, x, y, fb.width, fb.height)
	}
	return fb.pixels[y*fb.width+x], nil
}

// Clear overwrites every pixel with the given colour and marks all indices
// dirty regardless of their previous value. This is the "force full resend"
// operation: even pixels whose value did not change are retransmitted on the
// next Show.
func (fb *FrameBuffer) Clear(c Color) {
	for i := range fb.pixels {
		fb.pixels[i] = c
		fb.dirty[i] = struct{}{}
	}
}

// DirtyCount returns the number of pixels currently marked dirty.
func (fb *FrameBuffer) DirtyCount() int { return len(fb.dirty) }

// DirtyPixels returns the dirty pixels with their current colours, ordered
// by ascending logical index. Ascending order is required downstream for run
// merging in the sparse encoder and keeps test output deterministic.
func (fb *FrameBuffer) DirtyPixels() []PixelUpdate {
	indices := make([]int, 0, len(fb.dirty))
	for idx := range fb.dirty {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	updates := make([]PixelUpdate, len(indices))
	for i, idx := range indices {
		updates[i] = PixelUpdate{Index: idx, Color: fb.pixels[idx]}
	}
	return updates
}

// ClearDirty empties the dirty set. Pixel values are untouched. Called by
// the display layer after every transmitted frame.
func (fb *FrameBuffer) ClearDirty() {
	for idx := range fb.dirty {
		delete(fb.dirty, idx)
	}
}

// Snapshot copies the current pixel contents in logical row-major order.
// The returned slice is independent of the framebuffer's storage.
func (fb *FrameBuffer) Snapshot() []Color {
	out := make([]Color, len(fb.pixels))
	copy(out, fb.pixels)
	return out
}
