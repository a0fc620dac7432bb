package matrix

import (
	"fmt"
)

// WiringMode selects how the logical row-major grid maps onto the physical
// LED chain. The original panels in the field disagree on this: some are
// chained row-serpentine, some column-serpentine, nominally under the same
// name. The mode is therefore always explicit caller configuration; there is
// no authoritative default for a given panel.
type WiringMode int

const (
	// WiringRowMajor chains LEDs left-to-right on every row (no reversal).
	WiringRowMajor WiringMode = iota
	// WiringRowSerpentine chains even rows left-to-right and odd rows
	// right-to-left.
	WiringRowSerpentine
	// WiringColumnSerpentine chains even columns top-to-bottom and odd
	// columns bottom-to-top.
	WiringColumnSerpentine
)

// String returns the config-file spelling of the wiring mode.
func (m WiringMode) String() string {
	switch m {
	case WiringRowMajor:
		return "row-major"
	case WiringRowSerpentine:
		return "row-serpentine"
	case WiringColumnSerpentine:
		return "column-serpentine"
	default:
		return fmt.Sprintf("WiringMode(%d)", int(m))
	}
}

// ParseWiringMode converts a config string into a WiringMode. Anything other
// than the known spellings is an error; wiring is never guessed.
func ParseWiringMode(s string) (WiringMode, error) {
	switch s {
	case "row-major":
		return WiringRowMajor, nil
	case "row-serpentine":
		return WiringRowSerpentine, nil
	case "column-serpentine":
		return WiringColumnSerpentine, nil
	default:
		return 0, fmt.Errorf("unknown wiring mode %q (want row-major, row-serpentine or column-serpentine)", s)
	}
}

// XYToIndex converts a logical (x, y) coordinate into a physical LED chain
// index for the given wiring mode. Pure and deterministic; the origin is the
// top-left corner.
func XYToIndex(x, y, width, height int, mode WiringMode) (int, error) {
	if x < 0 || x >= width || y < 0 || y >= height {
		return 0, fmt.Errorf("%w: x=%d y=%d grid=%dx%d", ErrOutOfBounds, x, y, width, height)
	}

	switch mode {
	case WiringRowMajor:
		return y*width + x, nil
	case WiringRowSerpentine:
		if y%2 == 0 {
			return y*width + x, nil
		}
		return y*width + (width - 1 - x), nil
	case WiringColumnSerpentine:
		if x%2 == 0 {
			return x*height + y, nil
		}
		return x*height + (height - 1 - y), nil
	default:
		return 0, fmt.Errorf("unknown wiring mode %d", int(mode))
	}
}

// Mapping is an immutable bijection from logical index [0, W*H) to physical
// index [0, W*H), computed once at construction and reused for every frame.
type Mapping struct {
	width  int
	height int
	mode   WiringMode
	table  []int
}

// NewMapping builds the full logical-to-physical index table for the given
// dimensions and wiring mode.
func NewMapping(width, height int, mode WiringMode) (*Mapping, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("mapping dimensions must be positive, got %dx%d", width, height)
	}

	table := make([]int, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			phys, err := XYToIndex(x, y, width, height, mode)
			if err != nil {
				return nil, err
			}
			table[y*width+x] = phys
		}
	}

	return &Mapping{width: width, height: height, mode: mode, table: table}, nil
}

// Width returns the mapped grid width.
func (m *Mapping) Width() int { return m.width }

// Height returns the mapped grid height.
func (m *Mapping) Height() int { return m.height }

// Mode returns the wiring mode the table was built for.
func (m *Mapping) Mode() WiringMode { return m.mode }

// Len returns the number of entries in the mapping table (W*H).
func (m *Mapping) Len() int { return len(m.table) }

// Physical returns the physical chain index for a logical row-major index.
// The logical index must be in [0, W*H); the table is precomputed so lookup
// is a single slice read.
func (m *Mapping) Physical(logical int) (int, error) {
	if logical < 0 || logical >= len(m.table) {
		return 0, fmt.Errorf("%w: logical index %d, table size %d", ErrOutOfBounds, logical, len(m.table))
	}
	return m.table[logical], nil
}
