package scenes

import (
	"fmt"
	"math/rand"

	"github.com/banshee-data/ledwall/internal/matrix"
)

// LifeConfig tunes the cell automaton.
type LifeConfig struct {
	SecondsPerTick float64 // generation interval, default 0.2
	WrapEdges      bool    // toroidal neighbourhood
	RandomDensity  float64 // when positive, Reset seeds the grid at this live probability
	AliveColor     matrix.Color
	DeadColor      matrix.Color
	Rand           *rand.Rand
}

// Life is Conway's Game of Life on the logical grid.
type Life struct {
	width  int
	height int
	cfg    LifeConfig
	rng    *rand.Rand

	grid        []bool
	next        []bool
	accumulator float64
}

// NewLife creates the automaton for the given grid.
func NewLife(width, height int, cfg LifeConfig) (*Life, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scene dimensions must be positive, got %dx%d", width, height)
	}
	if cfg.SecondsPerTick == 0 {
		cfg.SecondsPerTick = 0.2
	}
	if (cfg.AliveColor == matrix.Color{}) {
		cfg.AliveColor = matrix.Color{G: 255}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Life{
		width:  width,
		height: height,
		cfg:    cfg,
		rng:    rng,
		grid:   make([]bool, width*height),
		next:   make([]bool, width*height),
	}, nil
}

// Reset clears the grid, then reseeds it when a random density is
// configured.
func (l *Life) Reset() {
	for i := range l.grid {
		l.grid[i] = false
		l.next[i] = false
	}
	l.accumulator = 0
	if l.cfg.RandomDensity > 0 {
		l.Randomize(l.cfg.RandomDensity)
	}
}

// Randomize fills the grid with live cells at the given probability.
func (l *Life) Randomize(density float64) {
	for i := range l.grid {
		l.grid[i] = l.rng.Float64() < density
	}
}

// SetCell sets one cell's state; out-of-range coordinates are ignored.
func (l *Life) SetCell(x, y int, alive bool) {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return
	}
	l.grid[y*l.width+x] = alive
}

// Alive reports one cell's state; out-of-range coordinates are dead.
func (l *Life) Alive(x, y int) bool {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return false
	}
	return l.grid[y*l.width+x]
}

// Update accumulates time and steps generations as they fall due.
func (l *Life) Update(dt float64) {
	l.accumulator += dt
	for l.accumulator >= l.cfg.SecondsPerTick {
		l.accumulator -= l.cfg.SecondsPerTick
		l.Step()
	}
}

// Step advances exactly one generation.
func (l *Life) Step() {
	w, h := l.width, l.height

	alive := func(x, y int) bool {
		if l.cfg.WrapEdges {
			x = (x + w) % w
			y = (y + h) % h
			return l.grid[y*w+x]
		}
		if x < 0 || x >= w || y < 0 || y >= h {
			return false
		}
		return l.grid[y*w+x]
	}

	for idx := range l.grid {
		x := idx % w
		y := idx / w

		neighbours := 0
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if alive(x+dx, y+dy) {
					neighbours++
				}
			}
		}

		if l.grid[idx] {
			l.next[idx] = neighbours == 2 || neighbours == 3
		} else {
			l.next[idx] = neighbours == 3
		}
	}

	l.grid, l.next = l.next, l.grid
}

// Render draws the current generation. The framebuffer's value-change check
// keeps unchanged cells out of the dirty set, so stable patterns cost no
// traffic.
func (l *Life) Render(fb *matrix.FrameBuffer) error {
	for idx, alive := range l.grid {
		col := l.cfg.DeadColor
		if alive {
			col = l.cfg.AliveColor
		}
		if err := fb.SetPixel(idx%l.width, idx/l.width, col); err != nil {
			return err
		}
	}
	return nil
}
