package scenes

import (
	"fmt"
	"math/rand"

	"github.com/banshee-data/ledwall/internal/matrix"
)

// FireplaceConfig tunes the fire simulation. The zero value of any field
// falls back to the listed default.
type FireplaceConfig struct {
	BaseHeatMin      int     // bottom-row reseed minimum, default 180
	BaseHeatMax      int     // bottom-row reseed maximum, default 255
	Cooling          int     // max random decay per cell per step, default 3
	SparkProbability float64 // chance a hot cell flares, default 0.02
	TargetFPS        float64 // fixed simulation step rate, default 45
	Rand             *rand.Rand
}

// Fireplace is a procedural fire based on the classic "doom fire" algorithm.
// A heat buffer is diffused upward each step with the bottom row reseeded,
// and a precomputed 256-entry gradient palette maps heat to colour.
type Fireplace struct {
	width  int
	height int
	cfg    FireplaceConfig
	rng    *rand.Rand

	heat        []int
	scratch     []int
	palette     [256]matrix.Color
	interval    float64
	accumulator float64
	stepped     bool
}

// NewFireplace creates the scene for the given grid.
func NewFireplace(width, height int, cfg FireplaceConfig) (*Fireplace, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scene dimensions must be positive, got %dx%d", width, height)
	}
	if cfg.BaseHeatMin == 0 {
		cfg.BaseHeatMin = 180
	}
	if cfg.BaseHeatMax == 0 {
		cfg.BaseHeatMax = 255
	}
	if cfg.Cooling <= 0 {
		cfg.Cooling = 3
	}
	if cfg.SparkProbability == 0 {
		cfg.SparkProbability = 0.02
	}
	if cfg.TargetFPS == 0 {
		cfg.TargetFPS = 45
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	f := &Fireplace{
		width:   width,
		height:  height,
		cfg:     cfg,
		rng:     rng,
		heat:    make([]int, width*height),
		scratch: make([]int, width*height),
	}
	if cfg.TargetFPS > 0 {
		f.interval = 1.0 / cfg.TargetFPS
	}
	f.buildPalette()
	return f, nil
}

// Reset clears the heat field.
func (f *Fireplace) Reset() {
	for i := range f.heat {
		f.heat[i] = 0
		f.scratch[i] = 0
	}
	f.accumulator = 0
	f.stepped = false
}

// Update accumulates time and advances the fire at the fixed step rate.
func (f *Fireplace) Update(dt float64) {
	if dt < 0 {
		dt = 0
	}
	if f.interval <= 0 {
		f.advance()
		f.stepped = true
		return
	}
	f.accumulator += dt
	for f.accumulator >= f.interval {
		f.advance()
		f.accumulator -= f.interval
		f.stepped = true
	}
}

// Render writes the palette-mapped heat field into the framebuffer. Nothing
// is written until the simulation has advanced at least once, so a stalled
// clock produces no dirty pixels.
func (f *Fireplace) Render(fb *matrix.FrameBuffer) error {
	if !f.stepped {
		return nil
	}
	f.stepped = false
	for idx, value := range f.heat {
		x := idx % f.width
		y := idx / f.width
		if err := fb.SetPixel(x, y, f.palette[value]); err != nil {
			return err
		}
	}
	return nil
}

// advance runs one diffusion step: average each cell with the three cells
// below it and the cell two below, subtract a random decay, and occasionally
// flare hot cells into sparks. The bottom row is reseeded with fresh heat.
func (f *Fireplace) advance() {
	w, h := f.width, f.height
	lastRow := (h - 1) * w

	for x := 0; x < w; x++ {
		f.heat[lastRow+x] = f.cfg.BaseHeatMin + f.rng.Intn(f.cfg.BaseHeatMax-f.cfg.BaseHeatMin+1)
	}

	for y := 0; y < h-1; y++ {
		for x := 0; x < w; x++ {
			below := f.heat[(y+1)*w+x]
			belowLeft := f.heat[(y+1)*w+((x-1+w)%w)]
			belowRight := f.heat[(y+1)*w+((x+1)%w)]
			twoBelowY := y + 2
			if twoBelowY > h-1 {
				twoBelowY = h - 1
			}
			twoBelow := f.heat[twoBelowY*w+x]

			value := (below+belowLeft+belowRight+twoBelow)>>2 - f.rng.Intn(f.cfg.Cooling+1)
			if value < 0 {
				value = 0
			}
			if value > 200 && f.rng.Float64() < f.cfg.SparkProbability {
				value += 25
				if value > 255 {
					value = 255
				}
			}
			f.scratch[y*w+x] = value
		}
	}
	copy(f.scratch[lastRow:], f.heat[lastRow:])
	f.heat, f.scratch = f.scratch, f.heat
}

func (f *Fireplace) buildPalette() {
	stops := []struct {
		pos   float64
		color matrix.Color
	}{
		{0.0, matrix.Color{}},
		{0.2, matrix.Color{R: 32}},
		{0.35, matrix.Color{R: 180, G: 20}},
		{0.55, matrix.Color{R: 255, G: 80}},
		{0.75, matrix.Color{R: 255, G: 180}},
		{0.9, matrix.Color{R: 255, G: 235, B: 128}},
		{1.0, matrix.Color{R: 255, G: 255, B: 255}},
	}

	for i := 0; i < 256; i++ {
		t := float64(i) / 255.0
		for s := 0; s < len(stops)-1; s++ {
			left, right := stops[s], stops[s+1]
			if t < left.pos || t > right.pos {
				continue
			}
			span := right.pos - left.pos
			if span == 0 {
				span = 1
			}
			f.palette[i] = lerpColor(left.color, right.color, (t-left.pos)/span)
			break
		}
	}
}
