package scenes

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/ledwall/internal/matrix"
)

// SnowfallConfig tunes the snowfall simulation. Zero fields fall back to the
// listed defaults.
type SnowfallConfig struct {
	Density            float64 // flakes per cell, default 0.06
	FallSpeedMin       float64 // cells/second before height scaling, default 0.8
	FallSpeedMax       float64 // default 5.0
	DriftSpeedMin      float64 // radians/second of sway phase, default 0.6
	DriftSpeedMax      float64 // default 1.6
	TwinkleSpeedMin    float64 // default 0.8
	TwinkleSpeedMax    float64 // default 2.4
	DriftAmplitude     float64 // horizontal sway in cells, default width*0.08
	BackgroundColor    matrix.Color
	SnowColor          matrix.Color
	IntensityMin       float64 // default 0.4
	IntensityMax       float64 // default 1.0
	IntensityCycleSecs float64 // storm ebb/flow period, default 24
	MeltRate           float64 // ground cells melted per second, default 0.12
	TargetFPS          float64 // fixed simulation step rate, default 45
	Rand               *rand.Rand
}

type snowflake struct {
	baseX        float64
	x, y         float64
	fallSpeed    float64
	driftSpeed   float64
	driftPhase   float64
	twinklePhase float64
	twinkleSpeed float64
	depth        float64
}

// Snowfall is a drifting snowfall with ground accumulation and melt. Flake
// count ebbs and flows with a sinusoidal intensity cycle; each flake sways
// on a sine drift and twinkles independently.
type Snowfall struct {
	width  int
	height int
	cfg    SnowfallConfig
	rng    *rand.Rand

	flakes        []snowflake
	active        map[int]struct{}
	groundHeights []float64
	lastPositions []GridPoint

	flakeCount  int
	heightScale float64
	interval    float64
	accumulator float64
	time        float64
	intensity   float64
	stepped     bool
}

// NewSnowfall creates the scene for the given grid.
func NewSnowfall(width, height int, cfg SnowfallConfig) (*Snowfall, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scene dimensions must be positive, got %dx%d", width, height)
	}
	if cfg.Density == 0 {
		cfg.Density = 0.06
	}
	if cfg.Density < 0 {
		return nil, fmt.Errorf("density must be positive, got %f", cfg.Density)
	}
	if cfg.FallSpeedMin == 0 {
		cfg.FallSpeedMin = 0.8
	}
	if cfg.FallSpeedMax == 0 {
		cfg.FallSpeedMax = 5.0
	}
	if cfg.DriftSpeedMin == 0 {
		cfg.DriftSpeedMin = 0.6
	}
	if cfg.DriftSpeedMax == 0 {
		cfg.DriftSpeedMax = 1.6
	}
	if cfg.TwinkleSpeedMin == 0 {
		cfg.TwinkleSpeedMin = 0.8
	}
	if cfg.TwinkleSpeedMax == 0 {
		cfg.TwinkleSpeedMax = 2.4
	}
	if cfg.DriftAmplitude == 0 {
		cfg.DriftAmplitude = float64(width) * 0.08
	}
	if (cfg.BackgroundColor == matrix.Color{}) {
		cfg.BackgroundColor = matrix.Color{B: 20}
	}
	if (cfg.SnowColor == matrix.Color{}) {
		cfg.SnowColor = matrix.Color{R: 230, G: 240, B: 255}
	}
	if cfg.IntensityMin == 0 {
		cfg.IntensityMin = 0.4
	}
	if cfg.IntensityMax == 0 {
		cfg.IntensityMax = 1.0
	}
	if cfg.IntensityMin < 0 || cfg.IntensityMax > 1 || cfg.IntensityMax < cfg.IntensityMin {
		return nil, fmt.Errorf("intensity range must be ordered within 0..1, got %f..%f", cfg.IntensityMin, cfg.IntensityMax)
	}
	if cfg.IntensityCycleSecs == 0 {
		cfg.IntensityCycleSecs = 24
	}
	if cfg.MeltRate == 0 {
		cfg.MeltRate = 0.12
	}
	if cfg.TargetFPS == 0 {
		cfg.TargetFPS = 45
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	flakeCount := int(float64(width*height) * cfg.Density)
	if flakeCount < 1 {
		flakeCount = 1
	}

	s := &Snowfall{
		width:         width,
		height:        height,
		cfg:           cfg,
		rng:           rng,
		active:        make(map[int]struct{}),
		groundHeights: make([]float64, width),
		flakeCount:    flakeCount,
		heightScale:   math.Max(1, float64(height)/16),
	}
	if cfg.TargetFPS > 0 {
		s.interval = 1.0 / cfg.TargetFPS
	}
	s.Reset()
	return s, nil
}

// Reset respawns every flake and clears the ground.
func (s *Snowfall) Reset() {
	s.flakes = s.flakes[:0]
	for i := 0; i < s.flakeCount; i++ {
		s.flakes = append(s.flakes, s.spawnFlake(true))
	}
	for i := range s.active {
		delete(s.active, i)
	}
	for i := range s.flakes {
		s.active[i] = struct{}{}
	}
	for i := range s.groundHeights {
		s.groundHeights[i] = 0
	}
	s.lastPositions = s.lastPositions[:0]
	s.accumulator = 0
	s.time = 0
	s.intensity = (s.cfg.IntensityMin + s.cfg.IntensityMax) / 2
	s.syncActiveFlakes(s.targetActiveCount(s.intensity))
	s.stepped = false
}

// Update accumulates time and advances the simulation at the fixed step
// rate.
func (s *Snowfall) Update(dt float64) {
	if dt < 0 {
		dt = 0
	}
	if s.interval <= 0 {
		s.advance(dt)
		s.stepped = true
		return
	}
	s.accumulator += dt
	for s.accumulator >= s.interval {
		s.advance(s.interval)
		s.accumulator -= s.interval
		s.stepped = true
	}
}

// Render erases last frame's flakes, draws the accumulated ground and the
// active flakes. Skipped entirely when the simulation has not advanced.
func (s *Snowfall) Render(fb *matrix.FrameBuffer) error {
	if !s.stepped {
		return nil
	}
	s.stepped = false

	// Erase previous flake positions that are above the current ground.
	for _, p := range s.lastPositions {
		groundTop := s.height - int(math.Ceil(s.groundHeights[p.X]))
		if p.Y < groundTop {
			if err := fb.SetPixel(p.X, p.Y, s.cfg.BackgroundColor); err != nil {
				return err
			}
		}
	}

	// Ground: brighter at the surface, dimmer below.
	for x := 0; x < s.width; x++ {
		columnHeight := int(math.Ceil(s.groundHeights[x]))
		if columnHeight > s.height {
			columnHeight = s.height
		}
		for i := 0; i < columnHeight; i++ {
			y := s.height - 1 - i
			depthFactor := 0.7 + 0.3*(1.0-float64(i)/math.Max(1, float64(columnHeight)))
			if err := fb.SetPixel(x, y, scaleColor(s.cfg.SnowColor, depthFactor)); err != nil {
				return err
			}
		}
	}

	positions := s.lastPositions[:0]
	for idx := range s.active {
		flake := &s.flakes[idx]
		x := s.quantizeX(flake.x)
		y := int(math.Round(flake.y))
		if y < 0 || y >= s.height {
			continue
		}
		groundTop := s.height - int(math.Ceil(s.groundHeights[x]))
		if y >= groundTop {
			continue
		}
		if err := fb.SetPixel(x, y, scaleColor(s.cfg.SnowColor, s.flakeIntensity(flake))); err != nil {
			return err
		}
		positions = append(positions, GridPoint{X: x, Y: y})
	}
	s.lastPositions = positions
	return nil
}

func (s *Snowfall) advance(dt float64) {
	s.time += dt
	s.intensity = s.computeIntensity()
	s.syncActiveFlakes(s.targetActiveCount(s.intensity))

	coverage := make([]bool, s.width)
	fallScale := 0.6 + 0.8*s.intensity

	for idx := range s.flakes {
		if _, ok := s.active[idx]; !ok {
			continue
		}
		flake := &s.flakes[idx]

		flake.y += flake.fallSpeed * dt * fallScale
		flake.driftPhase += flake.driftSpeed * dt
		flake.twinklePhase += flake.twinkleSpeed * dt

		driftStrength := s.cfg.DriftAmplitude * (0.5 + 0.5*flake.depth)
		flake.x = math.Mod(flake.baseX+math.Sin(flake.driftPhase)*driftStrength, float64(s.width))
		if flake.x < 0 {
			flake.x += float64(s.width)
		}

		col := s.quantizeX(flake.x)
		altitude := float64(s.height-1) - flake.y
		if flake.y >= float64(s.height-1) || altitude < s.groundHeights[col] {
			// Landed: grow the drift in this column and respawn the flake.
			s.groundHeights[col] = math.Min(float64(s.height), s.groundHeights[col]+1)
			coverage[col] = true
			s.flakes[idx] = s.spawnFlake(false)
			continue
		}
		if altitude <= s.groundHeights[col]+1 {
			coverage[col] = true
		}
	}

	// Columns not being snowed on melt slowly.
	melt := s.cfg.MeltRate * dt
	if melt > 0 {
		for x := 0; x < s.width; x++ {
			if !coverage[x] {
				s.groundHeights[x] = math.Max(0, s.groundHeights[x]-melt)
			}
		}
	}
}

func (s *Snowfall) flakeIntensity(f *snowflake) float64 {
	twinkle := 0.7 + 0.3*(0.5+0.5*math.Sin(f.twinklePhase))
	depthTerm := 0.4 + 0.6*f.depth
	sceneTerm := 0.5 + 0.5*s.intensity
	return math.Min(1, depthTerm*twinkle*sceneTerm)
}

func (s *Snowfall) spawnFlake(initial bool) snowflake {
	baseX := 0.0
	if s.width > 1 {
		baseX = s.rng.Float64() * float64(s.width-1)
	}
	var y float64
	if initial {
		y = (s.rng.Float64()*2 - 1) * float64(s.height)
	} else {
		y = -s.rng.Float64() * float64(s.height)
	}

	uniform := func(lo, hi float64) float64 { return lo + s.rng.Float64()*(hi-lo) }

	return snowflake{
		baseX:        baseX,
		x:            baseX,
		y:            y,
		fallSpeed:    uniform(s.cfg.FallSpeedMin, s.cfg.FallSpeedMax) * s.heightScale,
		driftSpeed:   uniform(s.cfg.DriftSpeedMin, s.cfg.DriftSpeedMax),
		driftPhase:   s.rng.Float64() * 2 * math.Pi,
		twinklePhase: s.rng.Float64() * 2 * math.Pi,
		twinkleSpeed: uniform(s.cfg.TwinkleSpeedMin, s.cfg.TwinkleSpeedMax),
		depth:        uniform(0.3, 1.0),
	}
}

// syncActiveFlakes grows or shrinks the active set towards target, picking
// candidates at random so density changes look organic.
func (s *Snowfall) syncActiveFlakes(target int) {
	if target < 1 {
		target = 1
	}
	if target > len(s.flakes) {
		target = len(s.flakes)
	}
	current := len(s.active)
	if current == target {
		return
	}

	if current < target {
		candidates := make([]int, 0, len(s.flakes)-current)
		for i := range s.flakes {
			if _, ok := s.active[i]; !ok {
				candidates = append(candidates, i)
			}
		}
		s.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, idx := range candidates[:target-current] {
			s.active[idx] = struct{}{}
		}
		return
	}

	removable := make([]int, 0, current)
	for idx := range s.active {
		removable = append(removable, idx)
	}
	s.rng.Shuffle(len(removable), func(i, j int) {
		removable[i], removable[j] = removable[j], removable[i]
	})
	for _, idx := range removable[:current-target] {
		delete(s.active, idx)
	}
}

func (s *Snowfall) computeIntensity() float64 {
	lo, hi := s.cfg.IntensityMin, s.cfg.IntensityMax
	if s.cfg.IntensityCycleSecs <= 0 || math.Abs(hi-lo) < 1e-9 {
		return hi
	}
	phase := (math.Sin(s.time/s.cfg.IntensityCycleSecs*2*math.Pi) + 1) / 2
	return lo + (hi-lo)*phase
}

func (s *Snowfall) targetActiveCount(intensity float64) int {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}
	n := int(float64(s.flakeCount) * intensity)
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Snowfall) quantizeX(v float64) int {
	idx := int(math.Round(v))
	if idx < 0 {
		return 0
	}
	if idx >= s.width {
		return s.width - 1
	}
	return idx
}
