package scenes

import (
	"fmt"
	"math/rand"

	"github.com/banshee-data/ledwall/internal/matrix"
)

// Direction is a unit step on the grid.
type Direction struct {
	DX, DY int
}

// The four legal movement directions.
var (
	DirUp    = Direction{0, -1}
	DirDown  = Direction{0, 1}
	DirLeft  = Direction{-1, 0}
	DirRight = Direction{1, 0}
)

func opposite(a, b Direction) bool {
	return a.DX == -b.DX && a.DY == -b.DY
}

// GridPoint is a cell coordinate.
type GridPoint struct {
	X, Y int
}

// SnakeColors groups the colours used by the snake renderer.
type SnakeColors struct {
	Background matrix.Color
	Head       matrix.Color
	Body       matrix.Color
	Apple      matrix.Color
}

// DefaultSnakeColors returns the standard palette: yellow head, orange body,
// green apple on black.
func DefaultSnakeColors() SnakeColors {
	return SnakeColors{
		Head:  matrix.Color{R: 255, G: 255},
		Body:  matrix.Color{R: 255, G: 165},
		Apple: matrix.Color{G: 255},
	}
}

// SnakeConfig tunes the game.
type SnakeConfig struct {
	SecondsPerTick    float64 // movement interval, default 0.3
	StartOnFirstInput bool    // wait for a direction before moving
	Colors            *SnakeColors
	Rand              *rand.Rand

	// InitialSnake, InitialDirection and InitialApple pin the starting
	// position; used by tests. When nil/zero the snake starts as a single
	// segment at the centre heading right with a random apple.
	InitialSnake     []GridPoint
	InitialDirection Direction
	InitialApple     *GridPoint
}

// Snake is the classic turn-based grid game. Movement is exactly one cell
// per tick; walls and self-collisions end the game; 180-degree turns are
// ignored. Rendering is incremental: only cells that changed since the last
// render are written, which keeps the sparse transport path at a handful of
// pixels per tick.
type Snake struct {
	width  int
	height int
	cfg    SnakeConfig
	colors SnakeColors
	rng    *rand.Rand

	running bool
	paused  bool
	started bool

	direction   Direction
	pendingDir  Direction
	snake       []GridPoint
	apple       GridPoint
	accumulator float64

	lastSnake []GridPoint
	lastApple *GridPoint
}

// NewSnake creates the game for the given grid.
func NewSnake(width, height int, cfg SnakeConfig) (*Snake, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("scene dimensions must be positive, got %dx%d", width, height)
	}
	if cfg.SecondsPerTick == 0 {
		cfg.SecondsPerTick = 0.3
	}
	if cfg.InitialDirection == (Direction{}) {
		cfg.InitialDirection = DirRight
	}
	colors := DefaultSnakeColors()
	if cfg.Colors != nil {
		colors = *cfg.Colors
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	s := &Snake{
		width:  width,
		height: height,
		cfg:    cfg,
		colors: colors,
		rng:    rng,
	}
	s.Reset()
	return s, nil
}

// Reset restores the starting configuration.
func (s *Snake) Reset() {
	s.running = true
	s.paused = false
	s.started = !s.cfg.StartOnFirstInput
	s.accumulator = 0

	if len(s.cfg.InitialSnake) > 0 {
		s.snake = append(s.snake[:0], s.cfg.InitialSnake...)
	} else {
		// A single segment centred on the display guarantees any initial
		// direction is a legal first move.
		s.snake = append(s.snake[:0], GridPoint{X: s.width / 2, Y: s.height / 2})
	}

	s.direction = s.cfg.InitialDirection
	s.pendingDir = s.cfg.InitialDirection

	if s.cfg.InitialApple != nil {
		s.apple = *s.cfg.InitialApple
	} else {
		s.apple = s.spawnApple()
	}

	s.lastSnake = s.lastSnake[:0]
	s.lastApple = nil
}

// Running reports whether the game is still in progress.
func (s *Snake) Running() bool { return s.running }

// Paused reports whether the game is paused.
func (s *Snake) Paused() bool { return s.paused }

// Started reports whether movement has begun.
func (s *Snake) Started() bool { return s.started }

// Body returns the snake segments, head first.
func (s *Snake) Body() []GridPoint {
	out := make([]GridPoint, len(s.snake))
	copy(out, s.snake)
	return out
}

// Apple returns the current apple position.
func (s *Snake) Apple() GridPoint { return s.apple }

// RequestDirection queues a direction change applied at the next tick.
// Opposite-direction (180 degree) requests are ignored. When the game is
// configured to start on first input, the first legal direction starts it.
func (s *Snake) RequestDirection(d Direction) {
	if d != DirUp && d != DirDown && d != DirLeft && d != DirRight {
		return
	}
	if s.cfg.StartOnFirstInput && !s.started {
		s.started = true
		s.direction = d
		s.pendingDir = d
		return
	}
	// Check against the applied direction, not the pending one, so two
	// quick inputs inside one tick cannot reverse the snake.
	if opposite(s.direction, d) {
		return
	}
	s.pendingDir = d
}

// TogglePause flips the pause state.
func (s *Snake) TogglePause() { s.paused = !s.paused }

// Quit ends the game.
func (s *Snake) Quit() { s.running = false }

// Update accumulates time and steps the game at the tick rate.
func (s *Snake) Update(dt float64) {
	if !s.running || s.paused || !s.started {
		return
	}
	s.accumulator += dt
	for s.accumulator >= s.cfg.SecondsPerTick && s.running && !s.paused {
		s.accumulator -= s.cfg.SecondsPerTick
		s.Step()
	}
}

// Step advances the game by exactly one move.
func (s *Snake) Step() {
	s.direction = s.pendingDir

	head := s.snake[0]
	newHead := GridPoint{X: head.X + s.direction.DX, Y: head.Y + s.direction.DY}

	if newHead.X < 0 || newHead.X >= s.width || newHead.Y < 0 || newHead.Y >= s.height {
		s.running = false
		return
	}

	eating := newHead == s.apple

	// Moving into the tail cell is legal when the tail moves away, so build
	// the next body first and then check for duplicates.
	next := make([]GridPoint, 0, len(s.snake)+1)
	next = append(next, newHead)
	next = append(next, s.snake...)
	if !eating {
		next = next[:len(next)-1]
	}

	seen := make(map[GridPoint]struct{}, len(next))
	for _, p := range next {
		if _, dup := seen[p]; dup {
			s.running = false
			return
		}
		seen[p] = struct{}{}
	}

	s.snake = next
	if eating {
		s.apple = s.spawnApple()
	}
}

// Render writes only the cells that changed since the previous render.
func (s *Snake) Render(fb *matrix.FrameBuffer) error {
	// Erase the old apple if it moved.
	if s.lastApple != nil && *s.lastApple != s.apple {
		if err := fb.SetPixel(s.lastApple.X, s.lastApple.Y, s.colors.Background); err != nil {
			return err
		}
	}

	// Erase vacated snake cells.
	occupied := make(map[GridPoint]struct{}, len(s.snake))
	for _, p := range s.snake {
		occupied[p] = struct{}{}
	}
	for _, p := range s.lastSnake {
		if _, still := occupied[p]; !still {
			if err := fb.SetPixel(p.X, p.Y, s.colors.Background); err != nil {
				return err
			}
		}
	}

	if err := fb.SetPixel(s.apple.X, s.apple.Y, s.colors.Apple); err != nil {
		return err
	}
	if len(s.snake) > 0 {
		if err := fb.SetPixel(s.snake[0].X, s.snake[0].Y, s.colors.Head); err != nil {
			return err
		}
		for _, p := range s.snake[1:] {
			if err := fb.SetPixel(p.X, p.Y, s.colors.Body); err != nil {
				return err
			}
		}
	}

	s.lastSnake = append(s.lastSnake[:0], s.snake...)
	apple := s.apple
	s.lastApple = &apple
	return nil
}

// spawnApple picks a uniformly random free cell. A filled board stops the
// game.
func (s *Snake) spawnApple() GridPoint {
	occupied := make(map[GridPoint]struct{}, len(s.snake))
	for _, p := range s.snake {
		occupied[p] = struct{}{}
	}

	free := make([]GridPoint, 0, s.width*s.height-len(s.snake))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			p := GridPoint{X: x, Y: y}
			if _, taken := occupied[p]; !taken {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		s.running = false
		return s.snake[0]
	}
	return free[s.rng.Intn(len(free))]
}
