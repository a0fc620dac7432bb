package scenes

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledwall/internal/matrix"
)

func newTestLife(t *testing.T, width, height int, cfg LifeConfig) *Life {
	t.Helper()
	l, err := NewLife(width, height, cfg)
	require.NoError(t, err)
	return l
}

func TestNewLife_InvalidDimensions(t *testing.T) {
	t.Parallel()

	_, err := NewLife(-1, 5, LifeConfig{})
	assert.Error(t, err)
}

func TestLife_BlinkerOscillates(t *testing.T) {
	t.Parallel()

	l := newTestLife(t, 5, 5, LifeConfig{})
	// Horizontal blinker centred on (2,2).
	l.SetCell(1, 2, true)
	l.SetCell(2, 2, true)
	l.SetCell(3, 2, true)

	l.Step()
	assert.True(t, l.Alive(2, 1))
	assert.True(t, l.Alive(2, 2))
	assert.True(t, l.Alive(2, 3))
	assert.False(t, l.Alive(1, 2))
	assert.False(t, l.Alive(3, 2))

	// Period two: a second step restores the horizontal bar.
	l.Step()
	assert.True(t, l.Alive(1, 2))
	assert.True(t, l.Alive(2, 2))
	assert.True(t, l.Alive(3, 2))
	assert.False(t, l.Alive(2, 1))
	assert.False(t, l.Alive(2, 3))
}

func TestLife_BlockIsStable(t *testing.T) {
	t.Parallel()

	l := newTestLife(t, 4, 4, LifeConfig{})
	for _, p := range []GridPoint{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		l.SetCell(p.X, p.Y, true)
	}

	for i := 0; i < 5; i++ {
		l.Step()
	}
	alive := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if l.Alive(x, y) {
				alive++
			}
		}
	}
	assert.Equal(t, 4, alive)
	assert.True(t, l.Alive(1, 1))
}

func TestLife_EdgeBehaviour(t *testing.T) {
	t.Parallel()

	t.Run("clamped edges starve a blinker on the border", func(t *testing.T) {
		l := newTestLife(t, 5, 5, LifeConfig{WrapEdges: false})
		l.SetCell(0, 0, true)
		l.SetCell(1, 0, true)
		l.SetCell(2, 0, true)

		// Off-grid neighbours are dead, so the pattern collapses rather than
		// oscillating.
		l.Step()
		assert.False(t, l.Alive(0, 0))
		assert.True(t, l.Alive(1, 0))
		assert.True(t, l.Alive(1, 1))
		assert.False(t, l.Alive(1, 4))
	})

	t.Run("wrapped edges keep the blinker alive across the seam", func(t *testing.T) {
		l := newTestLife(t, 5, 5, LifeConfig{WrapEdges: true})
		l.SetCell(0, 0, true)
		l.SetCell(1, 0, true)
		l.SetCell(2, 0, true)

		l.Step()
		assert.True(t, l.Alive(1, 0))
		assert.True(t, l.Alive(1, 1))
		assert.True(t, l.Alive(1, 4), "birth wraps around the top edge")

		l.Step()
		assert.True(t, l.Alive(0, 0))
		assert.True(t, l.Alive(1, 0))
		assert.True(t, l.Alive(2, 0))
	})
}

func TestLife_UpdateStepsOnTick(t *testing.T) {
	t.Parallel()

	l := newTestLife(t, 5, 5, LifeConfig{SecondsPerTick: 0.5})
	l.SetCell(1, 2, true)
	l.SetCell(2, 2, true)
	l.SetCell(3, 2, true)

	l.Update(0.4)
	assert.True(t, l.Alive(1, 2), "below the tick interval nothing moves")

	l.Update(0.1)
	assert.False(t, l.Alive(1, 2))
	assert.True(t, l.Alive(2, 1))

	// A large delta runs multiple generations: three more ticks land back on
	// the horizontal phase.
	l.Update(1.5)
	assert.True(t, l.Alive(1, 2))
	assert.False(t, l.Alive(2, 1))
}

func TestLife_ResetReseedsWhenDensityConfigured(t *testing.T) {
	t.Parallel()

	l := newTestLife(t, 6, 6, LifeConfig{
		RandomDensity: 1.0,
		Rand:          rand.New(rand.NewSource(3)),
	})
	l.Reset()
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			assert.True(t, l.Alive(x, y))
		}
	}

	// Without a density, Reset leaves an empty grid.
	bare := newTestLife(t, 6, 6, LifeConfig{})
	bare.SetCell(2, 2, true)
	bare.Reset()
	assert.False(t, bare.Alive(2, 2))
}

func TestLife_RenderColours(t *testing.T) {
	t.Parallel()

	l := newTestLife(t, 3, 3, LifeConfig{
		AliveColor: matrix.Color{R: 200},
		DeadColor:  matrix.Color{B: 10},
	})
	l.SetCell(1, 1, true)

	fb, err := matrix.NewFrameBuffer(3, 3)
	require.NoError(t, err)
	require.NoError(t, l.Render(fb))

	snap := fb.Snapshot()
	assert.Equal(t, matrix.Color{R: 200}, snap[4])
	assert.Equal(t, matrix.Color{B: 10}, snap[0])
}

func TestLife_StablePatternCostsNoTraffic(t *testing.T) {
	t.Parallel()

	l := newTestLife(t, 4, 4, LifeConfig{})
	for _, p := range []GridPoint{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		l.SetCell(p.X, p.Y, true)
	}

	fb, err := matrix.NewFrameBuffer(4, 4)
	require.NoError(t, err)
	require.NoError(t, l.Render(fb))
	fb.ClearDirty()

	l.Step()
	require.NoError(t, l.Render(fb))
	assert.Equal(t, 0, fb.DirtyCount(), "an unchanged generation dirties nothing")
}
