package scenes

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledwall/internal/matrix"
)

func newTestFireplace(t *testing.T, width, height int, cfg FireplaceConfig) *Fireplace {
	t.Helper()
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}
	f, err := NewFireplace(width, height, cfg)
	require.NoError(t, err)
	return f
}

func TestNewFireplace_InvalidDimensions(t *testing.T) {
	t.Parallel()

	_, err := NewFireplace(0, 8, FireplaceConfig{})
	assert.Error(t, err)
	_, err = NewFireplace(8, -1, FireplaceConfig{})
	assert.Error(t, err)
}

func TestFireplace_NoRenderBeforeStep(t *testing.T) {
	t.Parallel()

	f := newTestFireplace(t, 8, 8, FireplaceConfig{TargetFPS: 45})
	fb, err := matrix.NewFrameBuffer(8, 8)
	require.NoError(t, err)

	// A dt below the step interval must not produce any output.
	f.Update(0.001)
	require.NoError(t, f.Render(fb))
	assert.Equal(t, 0, fb.DirtyCount(), "a stalled clock writes nothing")
}

func TestFireplace_StepFillsGrid(t *testing.T) {
	t.Parallel()

	f := newTestFireplace(t, 8, 8, FireplaceConfig{TargetFPS: 45})
	fb, err := matrix.NewFrameBuffer(8, 8)
	require.NoError(t, err)

	f.Update(1.0 / 45.0)
	require.NoError(t, f.Render(fb))

	// The whole grid is written on the first step; the framebuffer's
	// value-change check still leaves cold black cells clean.
	assert.Greater(t, fb.DirtyCount(), 0)

	// The reseeded bottom row is always hot, so it maps above the black end
	// of the palette.
	snap := fb.Snapshot()
	for x := 0; x < 8; x++ {
		c := snap[7*8+x]
		assert.NotEqual(t, matrix.Color{}, c, "bottom row column %d should be lit", x)
	}
}

func TestFireplace_AccumulatorSumsSmallDeltas(t *testing.T) {
	t.Parallel()

	f := newTestFireplace(t, 4, 4, FireplaceConfig{TargetFPS: 10})
	fb, err := matrix.NewFrameBuffer(4, 4)
	require.NoError(t, err)

	// Two half-interval updates together cross the 100ms step boundary.
	f.Update(0.05)
	require.NoError(t, f.Render(fb))
	assert.Equal(t, 0, fb.DirtyCount())

	f.Update(0.05)
	require.NoError(t, f.Render(fb))
	assert.Greater(t, fb.DirtyCount(), 0)
}

func TestFireplace_Deterministic(t *testing.T) {
	t.Parallel()

	run := func() []matrix.Color {
		f := newTestFireplace(t, 6, 6, FireplaceConfig{
			TargetFPS: 30,
			Rand:      rand.New(rand.NewSource(7)),
		})
		fb, err := matrix.NewFrameBuffer(6, 6)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			f.Update(1.0 / 30.0)
		}
		require.NoError(t, f.Render(fb))
		return fb.Snapshot()
	}

	assert.Equal(t, run(), run(), "same seed, same flames")
}

func TestFireplace_ResetClearsHeat(t *testing.T) {
	t.Parallel()

	f := newTestFireplace(t, 4, 4, FireplaceConfig{TargetFPS: 30})
	fb, err := matrix.NewFrameBuffer(4, 4)
	require.NoError(t, err)

	f.Update(1.0)
	require.NoError(t, f.Render(fb))
	fb.ClearDirty()

	f.Reset()
	f.Update(0.001)
	require.NoError(t, f.Render(fb))
	assert.Equal(t, 0, fb.DirtyCount(), "reset also clears the pending step flag")
}
