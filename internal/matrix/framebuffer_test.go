package matrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameBuffer(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(16, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, fb.Width())
	assert.Equal(t, 8, fb.Height())
	assert.Equal(t, 0, fb.DirtyCount())

	// Every pixel starts black
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			c, err := fb.PixelAt(x, y)
			require.NoError(t, err)
			assert.Equal(t, Color{}, c)
		}
	}
}

func TestNewFrameBuffer_InvalidDimensions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 8},
		{"zero height", 16, 0},
		{"negative width", -1, 8},
		{"negative height", 16, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFrameBuffer(tc.width, tc.height)
			assert.Error(t, err)
		})
	}
}

func TestSetPixel_DirtyOnlyOnChange(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(4, 4)
	require.NoError(t, err)

	red := Color{R: 255}

	require.NoError(t, fb.SetPixel(1, 2, red))
	assert.Equal(t, 1, fb.DirtyCount())

	// Writing the same value again must not re-dirty after a drain.
	fb.ClearDirty()
	require.NoError(t, fb.SetPixel(1, 2, red))
	assert.Equal(t, 0, fb.DirtyCount(), "identical write should not mark dirty")

	// Writing black to an already-black pixel is also a no-op.
	require.NoError(t, fb.SetPixel(0, 0, Color{}))
	assert.Equal(t, 0, fb.DirtyCount())

	// A real change dirties exactly one index.
	require.NoError(t, fb.SetPixel(1, 2, Color{G: 10}))
	assert.Equal(t, 1, fb.DirtyCount())
}

func TestSetPixel_OutOfBounds(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(4, 4)
	require.NoError(t, err)

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {100, 100}} {
		err := fb.SetPixel(p[0], p[1], Color{R: 1})
		assert.ErrorIs(t, err, ErrOutOfBounds, "x=%d y=%d", p[0], p[1])
	}
	// Failed writes leave no dirty entries behind.
	assert.Equal(t, 0, fb.DirtyCount())

	_, err = fb.PixelAt(4, 0)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestClear_MarksAllDirty(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(3, 2)
	require.NoError(t, err)

	// Clear to black: values don't change but every index must be dirty,
	// since Clear means "force a full resend".
	fb.Clear(Color{})
	assert.Equal(t, 6, fb.DirtyCount())

	fb.ClearDirty()
	fb.Clear(Color{B: 40})
	assert.Equal(t, 6, fb.DirtyCount())
	c, err := fb.PixelAt(2, 1)
	require.NoError(t, err)
	assert.Equal(t, Color{B: 40}, c)
}

func TestDirtyPixels_SortedAscending(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(4, 4)
	require.NoError(t, err)

	// Write out of order; DirtyPixels must come back sorted by index.
	require.NoError(t, fb.SetPixel(3, 3, Color{R: 3})) // index 15
	require.NoError(t, fb.SetPixel(0, 0, Color{R: 1})) // index 0
	require.NoError(t, fb.SetPixel(2, 1, Color{R: 2})) // index 6

	updates := fb.DirtyPixels()
	require.Len(t, updates, 3)
	assert.Equal(t, []PixelUpdate{
		{Index: 0, Color: Color{R: 1}},
		{Index: 6, Color: Color{R: 2}},
		{Index: 15, Color: Color{R: 3}},
	}, updates)
}

func TestDirtyPixels_ReportLatestColor(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(4, 1)
	require.NoError(t, err)

	require.NoError(t, fb.SetPixel(1, 0, Color{R: 10}))
	require.NoError(t, fb.SetPixel(1, 0, Color{R: 20}))

	updates := fb.DirtyPixels()
	require.Len(t, updates, 1)
	assert.Equal(t, Color{R: 20}, updates[0].Color, "dirty set carries the current value, not the first write")
}

func TestClearDirty_KeepsPixelValues(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(2, 2)
	require.NoError(t, err)

	require.NoError(t, fb.SetPixel(1, 1, Color{G: 99}))
	fb.ClearDirty()

	assert.Equal(t, 0, fb.DirtyCount())
	c, err := fb.PixelAt(1, 1)
	require.NoError(t, err)
	assert.Equal(t, Color{G: 99}, c)
}

func TestSnapshot_Independent(t *testing.T) {
	t.Parallel()

	fb, err := NewFrameBuffer(2, 2)
	require.NoError(t, err)
	require.NoError(t, fb.SetPixel(0, 1, Color{B: 7}))

	snap := fb.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, Color{B: 7}, snap[2])

	// Mutating the snapshot must not touch the framebuffer.
	snap[2] = Color{R: 1}
	c, err := fb.PixelAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Color{B: 7}, c)
}
