// Package scenes contains the renderers that draw on the LED matrix: the
// ambient simulations (fireplace, snowfall), the cell automaton and the
// snake game. Every renderer draws into a logical framebuffer and knows
// nothing about wiring or transport.
package scenes

import (
	"github.com/banshee-data/ledwall/internal/matrix"
)

// Scene is the single contract every renderer implements, interactive or
// not. A scene owns its simulation state; the caller owns the framebuffer
// and the transmit schedule.
//
// Reset returns the scene to a known baseline. Update advances simulation
// time by dt seconds. Render draws the current state into the framebuffer;
// scenes are encouraged to write only changed cells so the sparse transport
// path stays cheap.
type Scene interface {
	Reset()
	Update(dt float64)
	Render(fb *matrix.FrameBuffer) error
}

func scaleColor(col matrix.Color, intensity float64) matrix.Color {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}
	return matrix.Color{
		R: uint8(float64(col.R) * intensity),
		G: uint8(float64(col.G) * intensity),
		B: uint8(float64(col.B) * intensity),
	}
}

func lerpColor(a, b matrix.Color, t float64) matrix.Color {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return matrix.Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B)}
}
