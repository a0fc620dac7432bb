package scenes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/ledwall/internal/display"
	"github.com/banshee-data/ledwall/internal/matrix"
	"github.com/banshee-data/ledwall/internal/monitoring"
)

// FrameObserver is notified after every transmitted frame; used to hook the
// stats recorder into the render loop without the loop knowing about
// storage.
type FrameObserver func(frame int, report display.FrameReport, renderTime time.Duration)

// RunnerConfig contains configuration options for a render loop.
type RunnerConfig struct {
	TargetFPS float64       // default 30
	Observer  FrameObserver // optional
}

// Runner drives one scene against one display output. The loop is
// single-threaded and tick-driven: each iteration performs one update pass,
// one render pass and one transmit pass, then sleeps the remainder of the
// frame interval.
type Runner struct {
	output   *display.Output
	scene    Scene
	fb       *matrix.FrameBuffer
	interval time.Duration
	observer FrameObserver
}

// NewRunner creates a runner with a framebuffer matching the output.
func NewRunner(output *display.Output, scene Scene, config RunnerConfig) (*Runner, error) {
	fps := config.TargetFPS
	if fps == 0 {
		fps = 30
	}
	fb, err := matrix.NewFrameBuffer(output.Width(), output.Height())
	if err != nil {
		return nil, err
	}

	var interval time.Duration
	if fps > 0 {
		interval = time.Duration(float64(time.Second) / fps)
	}

	return &Runner{
		output:   output,
		scene:    scene,
		fb:       fb,
		interval: interval,
		observer: config.Observer,
	}, nil
}

// Run resets the scene and loops until the context is cancelled or the
// scene's renderer fails. The dirty set is drained before the first frame so
// the initial Clear does not count as scene output.
func (r *Runner) Run(ctx context.Context) error {
	r.fb.Clear(matrix.Color{})
	r.fb.ClearDirty()
	r.scene.Reset()

	last := time.Now()
	frame := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		r.scene.Update(dt)
		if err := r.scene.Render(r.fb); err != nil {
			return fmt.Errorf("scene render failed: %w", err)
		}

		report, err := r.output.Show(r.fb)
		if err != nil {
			if errors.Is(err, display.ErrSizeMismatch) {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			// Transport failures are not retried: the dirty state is
			// already drained and the next frame carries fresh data.
			monitoring.Logf("frame %d send failed: %v", frame, err)
		}

		if r.observer != nil {
			r.observer(frame, report, time.Since(now))
		}
		frame++

		if r.interval > 0 {
			if sleep := r.interval - time.Since(now); sleep > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(sleep):
				}
			}
		}
	}
}
