// Package stream drives the live recognition loop in two modes: an
// interactive window with keyboard control and an MJPEG feed for browsers.
// Both pull frames from a shared camera handle and run the same per-frame
// pipeline; only presentation differs.
package stream

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/facewatch/internal/camera"
	"github.com/kozaktomas/facewatch/internal/config"
	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/pipeline"
)

// fpsLabelColor backs the FPS readout in the corner of interactive frames.
var fpsLabelColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// Controller coordinates the camera, the gallery snapshot and the frame
// pipeline for any number of concurrent consumers. The tolerance toggle is
// the only mutable recognition state and is guarded by its own mutex.
type Controller struct {
	camera    *camera.Shared
	store     gallery.Store
	processor *pipeline.Processor

	frameSkip int
	fpsWindow int

	mu        sync.Mutex
	tolerance float64
	relaxed   float64
	useRelax  bool

	// MaxFrames bounds every consumer loop when > 0. Tests use it to run a
	// deterministic number of iterations; production leaves it at zero.
	MaxFrames int
}

// NewController wires a controller from its collaborators and the stream
// settings. Invalid frame-skip or FPS-window values fall back to sane ones.
func NewController(cam *camera.Shared, store gallery.Store, processor *pipeline.Processor, cfg config.StreamConfig) *Controller {
	frameSkip := cfg.FrameSkip
	if frameSkip < 1 {
		frameSkip = 1
	}
	fpsWindow := cfg.FPSWindow
	if fpsWindow < 1 {
		fpsWindow = 30
	}
	return &Controller{
		camera:    cam,
		store:     store,
		processor: processor,
		frameSkip: frameSkip,
		fpsWindow: fpsWindow,
		tolerance: cfg.Tolerance,
		relaxed:   cfg.ToleranceRelaxed,
	}
}

// Tolerance returns the currently active matching tolerance.
func (c *Controller) Tolerance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.useRelax {
		return c.relaxed
	}
	return c.tolerance
}

// ToggleTolerance flips between the strict and relaxed presets and returns
// the tolerance now in effect.
func (c *Controller) ToggleTolerance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useRelax = !c.useRelax
	if c.useRelax {
		return c.relaxed
	}
	return c.tolerance
}

// RunInteractive streams annotated frames to the surface until the user
// quits, the context is cancelled, or the camera fails. Keys: q quits,
// r reloads the gallery snapshot, t toggles the tolerance preset. The
// camera and the surface are released whichever way the loop exits.
func (c *Controller) RunInteractive(ctx context.Context, surface Surface) error {
	if err := c.camera.Acquire(); err != nil {
		return fmt.Errorf("acquire camera: %w", err)
	}
	defer c.camera.Release()
	defer surface.Close()

	snap, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load gallery snapshot: %w", err)
	}
	log.Printf("interactive stream started, %d people enrolled", snap.Len())

	var (
		frameNum       int
		lastDetections []pipeline.Detection
		fps            float64
		windowStart    = time.Now()
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.MaxFrames > 0 && frameNum >= c.MaxFrames {
			return nil
		}

		frame, err := c.camera.Read()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		if frameNum%c.frameSkip == 0 {
			detections, err := c.processor.Process(ctx, frame, snap, c.Tolerance())
			if err != nil {
				log.Printf("frame %d skipped: %v", frameNum, err)
			} else {
				lastDetections = detections
			}
		}
		frameNum++

		if frameNum%c.fpsWindow == 0 {
			elapsed := time.Since(windowStart).Seconds()
			if elapsed > 0 {
				fps = float64(c.fpsWindow) / elapsed
			}
			windowStart = time.Now()
		}

		annotated := pipeline.Annotate(frame, lastDetections)
		pipeline.DrawLabel(annotated, fmt.Sprintf("FPS: %.1f", fps), 8, 16, fpsLabelColor)
		if err := surface.Show(annotated); err != nil {
			return fmt.Errorf("show frame: %w", err)
		}

		switch surface.PollKey() {
		case 'q':
			log.Printf("interactive stream stopped by user")
			return nil
		case 'r':
			fresh, err := c.store.Snapshot(ctx)
			if err != nil {
				log.Printf("snapshot reload failed, keeping previous: %v", err)
				break
			}
			snap = fresh
			log.Printf("gallery snapshot reloaded, %d people enrolled", snap.Len())
		case 't':
			log.Printf("matching tolerance set to %.2f", c.ToggleTolerance())
		}
	}
}

// errIsCanceled reports context-shaped errors so callers can treat a
// cancelled consumer as a clean exit.
func errIsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
