// Package render drives the per-tick capture and mosaic redraw.
package render

import (
	"image"
	"log/slog"

	"github.com/junsooki/FlagCam/internal/capture"
	"github.com/junsooki/FlagCam/internal/mosaic"
)

// State is the lifecycle state of a Renderer.
type State int

const (
	// StateIdle waits for the source's readiness signal.
	StateIdle State = iota
	// StateRunning draws on every tick.
	StateRunning
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Stats counts tick outcomes since the renderer was created.
type Stats struct {
	Drawn   uint64
	Skipped uint64
	Width   int
	Height  int
}

// Renderer redraws the latest frame of a capture source as a flag mosaic.
// It is not safe for concurrent use; all calls must come from the goroutine
// that owns the render loop.
type Renderer struct {
	src       capture.Source
	logger    *slog.Logger
	state     State
	surface   *image.RGBA
	observers []func(*image.RGBA)
	stats     Stats
}

// New returns an idle renderer reading from src.
func New(src capture.Source, logger *slog.Logger) *Renderer {
	return &Renderer{
		src:    src,
		logger: logger.With("component", "renderer"),
	}
}

// State reports the current lifecycle state.
func (r *Renderer) State() State {
	return r.state
}

// Start moves an idle renderer to running. It has no effect otherwise.
func (r *Renderer) Start() {
	if r.state != StateIdle {
		return
	}
	r.state = StateRunning
	r.logger.Info("renderer running")
}

// Stop ends rendering permanently.
func (r *Renderer) Stop() {
	if r.state == StateStopped {
		return
	}
	r.state = StateStopped
	r.logger.Info("renderer stopped", "drawn", r.stats.Drawn, "skipped", r.stats.Skipped)
}

// Observe registers fn to be called with the surface after each drawn tick.
// fn must not retain the image beyond the call.
func (r *Renderer) Observe(fn func(*image.RGBA)) {
	r.observers = append(r.observers, fn)
}

// CurrentFrame returns the last drawn surface, or nil before the first draw.
func (r *Renderer) CurrentFrame() *image.RGBA {
	return r.surface
}

// Stats returns tick counters and the current surface size.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Advance is the refresh-driven entry point: an idle renderer polls the
// readiness signal without blocking and starts once it has fired, then the
// tick runs.
func (r *Renderer) Advance() bool {
	if r.state == StateIdle {
		select {
		case <-r.src.Ready():
			r.Start()
		default:
			return false
		}
	}
	return r.Tick()
}

// Tick draws the current frame. It returns false, leaving the surface
// untouched, when the renderer is not running or the source has no frame
// to offer.
func (r *Renderer) Tick() bool {
	if r.state != StateRunning {
		return false
	}
	frame, ok := r.src.Latest()
	if !ok {
		r.stats.Skipped++
		return false
	}

	r.resize(frame.Width, frame.Height)
	mosaic.Render(r.surface, frame.Image)
	r.stats.Drawn++

	for _, fn := range r.observers {
		fn(r.surface)
	}
	return true
}

func (r *Renderer) resize(w, h int) {
	if r.surface != nil && r.surface.Bounds().Dx() == w && r.surface.Bounds().Dy() == h {
		return
	}
	if r.surface != nil {
		r.logger.Info("frame size changed",
			"from", r.surface.Bounds().Size(), "to", image.Pt(w, h))
	}
	r.surface = image.NewRGBA(image.Rect(0, 0, w, h))
	r.stats.Width, r.stats.Height = w, h
}
