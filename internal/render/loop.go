package render

import (
	"context"
	"fmt"
	"time"
)

// Loop ticks a Renderer on a timer, for use without a display.
type Loop struct {
	r   *Renderer
	fps int
}

// NewLoop returns a loop that ticks r fps times per second.
func NewLoop(r *Renderer, fps int) (*Loop, error) {
	if fps <= 0 || fps > 240 {
		return nil, fmt.Errorf("fps must be 1-240, got %d", fps)
	}
	return &Loop{r: r, fps: fps}, nil
}

// Run blocks until the source is ready, then ticks until ctx is cancelled.
// The renderer is stopped on return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.r.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-l.r.src.Ready():
	}
	l.r.Start()

	ticker := time.NewTicker(time.Second / time.Duration(l.fps))
	defer ticker.Stop()

	l.r.Tick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.r.Tick()
		}
	}
}
