package capture

import (
	"errors"
	"image"
	"image/draw"
	"sync"
	"time"
)

var (
	// ErrAlreadyRunning is returned by Start on a source that is capturing.
	ErrAlreadyRunning = errors.New("capture: already running")

	// ErrCameraUnavailable is returned when the binary was built without camera support.
	ErrCameraUnavailable = errors.New("capture: camera support not built in")
)

// Frame represents a captured video frame.
type Frame struct {
	Image     *image.RGBA
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
}

// Source is a live video feed.
type Source interface {
	Start() error
	Stop()
	// Ready is closed once the first frame with valid dimensions arrives.
	Ready() <-chan struct{}
	// Latest returns the newest frame, or false if there is not enough data
	// to draw yet.
	Latest() (*Frame, bool)
}

// latest holds the newest frame of a source and fires the readiness signal.
type latest struct {
	mu    sync.RWMutex
	frame *Frame
	seq   uint64

	staleAfter time.Duration
	now        func() time.Time

	readyOnce sync.Once
	ready     chan struct{}
}

func newLatest(staleAfter time.Duration) *latest {
	return &latest{
		staleAfter: staleAfter,
		now:        time.Now,
		ready:      make(chan struct{}),
	}
}

func (l *latest) publish(img *image.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return
	}

	l.mu.Lock()
	l.seq++
	l.frame = &Frame{
		Image:     img,
		Width:     w,
		Height:    h,
		Seq:       l.seq,
		Timestamp: l.now(),
	}
	l.mu.Unlock()

	l.readyOnce.Do(func() { close(l.ready) })
}

// Ready is closed once the first frame has been published.
func (l *latest) Ready() <-chan struct{} {
	return l.ready
}

// Latest returns the newest frame unless none exists or it has gone stale.
func (l *latest) Latest() (*Frame, bool) {
	l.mu.RLock()
	f := l.frame
	l.mu.RUnlock()

	if f == nil {
		return nil, false
	}
	if l.staleAfter > 0 && l.now().Sub(f.Timestamp) > l.staleAfter {
		return nil, false
	}
	return f, true
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
