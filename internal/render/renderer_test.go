package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/junsooki/FlagCam/internal/capture"
)

// fakeSource is a capture.Source driven by the test.
type fakeSource struct {
	mu    sync.Mutex
	frame *capture.Frame
	ready chan struct{}
	once  sync.Once
}

var _ capture.Source = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{ready: make(chan struct{})}
}

func (s *fakeSource) Start() error           { return nil }
func (s *fakeSource) Stop()                  {}
func (s *fakeSource) Ready() <-chan struct{} { return s.ready }

func (s *fakeSource) Latest() (*capture.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.frame != nil
}

func (s *fakeSource) set(img *image.RGBA) {
	s.mu.Lock()
	if img == nil {
		s.frame = nil
	} else {
		s.frame = &capture.Frame{Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	}
	s.mu.Unlock()
	if img != nil {
		s.once.Do(func() { close(s.ready) })
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x + y) * 255 / (w + h))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestRenderer_IdleUntilReady(t *testing.T) {
	src := newFakeSource()
	r := New(src, discard())

	if r.Advance() {
		t.Fatal("advance drew before readiness")
	}
	if r.State() != StateIdle {
		t.Fatalf("state = %v, want idle", r.State())
	}
	if r.Tick() {
		t.Fatal("tick drew while idle")
	}

	src.set(gradient(40, 30))
	if !r.Advance() {
		t.Fatal("advance did not draw after readiness")
	}
	if r.State() != StateRunning {
		t.Fatalf("state = %v, want running", r.State())
	}
}

func TestRenderer_StopIsTerminal(t *testing.T) {
	src := newFakeSource()
	src.set(gradient(10, 10))
	r := New(src, discard())
	r.Start()
	r.Stop()
	r.Start()

	if r.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", r.State())
	}
	if r.Advance() || r.Tick() {
		t.Fatal("stopped renderer drew a frame")
	}
}

func TestRenderer_SkipLeavesSurfaceUnchanged(t *testing.T) {
	src := newFakeSource()
	src.set(gradient(45, 30))
	r := New(src, discard())
	r.Start()
	if !r.Tick() {
		t.Fatal("first tick did not draw")
	}
	before := append([]byte(nil), r.CurrentFrame().Pix...)
	surface := r.CurrentFrame()

	src.set(nil)
	if r.Tick() {
		t.Fatal("tick drew without data")
	}
	if r.CurrentFrame() != surface || !bytes.Equal(before, r.CurrentFrame().Pix) {
		t.Fatal("surface changed on a skipped tick")
	}
	if st := r.Stats(); st.Drawn != 1 || st.Skipped != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestRenderer_IdempotentOnStaticFrame(t *testing.T) {
	src := newFakeSource()
	src.set(gradient(64, 48))
	r := New(src, discard())
	r.Start()

	r.Tick()
	first := append([]byte(nil), r.CurrentFrame().Pix...)
	r.Tick()
	if !bytes.Equal(first, r.CurrentFrame().Pix) {
		t.Fatal("static input produced different output on consecutive ticks")
	}
}

func TestRenderer_ResizesWithFrame(t *testing.T) {
	src := newFakeSource()
	src.set(gradient(60, 45))
	r := New(src, discard())
	r.Start()
	r.Tick()
	if got := r.CurrentFrame().Bounds(); got != image.Rect(0, 0, 60, 45) {
		t.Fatalf("surface = %v", got)
	}

	small := gradient(30, 20)
	src.set(small)
	r.Tick()
	if got := r.CurrentFrame().Bounds(); got != image.Rect(0, 0, 30, 20) {
		t.Fatalf("surface after resize = %v", got)
	}

	// The resized output must match a fresh render of the same frame.
	fresh := New(newFakeSource(), discard())
	fresh.src.(*fakeSource).set(small)
	fresh.Start()
	fresh.Tick()
	if !bytes.Equal(fresh.CurrentFrame().Pix, r.CurrentFrame().Pix) {
		t.Fatal("stale content left after resize")
	}
	if st := r.Stats(); st.Width != 30 || st.Height != 20 {
		t.Fatalf("stats size = %dx%d", st.Width, st.Height)
	}
}

func TestRenderer_ObserversSeeEachDraw(t *testing.T) {
	src := newFakeSource()
	src.set(gradient(15, 15))
	r := New(src, discard())
	var seen int
	r.Observe(func(img *image.RGBA) {
		if img != r.CurrentFrame() {
			t.Error("observer got a different surface")
		}
		seen++
	})
	r.Start()
	r.Tick()
	r.Tick()
	src.set(nil)
	r.Tick()

	if seen != 2 {
		t.Fatalf("observer called %d times, want 2", seen)
	}
}

func TestLoop_RunStartsOnReadyAndStopsOnCancel(t *testing.T) {
	src := newFakeSource()
	r := New(src, discard())

	drawn := make(chan struct{}, 1)
	r.Observe(func(*image.RGBA) {
		select {
		case drawn <- struct{}{}:
		default:
		}
	})

	l, err := NewLoop(r, 200)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	src.set(gradient(30, 30))
	select {
	case <-drawn:
	case <-time.After(2 * time.Second):
		t.Fatal("loop never drew")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on cancel")
	}
	if r.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", r.State())
	}
}

func TestLoop_CancelWhileIdle(t *testing.T) {
	r := New(newFakeSource(), discard())
	l, _ := NewLoop(r, 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("run = %v", err)
	}
	if r.State() != StateStopped {
		t.Fatalf("state = %v", r.State())
	}
}

func TestNewLoop_RejectsBadFPS(t *testing.T) {
	if _, err := NewLoop(New(newFakeSource(), discard()), 0); err == nil {
		t.Fatal("fps 0 accepted")
	}
}
