package capture

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestLatest_ReadyFiresOnceOnValidFrame(t *testing.T) {
	l := newLatest(0)
	if _, ok := l.Latest(); ok {
		t.Fatal("empty source reported data")
	}

	l.publish(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	if isClosed(l.Ready()) {
		t.Fatal("ready fired for a zero-width frame")
	}

	l.publish(image.NewRGBA(image.Rect(0, 0, 4, 3)))
	if !isClosed(l.Ready()) {
		t.Fatal("ready not fired after first valid frame")
	}
	// A second publish must not panic on the already closed channel.
	l.publish(image.NewRGBA(image.Rect(0, 0, 8, 6)))

	f, ok := l.Latest()
	if !ok {
		t.Fatal("latest frame missing")
	}
	if f.Width != 8 || f.Height != 6 || f.Seq != 2 {
		t.Fatalf("frame = %dx%d seq %d", f.Width, f.Height, f.Seq)
	}
}

func TestLatest_Stale(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newLatest(time.Second)
	l.now = func() time.Time { return now }

	l.publish(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if _, ok := l.Latest(); !ok {
		t.Fatal("fresh frame reported stale")
	}

	now = now.Add(2 * time.Second)
	if _, ok := l.Latest(); ok {
		t.Fatal("old frame reported ready")
	}
	if !isClosed(l.Ready()) {
		t.Fatal("readiness must stay set once fired")
	}
}

func TestStill_StartResizesAndPublishes(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.SetNRGBA(x, y, color.NRGBA{200, 100, 50, 255})
		}
	}

	s := NewStill(src, 20, discard())
	if isClosed(s.Ready()) {
		t.Fatal("ready before start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second start err = %v", err)
	}

	f, ok := s.Latest()
	if !ok || !isClosed(s.Ready()) {
		t.Fatal("still source not ready after start")
	}
	if f.Width != 20 || f.Height != 10 {
		t.Fatalf("resized frame = %dx%d, want 20x10", f.Width, f.Height)
	}

	s.Stop()
	if _, ok := s.Latest(); !ok {
		t.Fatal("last frame dropped on stop")
	}
}

func TestToRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(5, 5, 9, 8))
	out := toRGBA(src)
	if out.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
}
