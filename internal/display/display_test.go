package display

import (
	"image"
	"math"
	"sync"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestCoverTransform(t *testing.T) {
	tests := []struct {
		name              string
		vw, vh, fw, fh    float64
		scale, offX, offY float64
	}{
		{"same aspect", 1280, 720, 640, 360, 2, 0, 0},
		{"wider view crops height", 1600, 600, 800, 600, 2, 0, -300},
		{"taller view crops width", 600, 900, 600, 450, 2, -300, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, x, y := coverTransform(tt.vw, tt.vh, tt.fw, tt.fh)
			if math.Abs(s-tt.scale) > 1e-9 || math.Abs(x-tt.offX) > 1e-9 || math.Abs(y-tt.offY) > 1e-9 {
				t.Fatalf("got scale=%v off=(%v,%v), want %v (%v,%v)", s, x, y, tt.scale, tt.offX, tt.offY)
			}
			if tt.fw*s < tt.vw-1e-9 || tt.fh*s < tt.vh-1e-9 {
				t.Fatal("frame does not cover the view")
			}
		})
	}
}

func TestFrameBuffer_Concurrent(t *testing.T) {
	var b FrameBuffer
	if b.CurrentFrame() != nil {
		t.Fatal("zero FrameBuffer holds a frame")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.SetFrame(image.NewRGBA(image.Rect(0, 0, 2, 2)))
			_ = b.CurrentFrame()
		}()
	}
	wg.Wait()
	if b.CurrentFrame() == nil {
		t.Fatal("frame lost")
	}
}

func TestConfigureWindow_SyncsTicksToRefresh(t *testing.T) {
	configureWindow(Options{Title: "test", Width: 320, Height: 240})
	if got := ebiten.TPS(); got != ebiten.SyncWithFPS {
		t.Fatalf("TPS = %d, want SyncWithFPS", got)
	}
}
