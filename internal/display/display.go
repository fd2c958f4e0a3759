package display

import (
	"image"
	"math"
	"sync"
)

// Display shows frames in a window until the user closes it.
type Display interface {
	Run() error
}

// FrameSource provides the frame to show on each refresh.
type FrameSource interface {
	CurrentFrame() *image.RGBA
}

// FrameBuffer holds the latest frame handed over from another goroutine.
type FrameBuffer struct {
	mu    sync.Mutex
	frame *image.RGBA
}

// SetFrame replaces the held frame. The caller must not modify img afterwards.
func (b *FrameBuffer) SetFrame(img *image.RGBA) {
	b.mu.Lock()
	b.frame = img
	b.mu.Unlock()
}

func (b *FrameBuffer) CurrentFrame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// coverTransform returns the scale and offsets that make the frame cover the
// whole view, cropping the overflowing axis evenly on both sides.
func coverTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Max(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
