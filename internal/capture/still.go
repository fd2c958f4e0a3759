package capture

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
)

// Still serves a single image as a constant video feed.
type Still struct {
	img    image.Image
	width  int
	logger *slog.Logger
	*latest

	mu      sync.Mutex
	running bool
}

// OpenStill loads an image file, applying its EXIF orientation.
// A positive width resizes the image to that width, keeping the aspect ratio.
func OpenStill(path string, width int, logger *slog.Logger) (*Still, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open still %s: %w", path, err)
	}
	return NewStill(img, width, logger), nil
}

// NewStill wraps an already decoded image.
func NewStill(img image.Image, width int, logger *slog.Logger) *Still {
	return &Still{
		img:    img,
		width:  width,
		logger: logger.With("component", "still"),
		latest: newLatest(0),
	}
}

// Start publishes the image. The source is ready as soon as Start returns.
func (s *Still) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	img := s.img
	if s.width > 0 && s.width != img.Bounds().Dx() {
		img = imaging.Resize(img, s.width, 0, imaging.Lanczos)
	}
	frame := toRGBA(img)
	s.publish(frame)
	s.running = true

	s.logger.Info("still source started", "width", frame.Bounds().Dx(), "height", frame.Bounds().Dy())
	return nil
}

// Stop is a no-op beyond marking the source as stopped; the last frame stays
// available.
func (s *Still) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
