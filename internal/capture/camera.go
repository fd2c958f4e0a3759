//go:build !nocamera

package capture

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// CameraConfig selects the device and the requested capture format.
type CameraConfig struct {
	Device int
	Width  int
	Height int
	FPS    int
	// StaleAfter marks the feed as not ready when no frame has been grabbed
	// for this long. Zero disables the check.
	StaleAfter time.Duration
}

// Camera captures frames from a local video device through OpenCV.
type Camera struct {
	cfg    CameraConfig
	logger *slog.Logger
	*latest

	mu      sync.Mutex
	dev     *gocv.VideoCapture
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewCamera validates cfg and returns a camera that is not yet opened.
func NewCamera(cfg CameraConfig, logger *slog.Logger) (*Camera, error) {
	if cfg.FPS <= 0 || cfg.FPS > 120 {
		return nil, fmt.Errorf("fps must be 1-120, got %d", cfg.FPS)
	}
	if cfg.Device < 0 {
		return nil, fmt.Errorf("device index must be >= 0, got %d", cfg.Device)
	}
	return &Camera{
		cfg:    cfg,
		logger: logger.With("component", "camera", "device", cfg.Device),
		latest: newLatest(cfg.StaleAfter),
	}, nil
}

// Start opens the device and begins grabbing frames in the background.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	dev, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return fmt.Errorf("open video device %d: %w", c.cfg.Device, err)
	}
	if c.cfg.Width > 0 {
		dev.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	}
	if c.cfg.Height > 0 {
		dev.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	}

	c.dev = dev
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.running = true
	go c.loop(dev, c.stopCh, c.doneCh)

	c.logger.Info("camera started", "fps", c.cfg.FPS)
	return nil
}

// Stop halts the grab loop and releases the device.
func (c *Camera) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	done := c.doneCh
	c.mu.Unlock()

	<-done
	c.logger.Info("camera stopped")
}

func (c *Camera) loop(dev *gocv.VideoCapture, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer dev.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	ticker := time.NewTicker(time.Second / time.Duration(c.cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			img, err := c.grab(dev, &mat)
			if err != nil {
				c.logger.Debug("grab failed", "error", err)
				continue
			}
			c.publish(img)
		}
	}
}

func (c *Camera) grab(dev *gocv.VideoCapture, mat *gocv.Mat) (*image.RGBA, error) {
	if ok := dev.Read(mat); !ok {
		return nil, fmt.Errorf("device read returned no frame")
	}
	if mat.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return toRGBA(img), nil
}
