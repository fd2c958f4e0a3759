//go:build nocamera

package capture

import (
	"log/slog"
	"time"
)

// CameraConfig selects the device and the requested capture format.
type CameraConfig struct {
	Device     int
	Width      int
	Height     int
	FPS        int
	StaleAfter time.Duration
}

// Camera is unavailable in builds tagged nocamera.
type Camera struct {
	*latest
}

// NewCamera returns ErrCameraUnavailable in builds without OpenCV.
func NewCamera(cfg CameraConfig, logger *slog.Logger) (*Camera, error) {
	return nil, ErrCameraUnavailable
}

func (c *Camera) Start() error { return ErrCameraUnavailable }
func (c *Camera) Stop()        {}
