package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Config holds runtime configuration for the flagcam binary.
type Config struct {
	// Capture
	Device     int
	ImagePath  string
	Width      int
	Height     int
	FPS        int
	StaleAfter time.Duration

	// Output
	Headless      bool
	SnapshotDir   string
	SnapshotEvery time.Duration
	Quality       int

	// Sharing
	Share        bool
	SignalingURL string
	ID           string

	LogLevel string
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() *Config {
	return &Config{
		Width:        640,
		Height:       480,
		FPS:          30,
		StaleAfter:   time.Second,
		SnapshotDir:  "snapshots",
		Quality:      70,
		SignalingURL: "ws://localhost:8080",
		LogLevel:     "info",
	}
}

// ParseFlags parses flags for the flagcam binary.
func ParseFlags() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()
	fs.IntVar(&cfg.Device, "device", cfg.Device, "Camera device index")
	fs.StringVar(&cfg.ImagePath, "image", cfg.ImagePath, "Use a still image instead of the camera")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Requested capture width (0 = device default)")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Requested capture height (0 = device default)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Capture and headless render rate")
	fs.DurationVar(&cfg.StaleAfter, "stale", cfg.StaleAfter, "Skip rendering when the newest frame is older than this (0 = never)")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Render without opening a window")
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "Directory for saved snapshots")
	fs.DurationVar(&cfg.SnapshotEvery, "snapshot-every", cfg.SnapshotEvery, "Save a snapshot at this interval (0 = only on S key)")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "JPEG quality (1-100)")
	fs.BoolVar(&cfg.Share, "share", cfg.Share, "Stream the mosaic to remote viewers")
	fs.StringVar(&cfg.SignalingURL, "signaling", cfg.SignalingURL, "Signaling server WebSocket URL")
	fs.StringVar(&cfg.ID, "id", cfg.ID, "Broadcaster ID (auto-generated if empty)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ID == "" {
		cfg.ID = "flagcam-" + shortID()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate clamps soft limits and rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.Quality < 1 {
		c.Quality = 1
	}
	if c.Quality > 100 {
		c.Quality = 100
	}
	if c.StaleAfter < 0 {
		c.StaleAfter = 0
	}

	var errs []error
	if c.FPS < 1 || c.FPS > 120 {
		errs = append(errs, fmt.Errorf("fps must be 1-120, got %d", c.FPS))
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("width and height must be >= 0, got %dx%d", c.Width, c.Height))
	}
	if c.Device < 0 {
		errs = append(errs, fmt.Errorf("device must be >= 0, got %d", c.Device))
	}
	if c.SnapshotEvery < 0 {
		errs = append(errs, fmt.Errorf("snapshot-every must be >= 0, got %s", c.SnapshotEvery))
	}
	if c.Headless && !c.Share && c.SnapshotEvery == 0 {
		errs = append(errs, errors.New("headless mode needs -share or -snapshot-every"))
	}
	return errors.Join(errs...)
}

// ViewerConfig holds configuration for the viewer binary.
type ViewerConfig struct {
	SignalingURL  string
	ID            string
	BroadcasterID string
	LogLevel      string
}

// ParseViewerFlags parses flags for the viewer binary.
func ParseViewerFlags() (*ViewerConfig, error) {
	return parseViewer(flag.CommandLine, os.Args[1:])
}

func parseViewer(fs *flag.FlagSet, args []string) (*ViewerConfig, error) {
	cfg := &ViewerConfig{}
	fs.StringVar(&cfg.SignalingURL, "signaling", "ws://localhost:8080", "Signaling server WebSocket URL")
	fs.StringVar(&cfg.ID, "id", "", "Viewer ID (auto-generated if empty)")
	fs.StringVar(&cfg.BroadcasterID, "broadcaster", "", "Broadcaster ID to watch (required)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.BroadcasterID == "" {
		return nil, errors.New("-broadcaster is required")
	}
	if cfg.ID == "" {
		cfg.ID = "viewer-" + shortID()
	}
	return cfg, nil
}

func shortID() string {
	return uuid.NewString()[:8]
}
