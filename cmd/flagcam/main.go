package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/FlagCam/internal/capture"
	"github.com/junsooki/FlagCam/internal/config"
	"github.com/junsooki/FlagCam/internal/display"
	"github.com/junsooki/FlagCam/internal/encoder"
	"github.com/junsooki/FlagCam/internal/logging"
	"github.com/junsooki/FlagCam/internal/peer"
	"github.com/junsooki/FlagCam/internal/render"
	"github.com/junsooki/FlagCam/internal/signaling"
	"github.com/junsooki/FlagCam/internal/snapshot"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flagcam: %v\n", err)
		os.Exit(2)
	}
	logging.Init(cfg.LogLevel)
	logger := logging.With("app", "flagcam")

	if err := run(cfg, logger); err != nil {
		logger.Error("flagcam failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("flagcam starting",
		"device", cfg.Device, "image", cfg.ImagePath,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps", cfg.FPS, "headless", cfg.Headless, "share", cfg.Share)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	if err := src.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer src.Stop()

	renderer := render.New(src, logger)
	snaps := snapshot.NewWriter(cfg.SnapshotDir, encoder.NewJPEGEncoder(cfg.Quality))

	var (
		wg   sync.WaitGroup
		taps []*tap
	)
	defer func() {
		for _, t := range taps {
			t.close()
		}
		wg.Wait()
	}()

	if cfg.Share {
		b, sig, err := startSharing(cfg, logger)
		if err != nil {
			return err
		}
		defer sig.Close()
		defer b.Close()

		// Streaming lowers its own quality on oversized frames; snapshots keep theirs.
		streamEnc := encoder.NewJPEGEncoder(cfg.Quality)
		t := newTap(time.Second / time.Duration(cfg.FPS))
		renderer.Observe(t.observe)
		taps = append(taps, t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			streamFrames(t.out, streamEnc, b, logger)
		}()
		logger.Info("sharing mosaic", "id", sig.ID())
	}

	if cfg.SnapshotEvery > 0 {
		t := newTap(cfg.SnapshotEvery)
		renderer.Observe(t.observe)
		taps = append(taps, t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			saveFrames(t.out, snaps, logger)
		}()
	}

	if cfg.Headless {
		loop, err := render.NewLoop(renderer, cfg.FPS)
		if err != nil {
			return err
		}
		return loop.Run(ctx)
	}

	var disp display.Display = display.NewEbitenDisplay(renderer, display.Options{
		Title:  "Spain Flags Camera",
		Width:  1280,
		Height: 720,
		Step: func() error {
			if ctx.Err() != nil {
				return ebiten.Termination
			}
			renderer.Advance()
			return nil
		},
		OnSnapshot: func(img *image.RGBA) {
			path, err := snaps.Save(img)
			if err != nil {
				logger.Warn("save snapshot", "error", err)
				return
			}
			logger.Info("snapshot saved", "path", path)
		},
		OnClose: renderer.Stop,
	}, logger)

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	return disp.Run()
}

func openSource(cfg *config.Config, logger *slog.Logger) (capture.Source, error) {
	if cfg.ImagePath != "" {
		return capture.OpenStill(cfg.ImagePath, cfg.Width, logger)
	}
	return capture.NewCamera(capture.CameraConfig{
		Device:     cfg.Device,
		Width:      cfg.Width,
		Height:     cfg.Height,
		FPS:        cfg.FPS,
		StaleAfter: cfg.StaleAfter,
	}, logger)
}

func startSharing(cfg *config.Config, logger *slog.Logger) (*peer.Broadcaster, *signaling.Client, error) {
	var b *peer.Broadcaster
	sig := signaling.NewClient(cfg.SignalingURL, cfg.ID, signaling.RoleBroadcaster, signaling.Handler{
		OnRegistered: func() {
			logger.Info("registered with signaling server; viewers can now connect", "id", cfg.ID)
		},
		OnOffer: func(from string, payload json.RawMessage) {
			logger.Info("viewer offer", "viewer", from)
			if err := b.HandleOffer(from, payload); err != nil {
				logger.Warn("handle offer", "viewer", from, "error", err)
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if err := b.HandleICECandidate(from, payload); err != nil {
				logger.Debug("handle ICE candidate", "viewer", from, "error", err)
			}
		},
		OnPeerLeft: func(id string) {
			b.RemoveViewer(id)
		},
		OnError: func(msg string) {
			logger.Warn("signaling error", "message", msg)
		},
	}, logger)
	b = peer.NewBroadcaster(sig, logger)

	if err := sig.Connect(); err != nil {
		return nil, nil, err
	}
	return b, sig, nil
}
