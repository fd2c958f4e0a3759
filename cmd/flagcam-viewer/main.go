package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/junsooki/FlagCam/internal/config"
	"github.com/junsooki/FlagCam/internal/decoder"
	"github.com/junsooki/FlagCam/internal/display"
	"github.com/junsooki/FlagCam/internal/logging"
	"github.com/junsooki/FlagCam/internal/peer"
	"github.com/junsooki/FlagCam/internal/signaling"
)

func main() {
	cfg, err := config.ParseViewerFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: flagcam-viewer -signaling <url> -broadcaster <id>: %v\n", err)
		os.Exit(2)
	}
	logging.Init(cfg.LogLevel)
	logger := logging.With("app", "flagcam-viewer")

	logger.Info("flagcam viewer starting",
		"id", cfg.ID, "signaling", cfg.SignalingURL, "broadcaster", cfg.BroadcasterID)

	dec := decoder.NewJPEGDecoder()
	frames := &display.FrameBuffer{}

	// set on the signaling goroutine, closed from main
	var (
		viewer atomic.Pointer[peer.Viewer]
		sig    *signaling.Client
	)
	sig = signaling.NewClient(cfg.SignalingURL, cfg.ID, signaling.RoleViewer, signaling.Handler{
		OnRegistered: func() {
			logger.Info("registered with signaling server", "id", sig.ID())

			v, err := peer.NewViewer(sig, cfg.BroadcasterID, logger)
			if err != nil {
				logger.Error("create viewer peer", "error", err)
				os.Exit(1)
			}
			viewer.Store(v)
			v.Transport().OnFrame(func(data []byte) {
				img, err := dec.Decode(data)
				if err != nil {
					logger.Debug("drop frame", "error", err)
					return
				}
				frames.SetFrame(img)
			})
			if err := v.Connect(); err != nil {
				logger.Error("viewer connect", "error", err)
			}
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			v := viewer.Load()
			if v == nil {
				return
			}
			if err := v.HandleAnswer(payload); err != nil {
				logger.Warn("handle answer", "error", err)
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			v := viewer.Load()
			if v == nil {
				return
			}
			if err := v.HandleICECandidate(payload); err != nil {
				logger.Debug("handle ICE candidate", "error", err)
			}
		},
		OnPeerLeft: func(id string) {
			if id == cfg.BroadcasterID {
				logger.Warn("broadcaster disconnected")
			}
		},
		OnError: func(msg string) {
			logger.Warn("signaling error", "message", msg)
		},
	}, logger)

	if err := sig.Connect(); err != nil {
		logger.Error("signaling connect", "error", err)
		os.Exit(1)
	}
	defer sig.Close()

	var disp display.Display = display.NewEbitenDisplay(frames, display.Options{
		Title:  "Spain Flags Camera: " + cfg.BroadcasterID,
		Width:  1280,
		Height: 720,
	}, logger)

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	if err := disp.Run(); err != nil {
		logger.Error("display", "error", err)
	}

	if v := viewer.Load(); v != nil {
		v.Close()
	}
}
