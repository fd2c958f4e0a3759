package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/FlagCam/internal/transport"
)

type viewerConn struct {
	pc        *webrtc.PeerConnection
	transport *transport.DataChannelTransport
}

// Broadcaster serves the mosaic stream to any number of viewers, one peer
// connection each. Viewers open the frames channel; the broadcaster answers.
type Broadcaster struct {
	sig    Signaler
	logger *slog.Logger

	mu      sync.Mutex
	viewers map[string]*viewerConn

	warnedOversize atomic.Bool
}

// NewBroadcaster returns a broadcaster with no viewers.
func NewBroadcaster(sig Signaler, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		sig:     sig,
		logger:  logger.With("component", "broadcaster"),
		viewers: make(map[string]*viewerConn),
	}
}

// HandleOffer answers an offer from viewer from, replacing any previous
// connection with the same viewer.
func (b *Broadcaster) HandleOffer(from string, payload json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return fmt.Errorf("decode offer from %s: %w", from, err)
	}

	b.RemoveViewer(from)

	logger := b.logger.With("viewer", from)
	pc, err := NewPeerConnection(b.sig, from, logger)
	if err != nil {
		return err
	}
	vc := &viewerConn{pc: pc, transport: transport.NewDataChannelTransport(nil)}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != transport.ChannelLabel {
			logger.Debug("ignoring data channel", "label", dc.Label())
			return
		}
		dc.OnOpen(func() { logger.Info("viewer channel open") })
		vc.transport.SetChannel(dc)
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Info("peer connection state", "state", state.String())
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			b.dropIf(from, vc)
		}
	})

	b.mu.Lock()
	b.viewers[from] = vc
	b.mu.Unlock()

	if err := b.answer(from, pc, offer); err != nil {
		b.RemoveViewer(from)
		return err
	}
	return nil
}

func (b *Broadcaster) answer(to string, pc *webrtc.PeerConnection, offer webrtc.SessionDescription) error {
	if err := pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return b.sig.SendAnswer(to, answerJSON)
}

// HandleICECandidate adds a remote candidate for viewer from.
func (b *Broadcaster) HandleICECandidate(from string, payload json.RawMessage) error {
	b.mu.Lock()
	vc, ok := b.viewers[from]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("ICE candidate from unknown viewer %s", from)
	}
	return addCandidate(vc.pc, payload)
}

// Broadcast sends an encoded frame to every viewer whose channel is open and
// returns how many received it. Frames over transport.MaxFrameSize are
// dropped; the first one is logged at warn level.
func (b *Broadcaster) Broadcast(frame []byte) int {
	if len(frame) > transport.MaxFrameSize {
		if b.warnedOversize.CompareAndSwap(false, true) {
			b.logger.Warn("dropping frames over the data channel limit",
				"size", len(frame), "limit", transport.MaxFrameSize)
		} else {
			b.logger.Debug("drop oversized frame", "size", len(frame))
		}
		return 0
	}

	b.mu.Lock()
	targets := make(map[string]*transport.DataChannelTransport, len(b.viewers))
	for id, vc := range b.viewers {
		if vc.transport.Open() {
			targets[id] = vc.transport
		}
	}
	b.mu.Unlock()

	sent := 0
	for id, t := range targets {
		if err := t.SendFrame(frame); err != nil {
			b.logger.Debug("send frame", "viewer", id, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Viewers returns the number of connected viewers.
func (b *Broadcaster) Viewers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.viewers)
}

// RemoveViewer closes and forgets the connection to viewer id.
func (b *Broadcaster) RemoveViewer(id string) {
	b.mu.Lock()
	vc, ok := b.viewers[id]
	delete(b.viewers, id)
	b.mu.Unlock()
	if ok {
		vc.pc.Close()
	}
}

func (b *Broadcaster) dropIf(id string, vc *viewerConn) {
	b.mu.Lock()
	if b.viewers[id] == vc {
		delete(b.viewers, id)
	}
	b.mu.Unlock()
}

// Close disconnects every viewer.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	viewers := b.viewers
	b.viewers = make(map[string]*viewerConn)
	b.mu.Unlock()
	for _, vc := range viewers {
		vc.pc.Close()
	}
}
