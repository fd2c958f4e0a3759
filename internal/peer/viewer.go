package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/FlagCam/internal/transport"
)

// Viewer is the receiving side of a mosaic stream.
type Viewer struct {
	pc            *webrtc.PeerConnection
	sig           Signaler
	transport     *transport.DataChannelTransport
	broadcasterID string
	logger        *slog.Logger
}

// NewViewer creates the peer connection and the frames channel. Frames are
// latest-wins, so the channel is unordered with no retransmits.
func NewViewer(sig Signaler, broadcasterID string, logger *slog.Logger) (*Viewer, error) {
	logger = logger.With("component", "viewer", "broadcaster", broadcasterID)
	pc, err := NewPeerConnection(sig, broadcasterID, logger)
	if err != nil {
		return nil, err
	}

	ordered := false
	maxRetransmits := uint16(0)
	dc, err := pc.CreateDataChannel(transport.ChannelLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	dc.OnOpen(func() { logger.Info("mosaic channel open") })

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Info("peer connection state", "state", state.String())
	})

	return &Viewer{
		pc:            pc,
		sig:           sig,
		transport:     transport.NewDataChannelTransport(dc),
		broadcasterID: broadcasterID,
		logger:        logger,
	}, nil
}

// Transport returns the frames transport.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect creates the offer and sends it to the broadcaster.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := v.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return v.sig.SendOffer(v.broadcasterID, offerJSON)
}

// HandleAnswer applies the broadcaster's SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}
	return v.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(v.pc, payload)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	v.pc.Close()
}
