package transport

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ChannelLabel names the data channel carrying mosaic frames.
const ChannelLabel = "mosaic"

// DataChannelTransport carries encoded frames over a WebRTC DataChannel.
type DataChannelTransport struct {
	mu      sync.RWMutex
	dc      *webrtc.DataChannel
	onFrame func(data []byte)
}

var (
	_ FrameSender   = (*DataChannelTransport)(nil)
	_ FrameReceiver = (*DataChannelTransport)(nil)
)

// NewDataChannelTransport wraps dc, which may be nil until the remote side
// opens its channel.
func NewDataChannelTransport(dc *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{}
	if dc != nil {
		t.SetChannel(dc)
	}
	return t
}

// SetChannel attaches or replaces the frames DataChannel.
func (t *DataChannelTransport) SetChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.dc = dc
	t.mu.Unlock()

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.RLock()
		cb := t.onFrame
		t.mu.RUnlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}

// Open reports whether the channel is attached and open.
func (t *DataChannelTransport) Open() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dc != nil && t.dc.ReadyState() == webrtc.DataChannelStateOpen
}

func (t *DataChannelTransport) SendFrame(data []byte) error {
	if err := checkSize(data); err != nil {
		return err
	}
	t.mu.RLock()
	dc := t.dc
	t.mu.RUnlock()
	if dc == nil {
		return ErrNoChannel
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

func checkSize(data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}
	return nil
}
