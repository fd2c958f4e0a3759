package transport

import "errors"

// MaxFrameSize is the largest encoded frame sent in one data channel message.
const MaxFrameSize = 64 * 1024

var (
	// ErrFrameTooLarge is returned for frames above MaxFrameSize.
	ErrFrameTooLarge = errors.New("transport: frame too large")

	// ErrNoChannel is returned when sending before the channel is attached.
	ErrNoChannel = errors.New("transport: data channel not set")
)

// FrameSender sends encoded mosaic frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded mosaic frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}
