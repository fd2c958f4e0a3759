package main

import (
	"image"
	"log/slog"
	"time"

	"github.com/junsooki/FlagCam/internal/encoder"
	"github.com/junsooki/FlagCam/internal/snapshot"
	"github.com/junsooki/FlagCam/internal/transport"
)

// tap copies at most one rendered surface per interval onto a channel,
// dropping copies while the consumer is busy. It runs on the render goroutine.
type tap struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	out      chan *image.RGBA
}

func newTap(interval time.Duration) *tap {
	return &tap{
		interval: interval,
		now:      time.Now,
		out:      make(chan *image.RGBA, 1),
	}
}

func (t *tap) observe(img *image.RGBA) {
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return
	}
	t.last = now

	clone := &image.RGBA{
		Pix:    append([]byte(nil), img.Pix...),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	select {
	case t.out <- clone:
	default:
	}
}

// close ends the consumer's range loop. Call only after rendering stopped.
func (t *tap) close() {
	close(t.out)
}

// Quality steps used when an encoded frame does not fit the data channel.
const (
	qualityStep = 10
	minQuality  = 10
)

// frameSink is the part of peer.Broadcaster the stream loop uses.
type frameSink interface {
	Viewers() int
	Broadcast(frame []byte) int
}

func streamFrames(frames <-chan *image.RGBA, enc encoder.Encoder, sink frameSink, logger *slog.Logger) {
	for frame := range frames {
		if sink.Viewers() == 0 {
			continue
		}
		data, err := encodeToFit(frame, enc, logger)
		if err != nil {
			logger.Warn("encode frame", "error", err)
			continue
		}
		sink.Broadcast(data)
	}
}

// encodeToFit lowers the encoder quality until the frame fits
// transport.MaxFrameSize or minQuality is reached. The lowered quality sticks
// for later frames.
func encodeToFit(frame *image.RGBA, enc encoder.Encoder, logger *slog.Logger) ([]byte, error) {
	for {
		data, err := enc.Encode(frame)
		if err != nil {
			return nil, err
		}
		q := enc.Quality()
		if len(data) <= transport.MaxFrameSize || q <= minQuality {
			return data, nil
		}
		next := max(q-qualityStep, minQuality)
		logger.Warn("encoded frame over data channel limit; lowering quality",
			"size", len(data), "limit", transport.MaxFrameSize, "quality", next)
		enc.SetQuality(next)
	}
}

func saveFrames(frames <-chan *image.RGBA, w *snapshot.Writer, logger *slog.Logger) {
	for frame := range frames {
		path, err := w.Save(frame)
		if err != nil {
			logger.Warn("save snapshot", "error", err)
			continue
		}
		logger.Info("snapshot saved", "path", path)
	}
}
