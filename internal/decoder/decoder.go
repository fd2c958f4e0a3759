package decoder

import "image"

// Decoder decodes an encoded frame received from a broadcaster.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
