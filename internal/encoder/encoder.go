package encoder

import "image"

// Encoder encodes a rendered frame into bytes.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
	SetQuality(quality int)
	Quality() int
	// Ext is the file extension of the encoded format, including the dot.
	Ext() string
}
