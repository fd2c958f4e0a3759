// Package mosaic turns a video frame into a grid of brightness-scaled flag
// tiles on a black background.
package mosaic

import (
	"image"
	"image/color"
	"image/draw"
)

// Spacing is the distance in pixels between sample points on both axes.
const Spacing = 15

const (
	minScale   = 0.2
	scaleRange = 0.8
)

// Brightness is the mean of the three colour channels.
func Brightness(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}

// Scale maps a brightness in [0, 255] onto a tile scale in [0.2, 1.0].
func Scale(brightness float64) float64 {
	return (brightness/255)*scaleRange + minScale
}

// Grid calls visit for every sample point (x, y) with x and y multiples of
// Spacing strictly below w and h. Rows are visited top to bottom.
func Grid(w, h int, visit func(x, y int)) {
	for y := 0; y < h; y += Spacing {
		for x := 0; x < w; x += Spacing {
			visit(x, y)
		}
	}
}

// Render clears dst to black and draws one tile per sample point of src.
// Samples are read from src only, so dst and src must not share pixels.
// dst is expected to have the same size as src; tiles falling outside dst
// are clipped.
func Render(dst, src *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)

	sb := src.Bounds()
	db := dst.Bounds()
	var pt painter
	Grid(sb.Dx(), sb.Dy(), func(x, y int) {
		i := src.PixOffset(sb.Min.X+x, sb.Min.Y+y)
		p := src.Pix[i : i+3 : i+3]
		t := TileAt(db.Min.X+x, db.Min.Y+y, Brightness(p[0], p[1], p[2]))
		pt.draw(dst, t)
	})
}
