package mosaic

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"
)

// Tile dimensions at full brightness.
const (
	FlagWidth  = 12.0
	FlagHeight = 8.0
)

var (
	// Red fills the top and bottom bands.
	Red = mustHex("#C60B1E")
	// Yellow fills the middle band.
	Yellow = mustHex("#FFC400")
)

func mustHex(s string) color.RGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Tile is a flag positioned by its top-left corner.
type Tile struct {
	X, Y float64
	W, H float64
}

// Bands holds the heights of the three horizontal stripes of a tile.
type Bands struct {
	Top, Middle, Bottom float64
}

// SplitBands divides a tile of height h into red/yellow/red stripes with the
// yellow stripe twice the height of each red one.
func SplitBands(h float64) Bands {
	red := h / 4
	return Bands{Top: red, Middle: h / 2, Bottom: red}
}

// TileAt returns the tile centred on the sample point (x, y) for a pixel of
// the given brightness.
func TileAt(x, y int, brightness float64) Tile {
	s := Scale(brightness)
	w := FlagWidth * s
	h := FlagHeight * s
	return Tile{
		X: float64(x) - w/2,
		Y: float64(y) - h/2,
		W: w,
		H: h,
	}
}

// DrawTile paints t onto dst. Band edges are not snapped to the pixel grid:
// partially covered pixels are blended by coverage, so even tiles under two
// pixels tall keep their red and yellow. Anything outside dst's bounds is
// clipped.
func DrawTile(dst draw.Image, t Tile) {
	var p painter
	p.draw(dst, t)
}

// painter reuses one rasterizer buffer across tiles.
type painter struct {
	z vector.Rasterizer
}

func (p *painter) draw(dst draw.Image, t Tile) {
	bounds := image.Rect(
		int(math.Floor(t.X)), int(math.Floor(t.Y)),
		int(math.Ceil(t.X+t.W)), int(math.Ceil(t.Y+t.H)),
	).Intersect(dst.Bounds())
	if bounds.Empty() {
		return
	}

	b := SplitBands(t.H)
	y1 := t.Y + b.Top
	y2 := y1 + b.Middle
	p.fill(dst, bounds, t.X, t.Y, t.X+t.W, y1, Red)
	p.fill(dst, bounds, t.X, y1, t.X+t.W, y2, Yellow)
	p.fill(dst, bounds, t.X, y2, t.X+t.W, t.Y+t.H, Red)
}

// fill composites the rectangle (x0,y0)-(x1,y1), clipped to bounds, over dst.
func (p *painter) fill(dst draw.Image, bounds image.Rectangle, x0, y0, x1, y1 float64, c color.RGBA) {
	x0 = math.Max(x0, float64(bounds.Min.X))
	y0 = math.Max(y0, float64(bounds.Min.Y))
	x1 = math.Min(x1, float64(bounds.Max.X))
	y1 = math.Min(y1, float64(bounds.Max.Y))
	if x1 <= x0 || y1 <= y0 {
		return
	}

	// Rasterizer coordinates are relative to bounds.Min.
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	lx0, ly0 := float32(x0-ox), float32(y0-oy)
	lx1, ly1 := float32(x1-ox), float32(y1-oy)

	p.z.Reset(bounds.Dx(), bounds.Dy())
	p.z.MoveTo(lx0, ly0)
	p.z.LineTo(lx1, ly0)
	p.z.LineTo(lx1, ly1)
	p.z.LineTo(lx0, ly1)
	p.z.ClosePath()
	p.z.Draw(dst, bounds, &image.Uniform{C: c}, image.Point{})
}
