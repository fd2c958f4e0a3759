package display

import (
	"errors"
	"image"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Options configures an EbitenDisplay.
type Options struct {
	Title  string
	Width  int
	Height int
	// Step runs once per display tick before drawing. A non-nil error ends
	// the game loop; ebiten.Termination ends it cleanly.
	Step func() error
	// OnSnapshot is called with the current frame when S is pressed.
	OnSnapshot func(img *image.RGBA)
	// OnClose runs once when the window is closed or Escape/Q is pressed.
	OnClose func()
}

var _ Display = (*EbitenDisplay)(nil)

// EbitenDisplay shows a FrameSource full-window using Ebitengine. Update is
// driven at the display refresh rate and doubles as the render tick.
type EbitenDisplay struct {
	source      FrameSource
	opts        Options
	logger      *slog.Logger
	ebitenImage *ebiten.Image
	closed      bool
}

// NewEbitenDisplay creates an Ebitengine-based display for source.
func NewEbitenDisplay(source FrameSource, opts Options, logger *slog.Logger) *EbitenDisplay {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	return &EbitenDisplay{
		source: source,
		opts:   opts,
		logger: logger.With("component", "display"),
	}
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (d *EbitenDisplay) Run() error {
	configureWindow(d.opts)

	err := ebiten.RunGame(d)
	d.close()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func configureWindow(opts Options) {
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	// One Update per displayed frame, like a refresh-driven callback.
	ebiten.SetTPS(ebiten.SyncWithFPS)
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	if ebiten.IsWindowBeingClosed() ||
		inpututil.IsKeyJustPressed(ebiten.KeyEscape) ||
		inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		d.close()
		return ebiten.Termination
	}

	if d.opts.Step != nil {
		if err := d.opts.Step(); err != nil {
			d.close()
			return err
		}
	}

	if d.opts.OnSnapshot != nil && inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if frame := d.source.CurrentFrame(); frame != nil {
			d.opts.OnSnapshot(frame)
		}
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	frame := d.source.CurrentFrame()
	if frame == nil {
		return
	}

	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	if d.ebitenImage == nil ||
		d.ebitenImage.Bounds().Dx() != fw ||
		d.ebitenImage.Bounds().Dy() != fh {
		if d.ebitenImage != nil {
			d.ebitenImage.Deallocate()
		}
		d.ebitenImage = ebiten.NewImage(fw, fh)
		d.logger.Debug("allocated frame texture", "width", fw, "height", fh)
	}
	d.ebitenImage.WritePixels(frame.Pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := coverTransform(float64(sw), float64(sh), float64(fw), float64(fh))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(d.ebitenImage, op)
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (d *EbitenDisplay) close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.opts.OnClose != nil {
		d.opts.OnClose()
	}
}
