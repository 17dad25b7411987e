package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Surface is the in-memory RGBA canvas the compositor draws each tick into.
// Not safe for concurrent use; the render loop owns it.
type Surface struct {
	img *image.RGBA
}

func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface dimensions must be positive, got %dx%d", width, height)
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *Surface) FillRect(r image.Rectangle, c color.Color) {
	draw.Draw(s.img, r.Intersect(s.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage scales src into dst with nearest-neighbor sampling. Placeholder
// quality is fine here: the real frame source is an external player surface.
func (s *Surface) DrawImage(src image.Image, dst image.Rectangle) {
	dst = dst.Intersect(s.img.Bounds())
	if dst.Empty() {
		return
	}
	sb := src.Bounds()
	if sb.Empty() {
		return
	}

	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		sy := sb.Min.Y + (y-dst.Min.Y)*sb.Dy()/dst.Dy()
		for x := dst.Min.X; x < dst.Max.X; x++ {
			sx := sb.Min.X + (x-dst.Min.X)*sb.Dx()/dst.Dx()
			s.img.Set(x, y, src.At(sx, sy))
		}
	}
}

// DrawLabel renders text at the baseline position over a contrasting strip.
func (s *Surface) DrawLabel(text string, x, y int, fg, bg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()

	strip := image.Rect(x-2, y-face.Ascent-2, x+width+2, y+face.Descent+2)
	s.FillRect(strip, bg)

	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// Snapshot copies the raw RGBA pixels for downstream consumers.
func (s *Surface) Snapshot() []byte {
	out := make([]byte, len(s.img.Pix))
	copy(out, s.img.Pix)
	return out
}

// At returns the pixel at (x, y); used by tests to assert draws happened.
func (s *Surface) At(x, y int) color.Color {
	return s.img.At(x, y)
}
