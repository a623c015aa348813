// Package ascii turns decoded video frames into text frames.
package ascii

import (
	"errors"
	"image"
	"image/color"
	"strings"

	"github.com/nfnt/resize"
)

// CursorHome moves the cursor to the top-left cell.
const CursorHome = "\x1b[1;1H"

// RawFrame is one decoded picture and its position in display order.
type RawFrame struct {
	Index int
	Image image.Image
}

// Frame is a rendered text frame, ready to be written to a terminal.
type Frame struct {
	Index int
	Text  string
}

// Lines returns the frame rows without the cursor-home prefix.
func (f Frame) Lines() []string {
	body := strings.TrimPrefix(f.Text, CursorHome)
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

// Convert renders raw at the given geometry. It touches no shared state.
func Convert(raw RawFrame, g Geometry, r Ramp) (Frame, error) {
	if err := g.Validate(); err != nil {
		return Frame{}, err
	}
	if len(r) < 2 {
		return Frame{}, errors.New("ramp needs at least 2 glyphs")
	}
	if raw.Image == nil || raw.Image.Bounds().Empty() {
		return Frame{}, errors.New("empty frame")
	}

	gray := toGray(raw.Image)
	scaled := resize.Resize(uint(g.Width), uint(g.Height), gray, resize.Bilinear)

	b := scaled.Bounds()
	var sb strings.Builder
	sb.Grow(len(CursorHome) + g.Height*(g.Width*2+1))
	sb.WriteString(CursorHome)
	for y := 0; y < g.Height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < g.Width; x++ {
			sb.WriteRune(r.Glyph(lumaAt(scaled, b.Min.X+x, b.Min.Y+y)))
		}
	}
	return Frame{Index: raw.Index, Text: sb.String()}, nil
}

// toGray applies the Rec. 601 luma transform.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(b)
	if src, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si := src.PixOffset(b.Min.X, y)
			di := out.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl := uint32(src.Pix[si]), uint32(src.Pix[si+1]), uint32(src.Pix[si+2])
				out.Pix[di] = uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
				si += 4
				di++
			}
		}
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return out
}

func lumaAt(img image.Image, x, y int) uint8 {
	if g, ok := img.(*image.Gray); ok {
		return g.GrayAt(x, y).Y
	}
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}
