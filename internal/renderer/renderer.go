// Package renderer produces monochrome bitmaps for the thermal driver:
// rasterized text, barcode and QR images, and conversion of arbitrary
// images to the driver's packed bit format.
package renderer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Renderer rasterizes content at a fixed paper width in dots.
type Renderer struct {
	width int
	font  *truetype.Font
}

// New creates a renderer for the given paper width in dots.
func New(paperWidth int) (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse builtin font: %w", err)
	}

	return &Renderer{
		width: paperWidth,
		font:  f,
	}, nil
}

// Width returns the paper width in dots.
func (r *Renderer) Width() int {
	return r.width
}

func (r *Renderer) face(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{Size: size})
}

// RenderText rasterizes text at the given point size into a paper-width
// bitmap. Lines are split on \n and wrapped at the paper edge.
func (r *Renderer) RenderText(text string, size float64, align string) (*Bitmap, error) {
	if size <= 0 {
		size = 24
	}

	face := r.face(size)

	// Measure with a throwaway context, then draw for real at the
	// resulting height.
	measure := gg.NewContext(r.width, 1)
	measure.SetFontFace(face)

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		lines = append(lines, measure.WordWrap(l, float64(r.width))...)
		if l == "" {
			lines = append(lines, "")
		}
	}

	lineHeight := size * 1.3
	height := int(lineHeight*float64(len(lines))) + 4
	if height < 1 {
		height = 1
	}

	ctx := gg.NewContext(r.width, height)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(color.Black)
	ctx.SetFontFace(face)

	y := lineHeight
	for _, line := range lines {
		w, _ := ctx.MeasureString(line)
		var x float64
		switch align {
		case "center":
			x = (float64(r.width) - w) / 2
		case "right":
			x = float64(r.width) - w
		default:
			x = 0
		}
		if x < 0 {
			x = 0
		}
		ctx.DrawString(line, x, y)
		y += lineHeight
	}

	return ToBitmap(ctx.Image(), 0), nil
}
