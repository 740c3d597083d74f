package videos

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
)

// ThumbnailGenerator produces thumbnail image bytes for an uploaded video.
// Implementations that extract real frames can be swapped in without touching
// the upload state machine.
type ThumbnailGenerator interface {
	Generate(ctx context.Context) ([]byte, error)
}

// PlaceholderThumbnailer renders a fixed-size solid-color PNG. Frame
// extraction is a possible future replacement; uploads only need a stable
// artwork slot today.
type PlaceholderThumbnailer struct {
	Width  int
	Height int
	Fill   color.RGBA
}

// NewPlaceholderThumbnailer returns the default 320x180 dark placeholder.
func NewPlaceholderThumbnailer() *PlaceholderThumbnailer {
	return &PlaceholderThumbnailer{
		Width:  320,
		Height: 180,
		Fill:   color.RGBA{R: 26, G: 26, B: 26, A: 255},
	}
}

// Generate encodes the placeholder as PNG bytes.
func (g *PlaceholderThumbnailer) Generate(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := g.Width, g.Height
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 180
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, g.Fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
