package similarity

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// HistogramEmbedder describes an image by a joint RGB color histogram plus a
// coarse luminance grid, computed on a downscaled copy.
type HistogramEmbedder struct {
	Bins int // per channel
	Grid int // luminance grid is Grid x Grid
	Size int // side of the downscaled square
}

func NewHistogramEmbedder() *HistogramEmbedder {
	return &HistogramEmbedder{Bins: 4, Grid: 8, Size: 64}
}

// Dim is the length of the vectors Embed returns.
func (h *HistogramEmbedder) Dim() int {
	return h.Bins*h.Bins*h.Bins + h.Grid*h.Grid
}

func (h *HistogramEmbedder) Embed(ctx context.Context, path string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return h.EmbedImage(img), nil
}

// EmbedImage computes the feature vector of an already decoded image.
func (h *HistogramEmbedder) EmbedImage(img image.Image) []float64 {
	small := image.NewRGBA(image.Rect(0, 0, h.Size, h.Size))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	vec := make([]float64, h.Dim())
	grid := vec[h.Bins*h.Bins*h.Bins:]
	cell := h.Size / h.Grid
	pixels := float64(h.Size * h.Size)

	for y := 0; y < h.Size; y++ {
		for x := 0; x < h.Size; x++ {
			c := small.RGBAAt(x, y)
			r := int(c.R) * h.Bins / 256
			g := int(c.G) * h.Bins / 256
			b := int(c.B) * h.Bins / 256
			vec[(r*h.Bins+g)*h.Bins+b] += 1 / pixels

			lum := (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
			gy, gx := min(y/cell, h.Grid-1), min(x/cell, h.Grid-1)
			grid[gy*h.Grid+gx] += lum / float64(cell*cell)
		}
	}
	return vec
}
