package similarity

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, fill func(x, y int) color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func solid(c color.Color) func(int, int) color.Color {
	return func(int, int) color.Color { return c }
}

func TestCosine(t *testing.T) {
	s, err := Cosine([]float64{1, 0}, []float64{2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	s, err = Cosine([]float64{1, 0}, []float64{0, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s, 1e-9)

	s, err = Cosine([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	assert.Zero(t, s)

	_, err = Cosine([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRankOrdersBySimilarity(t *testing.T) {
	dir := t.TempDir()
	gallery := filepath.Join(dir, "gallery")
	require.NoError(t, os.Mkdir(gallery, 0o755))

	red := color.RGBA{R: 220, A: 255}
	writePNG(t, filepath.Join(dir, "query.png"), solid(red))
	writePNG(t, filepath.Join(gallery, "red.png"), solid(color.RGBA{R: 210, G: 10, A: 255}))
	writePNG(t, filepath.Join(gallery, "blue.PNG"), solid(color.RGBA{B: 220, A: 255}))
	writePNG(t, filepath.Join(gallery, "half.png"), func(x, _ int) color.Color {
		if x < 16 {
			return red
		}
		return color.RGBA{G: 200, A: 255}
	})
	require.NoError(t, os.WriteFile(filepath.Join(gallery, "notes.txt"), []byte("skip me"), 0o644))

	matches, err := Rank(context.Background(), NewHistogramEmbedder(), filepath.Join(dir, "query.png"), gallery, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "red.png", filepath.Base(matches[0].Path))
	assert.Equal(t, "half.png", filepath.Base(matches[1].Path))
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)

	all, err := Rank(context.Background(), NewHistogramEmbedder(), filepath.Join(dir, "query.png"), gallery, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

type fixedEmbedder map[string][]float64

func (f fixedEmbedder) Embed(_ context.Context, path string) ([]float64, error) {
	v, ok := f[filepath.Base(path)]
	if !ok {
		return nil, errors.New("unknown image")
	}
	return v, nil
}

func TestRankWithCustomEmbedder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpeg", "c.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	emb := fixedEmbedder{
		"q.jpg":  {1, 0, 0},
		"a.jpg":  {0, 1, 0},
		"b.jpeg": {1, 1, 0},
		"c.png":  {1, 0.1, 0},
	}

	matches, err := Rank(context.Background(), emb, "q.jpg", dir, 5)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "c.png", filepath.Base(matches[0].Path))
	assert.Equal(t, "b.jpeg", filepath.Base(matches[1].Path))
	assert.Equal(t, "a.jpg", filepath.Base(matches[2].Path))

	_, err = Rank(context.Background(), emb, "missing.jpg", dir, 5)
	assert.Error(t, err)
	_, err = Rank(context.Background(), emb, "q.jpg", filepath.Join(dir, "nope"), 5)
	assert.Error(t, err)
}
