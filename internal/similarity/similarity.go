// Package similarity ranks gallery images by visual similarity to a query.
// The embedding model is pluggable; HistogramEmbedder is the built-in default.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Embedder maps an image file to a feature vector. Vectors from one Embedder
// must share a dimension.
type Embedder interface {
	Embed(ctx context.Context, path string) ([]float64, error)
}

// Match is one ranked gallery image.
type Match struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

var galleryExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

var ErrDimensionMismatch = errors.New("similarity: embedding dimensions differ")

// Cosine returns the cosine similarity of a and b, or 0 if either is zero.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// GalleryImages lists the .jpg/.jpeg/.png files directly inside dir, sorted.
func GalleryImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading gallery: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !galleryExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Rank embeds the query and every gallery image and returns the k most
// similar by descending cosine similarity. k <= 0 returns every match.
func Rank(ctx context.Context, embedder Embedder, queryPath, galleryDir string, k int) ([]Match, error) {
	query, err := embedder.Embed(ctx, queryPath)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	paths, err := GalleryImages(galleryDir)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, p)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", p, err)
			}
			score, err := Cosine(query, vec)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			matches[i] = Match{Path: p, Score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
