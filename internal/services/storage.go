package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"rewear/internal/apperr"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// UploadKind selects validation and resize rules for a stored file.
type UploadKind int

const (
	KindItemImage UploadKind = iota
	KindBill
)

const (
	itemImageMaxDim = 800
	billMaxDim      = 1200
	jpegQuality     = 85
	maxSourcePixels = 40_000_000
)

var (
	imageExtensions    = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
	documentExtensions = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}
)

// Storage writes uploads below a root directory. Returned paths are relative
// to that root and use forward slashes so they can be served as URLs.
type Storage struct {
	root string
	log  logrus.FieldLogger
}

func NewStorage(root string, log logrus.FieldLogger) (*Storage, error) {
	for _, sub := range []string{"items", "bills"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating upload dir: %w", err)
		}
	}
	return &Storage{root: root, log: log}, nil
}

func (s *Storage) Root() string { return s.root }

// Save validates, resizes and writes an upload, returning its relative path.
func (s *Storage) Save(r io.Reader, filename string, kind UploadKind) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed, dir, maxDim := imageExtensions, "items", itemImageMaxDim
	if kind == KindBill {
		allowed, dir, maxDim = documentExtensions, "bills", billMaxDim
	}
	if !allowed[ext] {
		return "", apperr.Validation(fmt.Sprintf("File type %s is not allowed", ext))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}

	var out []byte
	var outExt string
	if ext == ".pdf" {
		if http.DetectContentType(data) != "application/pdf" {
			return "", apperr.Validation("File is not a PDF document")
		}
		out, outExt = data, ".pdf"
	} else {
		out, outExt, err = processImage(data, maxDim)
		if err != nil {
			return "", err
		}
	}

	rel := path.Join(dir, uuid.NewString()+outExt)
	if err := os.WriteFile(filepath.Join(s.root, filepath.FromSlash(rel)), out, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return rel, nil
}

// Remove deletes stored files. Failures are logged, never returned.
func (s *Storage) Remove(paths ...string) {
	for _, rel := range paths {
		if rel == "" {
			continue
		}
		full := filepath.Join(s.root, filepath.FromSlash(rel))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			s.log.WithError(err).WithField("path", rel).Warn("Failed to remove orphaned upload")
		}
	}
}

// processImage decodes any registered format, shrinks it to fit maxDim and
// re-encodes. PNG stays PNG; everything else becomes JPEG.
func processImage(data []byte, maxDim int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperr.Validation("File is not a valid image")
	}
	if cfg.Width*cfg.Height > maxSourcePixels {
		return nil, "", apperr.Validation("Image dimensions are too large")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperr.Validation("File is not a valid image")
	}
	img = fitWithin(img, maxDim)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encoding PNG: %w", err)
		}
		return buf.Bytes(), ".png", nil
	}
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), ".jpg", nil
}

// fitWithin resizes so neither side exceeds maxDim, keeping aspect ratio.
func fitWithin(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = h * maxDim / w
	} else {
		newW = w * maxDim / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// flatten paints img over white; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst
}
