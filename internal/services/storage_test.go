package services

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"rewear/internal/apperr"
	"rewear/internal/logger"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir(), logger.Discard())
	require.NoError(t, err)
	return s
}

func TestStorageResizesBills(t *testing.T) {
	s := newTestStorage(t)

	rel, err := s.Save(bytes.NewReader(pngBytes(t, 600, 2400)), "receipt.PNG", KindBill)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "bills/"))
	assert.Equal(t, ".png", filepath.Ext(rel))

	f, err := os.Open(filepath.Join(s.Root(), rel))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 1200, cfg.Height)
}

func TestStorageKeepsPDFBills(t *testing.T) {
	s := newTestStorage(t)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	rel, err := s.Save(bytes.NewReader(pdf), "bill.pdf", KindBill)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(s.Root(), rel))
	require.NoError(t, err)
	assert.Equal(t, pdf, got)

	_, err = s.Save(bytes.NewReader([]byte("plain text")), "bill.pdf", KindBill)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.Save(bytes.NewReader(pdf), "photo.pdf", KindItemImage)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStorageRejectsBadImages(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Save(bytes.NewReader([]byte("not an image")), "a.jpg", KindItemImage)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.Save(bytes.NewReader(pngBytes(t, 2, 2)), "a.bmp", KindItemImage)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStorageRemove(t *testing.T) {
	s := newTestStorage(t)

	rel, err := s.Save(bytes.NewReader(pngBytes(t, 2, 2)), "a.png", KindItemImage)
	require.NoError(t, err)
	s.Remove(rel, "items/missing.png", "")

	_, err = os.Stat(filepath.Join(s.Root(), rel))
	assert.True(t, os.IsNotExist(err))
}
