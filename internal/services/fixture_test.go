package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"rewear/internal/config"
	"rewear/internal/db"
	"rewear/internal/logger"
	"rewear/internal/metrics"
	"rewear/internal/models"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	svc *Services
	cfg *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := db.NewTestDB(t)
	cfg := &config.Config{UploadDir: t.TempDir(), WelcomeBonus: 50}
	svc, err := New(conn, cfg, logger.Discard(), metrics.New())
	require.NoError(t, err)
	return &fixture{db: conn, svc: svc, cfg: cfg}
}

func (f *fixture) user(t *testing.T, email string, points int) *models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Password: "x", Points: points, Role: models.RoleUser, IsActive: true}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) admin(t *testing.T) *models.User {
	t.Helper()
	u := models.User{Email: "admin@rewear.com", Name: "Admin", Password: "x", Points: 1000, Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) item(t *testing.T, ownerID uint, category, condition, listingType, status string) *models.Item {
	t.Helper()
	cat, _, err := resolveCategory(f.db, category)
	require.NoError(t, err)
	it := models.Item{
		UserID:      ownerID,
		CategoryID:  cat.ID,
		Title:       category + " " + condition,
		Description: "a nice piece",
		Type:        "casual",
		Size:        "M",
		Condition:   condition,
		ListingType: listingType,
		Points:      CalculateItemPoints(category, condition, listingType),
		Status:      status,
	}
	require.NoError(t, f.db.Omit("User", "Category").Create(&it).Error)
	return &it
}

func (f *fixture) points(t *testing.T, userID uint) int {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, userID).Error)
	return u.Points
}

func (f *fixture) itemStatus(t *testing.T, id uint) string {
	t.Helper()
	var it models.Item
	require.NoError(t, f.db.First(&it, id).Error)
	return it.Status
}

func (f *fixture) requestStatus(t *testing.T, id uint) string {
	t.Helper()
	var r models.SwapRequest
	require.NoError(t, f.db.First(&r, id).Error)
	return r.Status
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Admin: u.IsAdmin()}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func memUpload(name string, data []byte) Upload {
	return Upload{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
