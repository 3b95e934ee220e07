package db

import (
	"rewear/internal/config"
	"rewear/internal/logger"
	"rewear/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	conn := NewTestDB(t)
	cfg := &config.Config{AdminEmail: " Admin@ReWear.com ", AdminPassword: "admin123"}

	require.NoError(t, Seed(conn, cfg, logger.Discard()))
	require.NoError(t, Seed(conn, cfg, logger.Discard()))

	var cats int64
	conn.Model(&models.Category{}).Count(&cats)
	assert.EqualValues(t, len(models.DefaultCategories), cats)

	var admins []models.User
	conn.Where("role = ?", models.RoleAdmin).Find(&admins)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@rewear.com", admins[0].Email)
	assert.Equal(t, 1000, admins[0].Points)
}

func TestPendingRequestUniqueIndex(t *testing.T) {
	conn := NewTestDB(t)

	owner := models.User{Email: "o@x.io", Name: "O", Password: "x", IsActive: true}
	requester := models.User{Email: "r@x.io", Name: "R", Password: "x", IsActive: true}
	require.NoError(t, conn.Create(&owner).Error)
	require.NoError(t, conn.Create(&requester).Error)
	cat := models.Category{Name: "Tops"}
	require.NoError(t, conn.Create(&cat).Error)
	item := models.Item{UserID: owner.ID, CategoryID: cat.ID, Title: "T", Description: "D",
		Type: "shirt", Size: "M", Condition: "Good", Points: 10, Status: models.ItemApproved, ListingType: models.ListingSwap}
	require.NoError(t, conn.Create(&item).Error)

	first := models.SwapRequest{ItemID: item.ID, RequesterID: requester.ID, OwnerID: owner.ID,
		OfferType: models.OfferPoints, PointsOffered: 10, Status: models.SwapPending}
	require.NoError(t, conn.Create(&first).Error)

	dup := first
	dup.ID = 0
	assert.Error(t, conn.Create(&dup).Error)

	// A closed request does not block a new pending one.
	require.NoError(t, conn.Model(&first).Update("status", models.SwapRejected).Error)
	dup.ID = 0
	assert.NoError(t, conn.Create(&dup).Error)
}
