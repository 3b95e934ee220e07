package services

import (
	"rewear/internal/apperr"
	"rewear/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateItemPoints(t *testing.T) {
	tests := []struct {
		category, condition, listing string
		want                         int
	}{
		{"Dresses", "Good", models.ListingSwap, 20},
		{"Dresses", "Like New", models.ListingSwap, 30},
		{"Outerwear", "Excellent", models.ListingSwap, 32},
		{"Bottoms", "Fair", models.ListingSwap, 10},
		{"Jewelry", "Fair", models.ListingSwap, 8},
		{"Tops", "Fair", models.ListingSwap, 7},
		{"Hats", "Good", models.ListingSwap, 15},
		{"Shoes", "Mint", models.ListingSwap, 20},
		{"Unknown", "Unknown", models.ListingSwap, 15},
		{"Outerwear", "Like New", models.ListingDonation, 0},
	}
	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.condition+"/"+tt.listing, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateItemPoints(tt.category, tt.condition, tt.listing))
		})
	}
}

func TestTransferPointsConservesTotal(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@x.io", 30)
	b := f.user(t, "b@x.io", 10)

	require.NoError(t, transferPoints(f.db, a.ID, b.ID, 25, ActionSwapDebit, ActionSwapCredit, nil))
	assert.Equal(t, 5, f.points(t, a.ID))
	assert.Equal(t, 35, f.points(t, b.ID))

	err := transferPoints(f.db, a.ID, b.ID, 6, ActionSwapDebit, ActionSwapCredit, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 5, f.points(t, a.ID))
	assert.Equal(t, 35, f.points(t, b.ID))

	var logs []models.PointLog
	require.NoError(t, f.db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, -25, logs[0].Amount)
	assert.Equal(t, 25, logs[1].Amount)
}
