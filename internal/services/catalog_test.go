package services

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"rewear/internal/apperr"
	"rewear/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func baseInput() CreateItemInput {
	return CreateItemInput{
		Title:       "Summer dress",
		Description: "Light **cotton** dress",
		Category:    "Dresses",
		Type:        "casual",
		Size:        "M",
		Condition:   "Good",
		Tags:        []string{" Summer ", "cotton,Blue", ""},
	}
}

func TestCreateSwapItemIsPendingAndPriced(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "o@x.io", 0)

	in := baseInput()
	in.Images = []Upload{memUpload("front.png", pngBytes(t, 1600, 400)), memUpload("back.png", pngBytes(t, 10, 10))}

	view, err := f.svc.Catalog.CreateItem(context.Background(), actorOf(owner), in)
	require.NoError(t, err)
	assert.Equal(t, models.ItemPending, view.Status)
	assert.Equal(t, models.ListingSwap, view.ListingType)
	assert.Equal(t, 20, view.Points)
	assert.Equal(t, "Dresses", view.CategoryName)
	assert.Equal(t, []string{"summer", "cotton", "blue"}, view.Tags)
	require.Len(t, view.Images, 2)
	assert.Equal(t, view.Images[0], view.PrimaryImage)

	var images []models.ItemImage
	require.NoError(t, f.db.Where("item_id = ?", view.ID).Order("id").Find(&images).Error)
	require.Len(t, images, 2)
	assert.True(t, images[0].IsPrimary)
	assert.False(t, images[1].IsPrimary)

	// Thumbnailed to fit 800x800.
	fh, err := os.Open(filepath.Join(f.cfg.UploadDir, images[0].ImagePath))
	require.NoError(t, err)
	defer fh.Close()
	cfg, _, err := image.DecodeConfig(fh)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCreateDonationIsApprovedAndFree(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "o@x.io", 0)

	in := baseInput()
	in.Category = "Outerwear"
	in.Condition = "Like New"
	in.ListingType = models.ListingDonation
	view, err := f.svc.Catalog.CreateItem(context.Background(), actorOf(owner), in)
	require.NoError(t, err)
	assert.Equal(t, models.ItemApproved, view.Status)
	assert.Equal(t, 0, view.Points)
}

func TestCreateItemCreatesCategoryLazily(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "o@x.io", 0)
	ctx := context.Background()

	before, err := f.svc.Catalog.Categories(ctx)
	require.NoError(t, err)

	in := baseInput()
	in.Category = "Scarves"
	view, err := f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	require.NoError(t, err)
	assert.Equal(t, 15, view.Points)

	after, err := f.svc.Catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	_, err = f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	require.NoError(t, err)
	var count int64
	f.db.Model(&models.Category{}).Where("name = ?", "Scarves").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateItemValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "o@x.io", 0)
	ctx := context.Background()

	in := baseInput()
	in.Title = " "
	_, err := f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in = baseInput()
	in.Condition = "Mint"
	_, err = f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in = baseInput()
	in.ListingType = "auction"
	_, err = f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in = baseInput()
	for i := 0; i < MaxItemImages+1; i++ {
		in.Images = append(in.Images, memUpload("a.png", pngBytes(t, 4, 4)))
	}
	_, err = f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in = baseInput()
	in.Images = []Upload{memUpload("a.png", pngBytes(t, 4, 4)), memUpload("evil.exe", []byte("MZ"))}
	_, err = f.svc.Catalog.CreateItem(ctx, actorOf(owner), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assertNoUploads(t, f)
}

func TestCreateItemRemovesFilesWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "o@x.io", 0)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "items" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	in := baseInput()
	in.Images = []Upload{memUpload("a.png", pngBytes(t, 4, 4))}
	bill := memUpload("bill.png", pngBytes(t, 4, 4))
	in.Bill = &bill

	_, err := f.svc.Catalog.CreateItem(context.Background(), actorOf(owner), in)
	require.Error(t, err)
	assertNoUploads(t, f)

	var count int64
	f.db.Model(&models.Item{}).Count(&count)
	assert.Zero(t, count)
}

func assertNoUploads(t *testing.T, f *fixture) {
	t.Helper()
	for _, sub := range []string{"items", "bills"} {
		entries, err := os.ReadDir(filepath.Join(f.cfg.UploadDir, sub))
		require.NoError(t, err)
		assert.Empty(t, entries, sub)
	}
}

func TestListItemsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "o@x.io", 0)
	admin := f.admin(t)

	dress := f.item(t, owner.ID, "Dresses", "Good", models.ListingSwap, models.ItemApproved)
	f.item(t, owner.ID, "Tops", "Fair", models.ListingSwap, models.ItemApproved)
	f.item(t, owner.ID, "Tops", "Good", models.ListingDonation, models.ItemApproved)
	f.item(t, owner.ID, "Shoes", "Good", models.ListingSwap, models.ItemPending)
	require.NoError(t, f.db.Model(dress).Update("title", "Red Evening Gown").Error)

	page, err := f.svc.Catalog.ListItems(ctx, nil, ItemFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Pagination.Total)

	page, err = f.svc.Catalog.ListItems(ctx, nil, ItemFilter{Category: "Tops"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = f.svc.Catalog.ListItems(ctx, nil, ItemFilter{Category: "Nope"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = f.svc.Catalog.ListItems(ctx, nil, ItemFilter{Search: "evening"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, dress.ID, page.Items[0].ID)

	page, err = f.svc.Catalog.ListItems(ctx, nil, ItemFilter{Condition: "Good", ListingType: models.ListingSwap})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = f.svc.Catalog.ListItems(ctx, nil, ItemFilter{PerPage: 2, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Pagination.Pages)

	_, err = f.svc.Catalog.ListItems(ctx, &Actor{ID: owner.ID}, ItemFilter{Status: models.ItemPending})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	page, err = f.svc.Catalog.ListItems(ctx, &Actor{ID: admin.ID, Admin: true}, ItemFilter{Status: models.ItemPending})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestGetItemCountsViewsAndHidesUnapproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "o@x.io", 0)
	other := f.user(t, "p@x.io", 0)

	approved := f.item(t, owner.ID, "Dresses", "Good", models.ListingSwap, models.ItemApproved)
	pending := f.item(t, owner.ID, "Tops", "Good", models.ListingSwap, models.ItemPending)

	view, err := f.svc.Catalog.GetItem(ctx, nil, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Views)
	assert.Contains(t, view.DescriptionHTML, "<p>a nice piece</p>")
	assert.Equal(t, owner.ID, view.Owner.ID)

	_, err = f.svc.Catalog.GetItem(ctx, nil, approved.ID)
	require.NoError(t, err)
	var stored models.Item
	require.NoError(t, f.db.First(&stored, approved.ID).Error)
	assert.Equal(t, 2, stored.Views)
	assert.Greater(t, stored.Score, 0.0)

	_, err = f.svc.Catalog.GetItem(ctx, &Actor{ID: other.ID}, pending.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Catalog.GetItem(ctx, &Actor{ID: owner.ID}, pending.ID)
	assert.NoError(t, err)

	_, err = f.svc.Catalog.GetItem(ctx, nil, 4242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserItemsIncludesEveryStatus(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "o@x.io", 0)
	f.item(t, owner.ID, "Dresses", "Good", models.ListingSwap, models.ItemApproved)
	f.item(t, owner.ID, "Tops", "Good", models.ListingSwap, models.ItemRejected)

	items, err := f.svc.Catalog.UserItems(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestToggleLikeCountsOncePerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "o@x.io", 0)
	a := f.user(t, "a@x.io", 0)
	b := f.user(t, "b@x.io", 0)
	it := f.item(t, owner.ID, "Dresses", "Good", models.ListingSwap, models.ItemApproved)

	res, err := f.svc.Catalog.ToggleLike(ctx, actorOf(a), it.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Likes: 1}, *res)

	res, err = f.svc.Catalog.ToggleLike(ctx, actorOf(b), it.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Likes)

	var stored models.Item
	require.NoError(t, f.db.First(&stored, it.ID).Error)
	assert.Equal(t, 2, stored.Likes)
	assert.Greater(t, stored.Score, 0.0)

	res, err = f.svc.Catalog.ToggleLike(ctx, actorOf(a), it.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Likes: 1}, *res)

	var rows int64
	f.db.Model(&models.ItemLike{}).Where("item_id = ?", it.ID).Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestToggleLikeGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "o@x.io", 0)
	a := f.user(t, "a@x.io", 0)
	approved := f.item(t, owner.ID, "Dresses", "Good", models.ListingSwap, models.ItemApproved)
	pending := f.item(t, owner.ID, "Tops", "Good", models.ListingSwap, models.ItemPending)

	_, err := f.svc.Catalog.ToggleLike(ctx, actorOf(owner), approved.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Catalog.ToggleLike(ctx, actorOf(a), pending.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Catalog.ToggleLike(ctx, actorOf(a), 4242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
