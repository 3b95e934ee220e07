package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"rewear/internal/apperr"
	"rewear/internal/metrics"
	"rewear/internal/models"
	"rewear/internal/utils"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	MaxItemImages  = 5
	MaxItemTags    = 10
	DefaultPerPage = 20
	MaxPerPage     = 100

	categoriesCacheKey = "categories"
	categoriesTTL      = 10 * time.Minute
	descriptionTTL     = time.Hour
)

// Upload is a file handed to the catalog by the transport layer.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	Type        string
	Size        string
	Condition   string
	ListingType string
	Tags        []string
	Images      []Upload
	Bill        *Upload
}

type ItemFilter struct {
	Page        int
	PerPage     int
	Category    string
	Condition   string
	Size        string
	Search      string
	Status      string
	ListingType string
	Sort        string // newest, popular, points_asc, points_desc
}

// ItemView is the JSON shape of a listing.
type ItemView struct {
	models.Item
	CategoryName    string            `json:"category"`
	Owner           models.PublicUser `json:"owner"`
	Images          []string          `json:"images"`
	PrimaryImage    string            `json:"primary_image"`
	Tags            []string          `json:"tags"`
	DescriptionHTML string            `json:"description_html,omitempty"`
}

type ItemPage struct {
	Items      []ItemView `json:"items"`
	Pagination Page       `json:"pagination"`
}

type CatalogService struct {
	db       *gorm.DB
	log      logrus.FieldLogger
	storage  *Storage
	metrics  *metrics.Metrics
	cats     *utils.TTLCache[string, []models.Category]
	rendered *utils.TTLCache[string, string]
}

func NewCatalogService(db *gorm.DB, log logrus.FieldLogger, storage *Storage, m *metrics.Metrics) *CatalogService {
	cats, _ := utils.NewTTLCache[string, []models.Category](4)
	rendered, _ := utils.NewTTLCache[string, string](500)
	return &CatalogService{db: db, log: log, storage: storage, metrics: m, cats: cats, rendered: rendered}
}

// Categories returns every category, cached.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	if cats, ok := s.cats.Get(categoriesCacheKey); ok {
		return cats, nil
	}
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	s.cats.Set(categoriesCacheKey, cats, categoriesTTL)
	return cats, nil
}

// resolveCategory finds a category by name, creating it on first use.
func resolveCategory(tx *gorm.DB, name string) (*models.Category, bool, error) {
	var cat models.Category
	if err := tx.Where("name = ?", name).First(&cat).Error; err == nil {
		return &cat, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	cat = models.Category{Name: name}
	if err := tx.Create(&cat).Error; err != nil {
		return nil, false, err
	}
	return &cat, true, nil
}

func normalizeTags(raw []string) []string {
	var tags []string
	for _, t := range raw {
		for _, part := range strings.Split(t, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if len(part) > 50 {
				part = part[:50]
			}
			tags = append(tags, part)
		}
	}
	if len(tags) > MaxItemTags {
		tags = tags[:MaxItemTags]
	}
	return tags
}

func (in *CreateItemInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Type = strings.TrimSpace(in.Type)
	in.Size = strings.TrimSpace(in.Size)
	in.Condition = strings.TrimSpace(in.Condition)
	if in.ListingType == "" {
		in.ListingType = models.ListingSwap
	}

	switch {
	case in.Title == "", in.Description == "", in.Category == "", in.Type == "", in.Size == "", in.Condition == "":
		return apperr.Validation("Title, description, category, type, size and condition are required")
	case len(in.Title) > 200:
		return apperr.Validation("Title is too long")
	case !ValidCondition(in.Condition):
		return apperr.Validation("Condition must be one of: " + strings.Join(Conditions, ", "))
	case in.ListingType != models.ListingSwap && in.ListingType != models.ListingDonation:
		return apperr.Validation("Listing type must be swap or donation")
	case len(in.Images) > MaxItemImages:
		return apperr.Validation(fmt.Sprintf("At most %d images are allowed", MaxItemImages))
	}
	return nil
}

func (s *CatalogService) store(u Upload, kind UploadKind) (string, error) {
	label := "image"
	if kind == KindBill {
		label = "bill"
	}
	rc, err := u.Open()
	if err != nil {
		s.metrics.RecordUpload(label, err)
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer rc.Close()
	rel, err := s.storage.Save(rc, u.Filename, kind)
	s.metrics.RecordUpload(label, err)
	return rel, err
}

// CreateItem stores the uploads and then the listing. Files written before a
// failed database write are removed again.
func (s *CatalogService) CreateItem(ctx context.Context, actor Actor, in CreateItemInput) (*ItemView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var saved []string
	cleanup := func() { s.storage.Remove(saved...) }

	for _, img := range in.Images {
		rel, err := s.store(img, KindItemImage)
		if err != nil {
			cleanup()
			return nil, err
		}
		saved = append(saved, rel)
	}
	imagePaths := append([]string(nil), saved...)

	var billPath string
	if in.Bill != nil {
		rel, err := s.store(*in.Bill, KindBill)
		if err != nil {
			cleanup()
			return nil, err
		}
		saved = append(saved, rel)
		billPath = rel
	}

	item := models.Item{
		UserID:      actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Size:        in.Size,
		Condition:   in.Condition,
		ListingType: in.ListingType,
		BillPath:    billPath,
		Points:      CalculateItemPoints(in.Category, in.Condition, in.ListingType),
		Status:      models.ItemPending,
	}
	// Donations skip moderation.
	if item.IsDonation() {
		item.Status = models.ItemApproved
	}

	var createdCategory bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat, created, err := resolveCategory(tx, in.Category)
		if err != nil {
			return err
		}
		createdCategory = created
		item.CategoryID = cat.ID
		item.Category = *cat

		if err := tx.Omit("Category", "User").Create(&item).Error; err != nil {
			return err
		}
		for i, p := range imagePaths {
			img := models.ItemImage{ItemID: item.ID, ImagePath: p, IsPrimary: i == 0}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
			item.Images = append(item.Images, img)
		}
		for _, t := range normalizeTags(in.Tags) {
			tag := models.ItemTag{ItemID: item.ID, Tag: t}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
			item.Tags = append(item.Tags, tag)
		}
		return tx.First(&item.User, actor.ID).Error
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	if createdCategory {
		s.cats.Delete(categoriesCacheKey)
	}

	s.log.WithFields(logrus.Fields{
		"item_id":      item.ID,
		"user_id":      actor.ID,
		"listing_type": item.ListingType,
		"points":       item.Points,
	}).Info("Item created")

	view := toItemView(&item)
	return &view, nil
}

func (s *CatalogService) withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("User").Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("is_primary DESC, id ASC") }).
		Preload("Tags")
}

// ListItems returns one page of listings. Only admins may list statuses other
// than approved.
func (s *CatalogService) ListItems(ctx context.Context, actor *Actor, f ItemFilter) (*ItemPage, error) {
	f.Page, f.PerPage = utils.ClampPage(f.Page, f.PerPage, DefaultPerPage, MaxPerPage)
	if f.Status == "" {
		f.Status = models.ItemApproved
	}
	if f.Status != models.ItemApproved && (actor == nil || !actor.Admin) {
		return nil, apperr.Forbidden("Only admins can list non-approved items")
	}

	q := s.db.WithContext(ctx).Model(&models.Item{}).Where("items.status = ?", f.Status)
	if f.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = items.category_id").
			Where("categories.name = ?", f.Category)
	}
	if f.Condition != "" {
		q = q.Where("items.condition = ?", f.Condition)
	}
	if f.Size != "" {
		q = q.Where("items.size = ?", f.Size)
	}
	if f.ListingType != "" {
		q = q.Where("items.listing_type = ?", f.ListingType)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("(LOWER(items.title) LIKE ? OR LOWER(items.description) LIKE ?)", like, like)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	switch f.Sort {
	case "popular":
		q = q.Order("items.score DESC")
	case "points_asc":
		q = q.Order("items.points ASC")
	case "points_desc":
		q = q.Order("items.points DESC")
	}
	q = q.Order("items.created_at DESC").Order("items.id DESC")

	var items []models.Item
	if err := s.withRelations(q).Offset((f.Page - 1) * f.PerPage).Limit(f.PerPage).Find(&items).Error; err != nil {
		return nil, err
	}

	page := &ItemPage{Items: make([]ItemView, 0, len(items)), Pagination: newPage(f.Page, f.PerPage, total)}
	for i := range items {
		page.Items = append(page.Items, toItemView(&items[i]))
	}
	return page, nil
}

// GetItem returns a listing with rendered description and counts the view.
// Non-approved listings are only visible to their owner and admins.
func (s *CatalogService) GetItem(ctx context.Context, actor *Actor, id uint) (*ItemView, error) {
	var item models.Item
	if err := s.withRelations(s.db.WithContext(ctx)).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Item not found")
		}
		return nil, err
	}
	if item.Status != models.ItemApproved && (actor == nil || (actor.ID != item.UserID && !actor.Admin)) {
		return nil, apperr.NotFound("Item not found")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Item{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
			return err
		}
		return refreshScore(tx, id)
	})
	if err != nil {
		return nil, err
	}
	item.Views++

	view := toItemView(&item)
	view.DescriptionHTML = s.renderDescription(&item)
	return &view, nil
}

func (s *CatalogService) renderDescription(item *models.Item) string {
	key := fmt.Sprintf("%d:%d", item.ID, item.UpdatedAt.UnixNano())
	if html, ok := s.rendered.Get(key); ok {
		return html
	}
	html := utils.RenderMarkdown(item.Description)
	s.rendered.Set(key, html, descriptionTTL)
	return html
}

// UserItems returns every listing of a user regardless of status.
func (s *CatalogService) UserItems(ctx context.Context, userID uint) ([]ItemView, error) {
	var items []models.Item
	err := s.withRelations(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, toItemView(&items[i]))
	}
	return views, nil
}

// LikeResult is the state of a listing's like after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ToggleLike likes an approved listing, or removes the like if the caller
// already gave one. The counter on the item follows the like rows.
func (s *CatalogService) ToggleLike(ctx context.Context, actor Actor, itemID uint) (*LikeResult, error) {
	var res LikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.Select("id", "user_id", "status").First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Item not found")
			}
			return err
		}
		if item.Status != models.ItemApproved {
			return apperr.NotFound("Item not found")
		}
		if item.UserID == actor.ID {
			return apperr.Validation("Cannot like your own item")
		}

		del := tx.Where("user_id = ? AND item_id = ?", actor.ID, itemID).Delete(&models.ItemLike{})
		if del.Error != nil {
			return del.Error
		}
		delta := -1
		if del.RowsAffected == 0 {
			if err := tx.Create(&models.ItemLike{UserID: actor.ID, ItemID: itemID}).Error; err != nil {
				if apperr.IsDuplicate(err) {
					return apperr.Conflict("Like already recorded")
				}
				return err
			}
			delta = 1
			res.Liked = true
		}

		if err := tx.Model(&models.Item{}).Where("id = ?", itemID).
			UpdateColumn("likes", gorm.Expr("likes + ?", delta)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Item{}).Select("likes").Where("id = ?", itemID).Scan(&res.Likes).Error; err != nil {
			return err
		}
		return refreshScore(tx, itemID)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// refreshScore recomputes the popularity score from the stored counters.
func refreshScore(tx *gorm.DB, itemID uint) error {
	var item models.Item
	if err := tx.Select("id", "views", "likes", "requests", "created_at").First(&item, itemID).Error; err != nil {
		return err
	}
	score := utils.PopularityScore(item.CreatedAt, item.Views, item.Likes, item.Requests)
	return tx.Model(&models.Item{}).Where("id = ?", itemID).UpdateColumn("score", score).Error
}

func imageURL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/uploads/" + rel
}

func toItemView(item *models.Item) ItemView {
	v := ItemView{
		Item:         *item,
		CategoryName: item.Category.Name,
		Owner:        item.User.Public(),
		Images:       make([]string, 0, len(item.Images)),
		Tags:         make([]string, 0, len(item.Tags)),
		PrimaryImage: imageURL(item.PrimaryImage()),
	}
	for _, img := range item.Images {
		v.Images = append(v.Images, imageURL(img.ImagePath))
	}
	for _, t := range item.Tags {
		v.Tags = append(v.Tags, t.Tag)
	}
	return v
}
