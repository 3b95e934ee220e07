package models

import (
	"time"
)

// Item status values. pending moves to approved or rejected by an admin;
// approved moves to swapped (swap listings) or claimed (donations).
const (
	ItemPending  = "pending"
	ItemApproved = "approved"
	ItemRejected = "rejected"
	ItemSwapped  = "swapped"
	ItemClaimed  = "claimed"
)

const (
	ListingSwap     = "swap"
	ListingDonation = "donation"
)

type Item struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          uint        `gorm:"not null;index" json:"user_id"`
	User            User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CategoryID      uint        `gorm:"not null;index" json:"category_id"`
	Category        Category    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Title           string      `gorm:"size:200;not null" json:"title"`
	Description     string      `gorm:"type:text;not null" json:"description"`
	Type            string      `gorm:"size:50;not null" json:"type"`
	Size            string      `gorm:"size:20;not null;index" json:"size"`
	Condition       string      `gorm:"size:50;not null;index" json:"condition"`
	Points          int         `gorm:"not null;default:0;check:points >= 0" json:"points"`
	Status          string      `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ListingType     string      `gorm:"size:20;not null;default:'swap';index" json:"listing_type"`
	BillPath        string      `gorm:"size:255" json:"-"`
	RejectionReason string      `gorm:"type:text" json:"rejection_reason,omitempty"`
	Views           int         `gorm:"default:0;not null" json:"views"`
	Likes           int         `gorm:"default:0;not null" json:"likes"`
	Requests        int         `gorm:"default:0;not null" json:"requests"`
	Score           float64     `gorm:"default:0;index" json:"-"` // popularity, see utils.PopularityScore
	Images          []ItemImage `json:"-"`
	Tags            []ItemTag   `json:"-"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (i *Item) IsDonation() bool {
	return i.ListingType == ListingDonation
}

// PrimaryImage returns the path of the primary image, or "".
func (i *Item) PrimaryImage() string {
	for _, img := range i.Images {
		if img.IsPrimary {
			return img.ImagePath
		}
	}
	return ""
}

type ItemImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ItemID    uint      `gorm:"not null;index" json:"item_id"`
	ImagePath string    `gorm:"size:255;not null" json:"image_path"`
	IsPrimary bool      `gorm:"default:false;not null" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

type ItemTag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	ItemID uint   `gorm:"not null;index" json:"item_id"`
	Tag    string `gorm:"size:50;not null" json:"tag"`
}
