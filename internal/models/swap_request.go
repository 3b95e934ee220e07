package models

import (
	"time"
)

const (
	SwapPending   = "pending"
	SwapAccepted  = "accepted"
	SwapRejected  = "rejected"
	SwapCompleted = "completed" // ledger rows written by redemption and claim
)

// Offer types. Stored explicitly so an item-for-item offer is never confused
// with a zero-point offer.
const (
	OfferPoints   = "points"
	OfferItem     = "item"
	OfferRedeem   = "redeem"
	OfferDonation = "donation"
)

// SwapRequest is a transaction record between a requester and an item owner.
// The partial unique index keeps at most one pending request per
// (item, requester).
type SwapRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ItemID        uint      `gorm:"not null;index;uniqueIndex:idx_swap_pending,where:status = 'pending'" json:"item_id"`
	Item          Item      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	RequesterID   uint      `gorm:"not null;index;uniqueIndex:idx_swap_pending,where:status = 'pending'" json:"requester_id"`
	Requester     User      `gorm:"foreignKey:RequesterID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	OwnerID       uint      `gorm:"not null;index" json:"owner_id"`
	Owner         User      `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	OfferedItemID *uint     `gorm:"index" json:"offered_item_id"`
	OfferedItem   *Item     `gorm:"foreignKey:OfferedItemID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	OfferType     string    `gorm:"size:20;not null;default:'points'" json:"offer_type"`
	PointsOffered int       `gorm:"not null;default:0;check:points_offered >= 0" json:"points_offered"`
	Message       string    `gorm:"type:text" json:"message"`
	Status        string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Closed reports whether the exchange went through.
func (s *SwapRequest) Closed() bool {
	return s.Status == SwapAccepted || s.Status == SwapCompleted
}
