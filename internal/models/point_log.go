package models

import (
	"time"
)

// PointLog records every change to a user's balance.
type PointLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Amount    int       `gorm:"not null" json:"amount"` // positive credit, negative debit
	Action    string    `gorm:"size:100;not null" json:"action"`
	ItemID    *uint     `gorm:"index" json:"item_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
