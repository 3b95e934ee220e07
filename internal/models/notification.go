package models

import (
	"time"
)

type NotificationType string

const (
	NotificationSwapRequested NotificationType = "swap_requested"
	NotificationSwapAccepted  NotificationType = "swap_accepted"
	NotificationSwapRejected  NotificationType = "swap_rejected"
	NotificationItemApproved  NotificationType = "item_approved"
	NotificationItemRejected  NotificationType = "item_rejected"
	NotificationItemRedeemed  NotificationType = "item_redeemed"
	NotificationItemClaimed   NotificationType = "item_claimed"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"` // receiver
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	ActorID   *uint            `gorm:"index" json:"actor_id"`
	ItemID    *uint            `gorm:"index" json:"item_id"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
