package services

import (
	"context"
	"errors"
	"fmt"
	"rewear/internal/apperr"
	"rewear/internal/models"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DefaultRejectionReason = "Item does not meet our guidelines."

type AdminStats struct {
	PendingItems   int64 `json:"pending_items"`
	ApprovedItems  int64 `json:"approved_items"`
	SwappedItems   int64 `json:"swapped_items"`
	ClaimedItems   int64 `json:"claimed_items"`
	TotalUsers     int64 `json:"total_users"`
	TotalSwaps     int64 `json:"total_swaps"`
	PendingReports int64 `json:"reports"`
}

type ModerationService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewModerationService(db *gorm.DB, log logrus.FieldLogger) *ModerationService {
	return &ModerationService{db: db, log: log}
}

func requireAdmin(actor Actor) error {
	if !actor.Admin {
		return apperr.Forbidden("Admin access required")
	}
	return nil
}

// PendingItems is the moderation queue, oldest first.
func (s *ModerationService) PendingItems(ctx context.Context, actor Actor) ([]ItemView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var items []models.Item
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Category").Preload("Images").Preload("Tags").
		Where("status = ?", models.ItemPending).
		Order("created_at ASC, id ASC").
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

// moveFromPending flips a pending item to status. It fails with a conflict if
// another moderator got there first.
func moveFromPending(tx *gorm.DB, itemID uint, updates map[string]interface{}) (*models.Item, error) {
	var item models.Item
	if err := tx.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Item not found")
		}
		return nil, err
	}
	if item.Status != models.ItemPending {
		return nil, apperr.Conflict("Item is not pending")
	}

	res := tx.Model(&models.Item{}).
		Where("id = ? AND status = ?", itemID, models.ItemPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("Item is not pending")
	}
	item.Status = updates["status"].(string)
	return &item, nil
}

// Approve publishes a pending item. Swap listings earn the owner ApproveBonus.
func (s *ModerationService) Approve(ctx context.Context, actor Actor, itemID uint) (*models.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var item *models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = moveFromPending(tx, itemID, map[string]interface{}{"status": models.ItemApproved})
		if err != nil {
			return err
		}
		// Donations are approved at creation and never reach this point; the
		// listing type check still guards the bonus.
		if item.ListingType == models.ListingSwap {
			if err := AddPoints(tx, item.UserID, ApproveBonus, ActionApproveBonus, uintPtr(item.ID)); err != nil {
				return err
			}
		}
		return notify(tx, item.UserID, uintPtr(actor.ID), item.ID, models.NotificationItemApproved,
			fmt.Sprintf("Your item %q was approved", item.Title))
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"item_id": item.ID, "admin_id": actor.ID}).Info("Item approved")
	return item, nil
}

// Reject closes a pending item with a reason.
func (s *ModerationService) Reject(ctx context.Context, actor Actor, itemID uint, reason string) (*models.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}

	var item *models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = moveFromPending(tx, itemID, map[string]interface{}{
			"status":           models.ItemRejected,
			"rejection_reason": reason,
		})
		if err != nil {
			return err
		}
		item.RejectionReason = reason
		return notify(tx, item.UserID, uintPtr(actor.ID), item.ID, models.NotificationItemRejected,
			fmt.Sprintf("Your item %q was rejected: %s", item.Title, reason))
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"item_id": item.ID, "admin_id": actor.ID}).Info("Item rejected")
	return item, nil
}

// Stats aggregates the admin dashboard counters.
func (s *ModerationService) Stats(ctx context.Context, actor Actor) (*AdminStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	conn := s.db.WithContext(ctx)
	var st AdminStats

	type itemCount struct {
		Status string
		Count  int64
	}
	var counts []itemCount
	if err := conn.Model(&models.Item{}).Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		switch c.Status {
		case models.ItemPending:
			st.PendingItems = c.Count
		case models.ItemApproved:
			st.ApprovedItems = c.Count
		case models.ItemSwapped:
			st.SwappedItems = c.Count
		case models.ItemClaimed:
			st.ClaimedItems = c.Count
		}
	}

	if err := conn.Model(&models.User{}).Where("is_active = ?", true).Count(&st.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.SwapRequest{}).
		Where("status IN ?", []string{models.SwapAccepted, models.SwapCompleted}).
		Count(&st.TotalSwaps).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Report{}).Where("status = ?", models.ReportPending).Count(&st.PendingReports).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
