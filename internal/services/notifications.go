package services

import (
	"context"
	"rewear/internal/apperr"
	"rewear/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewNotificationService(db *gorm.DB, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{db: db, log: log}
}

// notify queues a notification inside the caller's transaction so it is only
// visible if the business change commits.
func notify(tx *gorm.DB, userID uint, actorID *uint, itemID uint, typ models.NotificationType, message string) error {
	n := models.Notification{
		UserID:  userID,
		ActorID: actorID,
		ItemID:  uintPtr(itemID),
		Type:    typ,
		Message: message,
	}
	return tx.Create(&n).Error
}

// List returns the newest notifications of a user.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var notifications []models.Notification
	err := q.Order("created_at DESC, id DESC").Limit(50).Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification of the user as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Notification not found")
	}
	return nil
}

// MarkAllRead returns the number of notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
