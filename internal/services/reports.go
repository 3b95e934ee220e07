package services

import (
	"context"
	"errors"
	"rewear/internal/apperr"
	"rewear/internal/models"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ReportService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewReportService(db *gorm.DB, log logrus.FieldLogger) *ReportService {
	return &ReportService{db: db, log: log}
}

// Create files a report against an item. Owners cannot report their own
// listings.
func (s *ReportService) Create(ctx context.Context, actor Actor, itemID uint, reason, description string) (*models.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("Reason is required")
	}
	if len(reason) > 100 {
		return nil, apperr.Validation("Reason is too long")
	}

	var item models.Item
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Item not found")
		}
		return nil, err
	}
	if item.UserID == actor.ID {
		return nil, apperr.Validation("Cannot report your own item")
	}

	report := models.Report{
		ItemID:      itemID,
		ReporterID:  actor.ID,
		Reason:      reason,
		Description: strings.TrimSpace(description),
		Status:      models.ReportPending,
	}
	if err := s.db.WithContext(ctx).Omit("Item", "Reporter").Create(&report).Error; err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"report_id": report.ID, "item_id": itemID}).Info("Item reported")
	return &report, nil
}

// List returns reports for moderators, newest first.
func (s *ReportService) List(ctx context.Context, actor Actor, status string) ([]models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reports []models.Report
	err := q.Limit(200).Find(&reports).Error
	return reports, err
}

// Resolve closes a pending report as resolved or dismissed.
func (s *ReportService) Resolve(ctx context.Context, actor Actor, id uint, status string) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if status != models.ReportResolved && status != models.ReportDismissed {
		return nil, apperr.Validation("Invalid report status")
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportPending).
		Updates(map[string]interface{}{
			"status":         status,
			"resolved_by_id": actor.ID,
			"resolved_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Report not found")
		}
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("Report already processed")
	}
	return &report, nil
}
