package services

import (
	"rewear/internal/config"
	"rewear/internal/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services bundles the domain services the HTTP layer depends on.
type Services struct {
	Users         *UserService
	Catalog       *CatalogService
	Moderation    *ModerationService
	Exchange      *ExchangeService
	Reports       *ReportService
	Notifications *NotificationService
	Storage       *Storage
	Mail          *MailService
}

func New(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics) (*Services, error) {
	storage, err := NewStorage(cfg.UploadDir, log)
	if err != nil {
		return nil, err
	}
	mail := NewMailService(cfg.SMTP, log)

	return &Services{
		Users:         NewUserService(db, log, cfg.WelcomeBonus),
		Catalog:       NewCatalogService(db, log, storage, m),
		Moderation:    NewModerationService(db, log),
		Exchange:      NewExchangeService(db, log, mail, m),
		Reports:       NewReportService(db, log),
		Notifications: NewNotificationService(db, log),
		Storage:       storage,
		Mail:          mail,
	}, nil
}
