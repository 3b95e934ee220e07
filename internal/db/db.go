package db

import (
	"fmt"
	"rewear/internal/config"
	"rewear/internal/models"
	"rewear/internal/utils"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// Pure-Go SQLite driver registered as "sqlite"; gorm's sqlite dialector
	// is pointed at it so no cgo is needed.
	_ "modernc.org/sqlite"
)

// Open connects to the configured database.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch cfg.DBDriver {
	case "postgres":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			// Fallback for local dev if not set
			dsn = "host=localhost user=postgres password=postgres dbname=rewear port=5432 sslmode=disable"
		}
		return gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a SQLite file through the modernc driver. SQLite allows a
// single writer, so the pool is capped at one connection; transactions then
// serialise instead of failing with SQLITE_BUSY.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	conn, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.ItemImage{},
		&models.ItemTag{},
		&models.SwapRequest{},
		&models.Report{},
		&models.PointLog{},
		&models.Notification{},
		&models.ItemLike{},
	)
}

// Seed inserts the default categories and the admin account when missing.
func Seed(conn *gorm.DB, cfg *config.Config, log logrus.FieldLogger) error {
	for _, name := range models.DefaultCategories {
		cat := models.Category{Name: name}
		if err := conn.Where(models.Category{Name: name}).FirstOrCreate(&cat).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	var count int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug("Admin already seeded, skipping")
		return nil
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		Email:    email,
		Name:     "Admin",
		Password: hash,
		Role:     models.RoleAdmin,
		Points:   1000,
		IsActive: true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.WithField("email", email).Info("Admin account created")
	return nil
}
