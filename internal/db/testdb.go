package db

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB creates a fresh migrated SQLite database under t.TempDir.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}
