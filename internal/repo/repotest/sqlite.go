// Package repotest opens throwaway sqlite stores for repository tests.
package repotest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/venuepos/pkg/db/models"
)

// Open returns an isolated in-memory sqlite database with the record store
// schema migrated. The connection pool is pinned to one connection so the
// shared-cache database is never locked against itself.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:venuepos_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&models.Product{}, &models.Member{}, &models.Sale{}, &models.SaleLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}
