package testutil

import (
	"os"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/studyarc/resourcebank-backend/internal/data/db"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// DB opens a fresh migrated database for one test. TEST_POSTGRES_DSN selects
// a real Postgres; otherwise an in-memory sqlite database is used so the
// suite runs anywhere.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)}

	var (
		gdb *gorm.DB
		err error
	)
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		gdb, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		gdb, err = gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), cfg)
	}
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

// Tx begins a transaction that is rolled back when the test finishes, keeping
// runs against a shared Postgres isolated.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.NewNop()
}
