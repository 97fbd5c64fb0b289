package testutil

import (
	"os"
	"sync"
	"testing"

	"github.com/yungbote/contracts-backend/internal/data/db"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database. With TEST_POSTGRES_DSN set every caller
// shares one Postgres connection pool; otherwise each caller gets a private
// in-memory SQLite database that is closed when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return postgresDB(tb, dsn)
	}

	svc, err := db.NewSQLiteService("", Logger(tb))
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	silence(svc.DB())
	if err := migrateAll(svc.DB()); err != nil {
		tb.Fatalf("failed to migrate sqlite: %v", err)
	}
	return svc.DB()
}

func postgresDB(tb testing.TB, dsn string) *gorm.DB {
	tb.Helper()
	pgOnce.Do(func() {
		var err error
		pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			pgErr = err
			return
		}
		pgErr = migrateAll(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

// Tx begins a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func silence(g *gorm.DB) {
	g.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
}

func migrateAll(g *gorm.DB) error {
	if err := db.AutoMigrateAll(g); err != nil {
		return err
	}
	return db.EnsureSalesIndexes(g)
}
