package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

// SQLiteService backs local runs and tests. An empty path or ":memory:" opens
// a private in-memory database held on a single connection.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(path string, logg *logger.Logger) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")

	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: alive.
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Info("Opened SQLite", "path", path)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

// SQLiteDSN builds a DSN with foreign keys enforced.
func SQLiteDSN(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteService) AutoMigrateAll() error {
	return migrate(s.db, s.log)
}
