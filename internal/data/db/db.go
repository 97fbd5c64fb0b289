// Package db opens the relational store and migrates the sales schema.
package db

import (
	"fmt"
	"strings"

	"github.com/yungbote/contracts-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Service is an opened database.
type Service interface {
	DB() *gorm.DB
	AutoMigrateAll() error
	Close() error
}

type Config struct {
	Driver     string         `yaml:"driver"`
	Postgres   PostgresConfig `yaml:"postgres"`
	SQLitePath string         `yaml:"sqlite_path"`
}

// Open selects the driver named in cfg.
func Open(cfg Config, log *logger.Logger) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		return NewPostgresService(cfg.Postgres, log)
	case DriverSQLite:
		return NewSQLiteService(cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}
