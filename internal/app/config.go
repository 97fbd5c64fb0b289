package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/contracts-backend/internal/clients/redis"
	"github.com/yungbote/contracts-backend/internal/data/db"
	"github.com/yungbote/contracts-backend/internal/observability"
	"github.com/yungbote/contracts-backend/internal/pkg/envutil"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

const configYAMLEnv = "APP_CONFIG_YAML"

type Config struct {
	LogMode string    `yaml:"log_mode"`
	DB      db.Config `yaml:"db"`

	Redis           redis.Config  `yaml:"redis"`
	ProductCacheTTL time.Duration `yaml:"product_cache_ttl"`

	MetricsEnabled  bool                     `yaml:"metrics_enabled"`
	MetricsInterval time.Duration            `yaml:"metrics_interval"`
	Otel            observability.OtelConfig `yaml:"otel"`
}

// LoadConfig reads the environment, then overlays the YAML file named by
// APP_CONFIG_YAML when set. Keys present in the file win.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development", log),
		DB: db.Config{
			Driver: envutil.String("DB_DRIVER", db.DriverPostgres, log),
			Postgres: db.PostgresConfig{
				Host:     envutil.String("POSTGRES_HOST", "localhost", log),
				Port:     envutil.String("POSTGRES_PORT", "5432", log),
				User:     envutil.String("POSTGRES_USER", "postgres", log),
				Password: envutil.String("POSTGRES_PASSWORD", "", log),
				Name:     envutil.String("POSTGRES_NAME", "contracts", log),
				SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			},
			SQLitePath: envutil.String("SQLITE_PATH", "", log),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
		},
		ProductCacheTTL: envutil.Seconds("PRODUCT_CACHE_TTL_SECONDS", 10*time.Minute, log),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", false, log),
		MetricsInterval: envutil.Seconds("METRICS_INTERVAL_SECONDS", 15*time.Second, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "contracts-backend", log),
			Environment: envutil.String("APP_ENV", "", log),
			Version:     envutil.String("APP_VERSION", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		},
	}
	cfg.Otel.SampleRatio = float64(envutil.Int("OTEL_SAMPLE_PERCENT", 10, log)) / 100

	path := envutil.String(configYAMLEnv, "", log)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", configYAMLEnv, err)
	}
	if err := applyYAML(&cfg, raw); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if log != nil {
		log.Info("Applied config overlay", "path", path)
	}
	return cfg, nil
}

// applyYAML decodes onto cfg so absent keys keep their env values.
func applyYAML(cfg *Config, raw []byte) error {
	if strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}
