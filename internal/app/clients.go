package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/contracts-backend/internal/clients/redis"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type Clients struct {
	Redis        *goredis.Client
	ProductCache redis.ProductCache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Info("REDIS_ADDR not set; product cache disabled")
		return Clients{}, nil
	}
	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	cache, err := redis.NewProductCache(log, rdb, "product", cfg.ProductCacheTTL)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init product cache: %w", err)
	}
	return Clients{Redis: rdb, ProductCache: cache}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
