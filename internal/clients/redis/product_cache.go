package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

const defaultProductTTL = 10 * time.Minute

// ProductCache is a read-through cache for catalog products. Products are
// immutable once saved, so entries are never invalidated, only expired.
type ProductCache interface {
	GetByID(ctx context.Context, id uuid.UUID) (catalog.Product, bool, error)
	GetBySKU(ctx context.Context, sku string) (catalog.Product, bool, error)
	Set(ctx context.Context, p catalog.Product) error
}

type productCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

type cachedProduct struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

func NewProductCache(log *logger.Logger, rdb *goredis.Client, prefix string, ttl time.Duration) (ProductCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "product"
	}
	if ttl <= 0 {
		ttl = defaultProductTTL
	}
	return &productCache{
		log:    log.With("service", "RedisProductCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (c *productCache) idKey(id uuid.UUID) string { return c.prefix + ":id:" + id.String() }
func (c *productCache) skuKey(sku string) string {
	return c.prefix + ":sku:" + strings.TrimSpace(sku)
}

func (c *productCache) GetByID(ctx context.Context, id uuid.UUID) (catalog.Product, bool, error) {
	return c.get(ctx, c.idKey(id))
}

func (c *productCache) GetBySKU(ctx context.Context, sku string) (catalog.Product, bool, error) {
	return c.get(ctx, c.skuKey(sku))
}

func (c *productCache) get(ctx context.Context, key string) (catalog.Product, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, err
	}
	p, err := decodeProduct(raw)
	if err != nil {
		// unreadable entries are dropped and treated as a miss
		c.log.Warn("bad cached product", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return catalog.Product{}, false, nil
	}
	return p, true, nil
}

func (c *productCache) Set(ctx context.Context, p catalog.Product) error {
	raw, err := encodeProduct(p)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, c.idKey(p.ID), raw, c.ttl)
	pipe.Set(ctx, c.skuKey(p.SKU), raw, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func encodeProduct(p catalog.Product) ([]byte, error) {
	if p.ID == uuid.Nil {
		return nil, fmt.Errorf("cannot cache product without id")
	}
	return json.Marshal(cachedProduct{
		ID:       p.ID.String(),
		SKU:      p.SKU,
		Name:     p.Name,
		Currency: p.Price.Currency(),
		Amount:   p.Price.Amount().String(),
	})
}

func decodeProduct(raw []byte) (catalog.Product, error) {
	var cp cachedProduct
	if err := json.Unmarshal(raw, &cp); err != nil {
		return catalog.Product{}, err
	}
	id, err := uuid.Parse(cp.ID)
	if err != nil {
		return catalog.Product{}, err
	}
	amount, err := decimal.NewFromString(cp.Amount)
	if err != nil {
		return catalog.Product{}, err
	}
	price, err := money.New(cp.Currency, amount)
	if err != nil {
		return catalog.Product{}, err
	}
	return catalog.Product{ID: id, SKU: cp.SKU, Name: cp.Name, Price: price}, nil
}
