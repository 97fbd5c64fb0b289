package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/contracts-backend/internal/clients/redis"
	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/observability"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/contracts-backend/internal/pkg/errors"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type ProductService interface {
	// Save registers a product. Saving a SKU that is already registered returns
	// the stored product when it matches and ErrInvalidArgument otherwise.
	Save(ctx context.Context, p catalog.Product) (catalog.Product, error)
	FindBySKU(ctx context.Context, sku string) (catalog.Product, error)
	FindByName(ctx context.Context, name string) ([]catalog.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error)
}

type productService struct {
	db      *gorm.DB
	log     *logger.Logger
	repo    salesrepo.ProductRepo
	cache   redis.ProductCache
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewProductService builds the catalog service. cache and metrics may be nil.
func NewProductService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo salesrepo.ProductRepo,
	cache redis.ProductCache,
	metrics *observability.Metrics,
) ProductService {
	return &productService{
		db:      db,
		log:     baseLog.With("service", "ProductService"),
		repo:    repo,
		cache:   cache,
		metrics: metrics,
	}
}

func (s *productService) Save(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if s == nil || s.repo == nil {
		return catalog.Product{}, fmt.Errorf("product service not configured")
	}
	if p.ID == uuid.Nil {
		return catalog.Product{}, fmt.Errorf("%w: missing product id", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(p.SKU) == "" {
		return catalog.Product{}, fmt.Errorf("%w: missing sku", apperrors.ErrInvalidArgument)
	}

	var saved catalog.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.repo.GetBySKU(dbc, p.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			stored, err := salesrepo.ProductFromRow(existing)
			if err != nil {
				return err
			}
			// stored products are immutable, including under their own id
			if !sameProduct(stored, p) {
				return fmt.Errorf("%w: sku %s already registered to product %s", apperrors.ErrInvalidArgument, p.SKU, stored.ID)
			}
			saved = stored
			return nil
		}
		if err := s.repo.Upsert(dbc, []*sales.Product{salesrepo.ProductRow(p, time.Now().UTC())}); err != nil {
			return err
		}
		// the upsert keeps an existing row with this id, whatever its sku
		rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{p.ID})
		if err != nil {
			return err
		}
		if len(rows) == 1 && rows[0].SKU != p.SKU {
			return fmt.Errorf("%w: product %s already registered with sku %s", apperrors.ErrInvalidArgument, p.ID, rows[0].SKU)
		}
		saved = p
		return nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	s.remember(ctx, saved)
	return saved, nil
}

func (s *productService) FindBySKU(ctx context.Context, sku string) (catalog.Product, error) {
	if s == nil || s.repo == nil {
		return catalog.Product{}, fmt.Errorf("product service not configured")
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return catalog.Product{}, fmt.Errorf("%w: missing sku", apperrors.ErrInvalidArgument)
	}
	if p, ok := s.cached(ctx, func(c redis.ProductCache) (catalog.Product, bool, error) {
		return c.GetBySKU(ctx, sku)
	}); ok {
		return p, nil
	}

	v, err, _ := s.group.Do("sku:"+sku, func() (any, error) {
		row, err := s.repo.GetBySKU(dbctx.Context{Ctx: ctx}, sku)
		if err != nil {
			return catalog.Product{}, err
		}
		if row == nil {
			return catalog.Product{}, fmt.Errorf("%w: product with sku %s", apperrors.ErrNotFound, sku)
		}
		p, err := salesrepo.ProductFromRow(row)
		if err != nil {
			return catalog.Product{}, err
		}
		s.remember(ctx, p)
		return p, nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return v.(catalog.Product), nil
}

func (s *productService) FindByName(ctx context.Context, name string) ([]catalog.Product, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("product service not configured")
	}
	rows, err := s.repo.GetByName(dbctx.Context{Ctx: ctx}, name)
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows)
}

// FindByIDs returns products in the order of ids, skipping unknown ids.
func (s *productService) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("product service not configured")
	}
	found := make(map[uuid.UUID]catalog.Product, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		if _, seen := found[id]; seen {
			continue
		}
		id := id
		if p, ok := s.cached(ctx, func(c redis.ProductCache) (catalog.Product, bool, error) {
			return c.GetByID(ctx, id)
		}); ok {
			found[id] = p
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		rows, err := s.repo.GetByIDs(dbctx.Context{Ctx: ctx}, missing)
		if err != nil {
			return nil, err
		}
		loaded, err := productsFromRows(rows)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			found[p.ID] = p
			s.remember(ctx, p)
		}
	}

	out := make([]catalog.Product, 0, len(found))
	emitted := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			continue
		}
		if _, dup := emitted[id]; dup {
			continue
		}
		emitted[id] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// cached consults the cache; errors count as a miss.
func (s *productService) cached(ctx context.Context, get func(redis.ProductCache) (catalog.Product, bool, error)) (catalog.Product, bool) {
	if s.cache == nil {
		return catalog.Product{}, false
	}
	p, ok, err := get(s.cache)
	switch {
	case err != nil:
		s.metrics.IncProductCache("error")
		s.log.Warn("product cache read failed", "error", err)
		return catalog.Product{}, false
	case ok:
		s.metrics.IncProductCache("hit")
		return p, true
	default:
		s.metrics.IncProductCache("miss")
		return catalog.Product{}, false
	}
}

func (s *productService) remember(ctx context.Context, p catalog.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		s.log.Warn("product cache write failed", "product_id", p.ID, "error", err)
	}
}

func sameProduct(a, b catalog.Product) bool {
	return a.SKU == b.SKU && a.Name == b.Name && a.Price.Equal(b.Price)
}

func productsFromRows(rows []*sales.Product) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		p, err := salesrepo.ProductFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
