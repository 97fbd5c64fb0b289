package sales

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type ProductRepo interface {
	// Upsert inserts products not yet stored. Stored products are immutable and
	// left as they are.
	Upsert(dbc dbctx.Context, rows []*sales.Product) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*sales.Product, error)
	GetBySKU(dbc dbctx.Context, sku string) (*sales.Product, error)
	GetByName(dbc dbctx.Context, name string) ([]*sales.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, log *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: log.With("repo", "ProductRepo")}
}

func (r *productRepo) Upsert(dbc dbctx.Context, rows []*sales.Product) error {
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*sales.Product, error) {
	if len(ids) == 0 {
		return []*sales.Product{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.Product
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Product{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetBySKU returns nil without error when no product has that SKU.
func (r *productRepo) GetBySKU(dbc dbctx.Context, sku string) (*sales.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, fmt.Errorf("missing sku")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.Product
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Product{}).
		Where("sku = ?", sku).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetByName matches names case-insensitively.
func (r *productRepo) GetByName(dbc dbctx.Context, name string) ([]*sales.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing name")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.Product
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Product{}).
		Where("lower(name) = ?", strings.ToLower(name)).
		Order("sku ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
