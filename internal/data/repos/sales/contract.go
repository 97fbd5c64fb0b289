package sales

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type ContractRepo interface {
	Create(dbc dbctx.Context, row *sales.Contract) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*sales.Contract, error)
	GetByName(dbc dbctx.Context, name string) (*sales.Contract, error)
	ListNames(dbc dbctx.Context, limit int) ([]string, error)
	DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type contractRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractRepo(db *gorm.DB, log *logger.Logger) ContractRepo {
	return &contractRepo{db: db, log: log.With("repo", "ContractRepo")}
}

func (r *contractRepo) Create(dbc dbctx.Context, row *sales.Contract) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("missing contract id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

// GetByID returns nil without error when the contract does not exist.
func (r *contractRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*sales.Contract, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing contract id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.Contract
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Contract{}).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetByName returns nil without error when no contract has that name.
func (r *contractRepo) GetByName(dbc dbctx.Context, name string) (*sales.Contract, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing contract name")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.Contract
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Contract{}).
		Where("name = ?", name).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *contractRepo) ListNames(dbc dbctx.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []string
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Contract{}).
		Order("name ASC").
		Limit(limit).
		Pluck("name", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contractRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, fmt.Errorf("missing contract id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&sales.Contract{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
