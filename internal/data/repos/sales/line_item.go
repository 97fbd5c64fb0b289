package sales

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type LineItemRepo interface {
	Upsert(dbc dbctx.Context, rows []*sales.LineItem) error
	ListByContractID(dbc dbctx.Context, contractID uuid.UUID) ([]*sales.LineItem, error)
	DeleteByContractExcept(dbc dbctx.Context, contractID uuid.UUID, keep []uuid.UUID) (int64, error)
}

type lineItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLineItemRepo(db *gorm.DB, log *logger.Logger) LineItemRepo {
	return &lineItemRepo{db: db, log: log.With("repo", "LineItemRepo")}
}

func (r *lineItemRepo) Upsert(dbc dbctx.Context, rows []*sales.LineItem) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.Quantity < 0 {
			return fmt.Errorf("line item %s: negative quantity %d", row.ID, row.Quantity)
		}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "quantity", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *lineItemRepo) ListByContractID(dbc dbctx.Context, contractID uuid.UUID) ([]*sales.LineItem, error) {
	if contractID == uuid.Nil {
		return nil, fmt.Errorf("missing contract_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.LineItem
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.LineItem{}).
		Where("contract_id = ?", contractID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lineItemRepo) DeleteByContractExcept(dbc dbctx.Context, contractID uuid.UUID, keep []uuid.UUID) (int64, error) {
	if contractID == uuid.Nil {
		return 0, fmt.Errorf("missing contract_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return deleteOwnedExcept(txx.WithContext(dbc.Ctx), &sales.LineItem{}, contractID, keep)
}
