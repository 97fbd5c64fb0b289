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

// DeliveryLineItemRepo stores assignment rows. Callers must delete stale rows
// of a contract before upserting new ones, or a moved line item trips the
// unique index on line_item_id.
type DeliveryLineItemRepo interface {
	Upsert(dbc dbctx.Context, rows []*sales.DeliveryLineItem) error
	ListByContractID(dbc dbctx.Context, contractID uuid.UUID) ([]*sales.DeliveryLineItem, error)
	DeleteByContractExcept(dbc dbctx.Context, contractID uuid.UUID, keep []uuid.UUID) (int64, error)
}

type deliveryLineItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliveryLineItemRepo(db *gorm.DB, log *logger.Logger) DeliveryLineItemRepo {
	return &deliveryLineItemRepo{db: db, log: log.With("repo", "DeliveryLineItemRepo")}
}

func (r *deliveryLineItemRepo) Upsert(dbc dbctx.Context, rows []*sales.DeliveryLineItem) error {
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
			DoUpdates: clause.AssignmentColumns([]string{"position", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *deliveryLineItemRepo) ListByContractID(dbc dbctx.Context, contractID uuid.UUID) ([]*sales.DeliveryLineItem, error) {
	if contractID == uuid.Nil {
		return nil, fmt.Errorf("missing contract_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.DeliveryLineItem
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.DeliveryLineItem{}).
		Where("contract_id = ?", contractID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *deliveryLineItemRepo) DeleteByContractExcept(dbc dbctx.Context, contractID uuid.UUID, keep []uuid.UUID) (int64, error) {
	if contractID == uuid.Nil {
		return 0, fmt.Errorf("missing contract_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return deleteOwnedExcept(txx.WithContext(dbc.Ctx), &sales.DeliveryLineItem{}, contractID, keep)
}
