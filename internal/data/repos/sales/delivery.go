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

type DeliveryRepo interface {
	Upsert(dbc dbctx.Context, rows []*sales.Delivery) error
	ListByContractID(dbc dbctx.Context, contractID uuid.UUID) ([]*sales.Delivery, error)
	DeleteByContractExcept(dbc dbctx.Context, contractID uuid.UUID, keep []uuid.UUID) (int64, error)
}

type deliveryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliveryRepo(db *gorm.DB, log *logger.Logger) DeliveryRepo {
	return &deliveryRepo{db: db, log: log.With("repo", "DeliveryRepo")}
}

func (r *deliveryRepo) Upsert(dbc dbctx.Context, rows []*sales.Delivery) error {
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
			DoUpdates: clause.AssignmentColumns([]string{"position", "date", "location", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *deliveryRepo) ListByContractID(dbc dbctx.Context, contractID uuid.UUID) ([]*sales.Delivery, error) {
	if contractID == uuid.Nil {
		return nil, fmt.Errorf("missing contract_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*sales.Delivery
	if err := txx.WithContext(dbc.Ctx).
		Model(&sales.Delivery{}).
		Where("contract_id = ?", contractID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *deliveryRepo) DeleteByContractExcept(dbc dbctx.Context, contractID uuid.UUID, keep []uuid.UUID) (int64, error) {
	if contractID == uuid.Nil {
		return 0, fmt.Errorf("missing contract_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return deleteOwnedExcept(txx.WithContext(dbc.Ctx), &sales.Delivery{}, contractID, keep)
}
