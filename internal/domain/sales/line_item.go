package sales

import (
	"time"

	"github.com/google/uuid"
)

type LineItem struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ContractID uuid.UUID `gorm:"type:uuid;not null;index:idx_line_item_contract_position,priority:1" json:"contract_id"`
	Contract   *Contract `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContractID;references:ID" json:"contract,omitempty"`

	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:RESTRICT;foreignKey:ProductID;references:ID" json:"product,omitempty"`

	Position int `gorm:"column:position;not null;default:0;index:idx_line_item_contract_position,priority:2" json:"position"`
	Quantity int `gorm:"column:quantity;not null;default:0;check:chk_line_item_quantity,quantity >= 0" json:"quantity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LineItem) TableName() string { return "line_item" }
