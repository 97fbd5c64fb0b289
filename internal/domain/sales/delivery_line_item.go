package sales

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryLineItem assigns a line item to a delivery. It is the only persisted
// record of the assignment; the unique index on line_item_id keeps a line item
// in at most one delivery.
type DeliveryLineItem struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ContractID uuid.UUID `gorm:"type:uuid;not null;index" json:"contract_id"`
	Contract   *Contract `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContractID;references:ID" json:"contract,omitempty"`

	DeliveryID uuid.UUID `gorm:"type:uuid;not null;index:idx_delivery_line_item,unique,priority:1" json:"delivery_id"`
	Delivery   *Delivery `gorm:"constraint:OnDelete:CASCADE;foreignKey:DeliveryID;references:ID" json:"delivery,omitempty"`

	LineItemID uuid.UUID `gorm:"type:uuid;not null;index:idx_delivery_line_item,unique,priority:2;uniqueIndex:idx_delivery_line_item_line_item" json:"line_item_id"`
	LineItem   *LineItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:LineItemID;references:ID" json:"line_item,omitempty"`

	Position int `gorm:"column:position;not null;default:0" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DeliveryLineItem) TableName() string { return "delivery_line_item" }
