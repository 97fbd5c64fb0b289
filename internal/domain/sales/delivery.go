package sales

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Delivery struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ContractID uuid.UUID `gorm:"type:uuid;not null;index:idx_delivery_contract_position,priority:1" json:"contract_id"`
	Contract   *Contract `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContractID;references:ID" json:"contract,omitempty"`

	// Position keeps the aggregate's insertion order across loads.
	Position int `gorm:"column:position;not null;default:0;index:idx_delivery_contract_position,priority:2" json:"position"`

	Date     datatypes.Date `gorm:"column:date;not null" json:"date"`
	Location string         `gorm:"column:location;not null;index" json:"location"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Delivery) TableName() string { return "delivery" }
