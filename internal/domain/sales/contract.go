package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contract is the root row of a contract aggregate. Version is bumped on every
// save and guards concurrent writers.
type Contract struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null;uniqueIndex:idx_contract_name" json:"name"`

	TotalCurrency string          `gorm:"column:total_currency;type:varchar(3);not null" json:"total_currency"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(24,6);not null" json:"total_amount"`

	Version int `gorm:"column:version;not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Contract) TableName() string { return "contract" }
