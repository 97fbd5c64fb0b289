package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SKU  string    `gorm:"column:sku;not null;uniqueIndex:idx_product_sku" json:"sku"`
	Name string    `gorm:"column:name;not null;index" json:"name"`

	PriceCurrency string          `gorm:"column:price_currency;type:varchar(3);not null" json:"price_currency"`
	PriceAmount   decimal.Decimal `gorm:"column:price_amount;type:numeric(24,6);not null" json:"price_amount"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "product" }
