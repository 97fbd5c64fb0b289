package sales

import (
	"time"

	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	"github.com/yungbote/contracts-backend/internal/domain/sales"
)

// ProductRow converts a catalog product into its row.
func ProductRow(p catalog.Product, now time.Time) *sales.Product {
	return &sales.Product{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		PriceCurrency: p.Price.Currency(),
		PriceAmount:   p.Price.Amount(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func ProductFromRow(row *sales.Product) (catalog.Product, error) {
	price, err := money.New(row.PriceCurrency, row.PriceAmount)
	if err != nil {
		return catalog.Product{}, err
	}
	return catalog.Product{ID: row.ID, SKU: row.SKU, Name: row.Name, Price: price}, nil
}
