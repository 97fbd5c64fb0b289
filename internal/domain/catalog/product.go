package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	apperrors "github.com/yungbote/contracts-backend/internal/pkg/errors"
)

// Product is an immutable catalog entry. Line items hold it by value.
type Product struct {
	ID    uuid.UUID
	SKU   string
	Name  string
	Price money.Money
}

func NewProduct(sku, name string, price money.Money) (Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" {
		return Product{}, fmt.Errorf("%w: missing sku", apperrors.ErrInvalidArgument)
	}
	if name == "" {
		return Product{}, fmt.Errorf("%w: missing product name", apperrors.ErrInvalidArgument)
	}
	if price.Currency() == "" {
		return Product{}, fmt.Errorf("%w: missing price", apperrors.ErrInvalidArgument)
	}
	if price.Amount().IsNegative() {
		return Product{}, fmt.Errorf("%w: negative price %s", apperrors.ErrInvalidArgument, price)
	}
	return Product{ID: uuid.New(), SKU: sku, Name: name, Price: price}, nil
}
