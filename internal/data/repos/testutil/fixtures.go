package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, sku, name, price string) *sales.Product {
	tb.Helper()
	p := &sales.Product{
		ID:            uuid.New(),
		SKU:           sku,
		Name:          name,
		PriceCurrency: "USD",
		PriceAmount:   decimal.RequireFromString(price),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedContract(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *sales.Contract {
	tb.Helper()
	c := &sales.Contract{
		ID:            uuid.New(),
		Name:          name,
		TotalCurrency: "USD",
		TotalAmount:   decimal.Zero,
		Version:       1,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contract: %v", err)
	}
	return c
}

func SeedDelivery(tb testing.TB, ctx context.Context, tx *gorm.DB, contractID uuid.UUID, position int, location string) *sales.Delivery {
	tb.Helper()
	d := &sales.Delivery{
		ID:         uuid.New(),
		ContractID: contractID,
		Position:   position,
		Date:       datatypes.Date(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Location:   location,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed delivery: %v", err)
	}
	return d
}

func SeedLineItem(tb testing.TB, ctx context.Context, tx *gorm.DB, contractID, productID uuid.UUID, position, quantity int) *sales.LineItem {
	tb.Helper()
	li := &sales.LineItem{
		ID:         uuid.New(),
		ContractID: contractID,
		ProductID:  productID,
		Position:   position,
		Quantity:   quantity,
	}
	if err := tx.WithContext(ctx).Create(li).Error; err != nil {
		tb.Fatalf("seed line item: %v", err)
	}
	return li
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, contractID, deliveryID, lineItemID uuid.UUID, position int) *sales.DeliveryLineItem {
	tb.Helper()
	e := &sales.DeliveryLineItem{
		ID:         uuid.New(),
		ContractID: contractID,
		DeliveryID: deliveryID,
		LineItemID: lineItemID,
		Position:   position,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return e
}
