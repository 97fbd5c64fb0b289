package contracts

import (
	"github.com/google/uuid"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/money"
)

// LineItem is a quantity of one product inside a contract.
type LineItem struct {
	id         uuid.UUID
	contractID uuid.UUID
	product    catalog.Product
	quantity   int

	// uuid.Nil when unassigned. Rebuilt from join entries on load.
	deliveryID uuid.UUID
}

func (li *LineItem) ID() uuid.UUID            { return li.id }
func (li *LineItem) ContractID() uuid.UUID    { return li.contractID }
func (li *LineItem) Product() catalog.Product { return li.product }
func (li *LineItem) Quantity() int            { return li.quantity }

// Cost is the unit price scaled by the quantity.
func (li *LineItem) Cost() money.Money {
	return li.product.Price.Times(li.quantity)
}

// DeliveryID reports the delivery the item is currently assigned to.
func (li *LineItem) DeliveryID() (uuid.UUID, bool) {
	return li.deliveryID, li.deliveryID != uuid.Nil
}
