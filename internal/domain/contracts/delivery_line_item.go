package contracts

import "github.com/google/uuid"

// DeliveryLineItem is the normalized join row assigning a line item to a
// delivery. It is the only persisted record of an assignment.
type DeliveryLineItem struct {
	id         uuid.UUID
	contractID uuid.UUID
	deliveryID uuid.UUID
	lineItemID uuid.UUID
}

func (e DeliveryLineItem) ID() uuid.UUID         { return e.id }
func (e DeliveryLineItem) ContractID() uuid.UUID { return e.contractID }
func (e DeliveryLineItem) DeliveryID() uuid.UUID { return e.deliveryID }
func (e DeliveryLineItem) LineItemID() uuid.UUID { return e.lineItemID }

// Matches compares by (delivery, line item); the row id is not part of equality.
func (e DeliveryLineItem) Matches(deliveryID, lineItemID uuid.UUID) bool {
	return e.deliveryID == deliveryID && e.lineItemID == lineItemID
}
