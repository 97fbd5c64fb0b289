package contracts

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Delivery is a shipment of line items to one location. Its assigned line
// items are a cache of the contract's join entries and can only be changed
// through the owning Contract.
type Delivery struct {
	id         uuid.UUID
	contractID uuid.UUID
	date       time.Time
	location   string

	lineItemIDs []uuid.UUID
}

func (d *Delivery) ID() uuid.UUID         { return d.id }
func (d *Delivery) ContractID() uuid.UUID { return d.contractID }
func (d *Delivery) Date() time.Time       { return d.date }
func (d *Delivery) Location() string      { return d.location }

// LineItemIDs returns the assigned line item ids in assignment order.
func (d *Delivery) LineItemIDs() []uuid.UUID {
	return slices.Clone(d.lineItemIDs)
}

func (d *Delivery) addLineItem(id uuid.UUID) {
	d.lineItemIDs = append(d.lineItemIDs, id)
}

func (d *Delivery) removeLineItem(id uuid.UUID) bool {
	i := slices.Index(d.lineItemIDs, id)
	if i < 0 {
		return false
	}
	d.lineItemIDs = slices.Delete(d.lineItemIDs, i, i+1)
	return true
}
