// Package contracts holds the Contract aggregate: a sales contract owning its
// deliveries, line items and the join entries that assign line items to
// deliveries.
//
// Join entries are authoritative. The per-delivery list of line items and the
// per-line-item delivery are caches derived from them; they are rebuilt by
// Rehydrate after a load and otherwise maintained only by Contract methods.
// Entities carry ids for back-references, never pointers to each other.
//
// A Contract is not safe for concurrent mutation.
package contracts

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	apperrors "github.com/yungbote/contracts-backend/internal/pkg/errors"
)

// Contract is the aggregate root. All changes to deliveries, line items and
// assignments go through it.
type Contract struct {
	id        uuid.UUID
	name      string
	totalCost money.Money
	version   int

	deliveries  []*Delivery
	lineItems   []*LineItem
	joinEntries []DeliveryLineItem
}

// New creates an empty contract priced in money.DefaultCurrency.
func New(name string) *Contract {
	zero, _ := money.Zero(money.DefaultCurrency)
	return &Contract{
		id:        uuid.New(),
		name:      strings.TrimSpace(name),
		totalCost: zero,
	}
}

// NewInCurrency creates an empty contract whose total is kept in currency.
func NewInCurrency(name, currency string) (*Contract, error) {
	zero, err := money.Zero(currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return &Contract{
		id:        uuid.New(),
		name:      strings.TrimSpace(name),
		totalCost: zero,
	}, nil
}

func (c *Contract) ID() uuid.UUID          { return c.id }
func (c *Contract) Name() string           { return c.name }
func (c *Contract) TotalCost() money.Money { return c.totalCost }

// Version is the persisted row version; 0 means the contract was never saved.
func (c *Contract) Version() int { return c.version }

// MarkSaved records the version the store committed.
func (c *Contract) MarkSaved(version int) {
	c.version = version
}

func (c *Contract) Deliveries() []*Delivery {
	return slices.Clone(c.deliveries)
}

func (c *Contract) LineItems() []*LineItem {
	return slices.Clone(c.lineItems)
}

func (c *Contract) JoinEntries() []DeliveryLineItem {
	return slices.Clone(c.joinEntries)
}

func (c *Contract) DeliveryByID(id uuid.UUID) (*Delivery, bool) {
	for _, d := range c.deliveries {
		if d.id == id {
			return d, true
		}
	}
	return nil, false
}

func (c *Contract) LineItemByID(id uuid.UUID) (*LineItem, bool) {
	for _, li := range c.lineItems {
		if li.id == id {
			return li, true
		}
	}
	return nil, false
}

// DeliveryByLocation returns the first delivery shipping to location.
func (c *Contract) DeliveryByLocation(location string) (*Delivery, error) {
	for _, d := range c.deliveries {
		if d.location == location {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: no delivery for location %s", apperrors.ErrNotFound, location)
}

// AssignedLineItems resolves the delivery's cached assignment into line items.
func (c *Contract) AssignedLineItems(d *Delivery) []*LineItem {
	own := c.ownDelivery(d)
	if own == nil {
		return nil
	}
	out := make([]*LineItem, 0, len(own.lineItemIDs))
	for _, id := range own.lineItemIDs {
		if li, ok := c.LineItemByID(id); ok {
			out = append(out, li)
		}
	}
	return out
}

// DeliveryOf resolves the line item's cached assignment into a delivery.
func (c *Contract) DeliveryOf(li *LineItem) (*Delivery, bool) {
	item := c.ownLineItem(li)
	if item == nil || item.deliveryID == uuid.Nil {
		return nil, false
	}
	return c.DeliveryByID(item.deliveryID)
}

func (c *Contract) CreateDelivery(date time.Time, location string) *Delivery {
	d := &Delivery{
		id:         uuid.New(),
		contractID: c.id,
		date:       date,
		location:   location,
	}
	c.deliveries = append(c.deliveries, d)
	return d
}

// CreateLineItem appends an unassigned line item and adds its cost to the
// total. Each call creates a new line item, even for a product already on the
// contract; use AddProductToDelivery to merge quantities.
func (c *Contract) CreateLineItem(product catalog.Product, quantity int) (*LineItem, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity %d", apperrors.ErrInvalidArgument, quantity)
	}
	li := &LineItem{
		id:         uuid.New(),
		contractID: c.id,
		product:    product,
		quantity:   quantity,
	}
	total, err := c.totalCost.Add(li.Cost())
	if err != nil {
		return nil, err
	}
	c.lineItems = append(c.lineItems, li)
	c.totalCost = total
	return li, nil
}

// DeleteLineItem removes the line item and its assignment, if any, and
// subtracts its cost. It returns false when the item is not on the contract.
func (c *Contract) DeleteLineItem(li *LineItem) bool {
	i := c.lineItemIndex(li)
	if i < 0 {
		return false
	}
	item := c.lineItems[i]
	total, err := c.totalCost.Subtract(item.Cost())
	if err != nil {
		// unreachable while the total invariant holds
		return false
	}
	c.unassign(item)
	c.lineItems = slices.Delete(c.lineItems, i, i+1)
	c.totalCost = total
	return true
}

// UpdateQuantity sets a new quantity and moves the total by the cost delta.
// It returns false when the item is not on the contract.
func (c *Contract) UpdateQuantity(li *LineItem, quantity int) (bool, error) {
	if quantity < 0 {
		return false, fmt.Errorf("%w: quantity %d", apperrors.ErrInvalidArgument, quantity)
	}
	item := c.ownLineItem(li)
	if item == nil {
		return false, nil
	}
	total, err := c.totalCost.Subtract(item.Cost())
	if err != nil {
		return false, err
	}
	total, err = total.Add(item.product.Price.Times(quantity))
	if err != nil {
		return false, err
	}
	item.quantity = quantity
	c.totalCost = total
	return true, nil
}

// AddLineItemToDelivery assigns the line item to the delivery, first removing
// any previous assignment so an item is never in two deliveries.
func (c *Contract) AddLineItemToDelivery(li *LineItem, d *Delivery) error {
	item := c.ownLineItem(li)
	if item == nil {
		return fmt.Errorf("%w: line item is not on contract %s", apperrors.ErrNotFound, c.id)
	}
	delivery := c.ownDelivery(d)
	if delivery == nil {
		return fmt.Errorf("%w: delivery is not on contract %s", apperrors.ErrNotFound, c.id)
	}
	if item.deliveryID == delivery.id && c.joinEntryIndex(delivery.id, item.id) >= 0 {
		return nil
	}
	c.unassign(item)

	c.joinEntries = append(c.joinEntries, DeliveryLineItem{
		id:         uuid.New(),
		contractID: c.id,
		deliveryID: delivery.id,
		lineItemID: item.id,
	})
	item.deliveryID = delivery.id
	delivery.addLineItem(item.id)
	return nil
}

// DeleteDelivery removes the delivery and the assignments of its line items.
// The line items stay on the contract and the total is unchanged.
func (c *Contract) DeleteDelivery(d *Delivery) bool {
	i := c.deliveryIndex(d)
	if i < 0 {
		return false
	}
	delivery := c.deliveries[i]
	for _, id := range delivery.LineItemIDs() {
		if li, ok := c.LineItemByID(id); ok {
			c.RemoveLineItemFromDelivery(li, delivery)
		}
	}
	c.joinEntries = slices.DeleteFunc(c.joinEntries, func(e DeliveryLineItem) bool {
		return e.deliveryID == delivery.id
	})
	c.deliveries = slices.Delete(c.deliveries, i, i+1)
	return true
}

// RemoveLineItemFromDelivery drops the item from the delivery and deletes the
// matching join entry. It reports whether a join entry was removed; the
// item's delivery is cleared only in that case.
func (c *Contract) RemoveLineItemFromDelivery(li *LineItem, d *Delivery) bool {
	item := c.ownLineItem(li)
	delivery := c.ownDelivery(d)
	if item == nil || delivery == nil {
		return false
	}
	delivery.removeLineItem(item.id)
	j := c.joinEntryIndex(delivery.id, item.id)
	if j < 0 {
		return false
	}
	c.joinEntries = slices.Delete(c.joinEntries, j, j+1)
	if item.deliveryID == delivery.id {
		item.deliveryID = uuid.Nil
	}
	return true
}

// AddProductToDelivery adds quantity of product to the delivery at location.
// A line item for the same product already in that delivery has its quantity
// increased; otherwise a new line item is created and assigned.
func (c *Contract) AddProductToDelivery(product catalog.Product, location string, quantity int) (*LineItem, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity %d", apperrors.ErrInvalidArgument, quantity)
	}
	delivery, err := c.DeliveryByLocation(location)
	if err != nil {
		return nil, err
	}
	for _, li := range c.AssignedLineItems(delivery) {
		if li.product.ID != product.ID {
			continue
		}
		if _, err := c.UpdateQuantity(li, li.quantity+quantity); err != nil {
			return nil, err
		}
		return li, nil
	}
	li, err := c.CreateLineItem(product, quantity)
	if err != nil {
		return nil, err
	}
	if err := c.AddLineItemToDelivery(li, delivery); err != nil {
		return nil, err
	}
	return li, nil
}

// Rehydrate rebuilds the delivery and line item caches from the join entries.
// It must run after a load and before anything reads assignments. Calling it
// again yields the same caches. On error the caches are left empty.
func (c *Contract) Rehydrate() error {
	c.clearCaches()
	for _, e := range c.joinEntries {
		delivery, ok := c.DeliveryByID(e.deliveryID)
		if !ok {
			c.clearCaches()
			return fmt.Errorf("%w: join entry %s references unknown delivery %s", apperrors.ErrInvariant, e.id, e.deliveryID)
		}
		item, ok := c.LineItemByID(e.lineItemID)
		if !ok {
			c.clearCaches()
			return fmt.Errorf("%w: join entry %s references unknown line item %s", apperrors.ErrInvariant, e.id, e.lineItemID)
		}
		if item.deliveryID != uuid.Nil {
			c.clearCaches()
			return fmt.Errorf("%w: line item %s is assigned to more than one delivery", apperrors.ErrInvariant, item.id)
		}
		delivery.addLineItem(item.id)
		item.deliveryID = delivery.id
	}
	return nil
}

func (c *Contract) clearCaches() {
	for _, d := range c.deliveries {
		d.lineItemIDs = nil
	}
	for _, li := range c.lineItems {
		li.deliveryID = uuid.Nil
	}
}

// unassign removes every join entry of the item and clears both caches.
func (c *Contract) unassign(item *LineItem) {
	if item.deliveryID != uuid.Nil {
		if prev, ok := c.DeliveryByID(item.deliveryID); ok {
			c.RemoveLineItemFromDelivery(item, prev)
		}
	}
	c.joinEntries = slices.DeleteFunc(c.joinEntries, func(e DeliveryLineItem) bool {
		return e.lineItemID == item.id
	})
	item.deliveryID = uuid.Nil
}

func (c *Contract) deliveryIndex(d *Delivery) int {
	if d == nil || d.contractID != c.id {
		return -1
	}
	return slices.IndexFunc(c.deliveries, func(x *Delivery) bool { return x.id == d.id })
}

func (c *Contract) lineItemIndex(li *LineItem) int {
	if li == nil || li.contractID != c.id {
		return -1
	}
	return slices.IndexFunc(c.lineItems, func(x *LineItem) bool { return x.id == li.id })
}

func (c *Contract) joinEntryIndex(deliveryID, lineItemID uuid.UUID) int {
	return slices.IndexFunc(c.joinEntries, func(e DeliveryLineItem) bool {
		return e.Matches(deliveryID, lineItemID)
	})
}

// ownDelivery maps a caller's handle to the contract's own instance.
func (c *Contract) ownDelivery(d *Delivery) *Delivery {
	i := c.deliveryIndex(d)
	if i < 0 {
		return nil
	}
	return c.deliveries[i]
}

func (c *Contract) ownLineItem(li *LineItem) *LineItem {
	i := c.lineItemIndex(li)
	if i < 0 {
		return nil
	}
	return c.lineItems[i]
}
