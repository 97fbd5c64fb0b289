package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	apperrors "github.com/yungbote/contracts-backend/internal/pkg/errors"
)

// State is the persisted shape of a contract: owned rows only, in order,
// with no derived caches.
type State struct {
	ID        uuid.UUID
	Name      string
	TotalCost money.Money
	Version   int

	Deliveries  []DeliveryState
	LineItems   []LineItemState
	JoinEntries []JoinEntryState
}

type DeliveryState struct {
	ID       uuid.UUID
	Date     time.Time
	Location string
}

type LineItemState struct {
	ID       uuid.UUID
	Product  catalog.Product
	Quantity int
}

type JoinEntryState struct {
	ID         uuid.UUID
	DeliveryID uuid.UUID
	LineItemID uuid.UUID
}

// State snapshots the contract for persistence.
func (c *Contract) State() State {
	st := State{
		ID:          c.id,
		Name:        c.name,
		TotalCost:   c.totalCost,
		Version:     c.version,
		Deliveries:  make([]DeliveryState, 0, len(c.deliveries)),
		LineItems:   make([]LineItemState, 0, len(c.lineItems)),
		JoinEntries: make([]JoinEntryState, 0, len(c.joinEntries)),
	}
	for _, d := range c.deliveries {
		st.Deliveries = append(st.Deliveries, DeliveryState{ID: d.id, Date: d.date, Location: d.location})
	}
	for _, li := range c.lineItems {
		st.LineItems = append(st.LineItems, LineItemState{ID: li.id, Product: li.product, Quantity: li.quantity})
	}
	for _, e := range c.joinEntries {
		st.JoinEntries = append(st.JoinEntries, JoinEntryState{ID: e.id, DeliveryID: e.deliveryID, LineItemID: e.lineItemID})
	}
	return st
}

// FromState rebuilds a contract from persisted rows. Assignment caches are
// left empty; call Rehydrate before reading them.
func FromState(st State) (*Contract, error) {
	if st.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing contract id", apperrors.ErrInvariant)
	}
	if st.TotalCost.Currency() == "" {
		return nil, fmt.Errorf("%w: contract %s has no total currency", apperrors.ErrInvariant, st.ID)
	}
	c := &Contract{
		id:          st.ID,
		name:        strings.TrimSpace(st.Name),
		totalCost:   st.TotalCost,
		version:     st.Version,
		deliveries:  make([]*Delivery, 0, len(st.Deliveries)),
		lineItems:   make([]*LineItem, 0, len(st.LineItems)),
		joinEntries: make([]DeliveryLineItem, 0, len(st.JoinEntries)),
	}

	deliveryIDs := make(map[uuid.UUID]struct{}, len(st.Deliveries))
	for _, d := range st.Deliveries {
		if d.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: delivery without id on contract %s", apperrors.ErrInvariant, st.ID)
		}
		if _, dup := deliveryIDs[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate delivery %s", apperrors.ErrInvariant, d.ID)
		}
		deliveryIDs[d.ID] = struct{}{}
		c.deliveries = append(c.deliveries, &Delivery{
			id:         d.ID,
			contractID: st.ID,
			date:       d.Date,
			location:   d.Location,
		})
	}

	sum, err := money.Zero(st.TotalCost.Currency())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvariant, err)
	}
	lineItemIDs := make(map[uuid.UUID]struct{}, len(st.LineItems))
	for _, li := range st.LineItems {
		if li.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: line item without id on contract %s", apperrors.ErrInvariant, st.ID)
		}
		if _, dup := lineItemIDs[li.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate line item %s", apperrors.ErrInvariant, li.ID)
		}
		if li.Quantity < 0 {
			return nil, fmt.Errorf("%w: line item %s has quantity %d", apperrors.ErrInvariant, li.ID, li.Quantity)
		}
		lineItemIDs[li.ID] = struct{}{}
		item := &LineItem{
			id:         li.ID,
			contractID: st.ID,
			product:    li.Product,
			quantity:   li.Quantity,
		}
		if sum, err = sum.Add(item.Cost()); err != nil {
			return nil, fmt.Errorf("%w: line item %s: %v", apperrors.ErrInvariant, li.ID, err)
		}
		c.lineItems = append(c.lineItems, item)
	}
	if !sum.Equal(st.TotalCost) {
		return nil, fmt.Errorf("%w: contract %s total %s does not match line items %s", apperrors.ErrInvariant, st.ID, st.TotalCost, sum)
	}

	assigned := make(map[uuid.UUID]struct{}, len(st.JoinEntries))
	for _, e := range st.JoinEntries {
		if _, ok := deliveryIDs[e.DeliveryID]; !ok {
			return nil, fmt.Errorf("%w: join entry %s references unknown delivery %s", apperrors.ErrInvariant, e.ID, e.DeliveryID)
		}
		if _, ok := lineItemIDs[e.LineItemID]; !ok {
			return nil, fmt.Errorf("%w: join entry %s references unknown line item %s", apperrors.ErrInvariant, e.ID, e.LineItemID)
		}
		if _, dup := assigned[e.LineItemID]; dup {
			return nil, fmt.Errorf("%w: line item %s is assigned to more than one delivery", apperrors.ErrInvariant, e.LineItemID)
		}
		assigned[e.LineItemID] = struct{}{}
		c.joinEntries = append(c.joinEntries, DeliveryLineItem{
			id:         e.ID,
			contractID: st.ID,
			deliveryID: e.DeliveryID,
			lineItemID: e.LineItemID,
		})
	}
	return c, nil
}
