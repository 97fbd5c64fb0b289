package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/contracts"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"gorm.io/datatypes"
)

// contractRows is a contract State flattened into table rows.
type contractRows struct {
	contract    *sales.Contract
	deliveries  []*sales.Delivery
	lineItems   []*sales.LineItem
	assignments []*sales.DeliveryLineItem
	products    []*sales.Product
}

func rowsFromState(st contracts.State, now time.Time) contractRows {
	out := contractRows{
		contract: &sales.Contract{
			ID:            st.ID,
			Name:          st.Name,
			TotalCurrency: st.TotalCost.Currency(),
			TotalAmount:   st.TotalCost.Amount(),
			Version:       st.Version,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		deliveries:  make([]*sales.Delivery, 0, len(st.Deliveries)),
		lineItems:   make([]*sales.LineItem, 0, len(st.LineItems)),
		assignments: make([]*sales.DeliveryLineItem, 0, len(st.JoinEntries)),
	}
	for i, d := range st.Deliveries {
		out.deliveries = append(out.deliveries, &sales.Delivery{
			ID:         d.ID,
			ContractID: st.ID,
			Position:   i,
			Date:       datatypes.Date(d.Date),
			Location:   d.Location,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	seen := make(map[uuid.UUID]struct{}, len(st.LineItems))
	for i, li := range st.LineItems {
		out.lineItems = append(out.lineItems, &sales.LineItem{
			ID:         li.ID,
			ContractID: st.ID,
			ProductID:  li.Product.ID,
			Position:   i,
			Quantity:   li.Quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if _, ok := seen[li.Product.ID]; ok {
			continue
		}
		seen[li.Product.ID] = struct{}{}
		out.products = append(out.products, salesrepo.ProductRow(li.Product, now))
	}
	for i, e := range st.JoinEntries {
		out.assignments = append(out.assignments, &sales.DeliveryLineItem{
			ID:         e.ID,
			ContractID: st.ID,
			DeliveryID: e.DeliveryID,
			LineItemID: e.LineItemID,
			Position:   i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out
}

func (r contractRows) deliveryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.deliveries))
	for _, d := range r.deliveries {
		ids = append(ids, d.ID)
	}
	return ids
}

func (r contractRows) lineItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.lineItems))
	for _, li := range r.lineItems {
		ids = append(ids, li.ID)
	}
	return ids
}

func (r contractRows) assignmentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.assignments))
	for _, e := range r.assignments {
		ids = append(ids, e.ID)
	}
	return ids
}

// stateFromRows rebuilds a State; products must hold every referenced product.
func stateFromRows(r contractRows) (contracts.State, error) {
	total, err := money.New(r.contract.TotalCurrency, r.contract.TotalAmount)
	if err != nil {
		return contracts.State{}, InvariantError(fmt.Sprintf("contract %s: %v", r.contract.ID, err))
	}
	byID := make(map[uuid.UUID]catalog.Product, len(r.products))
	for _, p := range r.products {
		prod, err := salesrepo.ProductFromRow(p)
		if err != nil {
			return contracts.State{}, InvariantError(fmt.Sprintf("product %s: %v", p.ID, err))
		}
		byID[p.ID] = prod
	}

	st := contracts.State{
		ID:          r.contract.ID,
		Name:        r.contract.Name,
		TotalCost:   total,
		Version:     r.contract.Version,
		Deliveries:  make([]contracts.DeliveryState, 0, len(r.deliveries)),
		LineItems:   make([]contracts.LineItemState, 0, len(r.lineItems)),
		JoinEntries: make([]contracts.JoinEntryState, 0, len(r.assignments)),
	}
	for _, d := range r.deliveries {
		st.Deliveries = append(st.Deliveries, contracts.DeliveryState{
			ID:       d.ID,
			Date:     time.Time(d.Date),
			Location: d.Location,
		})
	}
	for _, li := range r.lineItems {
		prod, ok := byID[li.ProductID]
		if !ok {
			return contracts.State{}, InvariantError(fmt.Sprintf("line item %s references missing product %s", li.ID, li.ProductID))
		}
		st.LineItems = append(st.LineItems, contracts.LineItemState{
			ID:       li.ID,
			Product:  prod,
			Quantity: li.Quantity,
		})
	}
	for _, e := range r.assignments {
		st.JoinEntries = append(st.JoinEntries, contracts.JoinEntryState{
			ID:         e.ID,
			DeliveryID: e.DeliveryID,
			LineItemID: e.LineItemID,
		})
	}
	return st, nil
}
