package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	domainagg "github.com/yungbote/contracts-backend/internal/domain/aggregates"
	"github.com/yungbote/contracts-backend/internal/domain/contracts"
	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
)

type ContractAggregateDeps struct {
	Base BaseDeps

	Contracts   salesrepo.ContractRepo
	Deliveries  salesrepo.DeliveryRepo
	LineItems   salesrepo.LineItemRepo
	Assignments salesrepo.DeliveryLineItemRepo
	Products    salesrepo.ProductRepo
}

type contractAggregate struct {
	deps ContractAggregateDeps
}

func NewContractAggregate(deps ContractAggregateDeps) domainagg.ContractAggregate {
	deps.Base = deps.Base.withDefaults()
	return &contractAggregate{deps: deps}
}

func (a *contractAggregate) Policy() domainagg.Policy {
	return domainagg.ContractAggregatePolicy
}

func (a *contractAggregate) configured() bool {
	d := a.deps
	return d.Contracts != nil && d.Deliveries != nil && d.LineItems != nil && d.Assignments != nil && d.Products != nil
}

func (a *contractAggregate) Save(ctx context.Context, c *contracts.Contract) (domainagg.SaveContractResult, error) {
	const op = "Sales.Contract.Save"
	var out domainagg.SaveContractResult
	if c == nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contract", nil)
	}
	if strings.TrimSpace(c.Name()) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contract name", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "contract aggregate repos not configured", nil)
	}

	now := time.Now().UTC()
	st := c.State()
	rows := rowsFromState(st, now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		existing, err := a.deps.Contracts.GetByID(dbc, st.ID)
		if err != nil {
			return err
		}

		result := domainagg.SaveContractResult{ContractID: st.ID, SavedAt: now}
		if st.Version == 0 {
			if existing != nil {
				return ConflictError(fmt.Sprintf("contract %s already exists", st.ID))
			}
			rows.contract.Version = 1
			if err := a.deps.Contracts.Create(dbc, rows.contract); err != nil {
				return err
			}
			result.Created = true
			result.Version = 1
		} else {
			if existing == nil {
				return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("contract not found: %s", st.ID), nil)
			}
			ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, sales.Contract{}.TableName(), st.ID, st.Version, map[string]any{
				"name":           rows.contract.Name,
				"total_currency": rows.contract.TotalCurrency,
				"total_amount":   rows.contract.TotalAmount,
				"version":        st.Version + 1,
				"updated_at":     now,
			})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, fmt.Sprintf("contract %s changed since version %d", st.ID, st.Version)); err != nil {
				return err
			}
			result.Version = st.Version + 1
		}

		if err := a.deps.Products.Upsert(dbc, rows.products); err != nil {
			return err
		}
		if err := a.requireStoredProducts(dbc, rows.products); err != nil {
			return err
		}

		// Orphans go first, assignments before the rows they reference, so a
		// moved line item never holds two assignment rows.
		removed, err := a.deps.Assignments.DeleteByContractExcept(dbc, st.ID, rows.assignmentIDs())
		if err != nil {
			return err
		}
		result.RowsRemoved += int(removed)
		if removed, err = a.deps.LineItems.DeleteByContractExcept(dbc, st.ID, rows.lineItemIDs()); err != nil {
			return err
		}
		result.RowsRemoved += int(removed)
		if removed, err = a.deps.Deliveries.DeleteByContractExcept(dbc, st.ID, rows.deliveryIDs()); err != nil {
			return err
		}
		result.RowsRemoved += int(removed)

		if err := a.deps.Deliveries.Upsert(dbc, rows.deliveries); err != nil {
			return err
		}
		if err := a.deps.LineItems.Upsert(dbc, rows.lineItems); err != nil {
			return err
		}
		if err := a.deps.Assignments.Upsert(dbc, rows.assignments); err != nil {
			return err
		}
		result.RowsUpserted = len(rows.deliveries) + len(rows.lineItems) + len(rows.assignments)

		out = result
		return nil
	})
	if err != nil {
		return domainagg.SaveContractResult{}, err
	}
	c.MarkSaved(out.Version)
	return out, nil
}

// requireStoredProducts rejects a save whose products differ from the rows
// already stored under the same ids. Products are immutable once written; a
// changed price would make every later load fail its total check.
func (a *contractAggregate) requireStoredProducts(dbc dbctx.Context, want []*sales.Product) error {
	if len(want) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(want))
	for _, p := range want {
		ids = append(ids, p.ID)
	}
	stored, err := a.deps.Products.GetByIDs(dbc, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*sales.Product, len(stored))
	for _, p := range stored {
		byID[p.ID] = p
	}
	for _, p := range want {
		got, ok := byID[p.ID]
		if !ok {
			return InvariantError(fmt.Sprintf("product %s missing after upsert", p.ID))
		}
		if got.SKU != p.SKU || got.Name != p.Name ||
			got.PriceCurrency != p.PriceCurrency || !got.PriceAmount.Equal(p.PriceAmount) {
			return ConflictError(fmt.Sprintf("product %s (%s) differs from the stored product", p.ID, p.SKU))
		}
	}
	return nil
}

func (a *contractAggregate) LoadByID(ctx context.Context, id uuid.UUID) (*contracts.Contract, error) {
	const op = "Sales.Contract.LoadByID"
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing contract id", nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "contract aggregate repos not configured", nil)
	}
	var out *contracts.Contract
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Contracts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("contract not found: %s", id), nil)
		}
		out, err = a.load(dbc, row)
		return err
	})
	return out, err
}

func (a *contractAggregate) LoadByName(ctx context.Context, name string) (*contracts.Contract, error) {
	const op = "Sales.Contract.LoadByName"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing contract name", nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "contract aggregate repos not configured", nil)
	}
	var out *contracts.Contract
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Contracts.GetByName(dbc, name)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("contract not found: %q", name), nil)
		}
		out, err = a.load(dbc, row)
		return err
	})
	return out, err
}

// load reads every owned row and returns a rehydrated contract.
func (a *contractAggregate) load(dbc dbctx.Context, row *sales.Contract) (*contracts.Contract, error) {
	rows := contractRows{contract: row}
	var err error
	if rows.deliveries, err = a.deps.Deliveries.ListByContractID(dbc, row.ID); err != nil {
		return nil, err
	}
	if rows.lineItems, err = a.deps.LineItems.ListByContractID(dbc, row.ID); err != nil {
		return nil, err
	}
	if rows.assignments, err = a.deps.Assignments.ListByContractID(dbc, row.ID); err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(rows.lineItems))
	seen := make(map[uuid.UUID]struct{}, len(rows.lineItems))
	for _, li := range rows.lineItems {
		if _, ok := seen[li.ProductID]; ok {
			continue
		}
		seen[li.ProductID] = struct{}{}
		productIDs = append(productIDs, li.ProductID)
	}
	if rows.products, err = a.deps.Products.GetByIDs(dbc, productIDs); err != nil {
		return nil, err
	}

	st, err := stateFromRows(rows)
	if err != nil {
		return nil, err
	}
	c, err := contracts.FromState(st)
	if err != nil {
		return nil, err
	}
	if err := c.Rehydrate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the contract and every row it owns. expectedVersion must be
// the version the caller last loaded or saved.
func (a *contractAggregate) Delete(ctx context.Context, id uuid.UUID, expectedVersion int) (domainagg.DeleteContractResult, error) {
	const op = "Sales.Contract.Delete"
	var out domainagg.DeleteContractResult
	if id == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing contract id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "contract aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Contracts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("contract not found: %s", id), nil)
		}
		if err := RequireVersionMatch(row.Version, expectedVersion); err != nil {
			return err
		}
		// bump the version first so a concurrent save at expectedVersion
		// loses, and the contract row stays locked until commit
		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, sales.Contract{}.TableName(), id, expectedVersion, map[string]any{
			"version":    expectedVersion + 1,
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, fmt.Sprintf("contract %s changed since version %d", id, expectedVersion)); err != nil {
			return err
		}
		var total int64
		for _, del := range []func(dbctx.Context, uuid.UUID, []uuid.UUID) (int64, error){
			a.deps.Assignments.DeleteByContractExcept,
			a.deps.LineItems.DeleteByContractExcept,
			a.deps.Deliveries.DeleteByContractExcept,
		} {
			n, err := del(dbc, id, nil)
			if err != nil {
				return err
			}
			total += n
		}
		n, err := a.deps.Contracts.DeleteByID(dbc, id)
		if err != nil {
			return err
		}
		out = domainagg.DeleteContractResult{ContractID: id, RowsRemoved: int(total + n)}
		return nil
	})
	if err != nil {
		return domainagg.DeleteContractResult{}, err
	}
	return out, nil
}
