package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	repotest "github.com/yungbote/contracts-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/contracts-backend/internal/domain/aggregates"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/contracts"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

func newContractStore(t *testing.T, tx *gorm.DB, hooks Hooks, runner TxRunner) domainagg.ContractAggregate {
	t.Helper()
	log := repotest.Logger(t)
	if runner == nil {
		runner = NewGormTxRunner(tx)
	}
	return NewContractAggregate(ContractAggregateDeps{
		Base: BaseDeps{
			DB:       tx,
			Log:      log,
			Runner:   runner,
			Hooks:    hooks,
			CASGuard: NewCASGuard(tx),
		},
		Contracts:   salesrepo.NewContractRepo(tx, log),
		Deliveries:  salesrepo.NewDeliveryRepo(tx, log),
		LineItems:   salesrepo.NewLineItemRepo(tx, log),
		Assignments: salesrepo.NewDeliveryLineItemRepo(tx, log),
		Products:    salesrepo.NewProductRepo(tx, log),
	})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// tankContract builds C1 with London and Moscow deliveries and two tanks
// assigned to Moscow, plus an unassigned jeep.
func tankContract(t *testing.T, name string) (*contracts.Contract, *contracts.LineItem) {
	t.Helper()
	tank, err := catalog.NewProduct("TANK-"+name, "Tank", money.MustParse("USD", "5000000"))
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	jeep, err := catalog.NewProduct("JEEP-"+name, "Jeep", money.MustParse("USD", "12500.25"))
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	c := contracts.New(name)
	c.CreateDelivery(day(2026, 4, 1), "London")
	moscow := c.CreateDelivery(day(2026, 5, 1), "Moscow")
	tankItem, err := c.CreateLineItem(tank, 2)
	if err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	if _, err := c.CreateLineItem(jeep, 4); err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	if err := c.AddLineItemToDelivery(tankItem, moscow); err != nil {
		t.Fatalf("AddLineItemToDelivery: %v", err)
	}
	return c, tankItem
}

func countRows(t *testing.T, tx *gorm.DB, model any, contractID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := tx.Model(model).Where("contract_id = ?", contractID).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func TestContractAggregateSaveAndLoadRoundTrip(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	hooks := &spyHooks{}
	store := newContractStore(t, tx, hooks, nil)

	c, tankItem := tankContract(t, "C1")
	res, err := store.Save(ctx, c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !res.Created || res.Version != 1 || c.Version() != 1 {
		t.Fatalf("save result: %+v version=%d", res, c.Version())
	}

	loaded, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if loaded.Name() != "C1" || loaded.Version() != 1 {
		t.Fatalf("loaded scalars: name=%q version=%d", loaded.Name(), loaded.Version())
	}
	if !loaded.TotalCost().Equal(c.TotalCost()) {
		t.Fatalf("total: want=%s got=%s", c.TotalCost(), loaded.TotalCost())
	}
	ds := loaded.Deliveries()
	if len(ds) != 2 || ds[0].Location() != "London" || ds[1].Location() != "Moscow" {
		t.Fatalf("deliveries: %+v", ds)
	}
	if !ds[1].Date().Equal(day(2026, 5, 1)) {
		t.Fatalf("delivery date: got=%s", ds[1].Date())
	}

	// both views are rebuilt on load
	assigned := loaded.AssignedLineItems(ds[1])
	if len(assigned) != 1 || assigned[0].ID() != tankItem.ID() {
		t.Fatalf("moscow items: %+v", assigned)
	}
	li, _ := loaded.LineItemByID(tankItem.ID())
	if got, ok := loaded.DeliveryOf(li); !ok || got.ID() != ds[1].ID() {
		t.Fatalf("tank delivery: got=%v ok=%v", got, ok)
	}
	if li.Product().Price.String() != "5000000.00 USD" {
		t.Fatalf("product price: %s", li.Product().Price)
	}

	byName, err := store.LoadByName(ctx, "C1")
	if err != nil || byName.ID() != c.ID() {
		t.Fatalf("LoadByName: got=%v err=%v", byName, err)
	}

	if len(hooks.Operations) != 3 {
		t.Fatalf("hook operations: %+v", hooks.Operations)
	}
	for _, op := range hooks.Operations {
		if op.Status != "success" {
			t.Fatalf("unexpected status: %+v", op)
		}
	}
}

func TestContractAggregatePersistsMove(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	c, tankItem := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	london, err := loaded.DeliveryByLocation("London")
	if err != nil {
		t.Fatalf("DeliveryByLocation: %v", err)
	}
	li, _ := loaded.LineItemByID(tankItem.ID())
	if err := loaded.AddLineItemToDelivery(li, london); err != nil {
		t.Fatalf("move: %v", err)
	}
	res, err := store.Save(ctx, loaded)
	if err != nil {
		t.Fatalf("Save after move: %v", err)
	}
	if res.Created || res.Version != 2 || res.RowsRemoved != 1 {
		t.Fatalf("save result: %+v", res)
	}

	again, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	moscow, _ := again.DeliveryByLocation("Moscow")
	london, _ = again.DeliveryByLocation("London")
	if len(moscow.LineItemIDs()) != 0 {
		t.Fatalf("moscow should be empty: %v", moscow.LineItemIDs())
	}
	if ids := london.LineItemIDs(); len(ids) != 1 || ids[0] != tankItem.ID() {
		t.Fatalf("london: %v", ids)
	}
	if n := countRows(t, tx, &sales.DeliveryLineItem{}, c.ID()); n != 1 {
		t.Fatalf("assignment rows: want=1 got=%d", n)
	}
}

func TestContractAggregateRemovesOrphans(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	c, tankItem := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	moscow, _ := c.DeliveryByLocation("Moscow")
	if !c.DeleteDelivery(moscow) {
		t.Fatalf("DeleteDelivery")
	}
	if !c.DeleteLineItem(tankItem) {
		t.Fatalf("DeleteLineItem")
	}
	res, err := store.Save(ctx, c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	// one assignment, one line item, one delivery
	if res.RowsRemoved != 3 {
		t.Fatalf("rows removed: want=3 got=%d", res.RowsRemoved)
	}
	if n := countRows(t, tx, &sales.Delivery{}, c.ID()); n != 1 {
		t.Fatalf("delivery rows: want=1 got=%d", n)
	}
	if n := countRows(t, tx, &sales.LineItem{}, c.ID()); n != 1 {
		t.Fatalf("line item rows: want=1 got=%d", n)
	}
	if n := countRows(t, tx, &sales.DeliveryLineItem{}, c.ID()); n != 0 {
		t.Fatalf("assignment rows: want=0 got=%d", n)
	}

	loaded, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if !loaded.TotalCost().Equal(money.MustParse("USD", "50001")) {
		t.Fatalf("total: got=%s", loaded.TotalCost())
	}
}

func TestContractAggregateStaleVersionConflicts(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	hooks := &spyHooks{}
	store := newContractStore(t, tx, hooks, nil)

	c, _ := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	second, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}

	first.CreateDelivery(day(2026, 6, 1), "Paris")
	if _, err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	second.CreateDelivery(day(2026, 7, 1), "Rome")
	_, err = store.Save(ctx, second)
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if second.Version() != 1 {
		t.Fatalf("failed save must not advance version: %d", second.Version())
	}
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "Sales.Contract.Save" {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}

	loaded, err := store.LoadByID(ctx, c.ID())
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if _, err := loaded.DeliveryByLocation("Rome"); err == nil {
		t.Fatalf("rejected save leaked rows")
	}
}

func TestContractAggregateNewContractWithTakenName(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	if _, err := store.Save(ctx, contracts.New("Same")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dup := contracts.New("Same")
	if _, err := store.Save(ctx, dup); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if dup.Version() != 0 {
		t.Fatalf("version advanced on failed save")
	}
}

func TestContractAggregateNotFound(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	if _, err := store.LoadByID(ctx, uuid.New()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("LoadByID: expected not_found, got %v", err)
	}
	if _, err := store.LoadByName(ctx, "nobody"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("LoadByName: expected not_found, got %v", err)
	}
	if _, err := store.Delete(ctx, uuid.New(), 1); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("Delete: expected not_found, got %v", err)
	}
	if _, err := store.LoadByID(ctx, uuid.Nil); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("LoadByID(nil): expected validation, got %v", err)
	}
}

func TestContractAggregateDeleteCascades(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	c, _ := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err := store.Delete(ctx, c.ID(), c.Version())
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// 1 assignment + 2 line items + 2 deliveries + contract
	if res.RowsRemoved != 6 {
		t.Fatalf("rows removed: want=6 got=%d", res.RowsRemoved)
	}
	for _, model := range []any{&sales.Delivery{}, &sales.LineItem{}, &sales.DeliveryLineItem{}} {
		if n := countRows(t, tx, model, c.ID()); n != 0 {
			t.Fatalf("%T rows left: %d", model, n)
		}
	}
	if _, err := store.LoadByID(ctx, c.ID()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
}

func TestContractAggregateLoadRejectsCorruptTotal(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	c, _ := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := tx.Model(&sales.Contract{}).Where("id = ?", c.ID()).Update("total_amount", "1").Error; err != nil {
		t.Fatalf("corrupt total: %v", err)
	}
	if _, err := store.LoadByID(ctx, c.ID()); !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant_violation, got %v", err)
	}
}

func TestContractAggregateRejectsChangedProductPrice(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	store := newContractStore(t, tx, nil, nil)

	c1, tankItem := tankContract(t, "C1")
	if _, err := store.Save(ctx, c1); err != nil {
		t.Fatalf("Save C1: %v", err)
	}

	// same product id, new price
	repriced := tankItem.Product()
	repriced.Price = money.MustParse("USD", "6000000")
	c2 := contracts.New("C2")
	if _, err := c2.CreateLineItem(repriced, 1); err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	if _, err := store.Save(ctx, c2); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("Save C2: expected conflict, got %v", err)
	}
	if c2.Version() != 0 {
		t.Fatalf("version advanced on rejected save: %d", c2.Version())
	}
	if _, err := store.LoadByID(ctx, c2.ID()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("rejected contract should be absent, got %v", err)
	}
	loaded, err := store.LoadByID(ctx, c1.ID())
	if err != nil {
		t.Fatalf("LoadByID C1 after rejected save: %v", err)
	}
	if !loaded.TotalCost().Equal(c1.TotalCost()) {
		t.Fatalf("C1 total: want=%s got=%s", c1.TotalCost(), loaded.TotalCost())
	}

	// an unchanged copy of a stored product is accepted
	c3 := contracts.New("C3")
	if _, err := c3.CreateLineItem(tankItem.Product(), 1); err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	if _, err := store.Save(ctx, c3); err != nil {
		t.Fatalf("Save C3: %v", err)
	}
}

func TestContractAggregateDeleteRejectsStaleVersion(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	hooks := &spyHooks{}
	store := newContractStore(t, tx, hooks, nil)

	c, _ := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save v2: %v", err)
	}
	if _, err := store.Delete(ctx, c.ID(), 1); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("Delete at version 1: expected conflict, got %v", err)
	}
	if _, err := store.LoadByID(ctx, c.ID()); err != nil {
		t.Fatalf("contract should survive a stale delete: %v", err)
	}
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "Sales.Contract.Delete" {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
	if _, err := store.Delete(ctx, c.ID(), 2); err != nil {
		t.Fatalf("Delete at version 2: %v", err)
	}
}

func TestContractAggregateRollbackLeavesNothing(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	commitErr := errors.New("commit failed")
	store := newContractStore(t, tx, nil, failingCommitRunner{db: tx, err: commitErr})

	c, _ := tankContract(t, "C1")
	if _, err := store.Save(ctx, c); !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if c.Version() != 0 {
		t.Fatalf("version advanced on rollback")
	}
	var n int64
	if err := tx.Model(&sales.Contract{}).Where("id = ?", c.ID()).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("contract row survived rollback: n=%d err=%v", n, err)
	}
}

// failingCommitRunner runs the body in a transaction and then rolls it back
// with err.
type failingCommitRunner struct {
	db  *gorm.DB
	err error
}

func (r failingCommitRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return r.err
	})
}

func (r failingCommitRunner) InSnapshot(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
