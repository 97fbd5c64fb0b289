package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/contracts-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/contracts-backend/internal/data/aggregates/testutil"
	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	repotest "github.com/yungbote/contracts-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/contracts-backend/internal/domain/aggregates"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/contracts"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	"gorm.io/gorm"
)

func newStore(t *testing.T, db *gorm.DB, hooks aggregates.Hooks, runner aggregates.TxRunner) domainagg.ContractAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return aggregates.NewContractAggregate(aggregates.ContractAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:     db,
			Log:    log,
			Runner: runner,
			Hooks:  hooks,
		},
		Contracts:   salesrepo.NewContractRepo(db, log),
		Deliveries:  salesrepo.NewDeliveryRepo(db, log),
		LineItems:   salesrepo.NewLineItemRepo(db, log),
		Assignments: salesrepo.NewDeliveryLineItemRepo(db, log),
		Products:    salesrepo.NewProductRepo(db, log),
	})
}

func oneItemContract(t *testing.T, name string) *contracts.Contract {
	t.Helper()
	p, err := catalog.NewProduct("SKU-"+name, "Radio", money.MustParse("EUR", "250"))
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	c, err := contracts.NewInCurrency(name, "EUR")
	if err != nil {
		t.Fatalf("NewInCurrency: %v", err)
	}
	if _, err := c.CreateLineItem(p, 3); err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	return c
}

func TestContractStoreReportsOperationsToHooks(t *testing.T) {
	db := repotest.DB(t)
	hooks := &aggtest.HooksRecorder{}
	runner := &aggtest.InjectedTxRunner{DB: db}
	store := newStore(t, db, hooks, runner)
	ctx := context.Background()

	c := oneItemContract(t, "hooks-"+t.Name())
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.LoadByID(ctx, c.ID()); err != nil {
		t.Fatalf("LoadByID: %v", err)
	}

	// a second copy at the old version loses the race
	stale, err := contracts.FromState(c.State())
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if _, err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save v2: %v", err)
	}
	stale.MarkSaved(1)
	if _, err := store.Save(ctx, stale); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("stale Save: want conflict got %v", err)
	}

	if len(hooks.Operations) != 4 {
		t.Fatalf("operations: want=4 got=%d (%+v)", len(hooks.Operations), hooks.Operations)
	}
	want := []struct{ name, status string }{
		{"Sales.Contract.Save", "success"},
		{"Sales.Contract.LoadByID", "success"},
		{"Sales.Contract.Save", "success"},
		{"Sales.Contract.Save", string(domainagg.CodeConflict)},
	}
	for i, w := range want {
		got := hooks.Operations[i]
		if got.Name != w.name || got.Status != w.status {
			t.Fatalf("operation %d: want=%s/%s got=%s/%s", i, w.name, w.status, got.Name, got.Status)
		}
	}
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "Sales.Contract.Save" {
		t.Fatalf("conflicts: %+v", hooks.Conflicts)
	}
	if runner.CommitCalls != 2 || runner.RollbackCalls != 1 {
		t.Fatalf("runner counters commit=%d rollback=%d", runner.CommitCalls, runner.RollbackCalls)
	}
	if runner.SnapshotCalls != 1 {
		t.Fatalf("LoadByID should read in one snapshot, got %d", runner.SnapshotCalls)
	}
}

func TestContractStoreFailedCommitKeepsAggregateUnsaved(t *testing.T) {
	db := repotest.DB(t)
	commitErr := errors.New("connection reset")
	hooks := &aggtest.HooksRecorder{}
	store := newStore(t, db, hooks, &aggtest.InjectedTxRunner{DB: db, FailCommit: commitErr})

	c := oneItemContract(t, "commit-"+t.Name())
	if _, err := store.Save(context.Background(), c); !errors.Is(err, commitErr) {
		t.Fatalf("Save: want commit error got %v", err)
	}
	if c.Version() != 0 {
		t.Fatalf("version advanced on failed save: %d", c.Version())
	}

	reader := newStore(t, db, nil, nil)
	if _, err := reader.LoadByID(context.Background(), c.ID()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("rolled back contract should be absent, got %v", err)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeInternal) {
		t.Fatalf("unexpected operations: %+v", hooks.Operations)
	}
}
