package contracts

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/contracts-backend/internal/domain/catalog"
	"github.com/yungbote/contracts-backend/internal/domain/money"
	apperrors "github.com/yungbote/contracts-backend/internal/pkg/errors"
)

var (
	fiveMillionUSD = money.MustParse("USD", "5000000.00")
	tenMillionUSD  = money.MustParse("USD", "10000000.00")
	zeroUSD        = money.MustParse("USD", "0.00")
)

func heavyTank(t *testing.T) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("TNK-HEAVY", "Heavy Tank", fiveMillionUSD)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	return p
}

func mustLineItem(t *testing.T, c *Contract, p catalog.Product, qty int) *LineItem {
	t.Helper()
	li, err := c.CreateLineItem(p, qty)
	if err != nil {
		t.Fatalf("CreateLineItem: %v", err)
	}
	return li
}

func joinCount(c *Contract, lineItemID uuid.UUID) int {
	n := 0
	for _, e := range c.JoinEntries() {
		if e.LineItemID() == lineItemID {
			n++
		}
	}
	return n
}

func sumCosts(t *testing.T, c *Contract) money.Money {
	t.Helper()
	sum, err := money.Zero(c.TotalCost().Currency())
	if err != nil {
		t.Fatalf("Zero: %v", err)
	}
	for _, li := range c.LineItems() {
		if sum, err = sum.Add(li.Cost()); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return sum
}

func TestNewContractStartsAtZero(t *testing.T) {
	c := New("Heavy Tank Contract")
	if c.ID() == uuid.Nil {
		t.Fatalf("expected id")
	}
	if !c.TotalCost().Equal(zeroUSD) {
		t.Fatalf("total: want=%s got=%s", zeroUSD, c.TotalCost())
	}
	if c.Version() != 0 {
		t.Fatalf("version: want=0 got=%d", c.Version())
	}
}

func TestNewInCurrencyRejectsBadCode(t *testing.T) {
	if _, err := NewInCurrency("x", "dollars"); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	c, err := NewInCurrency("x", "eur")
	if err != nil {
		t.Fatalf("NewInCurrency: %v", err)
	}
	if c.TotalCost().Currency() != "EUR" {
		t.Fatalf("currency: got=%s", c.TotalCost().Currency())
	}
}

func TestCreateDeliveryHasNoAssignments(t *testing.T) {
	c := New("C1")
	d := c.CreateDelivery(time.Now(), "London")
	if d.ContractID() != c.ID() {
		t.Fatalf("delivery not owned by contract")
	}
	if len(d.LineItemIDs()) != 0 {
		t.Fatalf("new delivery should be empty")
	}
	if got := c.Deliveries(); len(got) != 1 || got[0].Location() != "London" {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
}

func TestCreateLineItemAddsCost(t *testing.T) {
	c := New("C1")
	li := mustLineItem(t, c, heavyTank(t), 2)
	if !li.Cost().Equal(tenMillionUSD) {
		t.Fatalf("cost: want=%s got=%s", tenMillionUSD, li.Cost())
	}
	if !c.TotalCost().Equal(tenMillionUSD) {
		t.Fatalf("total: want=%s got=%s", tenMillionUSD, c.TotalCost())
	}
	if _, ok := li.DeliveryID(); ok {
		t.Fatalf("new line item should be unassigned")
	}
}

func TestCreateLineItemDoesNotMergeSameProduct(t *testing.T) {
	c := New("C1")
	p := heavyTank(t)
	mustLineItem(t, c, p, 1)
	mustLineItem(t, c, p, 1)
	if len(c.LineItems()) != 2 {
		t.Fatalf("line items: want=2 got=%d", len(c.LineItems()))
	}
}

func TestCreateLineItemNegativeQuantity(t *testing.T) {
	c := New("C1")
	_, err := c.CreateLineItem(heavyTank(t), -1)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if len(c.LineItems()) != 0 {
		t.Fatalf("line items mutated")
	}
	if !c.TotalCost().Equal(zeroUSD) {
		t.Fatalf("total mutated: %s", c.TotalCost())
	}
}

func TestCreateLineItemCurrencyMismatchLeavesContractUntouched(t *testing.T) {
	c := New("C1")
	p, err := catalog.NewProduct("EUR-1", "Euro Tank", money.MustParse("EUR", "5"))
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	if _, err := c.CreateLineItem(p, 1); !errors.Is(err, money.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if len(c.LineItems()) != 0 || !c.TotalCost().Equal(zeroUSD) {
		t.Fatalf("contract mutated on failure")
	}
}

func TestDeleteLineItem(t *testing.T) {
	c := New("C1")
	li := mustLineItem(t, c, heavyTank(t), 2)
	if !c.DeleteLineItem(li) {
		t.Fatalf("DeleteLineItem: expected true")
	}
	if !c.TotalCost().Equal(zeroUSD) {
		t.Fatalf("total: want=%s got=%s", zeroUSD, c.TotalCost())
	}
	if c.DeleteLineItem(li) {
		t.Fatalf("second delete should return false")
	}
}

func TestDeleteLineItemRemovesAssignment(t *testing.T) {
	c := New("C1")
	d := c.CreateDelivery(time.Now(), "London")
	keep := mustLineItem(t, c, heavyTank(t), 1)
	li := mustLineItem(t, c, heavyTank(t), 2)
	if err := c.AddLineItemToDelivery(keep, d); err != nil {
		t.Fatalf("AddLineItemToDelivery: %v", err)
	}
	if err := c.AddLineItemToDelivery(li, d); err != nil {
		t.Fatalf("AddLineItemToDelivery: %v", err)
	}

	if !c.DeleteLineItem(li) {
		t.Fatalf("DeleteLineItem: expected true")
	}
	if len(c.JoinEntries()) != 1 || c.JoinEntries()[0].LineItemID() != keep.ID() {
		t.Fatalf("expected only the kept item's join entry, got %+v", c.JoinEntries())
	}
	if ids := d.LineItemIDs(); len(ids) != 1 || ids[0] != keep.ID() {
		t.Fatalf("delivery cache: %+v", ids)
	}
	if !c.TotalCost().Equal(fiveMillionUSD) {
		t.Fatalf("total: want=%s got=%s", fiveMillionUSD, c.TotalCost())
	}
}

func TestDeleteLineItemFromOtherContract(t *testing.T) {
	a := New("A")
	b := New("B")
	li := mustLineItem(t, a, heavyTank(t), 1)
	if b.DeleteLineItem(li) {
		t.Fatalf("foreign line item must not be deleted")
	}
	if len(a.LineItems()) != 1 {
		t.Fatalf("owner mutated")
	}
}

func TestTotalCostTracksCreateAndDeleteSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := heavyTank(t)
	cheap, err := catalog.NewProduct("JEEP", "Jeep", money.MustParse("USD", "12500.25"))
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	c := New("C1")
	for i := 0; i < 200; i++ {
		items := c.LineItems()
		if len(items) > 0 && rng.Intn(3) == 0 {
			if !c.DeleteLineItem(items[rng.Intn(len(items))]) {
				t.Fatalf("step %d: delete returned false", i)
			}
		} else {
			prod := p
			if rng.Intn(2) == 0 {
				prod = cheap
			}
			mustLineItem(t, c, prod, rng.Intn(5))
		}
		if want := sumCosts(t, c); !c.TotalCost().Equal(want) {
			t.Fatalf("step %d: total=%s sum=%s", i, c.TotalCost(), want)
		}
	}
}

func TestUpdateQuantityAdjustsTotal(t *testing.T) {
	c := New("C1")
	li := mustLineItem(t, c, heavyTank(t), 2)

	ok, err := c.UpdateQuantity(li, 1)
	if err != nil || !ok {
		t.Fatalf("UpdateQuantity: ok=%v err=%v", ok, err)
	}
	if li.Quantity() != 1 {
		t.Fatalf("quantity: want=1 got=%d", li.Quantity())
	}
	if !c.TotalCost().Equal(fiveMillionUSD) {
		t.Fatalf("total: want=%s got=%s", fiveMillionUSD, c.TotalCost())
	}
	if want := sumCosts(t, c); !c.TotalCost().Equal(want) {
		t.Fatalf("total=%s sum=%s", c.TotalCost(), want)
	}
}

func TestUpdateQuantityRejectsNegativeAndNonMembers(t *testing.T) {
	c := New("C1")
	li := mustLineItem(t, c, heavyTank(t), 2)
	if _, err := c.UpdateQuantity(li, -3); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if li.Quantity() != 2 || !c.TotalCost().Equal(tenMillionUSD) {
		t.Fatalf("state mutated on invalid quantity")
	}

	other := New("C2")
	foreign := mustLineItem(t, other, heavyTank(t), 1)
	ok, err := c.UpdateQuantity(foreign, 5)
	if err != nil || ok {
		t.Fatalf("foreign update: ok=%v err=%v", ok, err)
	}
	if foreign.Quantity() != 1 {
		t.Fatalf("foreign item mutated")
	}
}

func TestAddLineItemToDeliveryCreatesSingleJoinEntry(t *testing.T) {
	c := New("C1")
	d := c.CreateDelivery(time.Now(), "London")
	li := mustLineItem(t, c, heavyTank(t), 2)

	if err := c.AddLineItemToDelivery(li, d); err != nil {
		t.Fatalf("AddLineItemToDelivery: %v", err)
	}
	if joinCount(c, li.ID()) != 1 {
		t.Fatalf("join entries for item: want=1 got=%d", joinCount(c, li.ID()))
	}
	if got, ok := c.DeliveryOf(li); !ok || got.ID() != d.ID() {
		t.Fatalf("DeliveryOf: got=%v ok=%v", got, ok)
	}
	if items := c.AssignedLineItems(d); len(items) != 1 || items[0].ID() != li.ID() {
		t.Fatalf("AssignedLineItems: %+v", items)
	}

	// assigning to the same delivery again is a no-op
	if err := c.AddLineItemToDelivery(li, d); err != nil {
		t.Fatalf("AddLineItemToDelivery again: %v", err)
	}
	if joinCount(c, li.ID()) != 1 || len(d.LineItemIDs()) != 1 {
		t.Fatalf("re-assign duplicated state: joins=%d cache=%d", joinCount(c, li.ID()), len(d.LineItemIDs()))
	}
}

func TestAddLineItemToDeliveryRejectsNonMembers(t *testing.T) {
	c := New("C1")
	other := New("C2")
	d := c.CreateDelivery(time.Now(), "London")
	foreignDelivery := other.CreateDelivery(time.Now(), "Paris")
	li := mustLineItem(t, c, heavyTank(t), 1)
	foreignItem := mustLineItem(t, other, heavyTank(t), 1)

	if err := c.AddLineItemToDelivery(foreignItem, d); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("foreign item: expected not found, got %v", err)
	}
	if err := c.AddLineItemToDelivery(li, foreignDelivery); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("foreign delivery: expected not found, got %v", err)
	}
	if len(c.JoinEntries()) != 0 || len(d.LineItemIDs()) != 0 {
		t.Fatalf("contract mutated on failure")
	}
	if _, ok := li.DeliveryID(); ok {
		t.Fatalf("line item assigned on failure")
	}
}

func TestMoveLineItemBetweenDeliveries(t *testing.T) {
	c := New("C1")
	london := c.CreateDelivery(time.Now(), "London")
	moscow := c.CreateDelivery(time.Now(), "Moscow")
	tank, err := catalog.NewProduct("TANK", "Tank", fiveMillionUSD)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	tankItem := mustLineItem(t, c, tank, 2)
	if err := c.AddLineItemToDelivery(tankItem, moscow); err != nil {
		t.Fatalf("assign moscow: %v", err)
	}

	if err := c.AddLineItemToDelivery(tankItem, london); err != nil {
		t.Fatalf("move to london: %v", err)
	}

	if len(moscow.LineItemIDs()) != 0 {
		t.Fatalf("moscow should be empty, got %+v", moscow.LineItemIDs())
	}
	if ids := london.LineItemIDs(); len(ids) != 1 || ids[0] != tankItem.ID() {
		t.Fatalf("london: %+v", ids)
	}
	entries := c.JoinEntries()
	if len(entries) != 1 || !entries[0].Matches(london.ID(), tankItem.ID()) {
		t.Fatalf("join entries: %+v", entries)
	}
	if got, _ := tankItem.DeliveryID(); got != london.ID() {
		t.Fatalf("back-reference: want=%s got=%s", london.ID(), got)
	}
}

func TestDeleteDeliveryKeepsLineItemsAndTotal(t *testing.T) {
	c := New("C1")
	d := c.CreateDelivery(time.Now(), "London")
	other := c.CreateDelivery(time.Now(), "Moscow")
	a := mustLineItem(t, c, heavyTank(t), 1)
	b := mustLineItem(t, c, heavyTank(t), 1)
	kept := mustLineItem(t, c, heavyTank(t), 1)
	for _, li := range []*LineItem{a, b} {
		if err := c.AddLineItemToDelivery(li, d); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	if err := c.AddLineItemToDelivery(kept, other); err != nil {
		t.Fatalf("assign: %v", err)
	}
	before := c.TotalCost()

	if !c.DeleteDelivery(d) {
		t.Fatalf("DeleteDelivery: expected true")
	}
	if len(c.Deliveries()) != 1 {
		t.Fatalf("deliveries: want=1 got=%d", len(c.Deliveries()))
	}
	if len(c.LineItems()) != 3 {
		t.Fatalf("line items: want=3 got=%d", len(c.LineItems()))
	}
	if !c.TotalCost().Equal(before) {
		t.Fatalf("total changed: before=%s after=%s", before, c.TotalCost())
	}
	for _, li := range []*LineItem{a, b} {
		if joinCount(c, li.ID()) != 0 {
			t.Fatalf("join entry left for %s", li.ID())
		}
		if _, ok := li.DeliveryID(); ok {
			t.Fatalf("back-reference left for %s", li.ID())
		}
	}
	if joinCount(c, kept.ID()) != 1 {
		t.Fatalf("unrelated assignment dropped")
	}
	if c.DeleteDelivery(d) {
		t.Fatalf("second delete should return false")
	}
}

func TestRemoveLineItemFromDelivery(t *testing.T) {
	c := New("C1")
	london := c.CreateDelivery(time.Now(), "London")
	moscow := c.CreateDelivery(time.Now(), "Moscow")
	li := mustLineItem(t, c, heavyTank(t), 1)
	if err := c.AddLineItemToDelivery(li, london); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// wrong delivery: nothing found, back-reference kept
	if c.RemoveLineItemFromDelivery(li, moscow) {
		t.Fatalf("remove from wrong delivery should return false")
	}
	if got, ok := li.DeliveryID(); !ok || got != london.ID() {
		t.Fatalf("back-reference cleared on miss")
	}

	if !c.RemoveLineItemFromDelivery(li, london) {
		t.Fatalf("remove: expected true")
	}
	if len(c.JoinEntries()) != 0 || len(london.LineItemIDs()) != 0 {
		t.Fatalf("assignment left behind")
	}
	if _, ok := li.DeliveryID(); ok {
		t.Fatalf("back-reference not cleared")
	}
	if c.RemoveLineItemFromDelivery(li, london) {
		t.Fatalf("second remove should return false")
	}
}

func TestDeliveryByLocation(t *testing.T) {
	c := New("C1")
	london := c.CreateDelivery(time.Now(), "London")
	got, err := c.DeliveryByLocation("London")
	if err != nil || got.ID() != london.ID() {
		t.Fatalf("DeliveryByLocation: got=%v err=%v", got, err)
	}
	if _, err := c.DeliveryByLocation("Berlin"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddProductToDeliveryMergesQuantity(t *testing.T) {
	c := New("C1")
	london := c.CreateDelivery(time.Now(), "London")
	p := heavyTank(t)

	first, err := c.AddProductToDelivery(p, "London", 1)
	if err != nil {
		t.Fatalf("AddProductToDelivery: %v", err)
	}
	second, err := c.AddProductToDelivery(p, "London", 1)
	if err != nil {
		t.Fatalf("AddProductToDelivery: %v", err)
	}
	if first.ID() != second.ID() {
		t.Fatalf("expected the same line item to be reused")
	}
	if second.Quantity() != 2 {
		t.Fatalf("quantity: want=2 got=%d", second.Quantity())
	}
	if len(c.LineItems()) != 1 || len(london.LineItemIDs()) != 1 {
		t.Fatalf("unexpected rows: items=%d assigned=%d", len(c.LineItems()), len(london.LineItemIDs()))
	}
	if !c.TotalCost().Equal(tenMillionUSD) {
		t.Fatalf("total: want=%s got=%s", tenMillionUSD, c.TotalCost())
	}
}

func TestAddProductToDeliveryUnknownLocation(t *testing.T) {
	c := New("C1")
	c.CreateDelivery(time.Now(), "London")
	if _, err := c.AddProductToDelivery(heavyTank(t), "Berlin", 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(c.LineItems()) != 0 || !c.TotalCost().Equal(zeroUSD) {
		t.Fatalf("contract mutated on failure")
	}
}

func TestViewsAreCopies(t *testing.T) {
	c := New("C1")
	c.CreateDelivery(time.Now(), "London")
	mustLineItem(t, c, heavyTank(t), 1)

	ds := c.Deliveries()
	ds[0] = nil
	items := c.LineItems()
	items[0] = nil
	if c.Deliveries()[0] == nil || c.LineItems()[0] == nil {
		t.Fatalf("views share backing storage with the aggregate")
	}
}
