package ledger_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRecordMovement_OutboundNeedsStock(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in, err := e.svc.RecordMovement(ctx, e.admin, ledger.MovementInput{
		Type: models.MovementInbound, Category: models.MovementProduct, Item: "Rice", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("inbound failed: %v", err)
	}
	if in.ItemName != "rice" {
		t.Errorf("item name should be normalized, got %q", in.ItemName)
	}

	// A different spelling draws from the same item.
	if _, err := e.svc.RecordMovement(ctx, e.admin, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementProduct, Item: " RICE ", Quantity: 4,
	}); err != nil {
		t.Fatalf("outbound failed: %v", err)
	}

	_, err = e.svc.RecordMovement(ctx, e.admin, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementProduct, Item: "rice", Quantity: 7,
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	stock, err := ledgerqueries.WarehouseStock(ctx, e.db, bson.M{"branch_id": e.branch}, "rice")
	if err != nil {
		t.Fatalf("WarehouseStock failed: %v", err)
	}
	if stock.InexactFloat64() != 6 {
		t.Errorf("expected stock 6, got %s", stock)
	}
}

func TestRecordMovement_CashShortfallIsFund(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateMovement(ctx, &e.branch, models.MovementInbound, models.MovementCash, "", 0, 50)
	_, err := e.svc.RecordMovement(ctx, e.admin, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementCash, Value: 80,
	})
	if !errors.Is(err, apperr.ErrInsufficientFund) {
		t.Fatalf("expected ErrInsufficientFund, got %v", err)
	}
}

func TestRecordMovement_BranchesAreSeparate(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	other := testutil.NewID()
	e.fx.CreateMovement(ctx, &other, models.MovementInbound, models.MovementProduct, "rice", 100, 0)

	_, err := e.svc.RecordMovement(ctx, e.admin, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementProduct, Item: "rice", Quantity: 1,
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Errorf("another branch's stock must not count, got %v", err)
	}
}

func TestAmendMovement(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inbound := e.fx.CreateMovement(ctx, &e.branch, models.MovementInbound, models.MovementProduct, "rice", 10, 0)
	out := e.fx.CreateMovement(ctx, &e.branch, models.MovementOutbound, models.MovementProduct, "rice", 6, 0)

	// Shrinking the inbound below what went out is refused.
	_, err := e.svc.AmendMovement(ctx, e.admin, inbound.ID, ledger.MovementInput{
		Type: models.MovementInbound, Category: models.MovementProduct, Item: "rice", Quantity: 5,
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Moving the outbound to another item leaves rice fine but oil short.
	_, err = e.svc.AmendMovement(ctx, e.admin, out.ID, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementProduct, Item: "oil", Quantity: 6,
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for oil, got %v", err)
	}

	got, err := e.svc.AmendMovement(ctx, e.admin, out.ID, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementProduct, Item: "rice", Quantity: 10, Notes: "full load",
	})
	if err != nil {
		t.Fatalf("amend within stock failed: %v", err)
	}
	if got.Quantity != 10 || got.Notes != "full load" {
		t.Errorf("unexpected amended movement %+v", got)
	}

	other := testutil.NewID()
	_, err = e.svc.AmendMovement(ctx, e.super, out.ID, ledger.MovementInput{
		Type: models.MovementOutbound, Category: models.MovementProduct, Item: "rice", Quantity: 1, BranchID: &other,
	})
	if !apperr.IsValidation(err) {
		t.Errorf("changing branch: expected validation error, got %v", err)
	}
}

func TestDeleteMovement(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inbound := e.fx.CreateMovement(ctx, &e.branch, models.MovementInbound, models.MovementProduct, "rice", 10, 0)
	out := e.fx.CreateMovement(ctx, &e.branch, models.MovementOutbound, models.MovementProduct, "rice", 4, 0)

	if err := e.svc.DeleteMovement(ctx, e.admin, inbound.ID); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("deleting a depended-on inbound: expected ErrInsufficientStock, got %v", err)
	}
	if err := e.svc.DeleteMovement(ctx, e.admin, out.ID); err != nil {
		t.Fatalf("deleting an outbound failed: %v", err)
	}
	if err := e.svc.DeleteMovement(ctx, e.admin, inbound.ID); err != nil {
		t.Fatalf("deleting a free inbound failed: %v", err)
	}
	if err := e.svc.DeleteMovement(ctx, e.admin, inbound.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestRecordMovement_ConcurrentOutboundNeverNegative(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateMovement(ctx, &e.branch, models.MovementInbound, models.MovementProduct, "rice", 10, 0)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.RecordMovement(ctx, e.admin, ledger.MovementInput{
				Type: models.MovementOutbound, Category: models.MovementProduct, Item: "rice", Quantity: 3,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && !errors.Is(err, apperr.ErrInsufficientStock) && !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("unexpected error %v", err)
		}
	}
	stock, err := ledgerqueries.WarehouseStock(ctx, e.db, bson.M{"branch_id": e.branch}, "rice")
	if err != nil {
		t.Fatalf("WarehouseStock failed: %v", err)
	}
	if stock.IsNegative() {
		t.Errorf("concurrent outbound movements drove stock to %s", stock)
	}
}
