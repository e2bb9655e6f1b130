package ledger_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func productState(t *testing.T, e env, id primitive.ObjectID) models.Product {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var p models.Product
	if err := e.db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p
}

func opCount(t *testing.T, e env) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := e.db.Collection("product_operations").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count ops: %v", err)
	}
	return n
}

func TestApplyOperation_PurchaseThenSale(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	honey := e.fx.CreateProduct(ctx, "Honey", &e.branch, 0)

	op, p, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpPurchase, Quantity: 10, Amount: 200,
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if op.CorrelationID == "" || op.BranchID == nil || *op.BranchID != e.branch {
		t.Errorf("unexpected op %+v", op)
	}
	if p.CurrentQuantity != 10 || p.TotalCost != 200 || p.Status != models.ProductActive {
		t.Errorf("unexpected product after purchase %+v", p)
	}

	_, p, err = e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpSale, Quantity: 4, Amount: 120,
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	if p.CurrentQuantity != 6 || p.TotalRevenue != 120 {
		t.Errorf("unexpected product after sale %+v", p)
	}
}

func TestApplyOperation_SellsExactFractionalRemainder(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	flour := e.fx.CreateProduct(ctx, "Flour", &e.branch, 0)

	steps := []ledger.OperationInput{
		{ProductID: flour.ID, Type: models.OpPurchase, Quantity: 0.3, Amount: 3},
		{ProductID: flour.ID, Type: models.OpSale, Quantity: 0.1, Amount: 1},
		// 0.3 - 0.1 is stored as 0.19999999999999998.
		{ProductID: flour.ID, Type: models.OpSale, Quantity: 0.2, Amount: 2},
	}
	var p models.Product
	var err error
	for i, in := range steps {
		if _, p, err = e.svc.ApplyOperation(ctx, e.admin, in); err != nil {
			t.Fatalf("step %d (%s %v) failed: %v", i, in.Type, in.Quantity, err)
		}
	}
	if p.CurrentQuantity != 0 || p.Status != models.ProductDepleted {
		t.Errorf("expected exactly 0 and depleted, got %v %q", p.CurrentQuantity, p.Status)
	}
	if stored := productState(t, e, flour.ID); stored.CurrentQuantity != 0 {
		t.Errorf("stored quantity: got %v, want 0", stored.CurrentQuantity)
	}

	// Anything beyond the tolerance is still a shortfall.
	_, _, err = e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: flour.ID, Type: models.OpSale, Quantity: 0.001,
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestApplyOperation_InsufficientStockLeavesNoRecord(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	honey := e.fx.CreateProduct(ctx, "Honey", &e.branch, 3)

	for _, typ := range []string{models.OpSale, models.OpDonation, models.OpTransform} {
		_, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
			ProductID: honey.ID, Type: typ, Quantity: 5,
		})
		if !errors.Is(err, apperr.ErrInsufficientStock) {
			t.Errorf("%s: expected ErrInsufficientStock, got %v", typ, err)
		}
	}
	if n := opCount(t, e); n != 0 {
		t.Errorf("rejected operations left %d records", n)
	}
	if p := productState(t, e, honey.ID); p.CurrentQuantity != 3 {
		t.Errorf("quantity changed to %v", p.CurrentQuantity)
	}
}

func TestApplyOperation_TransformIntoTarget(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	milk := e.fx.CreateProduct(ctx, "Milk", &e.branch, 10)
	cheese := e.fx.CreateProduct(ctx, "Cheese", &e.branch, 0)

	_, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: milk.ID, Type: models.OpTransform, Quantity: 8,
		TargetProductID: &cheese.ID, TargetQuantity: 2,
	})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if got := productState(t, e, milk.ID); got.CurrentQuantity != 2 {
		t.Errorf("milk: got %v", got.CurrentQuantity)
	}
	got := productState(t, e, cheese.ID)
	if got.CurrentQuantity != 2 || got.Status != models.ProductActive {
		t.Errorf("cheese: got %+v", got)
	}
}

func TestReverseOperation_RoundTrip(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	honey := e.fx.CreateProduct(ctx, "Honey", &e.branch, 0)
	before := productState(t, e, honey.ID)

	op, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpPurchase, Quantity: 7.5, Amount: 0.3,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	reversed, err := e.svc.ReverseOperation(ctx, e.admin, op.ID)
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if reversed.DeletedAt == nil {
		t.Error("expected reversed op to be marked deleted")
	}

	after := productState(t, e, honey.ID)
	if after.CurrentQuantity != before.CurrentQuantity || after.TotalCost != before.TotalCost || after.TotalRevenue != before.TotalRevenue {
		t.Errorf("apply+reverse changed counters: before %+v after %+v", before, after)
	}
	if after.Status != models.ProductDepleted {
		t.Errorf("expected depleted, got %s", after.Status)
	}

	// Second reversal is a no-op.
	if _, err := e.svc.ReverseOperation(ctx, e.admin, op.ID); err != nil {
		t.Fatalf("second reverse failed: %v", err)
	}
	if again := productState(t, e, honey.ID); again.CurrentQuantity != after.CurrentQuantity {
		t.Errorf("second reversal changed quantity to %v", again.CurrentQuantity)
	}
}

func TestReverseOperation_WouldGoNegative(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	honey := e.fx.CreateProduct(ctx, "Honey", &e.branch, 0)
	purchase, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpPurchase, Quantity: 10, Amount: 100,
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if _, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpSale, Quantity: 8, Amount: 80,
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	_, err = e.svc.ReverseOperation(ctx, e.admin, purchase.ID)
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	p := productState(t, e, honey.ID)
	if p.CurrentQuantity != 2 || p.TotalCost != 100 {
		t.Errorf("failed reversal changed counters: %+v", p)
	}
	var op models.ProductOperation
	_ = e.db.Collection("product_operations").FindOne(ctx, bson.M{"_id": purchase.ID}).Decode(&op)
	if op.DeletedAt != nil {
		t.Error("failed reversal must leave the operation live")
	}
}

func TestAmendOperation(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	honey := e.fx.CreateProduct(ctx, "Honey", &e.branch, 10)
	sale, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpSale, Quantity: 2, Amount: 20,
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	amended, err := e.svc.AmendOperation(ctx, e.admin, sale.ID, ledger.OperationInput{Quantity: 5, Amount: 50})
	if err != nil {
		t.Fatalf("amend failed: %v", err)
	}
	if amended.Quantity != 5 {
		t.Errorf("expected quantity 5, got %v", amended.Quantity)
	}
	p := productState(t, e, honey.ID)
	if p.CurrentQuantity != 5 || p.TotalRevenue != 50 {
		t.Errorf("unexpected counters after amend: %+v", p)
	}

	_, err = e.svc.AmendOperation(ctx, e.admin, sale.ID, ledger.OperationInput{Quantity: 11, Amount: 50})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	_, err = e.svc.AmendOperation(ctx, e.admin, sale.ID, ledger.OperationInput{Type: models.OpPurchase, Quantity: 1})
	if !apperr.IsValidation(err) {
		t.Errorf("changing type should be a validation error, got %v", err)
	}
	if p := productState(t, e, honey.ID); p.CurrentQuantity != 5 {
		t.Errorf("rejected amendments changed quantity to %v", p.CurrentQuantity)
	}
}

func TestOperations_Authorization(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	other := testutil.NewID()
	foreign := e.fx.CreateProduct(ctx, "Dates", &other, 5)
	own := e.fx.CreateProduct(ctx, "Oil", &e.branch, 5)

	viewer := testutil.ReadOnlyUser(e.branch).Principal()
	if _, _, err := e.svc.ApplyOperation(ctx, viewer, ledger.OperationInput{ProductID: own.ID, Type: models.OpSale, Quantity: 1}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("read-only user: expected ErrForbidden, got %v", err)
	}
	if _, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{ProductID: foreign.ID, Type: models.OpSale, Quantity: 1}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other branch product: expected ErrNotFound, got %v", err)
	}
	if _, _, err := e.svc.ApplyOperation(ctx, e.super, ledger.OperationInput{ProductID: foreign.ID, Type: models.OpSale, Quantity: 1}); err != nil {
		t.Errorf("superadmin should reach every branch: %v", err)
	}
}
