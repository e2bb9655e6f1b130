package ledgerqueries_test

import (
	"testing"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
)

func mustEqual(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: got %s, want %s", what, got, want)
	}
}

func TestAvailableLoanFund(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewID()
	b := testutil.NewID()
	fx.AddCapital(ctx, &a, 1000)
	fx.AddCapital(ctx, &b, 5000)
	fx.AddCapital(ctx, nil, 100)
	la := fx.CreateLoan(ctx, "x", &a, 400)
	_, _ = db.Collection("loans").UpdateOne(ctx, bson.M{"_id": la.ID}, bson.M{"$set": bson.M{"amount_paid": 150.0}})
	gone := fx.CreateLoan(ctx, "y", &a, 300)
	_, _ = db.Collection("loans").UpdateOne(ctx, bson.M{"_id": gone.ID}, bson.M{"$set": bson.M{"deleted_at": time.Now()}})

	super := branchpolicy.Principal{Role: "superadmin"}
	got, err := ledgerqueries.AvailableLoanFund(ctx, db, branchpolicy.ResolveFilter(super, &a))
	if err != nil {
		t.Fatalf("AvailableLoanFund failed: %v", err)
	}
	mustEqual(t, "branch A", got, "750")

	member := branchpolicy.Principal{Role: "member", BranchID: &a}
	got, _ = ledgerqueries.AvailableLoanFund(ctx, db, branchpolicy.ResolveFilter(member, nil))
	mustEqual(t, "member of A (with legacy)", got, "850")

	got, _ = ledgerqueries.AvailableLoanFund(ctx, db, branchpolicy.ResolveFilter(super, nil))
	mustEqual(t, "all branches", got, "5850")
}

func TestWarehouseBalances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewID()
	fx.CreateMovement(ctx, &a, models.MovementInbound, models.MovementProduct, "rice", 10, 0)
	fx.CreateMovement(ctx, &a, models.MovementOutbound, models.MovementProduct, "rice", 3.5, 0)
	fx.CreateMovement(ctx, &a, models.MovementInbound, models.MovementProduct, "oil", 4, 0)
	fx.CreateMovement(ctx, &a, models.MovementInbound, models.MovementCash, "", 0, 0.1)
	fx.CreateMovement(ctx, &a, models.MovementInbound, models.MovementCash, "", 0, 0.2)
	del := fx.CreateMovement(ctx, &a, models.MovementOutbound, models.MovementCash, "", 0, 0.3)
	_, _ = db.Collection("warehouse_movements").UpdateOne(ctx, bson.M{"_id": del.ID}, bson.M{"$set": bson.M{"deleted_at": time.Now()}})

	scope := bson.M{"branch_id": a}
	stock, err := ledgerqueries.WarehouseStock(ctx, db, scope, "rice")
	if err != nil {
		t.Fatalf("WarehouseStock failed: %v", err)
	}
	mustEqual(t, "rice", stock, "6.5")

	byItem, err := ledgerqueries.WarehouseStockByItem(ctx, db, scope)
	if err != nil {
		t.Fatalf("WarehouseStockByItem failed: %v", err)
	}
	if len(byItem) != 2 {
		t.Errorf("expected 2 items, got %v", byItem)
	}
	mustEqual(t, "oil", byItem["oil"], "4")

	cash, err := ledgerqueries.WarehouseCash(ctx, db, scope)
	if err != nil {
		t.Fatalf("WarehouseCash failed: %v", err)
	}
	mustEqual(t, "cash", cash, "0.3")
}

func TestTreasuryAndSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewID()
	fx.CreateTransaction(ctx, &a, models.TxnIncome, 500, "")
	fx.CreateTransaction(ctx, &a, models.TxnExpense, 120, "")
	fx.AddCapital(ctx, &a, 300)
	fx.CreateLoan(ctx, "z", &a, 100)

	s, err := ledgerqueries.BranchSummary(ctx, db, bson.M{"branch_id": a})
	if err != nil {
		t.Fatalf("BranchSummary failed: %v", err)
	}
	mustEqual(t, "treasury balance", s.Treasury.Balance, "380")
	mustEqual(t, "available fund", s.LoanFund.Available, "200")
	mustEqual(t, "outstanding", s.LoanFund.Outstanding(), "100")
	if s.LoansByStatus[models.LoanActive] != 1 {
		t.Errorf("expected one active loan, got %v", s.LoansByStatus)
	}
}

func TestProductBalanceFromLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	milk := testutil.NewID()
	cheese := testutil.NewID()
	ops := []interface{}{
		models.ProductOperation{ID: testutil.NewID(), ProductID: milk, Type: models.OpPurchase, Quantity: 10, Amount: 40},
		models.ProductOperation{ID: testutil.NewID(), ProductID: milk, Type: models.OpTransform, Quantity: 6, TargetProductID: &cheese, TargetQuantity: 2},
	}
	if _, err := db.Collection("product_operations").InsertMany(ctx, ops); err != nil {
		t.Fatalf("insert ops: %v", err)
	}

	got, err := ledgerqueries.ProductBalanceFromLog(ctx, db, milk)
	if err != nil {
		t.Fatalf("ProductBalanceFromLog failed: %v", err)
	}
	if got.Quantity != 4 || got.Cost != 40 {
		t.Errorf("milk: unexpected %+v", got)
	}
	got, _ = ledgerqueries.ProductBalanceFromLog(ctx, db, cheese)
	if got.Quantity != 2 {
		t.Errorf("cheese: unexpected %+v", got)
	}
}

func TestDonorTotalsFromLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fx.CreateDonor(ctx, "Hana")
	for _, amt := range []float64{10, 15} {
		tx := fx.CreateTransaction(ctx, nil, models.TxnIncome, amt, "Hana")
		_, _ = db.Collection("treasury_transactions").UpdateOne(ctx, bson.M{"_id": tx.ID}, bson.M{"$set": bson.M{"donor_id": d.ID}})
	}

	totals, err := ledgerqueries.DonorTotalsFromLog(ctx, db)
	if err != nil {
		t.Fatalf("DonorTotalsFromLog failed: %v", err)
	}
	got := totals[d.ID]
	if got.Count != 2 {
		t.Errorf("expected count 2, got %d", got.Count)
	}
	mustEqual(t, "amount", got.Amount, "25")
}
