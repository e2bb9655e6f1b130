package ledger_test

import (
	"testing"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/system/ledgermetrics"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestReconcile_CleanLedgerHasNoDrift(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	honey := e.fx.CreateProduct(ctx, "Honey", &e.branch, 0)
	if _, _, err := e.svc.ApplyOperation(ctx, e.admin, ledger.OperationInput{
		ProductID: honey.ID, Type: models.OpPurchase, Quantity: 3, Amount: 0.1,
	}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := e.svc.CreateTransaction(ctx, e.admin, ledger.TransactionInput{
		Type: models.TxnIncome, Amount: 0.2, Description: "gift", Donor: "Ali",
	}); err != nil {
		t.Fatalf("income failed: %v", err)
	}

	rep, err := e.svc.Reconcile(ctx, false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if rep.ProductsChecked != 1 || rep.DonorsChecked != 1 {
		t.Errorf("unexpected counts %+v", rep)
	}
	if len(rep.Drifts) != 0 {
		t.Errorf("expected no drift, got %+v", rep.Drifts)
	}
}

func TestReconcile_DetectsAndFixes(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Counters with no operation log behind them.
	stray := e.fx.CreateProduct(ctx, "Stray", &e.branch, 5)
	donor := e.fx.CreateDonor(ctx, "Ali")
	_, _ = e.db.Collection("donors").UpdateOne(ctx, bson.M{"_id": donor.ID},
		bson.M{"$set": bson.M{"total_donated": 99.0, "donations_count": int64(3)}})
	loan := e.fx.CreateLoan(ctx, "Amina", &e.branch, 100)
	_, _ = e.db.Collection("loans").UpdateOne(ctx, bson.M{"_id": loan.ID},
		bson.M{"$set": bson.M{"amount_paid": 100.0, "status": models.LoanCompleted}})

	rep, err := e.svc.Reconcile(ctx, false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	checks := map[string]bool{}
	for _, d := range rep.Drifts {
		checks[d.Check] = true
		if d.Fixed {
			t.Errorf("dry run fixed %+v", d)
		}
	}
	for _, c := range []string{ledgermetrics.CheckProductCounters, ledgermetrics.CheckDonorTotals, ledgermetrics.CheckLoanPaid} {
		if !checks[c] {
			t.Errorf("missing %s drift in %+v", c, rep.Drifts)
		}
	}

	rep, err = e.svc.Reconcile(ctx, true)
	if err != nil {
		t.Fatalf("Reconcile(fix) failed: %v", err)
	}
	for _, d := range rep.Drifts {
		if !d.Fixed {
			t.Errorf("not fixed: %+v", d)
		}
	}

	rep, err = e.svc.Reconcile(ctx, false)
	if err != nil {
		t.Fatalf("Reconcile after fix failed: %v", err)
	}
	if len(rep.Drifts) != 0 {
		t.Errorf("drift remains after fix: %+v", rep.Drifts)
	}

	if p := productState(t, e, stray.ID); p.CurrentQuantity != 0 || p.Status != models.ProductDepleted {
		t.Errorf("product not reset to its log: %+v", p)
	}
	if d := donorState(t, e, donor.ID); d.TotalDonated != 0 || d.DonationsCount != 0 {
		t.Errorf("donor not reset to its log: %+v", d)
	}
}
