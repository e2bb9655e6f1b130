package loanstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	loanstore "github.com/dalemusser/charityhub/internal/app/store/loans"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loanstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l, err := store.Create(ctx, models.Loan{BeneficiaryName: "Amal", Amount: 500, AmountPaid: 99, Status: models.LoanCompleted})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if l.Status != models.LoanActive || l.AmountPaid != 0 || l.Version != 1 {
		t.Errorf("unexpected defaults: status=%s paid=%v version=%d", l.Status, l.AmountPaid, l.Version)
	}
	if l.Repayments == nil {
		t.Error("expected an empty repayment list, not nil")
	}
}

func TestStore_SaveState_VersionCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loanstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l, err := store.Create(ctx, models.Loan{BeneficiaryName: "Amal", Amount: 500})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first := l
	first.Repayments = append(first.Repayments, models.Repayment{ID: primitive.NewObjectID(), Amount: 100, Date: time.Now().UTC()})
	first.AmountPaid = 100
	saved, err := store.SaveState(ctx, first)
	if err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	if saved.Version != 2 {
		t.Errorf("expected version 2, got %d", saved.Version)
	}

	// A writer still holding version 1 must lose.
	stale := l
	stale.AmountPaid = 50
	if _, err := store.SaveState(ctx, stale); !errors.Is(err, loanstore.ErrStale) {
		t.Errorf("expected ErrStale, got %v", err)
	}

	got, err := store.GetByID(ctx, bson.M{}, l.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AmountPaid != 100 || len(got.Repayments) != 1 {
		t.Errorf("stale write leaked: paid=%v repayments=%d", got.AmountPaid, len(got.Repayments))
	}
}

func TestStore_ScopeAndSoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loanstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	branchA := testutil.NewID()
	branchB := testutil.NewID()
	la, _ := store.Create(ctx, models.Loan{BeneficiaryName: "A", Amount: 10, BranchID: &branchA})
	lb, _ := store.Create(ctx, models.Loan{BeneficiaryName: "B", Amount: 10, BranchID: &branchB})
	legacy, _ := store.Create(ctx, models.Loan{BeneficiaryName: "L", Amount: 10})

	member := branchpolicy.Principal{Role: "member", BranchID: &branchA}
	scope := branchpolicy.ResolveFilter(member, nil)

	if _, err := store.GetByID(ctx, scope, lb.ID); !errors.Is(err, loanstore.ErrNotFound) {
		t.Errorf("expected other branch's loan to be hidden, got %v", err)
	}
	list, err := store.List(ctx, scope, "", 0, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected own + legacy loans, got %d", len(list))
	}

	if _, err := store.SoftDelete(ctx, scope, la.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, scope, la.ID); !errors.Is(err, loanstore.ErrNotFound) {
		t.Errorf("expected deleted loan to be gone, got %v", err)
	}
	if _, err := store.SoftDelete(ctx, scope, la.ID); !errors.Is(err, loanstore.ErrNotFound) {
		t.Errorf("second delete should be NotFound, got %v", err)
	}
	list, _ = store.List(ctx, scope, "", 0, 0)
	if len(list) != 1 || list[0].ID != legacy.ID {
		t.Errorf("expected only the legacy loan, got %+v", list)
	}
}
