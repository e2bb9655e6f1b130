package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/charityhub/internal/app/system/normalize"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data directly in the
// database, bypassing the ledger services.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc interface{}) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert into %s: %v", coll, err)
	}
}

// CreateBranch creates an active branch.
func (f *Fixtures) CreateBranch(ctx context.Context, name, code string) models.Branch {
	f.t.Helper()
	now := time.Now().UTC()
	b := models.Branch{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Code:      code,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "branches", b)
	return b
}

// CreateInactiveBranch creates a branch with IsActive false.
func (f *Fixtures) CreateInactiveBranch(ctx context.Context, name, code string) models.Branch {
	f.t.Helper()
	now := time.Now().UTC()
	b := models.Branch{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Code:      code,
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "branches", b)
	return b
}

// CreateProduct creates a product with the given starting quantity and no
// operation history. Status follows the quantity.
func (f *Fixtures) CreateProduct(ctx context.Context, name string, branch *primitive.ObjectID, qty float64) models.Product {
	f.t.Helper()
	now := time.Now().UTC()
	status := models.ProductActive
	if qty == 0 {
		status = models.ProductDepleted
	}
	p := models.Product{
		ID:              primitive.NewObjectID(),
		Name:            name,
		NameCI:          text.Fold(name),
		Category:        "general",
		Unit:            "unit",
		CurrentQuantity: qty,
		Status:          status,
		BranchID:        branch,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.insert(ctx, "products", p)
	return p
}

// AddCapital adds a lending fund contribution to branch.
func (f *Fixtures) AddCapital(ctx context.Context, branch *primitive.ObjectID, amount float64) models.LoanCapital {
	f.t.Helper()
	now := time.Now().UTC()
	lc := models.LoanCapital{
		ID:        primitive.NewObjectID(),
		Amount:    amount,
		Source:    "fixture",
		BranchID:  branch,
		Date:      now,
		CreatedAt: now,
	}
	f.insert(ctx, "loan_capital", lc)
	return lc
}

// CreateLoan creates an active loan with no repayments.
func (f *Fixtures) CreateLoan(ctx context.Context, name string, branch *primitive.ObjectID, amount float64) models.Loan {
	f.t.Helper()
	now := time.Now().UTC()
	l := models.Loan{
		ID:              primitive.NewObjectID(),
		BeneficiaryName: name,
		Amount:          amount,
		Status:          models.LoanActive,
		Repayments:      []models.Repayment{},
		BranchID:        branch,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.insert(ctx, "loans", l)
	return l
}

// CreateMovement records a warehouse movement.
func (f *Fixtures) CreateMovement(ctx context.Context, branch *primitive.ObjectID, typ, category, item string, qty, value float64) models.WarehouseMovement {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.WarehouseMovement{
		ID:        primitive.NewObjectID(),
		Type:      typ,
		Category:  category,
		ItemName:  item,
		ItemLabel: item,
		Quantity:  qty,
		Value:     value,
		Date:      now,
		BranchID:  branch,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "warehouse_movements", m)
	return m
}

// CreateDonor creates a donor with zero totals.
func (f *Fixtures) CreateDonor(ctx context.Context, name string) models.Donor {
	f.t.Helper()
	now := time.Now().UTC()
	d := models.Donor{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameNormalized: normalize.Key(name),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "donors", d)
	return d
}

// CreateTransaction inserts a treasury transaction without touching donor totals.
func (f *Fixtures) CreateTransaction(ctx context.Context, branch *primitive.ObjectID, typ string, amount float64, donorName string) models.TreasuryTransaction {
	f.t.Helper()
	now := time.Now().UTC()
	tx := models.TreasuryTransaction{
		ID:          primitive.NewObjectID(),
		Type:        typ,
		Amount:      amount,
		Description: "fixture",
		Category:    "general",
		DonorName:   donorName,
		BranchID:    branch,
		Date:        now,
		CreatedAt:   now,
	}
	f.insert(ctx, "treasury_transactions", tx)
	return tx
}
