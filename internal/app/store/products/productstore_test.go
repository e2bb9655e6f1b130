package productstore_test

import (
	"errors"
	"testing"

	productstore "github.com/dalemusser/charityhub/internal/app/store/products"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/effects"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_Create_StartsDepleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := productstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, models.Product{Name: "Honey", CurrentQuantity: 40, TotalCost: 5})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.CurrentQuantity != 0 || p.TotalCost != 0 || p.TotalRevenue != 0 {
		t.Errorf("counters must start at zero, got %+v", p)
	}
	if p.Status != models.ProductDepleted {
		t.Errorf("expected depleted, got %s", p.Status)
	}
}

func TestStore_ApplyDelta(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := productstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, _ := store.Create(ctx, models.Product{Name: "Honey"})

	got, err := store.ApplyDelta(ctx, p.ID, effects.Delta{Quantity: 10, Cost: 200})
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if got.CurrentQuantity != 10 || got.TotalCost != 200 {
		t.Errorf("unexpected counters %+v", got)
	}
	if got.Status != models.ProductActive {
		t.Errorf("expected active after purchase, got %s", got.Status)
	}

	_, err = store.ApplyDelta(ctx, p.ID, effects.Delta{Quantity: -11, Revenue: 50})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	after, _ := store.GetByID(ctx, bson.M{}, p.ID)
	if after.CurrentQuantity != 10 || after.TotalRevenue != 0 {
		t.Errorf("rejected delta changed state: %+v", after)
	}

	got, err = store.ApplyDelta(ctx, p.ID, effects.Delta{Quantity: -10, Revenue: 50})
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if got.CurrentQuantity != 0 || got.Status != models.ProductDepleted {
		t.Errorf("expected depleted at zero, got qty=%v status=%s", got.CurrentQuantity, got.Status)
	}

	if _, err := store.ApplyDelta(ctx, testutil.NewID(), effects.Delta{Quantity: 1}); !errors.Is(err, productstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing product, got %v", err)
	}
}

func TestStore_ArchivedStatusIsSticky(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := productstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, _ := store.Create(ctx, models.Product{Name: "Soap"})
	if _, err := store.SetArchived(ctx, bson.M{}, p.ID, true); err != nil {
		t.Fatalf("SetArchived failed: %v", err)
	}
	got, err := store.ApplyDelta(ctx, p.ID, effects.Delta{Quantity: 3})
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if got.Status != models.ProductArchived {
		t.Errorf("archived product changed status to %s", got.Status)
	}

	got, err = store.SetArchived(ctx, bson.M{}, p.ID, false)
	if err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	if got.Status != models.ProductActive {
		t.Errorf("expected active after unarchive with stock, got %s", got.Status)
	}
}
