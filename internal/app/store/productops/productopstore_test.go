package productopstore_test

import (
	"errors"
	"testing"

	productopstore "github.com/dalemusser/charityhub/internal/app/store/productops"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_Create_AssignsCorrelationID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := productopstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	op, err := store.Create(ctx, models.ProductOperation{ProductID: testutil.NewID(), Type: models.OpPurchase, Quantity: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if op.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
	kept, _ := store.Create(ctx, models.ProductOperation{ProductID: testutil.NewID(), Type: models.OpSale, CorrelationID: "given"})
	if kept.CorrelationID != "given" {
		t.Errorf("expected caller's correlation id, got %q", kept.CorrelationID)
	}
}

func TestStore_MarkDeleted_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := productopstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	op, _ := store.Create(ctx, models.ProductOperation{ProductID: testutil.NewID(), Type: models.OpPurchase, Quantity: 1})

	first, err := store.MarkDeleted(ctx, op.ID)
	if err != nil || !first {
		t.Fatalf("first MarkDeleted: changed=%v err=%v", first, err)
	}
	second, err := store.MarkDeleted(ctx, op.ID)
	if err != nil || second {
		t.Errorf("second MarkDeleted should be a no-op: changed=%v err=%v", second, err)
	}

	got, err := store.GetByID(ctx, bson.M{}, op.ID)
	if err != nil {
		t.Fatalf("GetByID should still see a reversed op: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("expected deleted_at to be set")
	}

	if err := store.Unmark(ctx, op.ID); err != nil {
		t.Fatalf("Unmark failed: %v", err)
	}
	got, _ = store.GetByID(ctx, bson.M{}, op.ID)
	if got.DeletedAt != nil {
		t.Error("expected deleted_at to be cleared")
	}
}

func TestStore_ListForProduct_IncludesTransformTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := productopstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	milk := testutil.NewID()
	cheese := testutil.NewID()
	_, _ = store.Create(ctx, models.ProductOperation{ProductID: milk, Type: models.OpPurchase, Quantity: 10})
	_, _ = store.Create(ctx, models.ProductOperation{ProductID: milk, Type: models.OpTransform, Quantity: 4, TargetProductID: &cheese, TargetQuantity: 1})
	gone, _ := store.Create(ctx, models.ProductOperation{ProductID: cheese, Type: models.OpSale, Quantity: 1})
	_, _ = store.MarkDeleted(ctx, gone.ID)

	ops, err := store.ListForProduct(ctx, cheese)
	if err != nil {
		t.Fatalf("ListForProduct failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Type != models.OpTransform {
		t.Errorf("expected only the transform-in row, got %+v", ops)
	}

	if err := store.HardDelete(ctx, ops[0].ID); err != nil {
		t.Fatalf("HardDelete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, bson.M{}, ops[0].ID); !errors.Is(err, productopstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after hard delete, got %v", err)
	}
}
