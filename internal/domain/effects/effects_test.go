package effects

import (
	"testing"
	"time"

	"github.com/dalemusser/charityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOf(t *testing.T) {
	p := primitive.NewObjectID()
	target := primitive.NewObjectID()

	tests := []struct {
		name string
		op   models.ProductOperation
		want []Delta
	}{
		{"purchase", models.ProductOperation{Type: models.OpPurchase, Quantity: 5, Amount: 100}, []Delta{{Quantity: 5, Cost: 100}}},
		{"expense", models.ProductOperation{Type: models.OpExpense, Quantity: 9, Amount: 30}, []Delta{{Cost: 30}}},
		{"sale", models.ProductOperation{Type: models.OpSale, Quantity: 2, Amount: 60}, []Delta{{Quantity: -2, Revenue: 60}}},
		{"donation", models.ProductOperation{Type: models.OpDonation, Quantity: 1, Amount: 10}, []Delta{{Quantity: -1}}},
		{"donation with cost", models.ProductOperation{Type: models.OpDonation, Quantity: 1, Amount: 10, AmountType: models.AmountCost}, []Delta{{Quantity: -1, Cost: 10}}},
		{"transform no target", models.ProductOperation{Type: models.OpTransform, Quantity: 3}, []Delta{{Quantity: -3}}},
		{"transform with target", models.ProductOperation{Type: models.OpTransform, Quantity: 4, TargetProductID: &target, TargetQuantity: 1}, []Delta{{Quantity: -4}, {Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op.ProductID = p
			got := Of(tt.op)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d changes, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Delta != tt.want[i] {
					t.Errorf("change %d: got %+v, want %+v", i, got[i].Delta, tt.want[i])
				}
			}
			if got[0].ProductID != p {
				t.Error("source product must come first")
			}
		})
	}
}

func TestApplyThenInverseIsIdentity(t *testing.T) {
	target := primitive.NewObjectID()
	for _, typ := range []string{models.OpPurchase, models.OpExpense, models.OpSale, models.OpDonation, models.OpTransform} {
		op := models.ProductOperation{
			ProductID: primitive.NewObjectID(), Type: typ, Quantity: 0.3, Amount: 0.1,
			TargetProductID: &target, TargetQuantity: 0.2, AmountType: models.AmountRevenue,
		}
		fwd, inv := Of(op), Inverse(op)
		for i := range fwd {
			if sum := fwd[i].Delta.Add(inv[i].Delta); !sum.IsZero() {
				t.Errorf("%s: apply+reverse left %+v", typ, sum)
			}
		}
	}
}

func TestDiff(t *testing.T) {
	p := primitive.NewObjectID()
	old := models.ProductOperation{ProductID: p, Type: models.OpSale, Quantity: 2, Amount: 60}
	next := old
	next.Quantity = 5
	next.Amount = 150

	got := Diff(old, next)
	if len(got) != 1 {
		t.Fatalf("expected 1 change, got %d", len(got))
	}
	if want := (Delta{Quantity: -3, Revenue: 90}); got[0].Delta != want {
		t.Errorf("got %+v, want %+v", got[0].Delta, want)
	}

	if len(Diff(old, old)) != 0 {
		t.Error("identical operations should diff to nothing")
	}
}

func TestFold(t *testing.T) {
	milk := primitive.NewObjectID()
	cheese := primitive.NewObjectID()
	deleted := time.Now()
	ops := []models.ProductOperation{
		{ProductID: milk, Type: models.OpPurchase, Quantity: 10, Amount: 50},
		{ProductID: milk, Type: models.OpSale, Quantity: 2, Amount: 20},
		{ProductID: milk, Type: models.OpSale, Quantity: 5, Amount: 50, DeletedAt: &deleted},
		{ProductID: milk, Type: models.OpTransform, Quantity: 4, TargetProductID: &cheese, TargetQuantity: 1},
	}

	if got, want := Fold(milk, ops), (Delta{Quantity: 4, Cost: 50, Revenue: 20}); got != want {
		t.Errorf("milk: got %+v, want %+v", got, want)
	}
	if got, want := Fold(cheese, ops), (Delta{Quantity: 1}); got != want {
		t.Errorf("cheese: got %+v, want %+v", got, want)
	}
}

func TestDelta_AddIsDecimal(t *testing.T) {
	got := Delta{Cost: 0.1}.Add(Delta{Cost: 0.2})
	if got.Cost != 0.3 {
		t.Errorf("expected exact 0.3, got %v", got.Cost)
	}
}
