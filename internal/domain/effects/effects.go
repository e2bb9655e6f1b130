// Package effects is the table of what each product operation does to
// product counters. Apply, reverse, amend and log replay all read it, so the
// counters and the log cannot disagree about an operation's meaning.
package effects

import (
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delta is a signed change to a product's counters.
type Delta struct {
	Quantity float64
	Cost     float64
	Revenue  float64
}

// IsZero reports whether d changes nothing.
func (d Delta) IsZero() bool {
	return d.Quantity == 0 && d.Cost == 0 && d.Revenue == 0
}

// Neg returns the inverse delta.
func (d Delta) Neg() Delta {
	return Delta{Quantity: -d.Quantity, Cost: -d.Cost, Revenue: -d.Revenue}
}

// Add returns d + o computed in decimal.
func (d Delta) Add(o Delta) Delta {
	return Delta{
		Quantity: add(d.Quantity, o.Quantity),
		Cost:     add(d.Cost, o.Cost),
		Revenue:  add(d.Revenue, o.Revenue),
	}
}

// Sub returns d - o computed in decimal.
func (d Delta) Sub(o Delta) Delta {
	return d.Add(o.Neg())
}

func add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// Change is the effect of one operation on one product.
type Change struct {
	ProductID primitive.ObjectID
	Delta     Delta
}

// Of returns the changes applying op makes. The source product always comes
// first; a transform with a target adds a second change for the target.
//
//	purchase   +quantity, +amount cost
//	expense    +amount cost
//	sale       -quantity, +amount revenue
//	donation   -quantity
//	transform  -quantity on the source, +target quantity on the target
//
// Donations and transforms book their amount only when an amount type is given.
func Of(op models.ProductOperation) []Change {
	var src Delta
	switch op.Type {
	case models.OpPurchase:
		src = Delta{Quantity: op.Quantity, Cost: op.Amount}
	case models.OpExpense:
		src = Delta{Cost: op.Amount}
	case models.OpSale:
		src = Delta{Quantity: -op.Quantity, Revenue: op.Amount}
	case models.OpDonation, models.OpTransform:
		src = Delta{Quantity: -op.Quantity}
		switch op.AmountType {
		case models.AmountCost:
			src.Cost = op.Amount
		case models.AmountRevenue:
			src.Revenue = op.Amount
		}
	}
	out := []Change{{ProductID: op.ProductID, Delta: src}}
	if op.Type == models.OpTransform && op.TargetProductID != nil && op.TargetQuantity != 0 {
		out = append(out, Change{ProductID: *op.TargetProductID, Delta: Delta{Quantity: op.TargetQuantity}})
	}
	return out
}

// Inverse returns the changes that undo op, in the same product order as Of.
func Inverse(op models.ProductOperation) []Change {
	out := Of(op)
	for i := range out {
		out[i].Delta = out[i].Delta.Neg()
	}
	return out
}

// Diff returns the per-product changes that turn the effects of old into
// those of next. Products whose delta is zero are omitted.
func Diff(old, next models.ProductOperation) []Change {
	var order []primitive.ObjectID
	net := map[primitive.ObjectID]Delta{}
	collect := func(cs []Change, sign bool) {
		for _, c := range cs {
			if _, ok := net[c.ProductID]; !ok {
				order = append(order, c.ProductID)
			}
			d := c.Delta
			if !sign {
				d = d.Neg()
			}
			net[c.ProductID] = net[c.ProductID].Add(d)
		}
	}
	collect(Of(next), true)
	collect(Of(old), false)

	var out []Change
	for _, id := range order {
		if d := net[id]; !d.IsZero() {
			out = append(out, Change{ProductID: id, Delta: d})
		}
	}
	return out
}

// Fold replays ops and returns the net counters they imply for productID.
// Deleted operations are skipped.
func Fold(productID primitive.ObjectID, ops []models.ProductOperation) Delta {
	q, c, r := decimal.Zero, decimal.Zero, decimal.Zero
	for _, op := range ops {
		if op.DeletedAt != nil {
			continue
		}
		for _, ch := range Of(op) {
			if ch.ProductID != productID {
				continue
			}
			q = q.Add(decimal.NewFromFloat(ch.Delta.Quantity))
			c = c.Add(decimal.NewFromFloat(ch.Delta.Cost))
			r = r.Add(decimal.NewFromFloat(ch.Delta.Revenue))
		}
	}
	return Delta{Quantity: q.InexactFloat64(), Cost: c.InexactFloat64(), Revenue: r.InexactFloat64()}
}
