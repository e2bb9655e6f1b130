// internal/app/store/products/productstore.go
package productstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/effects"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// depletedAt is the quantity at or below which a product counts as depleted.
const depletedAt = 1e-9

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = fmt.Errorf("product %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("products")}
}

// Create inserts a product with zero counters. A product starts depleted
// because it has no stock until its first purchase.
func (s *Store) Create(ctx context.Context, p models.Product) (models.Product, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.NameCI = text.Fold(p.Name)
	p.CurrentQuantity = 0
	p.TotalCost = 0
	p.TotalRevenue = 0
	p.Status = models.ProductDepleted
	p.CreatedAt = now
	p.UpdatedAt = now
	p.DeletedAt = nil
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// GetByID returns a non-deleted product visible within scope.
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.Product, error) {
	var p models.Product
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, err
	}
	return p, nil
}

// UpdateInfo changes the descriptive fields only. Counters are never
// edited here.
func (s *Store) UpdateInfo(ctx context.Context, scope bson.M, id primitive.ObjectID, name, category, unit string) (models.Product, error) {
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"category":   category,
		"unit":       unit,
		"updated_at": time.Now().UTC(),
	}
	return s.findAndSet(ctx, branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted()), set)
}

// SetArchived archives a product or returns it to active/depleted.
func (s *Store) SetArchived(ctx context.Context, scope bson.M, id primitive.ObjectID, archived bool) (models.Product, error) {
	p, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return models.Product{}, err
	}
	status := models.ProductArchived
	if !archived {
		status = statusFor(p.CurrentQuantity)
	}
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{"status": status, "updated_at": time.Now().UTC()})
}

// SoftDelete marks a product deleted.
func (s *Store) SoftDelete(ctx context.Context, scope bson.M, id primitive.ObjectID) error {
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"deleted_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyDelta adds d to the product's counters in one guarded update. The
// filter requires every counter that d lowers to cover the decrease, so the
// write itself re-checks the balance. A miss on a live product is
// apperr.ErrInsufficientStock and nothing is changed. Counters left within
// depletedAt of zero are snapped to zero, then the status is synced.
//
// The guard tolerates depletedAt of float error: after buying 0.3 and
// selling 0.1 the stored double is 0.19999999999999998, and selling the
// remaining 0.2 must still succeed.
func (s *Store) ApplyDelta(ctx context.Context, id primitive.ObjectID, d effects.Delta) (models.Product, error) {
	filter := bson.M{"_id": id, "deleted_at": nil}
	inc := bson.M{}
	var lowered []string
	guard := func(field string, v float64) {
		if v == 0 {
			return
		}
		inc[field] = v
		if v < 0 {
			filter[field] = bson.M{"$gte": -v - depletedAt}
			lowered = append(lowered, field)
		}
	}
	guard("current_quantity", d.Quantity)
	guard("total_cost", d.Cost)
	guard("total_revenue", d.Revenue)

	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	var p models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, err
		}
		n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id, "deleted_at": nil})
		if cerr != nil {
			return models.Product{}, cerr
		}
		if n == 0 {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, apperr.Shortf(apperr.ErrInsufficientStock, "product %s", id.Hex())
	}
	if p, err = s.snapToZero(ctx, p, lowered); err != nil {
		return models.Product{}, err
	}
	return s.syncStatus(ctx, p)
}

// snapToZero rewrites lowered counters that ended within depletedAt of zero
// as exactly zero. The filter re-reads each value so a concurrent change is
// never overwritten.
func (s *Store) snapToZero(ctx context.Context, p models.Product, lowered []string) (models.Product, error) {
	for _, field := range lowered {
		v := counter(&p, field)
		if v == nil || *v == 0 || math.Abs(*v) > depletedAt {
			continue
		}
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": p.ID, field: bson.M{"$gte": -depletedAt, "$lte": depletedAt}},
			bson.M{"$set": bson.M{field: 0.0}})
		if err != nil {
			return models.Product{}, err
		}
		*v = 0
	}
	return p, nil
}

func counter(p *models.Product, field string) *float64 {
	switch field {
	case "current_quantity":
		return &p.CurrentQuantity
	case "total_cost":
		return &p.TotalCost
	case "total_revenue":
		return &p.TotalRevenue
	}
	return nil
}

// OverwriteCounters replaces the counters with values recomputed from the
// operation log. Used by reconciliation only.
func (s *Store) OverwriteCounters(ctx context.Context, id primitive.ObjectID, qty, cost, revenue float64) (models.Product, error) {
	p, err := s.findAndSet(ctx, bson.M{"_id": id}, bson.M{
		"current_quantity": qty,
		"total_cost":       cost,
		"total_revenue":    revenue,
		"updated_at":       time.Now().UTC(),
	})
	if err != nil {
		return models.Product{}, err
	}
	return s.syncStatus(ctx, p)
}

// List returns non-deleted products in scope sorted by name. status filters
// when non-empty.
func (s *Store) List(ctx context.Context, scope bson.M, status string) ([]models.Product, error) {
	extra := bson.M{}
	if status != "" {
		extra["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	return s.Find(ctx, branchpolicy.Scope(scope, branchpolicy.NotDeleted(), extra), opts)
}

// Find returns products matching filter as given.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Product, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func statusFor(qty float64) string {
	if qty <= depletedAt {
		return models.ProductDepleted
	}
	return models.ProductActive
}

// syncStatus keeps status in step with quantity: depleted exactly when
// quantity is zero. Archived products are left alone.
func (s *Store) syncStatus(ctx context.Context, p models.Product) (models.Product, error) {
	if p.Status == models.ProductArchived {
		return p, nil
	}
	want := statusFor(p.CurrentQuantity)
	if want == p.Status {
		return p, nil
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": p.ID, "status": bson.M{"$ne": models.ProductArchived}},
		bson.M{"$set": bson.M{"status": want}})
	if err != nil {
		return models.Product{}, err
	}
	p.Status = want
	return p, nil
}

func (s *Store) findAndSet(ctx context.Context, filter, set bson.M) (models.Product, error) {
	var p models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, err
	}
	return p, nil
}
