// internal/app/store/productops/productopstore.go
package productopstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = fmt.Errorf("product operation %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("product_operations")}
}

// Create inserts op. A correlation id is assigned when op has none.
func (s *Store) Create(ctx context.Context, op models.ProductOperation) (models.ProductOperation, error) {
	now := time.Now().UTC()
	op.ID = primitive.NewObjectID()
	if op.CorrelationID == "" {
		op.CorrelationID = uuid.NewString()
	}
	if op.Date.IsZero() {
		op.Date = now
	}
	op.CreatedAt = now
	op.UpdatedAt = now
	op.DeletedAt = nil
	if _, err := s.c.InsertOne(ctx, op); err != nil {
		return models.ProductOperation{}, err
	}
	return op, nil
}

// GetByID returns an operation visible within scope, including a
// soft-deleted one so callers can tell "already reversed" from "missing".
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.ProductOperation, error) {
	var op models.ProductOperation
	if err := s.c.FindOne(ctx, branchpolicy.Scope(scope, bson.M{"_id": id})).Decode(&op); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProductOperation{}, ErrNotFound
		}
		return models.ProductOperation{}, err
	}
	return op, nil
}

// HardDelete removes an operation row outright. Only used to compensate a
// speculative insert whose effect was rejected.
func (s *Store) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// MarkDeleted sets deleted_at if it is unset and reports whether this call
// set it.
func (s *Store) MarkDeleted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Unmark clears deleted_at. Used to undo MarkDeleted when the inverse
// effect could not be applied.
func (s *Store) Unmark(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"deleted_at": ""}})
	return err
}

// UpdateAmounts rewrites the editable fields of a live operation.
func (s *Store) UpdateAmounts(ctx context.Context, id primitive.ObjectID, quantity, amount, targetQty float64, amountType, notes string, date time.Time) (models.ProductOperation, error) {
	set := bson.M{
		"quantity":        quantity,
		"amount":          amount,
		"amount_type":     amountType,
		"target_quantity": targetQty,
		"notes":           notes,
		"updated_at":      time.Now().UTC(),
	}
	if !date.IsZero() {
		set["date"] = date
	}
	var op models.ProductOperation
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "deleted_at": nil}, bson.M{"$set": set}, opts).Decode(&op)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProductOperation{}, ErrNotFound
		}
		return models.ProductOperation{}, err
	}
	return op, nil
}

// ListForProduct returns the live log of a product, newest first. Transform
// rows that produced this product are included.
func (s *Store) ListForProduct(ctx context.Context, productID primitive.ObjectID) ([]models.ProductOperation, error) {
	filter := bson.M{
		"deleted_at": nil,
		"$or": bson.A{
			bson.M{"product_id": productID},
			bson.M{"target_product_id": productID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ProductOperation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
