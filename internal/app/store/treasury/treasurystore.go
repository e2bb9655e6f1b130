// internal/app/store/treasury/treasurystore.go
package treasurystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = fmt.Errorf("treasury transaction %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("treasury_transactions")}
}

// Create inserts a transaction.
func (s *Store) Create(ctx context.Context, t models.TreasuryTransaction) (models.TreasuryTransaction, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	if t.Date.IsZero() {
		t.Date = now
	}
	t.CreatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.TreasuryTransaction{}, err
	}
	return t, nil
}

// GetByID returns a transaction visible within scope.
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.TreasuryTransaction, error) {
	var t models.TreasuryTransaction
	if err := s.c.FindOne(ctx, branchpolicy.Scope(scope, bson.M{"_id": id})).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.TreasuryTransaction{}, ErrNotFound
		}
		return models.TreasuryTransaction{}, err
	}
	return t, nil
}

// Delete removes a transaction within scope and returns what was removed.
// Transactions are hard-deleted.
func (s *Store) Delete(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.TreasuryTransaction, error) {
	var t models.TreasuryTransaction
	err := s.c.FindOneAndDelete(ctx, branchpolicy.Scope(scope, bson.M{"_id": id})).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.TreasuryTransaction{}, ErrNotFound
		}
		return models.TreasuryTransaction{}, err
	}
	return t, nil
}

// SetDonor links a transaction to a donor if it has none yet, and reports
// whether the link was made.
func (s *Store) SetDonor(ctx context.Context, id, donorID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "donor_id": nil},
		bson.M{"$set": bson.M{"donor_id": donorID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Unlinked returns income transactions that carry a donor name snapshot but
// no donor reference.
func (s *Store) Unlinked(ctx context.Context) ([]models.TreasuryTransaction, error) {
	return s.Find(ctx, bson.M{
		"type":       models.TxnIncome,
		"donor_id":   nil,
		"donor_name": bson.M{"$nin": bson.A{nil, ""}},
	}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

// ListFilter narrows List. Empty fields are ignored.
type ListFilter struct {
	Type    string
	DonorID *primitive.ObjectID
	Limit   int64
	Offset  int64
}

// List returns transactions in scope, newest first.
func (s *Store) List(ctx context.Context, scope bson.M, f ListFilter) ([]models.TreasuryTransaction, error) {
	extra := bson.M{}
	if f.Type != "" {
		extra["type"] = f.Type
	}
	if f.DonorID != nil {
		extra["donor_id"] = *f.DonorID
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)
	return s.Find(ctx, branchpolicy.Scope(scope, extra), opts)
}

// Find returns transactions matching filter as given.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.TreasuryTransaction, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TreasuryTransaction
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
