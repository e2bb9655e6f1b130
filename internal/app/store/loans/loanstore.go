// internal/app/store/loans/loanstore.go
package loanstore

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

var (
	ErrNotFound = fmt.Errorf("loan %w", apperr.ErrNotFound)

	// ErrStale means the loan changed since it was read; reload and retry.
	ErrStale = errors.New("loan version is stale")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("loans")}
}

// Create inserts a new active loan with no repayments.
func (s *Store) Create(ctx context.Context, l models.Loan) (models.Loan, error) {
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	l.AmountPaid = 0
	l.Status = models.LoanActive
	l.Repayments = []models.Repayment{}
	l.Version = 1
	l.CreatedAt = now
	l.UpdatedAt = now
	l.DeletedAt = nil
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Loan{}, err
	}
	return l, nil
}

// GetByID returns a non-deleted loan visible within scope.
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.Loan, error) {
	var l models.Loan
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	if err := s.c.FindOne(ctx, filter).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Loan{}, ErrNotFound
		}
		return models.Loan{}, err
	}
	return l, nil
}

// SaveState writes the repayment list, amount paid and status of l, provided
// the stored version still equals l.Version. The version is bumped on success.
func (s *Store) SaveState(ctx context.Context, l models.Loan) (models.Loan, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": l.ID, "version": l.Version, "deleted_at": nil}
	update := bson.M{
		"$set": bson.M{
			"repayments":  l.Repayments,
			"amount_paid": l.AmountPaid,
			"status":      l.Status,
			"updated_at":  now,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.Loan{}, err
	}
	if res.MatchedCount == 0 {
		return models.Loan{}, ErrStale
	}
	l.Version++
	l.UpdatedAt = now
	return l, nil
}

// SoftDelete marks a loan deleted; it then drops out of every aggregate.
func (s *Store) SoftDelete(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.Loan, error) {
	var l models.Loan
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Loan{}, ErrNotFound
		}
		return models.Loan{}, err
	}
	return l, nil
}

// List returns non-deleted loans in scope, newest first. status filters
// when non-empty.
func (s *Store) List(ctx context.Context, scope bson.M, status string, limit, offset int64) ([]models.Loan, error) {
	if limit <= 0 {
		limit = 50
	}
	extra := bson.M{}
	if status != "" {
		extra["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	return s.Find(ctx, branchpolicy.Scope(scope, branchpolicy.NotDeleted(), extra), opts)
}

// Find returns loans matching filter as given (deleted rows included unless
// the filter excludes them).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Loan, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var loans []models.Loan
	if err := cur.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}
