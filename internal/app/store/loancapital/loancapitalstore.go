// internal/app/store/loancapital/loancapitalstore.go
package loancapitalstore

import (
	"context"
	"time"

	"github.com/dalemusser/charityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds capital contributions. Entries are append-only.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("loan_capital")}
}

// Create appends a capital entry.
func (s *Store) Create(ctx context.Context, lc models.LoanCapital) (models.LoanCapital, error) {
	lc.ID = primitive.NewObjectID()
	lc.CreatedAt = time.Now().UTC()
	if lc.Date.IsZero() {
		lc.Date = lc.CreatedAt
	}
	if _, err := s.c.InsertOne(ctx, lc); err != nil {
		return models.LoanCapital{}, err
	}
	return lc, nil
}

// List returns capital entries in scope, newest first.
func (s *Store) List(ctx context.Context, scope bson.M, limit int64) ([]models.LoanCapital, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, scope, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LoanCapital
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
