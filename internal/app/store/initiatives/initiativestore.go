// internal/app/store/initiatives/initiativestore.go
package initiativestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = fmt.Errorf("initiative %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("initiatives")}
}

func prepare(in models.Initiative, now time.Time) models.Initiative {
	in.ID = primitive.NewObjectID()
	in.NameCI = text.Fold(in.Name)
	if in.Status == "" {
		in.Status = models.InitiativePlanned
	}
	in.CreatedAt = now
	in.UpdatedAt = now
	return in
}

// Create inserts one initiative.
func (s *Store) Create(ctx context.Context, in models.Initiative) (models.Initiative, error) {
	in = prepare(in, time.Now().UTC())
	if _, err := s.c.InsertOne(ctx, in); err != nil {
		return models.Initiative{}, err
	}
	return in, nil
}

// CreateMany inserts copies of in, one per branch, sharing a fresh fan-out id.
func (s *Store) CreateMany(ctx context.Context, in models.Initiative, branches []primitive.ObjectID) ([]models.Initiative, error) {
	if len(branches) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	fanOut := primitive.NewObjectID()
	out := make([]models.Initiative, 0, len(branches))
	docs := make([]interface{}, 0, len(branches))
	for _, b := range branches {
		b := b
		cp := prepare(in, now)
		cp.BranchID = &b
		cp.FanOutID = &fanOut
		out = append(out, cp)
		docs = append(docs, cp)
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns an initiative visible within scope.
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.Initiative, error) {
	var in models.Initiative
	if err := s.c.FindOne(ctx, branchpolicy.Scope(scope, bson.M{"_id": id})).Decode(&in); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Initiative{}, ErrNotFound
		}
		return models.Initiative{}, err
	}
	return in, nil
}

// UpdateStatus sets the status of an initiative within scope.
func (s *Store) UpdateStatus(ctx context.Context, scope bson.M, id primitive.ObjectID, status string) (models.Initiative, error) {
	var in models.Initiative
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx,
		branchpolicy.Scope(scope, bson.M{"_id": id}),
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		opts).Decode(&in)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Initiative{}, ErrNotFound
		}
		return models.Initiative{}, err
	}
	return in, nil
}

// List returns initiatives in scope, newest first. status filters when non-empty.
func (s *Store) List(ctx context.Context, scope bson.M, status string) ([]models.Initiative, error) {
	extra := bson.M{}
	if status != "" {
		extra["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, branchpolicy.Scope(scope, extra), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Initiative
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
