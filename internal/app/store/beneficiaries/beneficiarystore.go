// internal/app/store/beneficiaries/beneficiarystore.go
package beneficiarystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/domain/priority"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = fmt.Errorf("beneficiary %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("beneficiaries")}
}

// Create inserts b with its priority computed from the profile.
func (s *Store) Create(ctx context.Context, b models.Beneficiary) (models.Beneficiary, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.NameCI = text.Fold(b.Name)
	b.Priority = priority.Score(priority.FromBeneficiary(b))
	b.CreatedAt = now
	b.UpdatedAt = now
	b.DeletedAt = nil
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Beneficiary{}, err
	}
	return b, nil
}

// GetByID returns a non-deleted beneficiary visible within scope.
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.Beneficiary, error) {
	var b models.Beneficiary
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	if err := s.c.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Beneficiary{}, ErrNotFound
		}
		return models.Beneficiary{}, err
	}
	return b, nil
}

// Update replaces the identity and profile fields of a beneficiary and
// rewrites its priority. BranchID is not changed.
func (s *Store) Update(ctx context.Context, scope bson.M, id primitive.ObjectID, b models.Beneficiary) (models.Beneficiary, error) {
	set := bson.M{
		"name":           b.Name,
		"name_ci":        text.Fold(b.Name),
		"national_id":    b.NationalID,
		"phone":          b.Phone,
		"income":         b.Income,
		"spouse_income":  b.SpouseIncome,
		"rental_cost":    b.RentalCost,
		"family_members": b.FamilyMembers,
		"marital_status": b.MaritalStatus,
		"health_status":  b.HealthStatus,
		"priority":       priority.Score(priority.FromBeneficiary(b)),
		"updated_at":     time.Now().UTC(),
	}

	var out models.Beneficiary
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Beneficiary{}, ErrNotFound
		}
		return models.Beneficiary{}, err
	}
	return out, nil
}

// SoftDelete marks a beneficiary deleted.
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

// List returns non-deleted beneficiaries in scope, neediest first.
func (s *Store) List(ctx context.Context, scope bson.M, limit, offset int64) ([]models.Beneficiary, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := s.c.Find(ctx, branchpolicy.Scope(scope, branchpolicy.NotDeleted()), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Beneficiary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of non-deleted beneficiaries in scope.
func (s *Store) Count(ctx context.Context, scope bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, branchpolicy.Scope(scope, branchpolicy.NotDeleted()))
}

// Rescore recomputes every stored priority and rewrites the ones that
// changed. It returns how many were rewritten.
func (s *Store) Rescore(ctx context.Context, log *zap.Logger) (int, error) {
	cur, err := s.c.Find(ctx, branchpolicy.NotDeleted())
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	changed := 0
	for cur.Next(ctx) {
		var b models.Beneficiary
		if err := cur.Decode(&b); err != nil {
			log.Warn("skipping undecodable beneficiary", zap.Error(err))
			continue
		}
		want := priority.Score(priority.FromBeneficiary(b))
		if want == b.Priority {
			continue
		}
		if _, err := s.c.UpdateByID(ctx, b.ID, bson.M{"$set": bson.M{"priority": want}}); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, cur.Err()
}
