// internal/app/store/branches/branchstore.go
package branchstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/normalize"
	"github.com/dalemusser/charityhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateCode = fmt.Errorf("a branch with this code already exists: %w", apperr.ErrConflict)
	ErrNotFound      = fmt.Errorf("branch %w", apperr.ErrNotFound)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("branches")}
}

// Create inserts a new, active branch. Code is stored uppercase.
func (s *Store) Create(ctx context.Context, b models.Branch) (models.Branch, error) {
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.Name = normalize.Name(b.Name)
	b.NameCI = text.Fold(b.Name)
	b.Code = normalize.Code(b.Code)
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Branch{}, ErrDuplicateCode
		}
		return models.Branch{}, err
	}
	return b, nil
}

// GetByID retrieves a branch by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Branch, error) {
	var b models.Branch
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Branch{}, ErrNotFound
		}
		return models.Branch{}, err
	}
	return b, nil
}

// CheckWritable returns nil when new records may be filed under id: the
// branch exists and is active.
func (s *Store) CheckWritable(ctx context.Context, id primitive.ObjectID) error {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.IsActive {
		return apperr.Invalid("branch_id", "branch %s is inactive", b.Code)
	}
	return nil
}

// Patch lists the mutable branch fields; nil means unchanged.
type Patch struct {
	Name     *string
	Code     *string
	IsActive *bool
}

// Update applies p and returns the updated branch.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Branch, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		name := normalize.Name(*p.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if p.Code != nil {
		set["code"] = normalize.Code(*p.Code)
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}

	var b models.Branch
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Branch{}, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return models.Branch{}, ErrDuplicateCode
		}
		return models.Branch{}, err
	}
	return b, nil
}

// List returns branches sorted by name. activeOnly hides inactive branches.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var branches []models.Branch
	if err := cur.All(ctx, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// ActiveIDs returns the ids of every active branch, for fan-out creates.
func (s *Store) ActiveIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	branches, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(branches))
	for _, b := range branches {
		ids = append(ids, b.ID)
	}
	return ids, nil
}
