// internal/app/store/warehouse/warehousestore.go
package warehousestore

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

var ErrNotFound = fmt.Errorf("warehouse movement %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("warehouse_movements")}
}

// Create inserts a movement.
func (s *Store) Create(ctx context.Context, m models.WarehouseMovement) (models.WarehouseMovement, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	if m.Date.IsZero() {
		m.Date = now
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	m.DeletedAt = nil
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.WarehouseMovement{}, err
	}
	return m, nil
}

// GetByID returns a non-deleted movement visible within scope.
func (s *Store) GetByID(ctx context.Context, scope bson.M, id primitive.ObjectID) (models.WarehouseMovement, error) {
	var m models.WarehouseMovement
	filter := branchpolicy.Scope(scope, bson.M{"_id": id}, branchpolicy.NotDeleted())
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.WarehouseMovement{}, ErrNotFound
		}
		return models.WarehouseMovement{}, err
	}
	return m, nil
}

// Replace rewrites the editable fields of a live movement.
func (s *Store) Replace(ctx context.Context, m models.WarehouseMovement) (models.WarehouseMovement, error) {
	set := bson.M{
		"type":       m.Type,
		"category":   m.Category,
		"item_name":  m.ItemName,
		"item_label": m.ItemLabel,
		"quantity":   m.Quantity,
		"value":      m.Value,
		"notes":      m.Notes,
		"date":       m.Date,
		"updated_at": time.Now().UTC(),
	}
	var out models.WarehouseMovement
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": m.ID, "deleted_at": nil}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.WarehouseMovement{}, ErrNotFound
		}
		return models.WarehouseMovement{}, err
	}
	return out, nil
}

// SoftDelete marks a movement deleted.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter narrows List. Empty fields are ignored.
type ListFilter struct {
	Category string
	ItemName string
	Limit    int64
	Offset   int64
}

// List returns live movements in scope, newest first.
func (s *Store) List(ctx context.Context, scope bson.M, f ListFilter) ([]models.WarehouseMovement, error) {
	extra := bson.M{}
	if f.Category != "" {
		extra["category"] = f.Category
	}
	if f.ItemName != "" {
		extra["item_name"] = f.ItemName
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)
	cur, err := s.c.Find(ctx, branchpolicy.Scope(scope, branchpolicy.NotDeleted(), extra), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.WarehouseMovement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
