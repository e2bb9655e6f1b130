// internal/app/store/donors/donorstore.go
package donorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/normalize"
	"github.com/dalemusser/charityhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the global donor registry. Donors are shared by all branches.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = fmt.Errorf("donor %w", apperr.ErrNotFound)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donors")}
}

// FindOrCreate returns the donor whose normalized name matches name,
// inserting one when none exists. The upsert is atomic on name_normalized
// and a duplicate-key race is resolved by reading the winner.
func (s *Store) FindOrCreate(ctx context.Context, name, phone string) (models.Donor, error) {
	display := normalize.Name(name)
	key := normalize.Key(display)
	if key == "" {
		return models.Donor{}, apperr.Invalid("donor_name", "donor name is required")
	}
	now := time.Now().UTC()
	insert := bson.M{
		"_id":             primitive.NewObjectID(),
		"name":            display,
		"total_donated":   0.0,
		"donations_count": int64(0),
		"created_at":      now,
		"updated_at":      now,
	}
	if phone != "" {
		insert["phone"] = phone
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d models.Donor
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"name_normalized": key},
		bson.M{"$setOnInsert": insert},
		opts).Decode(&d)
	if err == nil {
		return d, nil
	}
	if !wafflemongo.IsDup(err) {
		return models.Donor{}, err
	}
	// Lost the race to a concurrent insert of the same name.
	if err := s.c.FindOne(ctx, bson.M{"name_normalized": key}).Decode(&d); err != nil {
		return models.Donor{}, err
	}
	return d, nil
}

// GetByID returns a donor.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donor, error) {
	var d models.Donor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donor{}, ErrNotFound
		}
		return models.Donor{}, err
	}
	return d, nil
}

// FindByName matches a stored donor name loosely: anchored, case-insensitive,
// and tolerant of runs of whitespace. Used to relink legacy transactions.
func (s *Store) FindByName(ctx context.Context, name string) (models.Donor, error) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return models.Donor{}, ErrNotFound
	}
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pattern := `^\s*` + strings.Join(parts, `\s+`) + `\s*$`

	var d models.Donor
	err := s.c.FindOne(ctx, bson.M{"name": primitive.Regex{Pattern: pattern, Options: "i"}}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Donor{}, ErrNotFound
		}
		return models.Donor{}, err
	}
	return d, nil
}

// AdjustTotals adds amount and count to the donor's running totals. When
// count is positive the last donation date moves forward to at.
func (s *Store) AdjustTotals(ctx context.Context, id primitive.ObjectID, amount float64, count int64, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{"total_donated": amount, "donations_count": count},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if count > 0 && !at.IsZero() {
		update["$max"] = bson.M{"last_donation_date": at.UTC()}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTotals overwrites the running totals. Used by reconciliation only.
func (s *Store) SetTotals(ctx context.Context, id primitive.ObjectID, total float64, count int64) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"total_donated":   total,
		"donations_count": count,
		"updated_at":      time.Now().UTC(),
	}})
	return err
}

// List returns donors sorted by name. q filters by normalized-name prefix.
func (s *Store) List(ctx context.Context, q string, limit int64) ([]models.Donor, error) {
	filter := bson.M{}
	if key := normalize.Key(q); key != "" {
		filter["name_normalized"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(key)}
	}
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_normalized", Value: 1}}).SetLimit(limit)
	return s.Find(ctx, filter, opts)
}

// Find returns donors matching filter as given.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Donor, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Donor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
