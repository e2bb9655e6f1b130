// internal/app/store/guards/guardstore.go
package guardstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Guard kinds. A pooled balance is guarded per kind and branch.
const (
	LoanFund  = "loanfund"
	Warehouse = "warehouse"
)

const (
	// LeaseTTL bounds how long a crashed holder can block a pool.
	LeaseTTL = 30 * time.Second
	// DefaultWait is how long Hold waits for a busy pool before ErrConflict.
	DefaultWait = 10 * time.Second
)

// Store serializes writers of a pooled balance with leases on guard
// documents. A writer holds the lease for every pool it reads across its
// whole read-check-write, so a second writer reads the balance only after
// the first has committed. This holds with or without a transaction.
type Store struct {
	c    *mongo.Collection
	wait time.Duration
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ledger_guards"), wait: DefaultWait}
}

// WithWait returns a copy of s that gives up on a busy pool after d.
func (s *Store) WithWait(d time.Duration) *Store {
	cp := *s
	cp.wait = d
	return &cp
}

// Key names the guard for kind in branch. Records without a branch share one guard.
func Key(kind string, branch *primitive.ObjectID) string {
	if branch == nil {
		return kind + ":unassigned"
	}
	return kind + ":" + branch.Hex()
}

// Hold takes the lease on every key and returns the func that gives them
// back. Keys are taken in sorted order so two writers over overlapping
// pools cannot deadlock. When a key stays busy past the store's wait, Hold
// releases what it took and returns apperr.ErrConflict.
func (s *Store) Hold(ctx context.Context, keys ...string) (func(), error) {
	keys = dedupe(keys)
	token := uuid.NewString()
	var taken []string
	release := func() {
		// The caller's context may already be cancelled; the leases must
		// still be returned.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		for _, k := range taken {
			_, _ = s.c.UpdateOne(rctx,
				bson.M{"_id": k, "holder": token},
				bson.M{"$unset": bson.M{"holder": "", "until": ""}})
		}
	}
	for _, k := range keys {
		if err := s.acquire(ctx, k, token); err != nil {
			release()
			return nil, err
		}
		taken = append(taken, k)
	}
	return release, nil
}

func (s *Store) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(s.wait)
	backoff := 2 * time.Millisecond
	for {
		now := time.Now().UTC()
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": key, "$or": bson.A{
				bson.M{"holder": nil},
				bson.M{"until": bson.M{"$lt": now}},
			}},
			bson.M{
				"$set": bson.M{"holder": token, "until": now.Add(LeaseTTL)},
				"$inc": bson.M{"seq": int64(1)},
			},
			options.Update().SetUpsert(true))
		if err == nil {
			return nil
		}
		// A held lease fails the filter, and the upsert then collides with
		// the existing _id.
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		if time.Now().After(deadline) {
			return apperr.ErrConflict
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 100*time.Millisecond {
			backoff *= 2
		}
	}
}

// Seq returns the number of times key has been held, or 0 if never.
func (s *Store) Seq(ctx context.Context, key string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	return doc.Seq, err
}

func dedupe(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
