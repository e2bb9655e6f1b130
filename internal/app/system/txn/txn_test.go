package txn_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/charityhub/internal/app/system/txn"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset"), false},
		{"illegal operation code", mongo.CommandError{Code: 20}, true},
		{"not in transaction code", mongo.CommandError{Code: 263}, true},
		{"duplicate key code", mongo.CommandError{Code: 11000, Message: "E11000"}, false},
		{"wrapped code", fmt.Errorf("create loan: %w", mongo.CommandError{Code: 20}), true},
		{"standalone message", errors.New("Transaction numbers are only allowed on a replica set member or mongos"), true},
		{"one keyword only", errors.New("transaction aborted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		_, err := db.Collection("txn_items").InsertOne(ctx, bson.M{"name": "rice"})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	n, err := db.Collection("txn_items").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one stored document, got %d", n)
	}
}

func TestRun_ReturnsFnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	errShort := errors.New("short")
	calls := 0
	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		calls++
		return errShort
	})
	if !errors.Is(err, errShort) {
		t.Fatalf("expected fn's error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("an ordinary error must not be retried, fn ran %d times", calls)
	}
}

func TestRun_FallsBackWhenNotSupported(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	calls := 0
	var direct bool
	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}
		}
		direct = mongo.SessionFromContext(ctx) == nil
		return nil
	})
	if err != nil {
		t.Fatalf("Run should succeed on the direct path: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one transactional and one direct call, got %d", calls)
	}
	if !direct {
		t.Error("fallback call should not carry the session")
	}
}

func TestRun_AbortsOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var hello bson.M
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	if _, ok := hello["setName"]; !ok {
		t.Skip("transactions need a replica set")
	}
	// Create the collection up front; older servers refuse to create it
	// inside a transaction.
	if err := db.CreateCollection(ctx, "txn_items"); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	errShort := errors.New("short")
	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := db.Collection("txn_items").InsertOne(ctx, bson.M{"name": "rice"}); err != nil {
			return err
		}
		return errShort
	})
	if !errors.Is(err, errShort) {
		t.Fatalf("expected fn's error back, got %v", err)
	}
	n, _ := db.Collection("txn_items").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("aborted transaction left %d documents", n)
	}
}
