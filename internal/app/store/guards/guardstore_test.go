package guardstore_test

import (
	"errors"
	"testing"
	"time"

	guardstore "github.com/dalemusser/charityhub/internal/app/store/guards"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestKey(t *testing.T) {
	id := testutil.NewID()
	if got := guardstore.Key(guardstore.LoanFund, &id); got != "loanfund:"+id.Hex() {
		t.Errorf("Key = %q", got)
	}
	if got := guardstore.Key(guardstore.Warehouse, nil); got != "warehouse:unassigned" {
		t.Errorf("Key(nil) = %q", got)
	}
}

func TestHold_BusyPoolConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := guardstore.New(db).WithWait(50 * time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := guardstore.Key(guardstore.LoanFund, nil)
	release, err := store.Hold(ctx, key)
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}
	if _, err := store.Hold(ctx, key); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second holder: expected ErrConflict, got %v", err)
	}

	release()
	again, err := store.Hold(ctx, key)
	if err != nil {
		t.Fatalf("Hold after release failed: %v", err)
	}
	again()

	seq, err := store.Seq(ctx, key)
	if err != nil {
		t.Fatalf("Seq failed: %v", err)
	}
	if seq != 2 {
		t.Errorf("expected seq 2 after two holds, got %d", seq)
	}
}

func TestHold_WaitsForRelease(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := guardstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := guardstore.Key(guardstore.Warehouse, nil)
	release, err := store.Hold(ctx, key)
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()

	start := time.Now()
	second, err := store.Hold(ctx, key)
	if err != nil {
		t.Fatalf("waiting holder failed: %v", err)
	}
	defer second()
	if time.Since(start) < 20*time.Millisecond {
		t.Error("second holder should have waited for the first")
	}
}

func TestHold_PartialFailureReleasesTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := guardstore.New(db).WithWait(20 * time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewID()
	free := guardstore.Key(guardstore.LoanFund, &a)
	busy := guardstore.Key(guardstore.LoanFund, nil)

	release, err := store.Hold(ctx, busy)
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}
	defer release()

	if _, err := store.Hold(ctx, free, busy); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// The key taken before the busy one must have been given back.
	r, err := store.Hold(ctx, free)
	if err != nil {
		t.Fatalf("free key still held: %v", err)
	}
	r()
}

func TestHold_ExpiredLeaseIsTakenOver(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := guardstore.New(db).WithWait(20 * time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := guardstore.Key(guardstore.LoanFund, nil)
	if _, err := db.Collection("ledger_guards").InsertOne(ctx, bson.M{
		"_id": key, "holder": "crashed", "until": time.Now().Add(-time.Minute), "seq": int64(7),
	}); err != nil {
		t.Fatalf("insert stale lease: %v", err)
	}

	release, err := store.Hold(ctx, key)
	if err != nil {
		t.Fatalf("expired lease should be taken over: %v", err)
	}
	release()
	if seq, _ := store.Seq(ctx, key); seq != 8 {
		t.Errorf("expected seq 8, got %d", seq)
	}
}

func TestHold_DuplicateKeysTakenOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := guardstore.New(db).WithWait(20 * time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := guardstore.Key(guardstore.Warehouse, nil)
	release, err := store.Hold(ctx, key, key)
	if err != nil {
		t.Fatalf("Hold with a repeated key failed: %v", err)
	}
	release()
}
