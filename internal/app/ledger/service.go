// Package ledger applies, reverses and amends every money and stock mutation.
//
// Each mutation runs as one read-validate-write sequence inside txn.Run.
// Counters that must not go negative are updated with guarded conditional
// writes, and pooled branch balances are serialized through a guard document,
// so two concurrent writers cannot both pass a check against a stale balance.
package ledger

import (
	"context"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	beneficiarystore "github.com/dalemusser/charityhub/internal/app/store/beneficiaries"
	branchstore "github.com/dalemusser/charityhub/internal/app/store/branches"
	donorstore "github.com/dalemusser/charityhub/internal/app/store/donors"
	guardstore "github.com/dalemusser/charityhub/internal/app/store/guards"
	loancapitalstore "github.com/dalemusser/charityhub/internal/app/store/loancapital"
	loanstore "github.com/dalemusser/charityhub/internal/app/store/loans"
	productopstore "github.com/dalemusser/charityhub/internal/app/store/productops"
	productstore "github.com/dalemusser/charityhub/internal/app/store/products"
	treasurystore "github.com/dalemusser/charityhub/internal/app/store/treasury"
	warehousestore "github.com/dalemusser/charityhub/internal/app/store/warehouse"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"github.com/dalemusser/charityhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxRetries bounds optimistic retries on a loan before ErrConflict.
const DefaultMaxRetries = 5

// compensationAttempts is how many times a speculative row delete is tried.
const compensationAttempts = 3

// Service is the ledger write path. It is safe for concurrent use.
type Service struct {
	db         *mongo.Database
	log        *zap.Logger
	audit      *auditlog.Logger
	maxRetries int

	branches      *branchstore.Store
	beneficiaries *beneficiarystore.Store
	products      *productstore.Store
	ops           *productopstore.Store
	loans         *loanstore.Store
	capital       *loancapitalstore.Store
	movements     *warehousestore.Store
	donors        *donorstore.Store
	treasury      *treasurystore.Store
	guards        *guardstore.Store
}

// New builds a Service over db. audit may be nil. maxRetries <= 0 uses
// DefaultMaxRetries.
func New(db *mongo.Database, log *zap.Logger, audit *auditlog.Logger, maxRetries int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{
		db:            db,
		log:           log,
		audit:         audit,
		maxRetries:    maxRetries,
		branches:      branchstore.New(db),
		beneficiaries: beneficiarystore.New(db),
		products:      productstore.New(db),
		ops:           productopstore.New(db),
		loans:         loanstore.New(db),
		capital:       loancapitalstore.New(db),
		movements:     warehousestore.New(db),
		donors:        donorstore.New(db),
		treasury:      treasurystore.New(db),
		guards:        guardstore.New(db),
	}
}

func (s *Service) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, s.db, s.log, fn)
}

// writeBranch resolves where p's write lands. A branch a superadmin names
// must exist and be active; other roles always write to their own.
func (s *Service) writeBranch(ctx context.Context, p branchpolicy.Principal, requested *primitive.ObjectID) (*primitive.ObjectID, error) {
	branch, err := branchpolicy.WriteBranch(p, requested)
	if err != nil {
		return nil, err
	}
	if p.IsSuperAdmin() && branch != nil {
		if err := s.branches.CheckWritable(ctx, *branch); err != nil {
			return nil, err
		}
	}
	return branch, nil
}

// withPool runs fn in a transaction while holding the lease on every pool
// of kind that BalanceScope(p, branch) reads: the branch's own pool and,
// when the scope also counts unassigned rows, the unassigned pool.
func (s *Service) withPool(ctx context.Context, kind string, p branchpolicy.Principal, branch *primitive.ObjectID, fn func(ctx context.Context) error) error {
	keys := []string{guardstore.Key(kind, branch)}
	if branchpolicy.BalanceIncludesUnassigned(p, branch) {
		keys = append(keys, guardstore.Key(kind, nil))
	}
	release, err := s.guards.Hold(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()
	return s.inTxn(ctx, fn)
}

// requireWriter rejects read-only principals.
func requireWriter(p branchpolicy.Principal) error {
	if !branchpolicy.CanWrite(p) {
		return apperr.ErrForbidden
	}
	return nil
}

// actor returns the principal's user id as an ObjectID pointer for CreatedBy.
func actor(p branchpolicy.Principal) *primitive.ObjectID {
	if oid, err := primitive.ObjectIDFromHex(p.UserID); err == nil {
		return &oid
	}
	return nil
}

// readScope is what p may read, with no override.
func readScope(p branchpolicy.Principal) bson.M {
	return branchpolicy.ResolveFilter(p, nil)
}
