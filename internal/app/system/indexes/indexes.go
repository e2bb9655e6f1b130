// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"branches", ensureBranches},
		{"beneficiaries", ensureBeneficiaries},
		{"loans", ensureLoans},
		{"loan_capital", ensureLoanCapital},
		{"products", ensureProducts},
		{"product_operations", ensureProductOperations},
		{"warehouse_movements", ensureWarehouseMovements},
		{"donors", ensureDonors},
		{"treasury_transactions", ensureTreasury},
		{"initiatives", ensureInitiatives},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Name or options differ: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)",
					coll.Name(), desiredName, desiredSig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

// branchScoped is the compound index every branch-partitioned list uses:
// scope filter on branch_id, soft-delete filter, then a sort key.
func branchScoped(prefix, sortKey string, sortDir int) mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{
			{Key: "branch_id", Value: 1},
			{Key: "deleted_at", Value: 1},
			{Key: sortKey, Value: sortDir},
		},
		Options: options.Index().SetName(fmt.Sprintf("idx_%s_branch_deleted_%s", prefix, sortKey)),
	}
}

func ensureBranches(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("branches"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_branches_code"),
		},
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_branches_active_nameci"),
		},
	})
}

func ensureBeneficiaries(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("beneficiaries"), []mongo.IndexModel{
		branchScoped("beneficiaries", "priority", -1),
		{
			Keys:    bson.D{{Key: "national_id", Value: 1}},
			Options: options.Index().SetName("idx_beneficiaries_national_id"),
		},
	})
}

func ensureLoans(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("loans"), []mongo.IndexModel{
		branchScoped("loans", "created_at", -1),
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "branch_id", Value: 1}},
			Options: options.Index().SetName("idx_loans_status_branch"),
		},
	})
}

func ensureLoanCapital(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("loan_capital"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "branch_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_loancapital_branch_date"),
		},
	})
}

func ensureProducts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("products"), []mongo.IndexModel{
		branchScoped("products", "name_ci", 1),
	})
}

func ensureProductOperations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("product_operations"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "deleted_at", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().SetName("idx_productops_product_deleted_date"),
		},
		// transform-in rows are found by target when recomputing a balance
		{
			Keys:    bson.D{{Key: "target_product_id", Value: 1}, {Key: "deleted_at", Value: 1}},
			Options: options.Index().SetName("idx_productops_target_deleted"),
		},
		{
			Keys:    bson.D{{Key: "correlation_id", Value: 1}},
			Options: options.Index().SetName("idx_productops_correlation"),
		},
	})
}

func ensureWarehouseMovements(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("warehouse_movements"), []mongo.IndexModel{
		branchScoped("warehouse", "date", -1),
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "item_name", Value: 1},
				{Key: "branch_id", Value: 1},
			},
			Options: options.Index().SetName("idx_warehouse_category_item_branch"),
		},
	})
}

func ensureDonors(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("donors"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_normalized", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_donors_name_normalized"),
		},
	})
}

func ensureTreasury(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("treasury_transactions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "branch_id", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_treasury_branch_date"),
		},
		{
			Keys:    bson.D{{Key: "donor_id", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetName("idx_treasury_donor_type"),
		},
	})
}

func ensureInitiatives(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("initiatives"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "branch_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_initiatives_branch_created"),
		},
		{
			Keys:    bson.D{{Key: "fan_out_id", Value: 1}},
			Options: options.Index().SetName("idx_initiatives_fanout"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "branch_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_branch_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
