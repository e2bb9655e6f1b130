// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAdmin  = "admin"
	CategoryLedger = "ledger"
)

// Admin event types
const (
	EventBranchCreated      = "branch_created"
	EventBranchUpdated      = "branch_updated"
	EventBeneficiaryCreated = "beneficiary_created"
	EventBeneficiaryUpdated = "beneficiary_updated"
	EventBeneficiaryDeleted = "beneficiary_deleted"
	EventInitiativeCreated  = "initiative_created"
	EventInitiativeUpdated  = "initiative_updated"
	EventProductCreated     = "product_created"
	EventProductUpdated     = "product_updated"
	EventProductArchived    = "product_archived"
	EventProductDeleted     = "product_deleted"
	EventReconcileRun       = "reconcile_run"
)

// Ledger event types
const (
	EventOperationApplied   = "product_op_applied"
	EventOperationReversed  = "product_op_reversed"
	EventOperationAmended   = "product_op_amended"
	EventLoanCreated        = "loan_created"
	EventRepaymentAdded     = "loan_repayment_added"
	EventRepaymentEdited    = "loan_repayment_edited"
	EventRepaymentDeleted   = "loan_repayment_deleted"
	EventLoanStatusChanged  = "loan_status_changed"
	EventLoanDeleted        = "loan_deleted"
	EventCapitalAdded       = "loan_capital_added"
	EventMovementRecorded   = "warehouse_movement_recorded"
	EventMovementAmended    = "warehouse_movement_amended"
	EventMovementDeleted    = "warehouse_movement_deleted"
	EventTransactionCreated = "treasury_transaction_created"
	EventTransactionDeleted = "treasury_transaction_deleted"
	EventDonorsRelinked     = "donors_relinked"
	EventCompensationFailed = "compensation_failed"
	EventDriftDetected      = "drift_detected"
	EventDriftFixed         = "drift_fixed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp time.Time           `bson:"timestamp"`
	BranchID  *primitive.ObjectID `bson:"branch_id,omitempty"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who and what
	ActorID       *primitive.ObjectID `bson:"actor_id,omitempty"`
	EntityID      *primitive.ObjectID `bson:"entity_id,omitempty"`
	CorrelationID string              `bson:"correlation_id,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	BranchID  *primitive.ObjectID
	EntityID  *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.BranchID != nil {
		query["branch_id"] = filter.BranchID
	}
	if filter.EntityID != nil {
		query["entity_id"] = filter.EntityID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}

// GetByEntity retrieves the history of one ledger entity (loan, operation, movement).
func (s *Store) GetByEntity(ctx context.Context, entityID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{EntityID: &entityID, Limit: limit})
}
