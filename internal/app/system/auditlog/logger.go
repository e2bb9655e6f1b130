// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for branch, beneficiary and initiative changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
	// Ledger controls logging for money and stock mutations, relink and drift events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Ledger string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// oidPtr converts a hex id from a session principal; invalid or empty gives nil.
func oidPtr(hex string) *primitive.ObjectID {
	if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
		return &oid
	}
	return nil
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.BranchID != nil {
		fields = append(fields, zap.String("branch_id", event.BranchID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.EntityID != nil {
		fields = append(fields, zap.String("entity_id", event.EntityID.Hex()))
	}
	if event.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", event.CorrelationID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryLedger:
		setting = l.config.Ledger
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Admin Events ---

// AdminAction logs a branch, beneficiary or initiative change made through the API.
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, actorID, eventType string, entityID primitive.ObjectID, branchID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   oidPtr(actorID),
		EntityID:  &entityID,
		BranchID:  branchID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

// --- Ledger Events ---

// LedgerAction logs a committed ledger mutation.
func (l *Logger) LedgerAction(ctx context.Context, actorID, eventType string, entityID primitive.ObjectID, branchID *primitive.ObjectID, correlationID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryLedger,
		EventType:     eventType,
		ActorID:       oidPtr(actorID),
		EntityID:      &entityID,
		BranchID:      branchID,
		CorrelationID: correlationID,
		Success:       true,
		Details:       details,
	})
}

// CompensationFailed records an operation row that could not be removed after
// its balance update was rejected. The row needs manual repair.
func (l *Logger) CompensationFailed(ctx context.Context, opID primitive.ObjectID, branchID *primitive.ObjectID, correlationID string, cause error) {
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryLedger,
		EventType:     audit.EventCompensationFailed,
		EntityID:      &opID,
		BranchID:      branchID,
		CorrelationID: correlationID,
		Success:       false,
		FailureReason: reason,
	})
}

// Drift records a counter that disagreed with its log. fixed reports
// whether the counter was overwritten.
func (l *Logger) Drift(ctx context.Context, kind string, entityID primitive.ObjectID, fixed bool, details map[string]string) {
	eventType := audit.EventDriftDetected
	if fixed {
		eventType = audit.EventDriftFixed
	}
	d := map[string]string{"kind": kind}
	for k, v := range details {
		d[k] = v
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryLedger,
		EventType: eventType,
		EntityID:  &entityID,
		Success:   fixed,
		Details:   d,
	})
}
