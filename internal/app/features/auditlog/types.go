// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is one audit event as returned to the client.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	EntityID      string            `json:"entity_id,omitempty"`
	BranchID      string            `json:"branch_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events []listItem    `json:"events"`
	Total  int64         `json:"total"`
	Page   paging.Result `json:"page"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func toItems(events []audit.Event) []listItem {
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorID:       hexOrEmpty(e.ActorID),
			EntityID:      hexOrEmpty(e.EntityID),
			BranchID:      hexOrEmpty(e.BranchID),
			CorrelationID: e.CorrelationID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	return items
}

func validCategory(c string) bool {
	switch c {
	case "", audit.CategoryAdmin, audit.CategoryLedger:
		return true
	}
	return false
}
