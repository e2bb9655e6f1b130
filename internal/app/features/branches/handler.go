// internal/app/features/branches/handler.go
package branches

import (
	branchstore "github.com/dalemusser/charityhub/internal/app/store/branches"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Branches.
type Handler struct {
	DB       *mongo.Database
	Branches *branchstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a new Branches handler bound to a DB and logger.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Branches: branchstore.New(db),
		Audit:    audit,
		Log:      logger,
	}
}
