// internal/app/features/beneficiaries/handler.go
package beneficiaries

import (
	beneficiarystore "github.com/dalemusser/charityhub/internal/app/store/beneficiaries"
	branchstore "github.com/dalemusser/charityhub/internal/app/store/branches"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Beneficiaries.
type Handler struct {
	DB            *mongo.Database
	Beneficiaries *beneficiarystore.Store
	Branches      *branchstore.Store
	Audit         *auditlog.Logger
	Log           *zap.Logger
}

// NewHandler constructs a new Beneficiaries handler bound to a DB and logger.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Beneficiaries: beneficiarystore.New(db),
		Branches:      branchstore.New(db),
		Audit:         audit,
		Log:           logger,
	}
}
