// internal/app/features/initiatives/handler.go
package initiatives

import (
	branchstore "github.com/dalemusser/charityhub/internal/app/store/branches"
	initiativestore "github.com/dalemusser/charityhub/internal/app/store/initiatives"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Initiatives.
type Handler struct {
	DB          *mongo.Database
	Initiatives *initiativestore.Store
	Branches    *branchstore.Store
	Audit       *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Initiatives: initiativestore.New(db),
		Branches:    branchstore.New(db),
		Audit:       audit,
		Log:         logger,
	}
}
