// internal/app/features/products/handler.go
package products

import (
	"github.com/dalemusser/charityhub/internal/app/ledger"
	branchstore "github.com/dalemusser/charityhub/internal/app/store/branches"
	productopstore "github.com/dalemusser/charityhub/internal/app/store/productops"
	productstore "github.com/dalemusser/charityhub/internal/app/store/products"
	"github.com/dalemusser/charityhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves products and their operation log. Counters only change
// through the ledger service; the handler edits descriptive fields.
type Handler struct {
	DB       *mongo.Database
	Ledger   *ledger.Service
	Products *productstore.Store
	Ops      *productopstore.Store
	Branches *branchstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, svc *ledger.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Ledger:   svc,
		Products: productstore.New(db),
		Ops:      productopstore.New(db),
		Branches: branchstore.New(db),
		Audit:    audit,
		Log:      logger,
	}
}
