// internal/app/features/warehouse/handler.go
package warehouse

import (
	"github.com/dalemusser/charityhub/internal/app/ledger"
	warehousestore "github.com/dalemusser/charityhub/internal/app/store/warehouse"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves warehouse movements and the balances summed from them.
type Handler struct {
	DB        *mongo.Database
	Ledger    *ledger.Service
	Movements *warehousestore.Store
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, svc *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Ledger:    svc,
		Movements: warehousestore.New(db),
		Log:       logger,
	}
}
