// internal/app/features/treasury/handler.go
package treasury

import (
	"github.com/dalemusser/charityhub/internal/app/ledger"
	donorstore "github.com/dalemusser/charityhub/internal/app/store/donors"
	treasurystore "github.com/dalemusser/charityhub/internal/app/store/treasury"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves treasury transactions and the donors they are linked to.
type Handler struct {
	DB           *mongo.Database
	Ledger       *ledger.Service
	Transactions *treasurystore.Store
	Donors       *donorstore.Store
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, svc *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Ledger:       svc,
		Transactions: treasurystore.New(db),
		Donors:       donorstore.New(db),
		Log:          logger,
	}
}
