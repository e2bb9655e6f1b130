// internal/app/features/loans/handler.go
package loans

import (
	"github.com/dalemusser/charityhub/internal/app/ledger"
	loancapitalstore "github.com/dalemusser/charityhub/internal/app/store/loancapital"
	loanstore "github.com/dalemusser/charityhub/internal/app/store/loans"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves loans, their repayments and the lending fund. Reads go to
// the stores; every mutation goes through the ledger service.
type Handler struct {
	DB      *mongo.Database
	Ledger  *ledger.Service
	Loans   *loanstore.Store
	Capital *loancapitalstore.Store
	Log     *zap.Logger
}

// NewHandler constructs a new Loans handler.
func NewHandler(db *mongo.Database, svc *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Ledger:  svc,
		Loans:   loanstore.New(db),
		Capital: loancapitalstore.New(db),
		Log:     logger,
	}
}
