// internal/app/features/summary/handler.go
package summary

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the branch dashboard.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

// ServeSummary handles GET /api/summary. Every figure is computed from the
// same scope: the caller's branch, or for a superadmin every branch or the
// one named by ?branch=.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	override, err := formutil.BranchOverride(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	s, err := ledgerqueries.BranchSummary(ctx, h.DB, branchpolicy.ResolveFilter(p, override))
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, s)
}
