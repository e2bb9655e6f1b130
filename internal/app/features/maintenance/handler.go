// internal/app/features/maintenance/handler.go
package maintenance

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler exposes the ledger repair passes to superadmins. The same passes
// run from charityctl.
type Handler struct {
	Ledger *ledger.Service
	Log    *zap.Logger
}

func NewHandler(svc *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{Ledger: svc, Log: logger}
}

// HandleRelinkDonors handles POST /api/admin/relink-donors.
func (h *Handler) HandleRelinkDonors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.Ledger.RelinkDonors(ctx)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, rep)
}

// HandleReconcile handles POST /api/admin/reconcile. ?fix=true overwrites
// drifted totals from their logs; otherwise drift is only reported.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	fix, _ := strconv.ParseBool(query.Get(r, "fix"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.Ledger.Reconcile(ctx, fix)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if rep.Drifts == nil {
		rep.Drifts = []ledger.Drift{}
	}
	uierrors.JSON(w, http.StatusOK, rep)
}

// HandleRescore handles POST /api/admin/rescore.
func (h *Handler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.Ledger.Rescore(ctx)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, rep)
}
