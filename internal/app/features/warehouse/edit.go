// internal/app/features/warehouse/edit.go
package warehouse

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
)

// HandleRecord handles POST /api/warehouse/movements. Outbound movements are
// refused when the branch's stock or cash would go negative.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var req movementRequest
	if err := formutil.DecodeJSON(r, &req); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Ledger.RecordMovement(ctx, p, in)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, m)
}

// HandleAmend handles PUT /api/warehouse/movements/{id}.
func (h *Handler) HandleAmend(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	var req movementRequest
	if err := formutil.DecodeJSON(r, &req); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Ledger.AmendMovement(ctx, p, id, in)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, m)
}

// HandleDelete handles DELETE /api/warehouse/movements/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Ledger.DeleteMovement(ctx, p, id); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
