// internal/app/features/initiatives/list.go
package initiatives

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/initiatives.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	override, err := formutil.BranchOverride(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	status := query.Get(r, "status")
	if status != "" && !validStatus(status) {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("status", "unknown initiative status %q", status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Initiatives.List(ctx, branchpolicy.ResolveFilter(p, override), status)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.Initiative{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Initiatives: rows})
}

// ServeView handles GET /api/initiatives/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, err := h.Initiatives.GetByID(ctx, branchpolicy.ResolveFilter(p, nil), id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, in)
}
