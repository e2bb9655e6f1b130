// internal/app/features/beneficiaries/list.go
package beneficiaries

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/charityhub/internal/domain/priority"
)

// ServeList handles GET /api/beneficiaries, neediest first.
// A superadmin may pass ?branch=<id> to narrow the list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	override, err := formutil.BranchOverride(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	scope := branchpolicy.ResolveFilter(p, override)
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Beneficiaries.List(ctx, scope, page.LimitPlusOne(), page.Offset())
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	total, err := h.Beneficiaries.Count(ctx, scope)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	res := paging.Trim(&rows, page)
	if rows == nil {
		rows = []models.Beneficiary{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Beneficiaries: rows, Total: total, Page: res})
}

// ServeView handles GET /api/beneficiaries/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	p, _ := branchpolicy.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Beneficiaries.GetByID(ctx, branchpolicy.ResolveFilter(p, nil), id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, b)
}

// HandleScore handles POST /api/beneficiaries/score. It returns the
// priority a profile would get without storing anything.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var in beneficiaryRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	b, err := in.toModel(false)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, scoreResponse{Priority: priority.Score(priority.FromBeneficiary(b))})
}
