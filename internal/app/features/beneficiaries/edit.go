// internal/app/features/beneficiaries/edit.go
package beneficiaries

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
)

// HandleCreate handles POST /api/beneficiaries. The priority is computed
// from the profile; any submitted priority is ignored.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var in beneficiaryRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	b, err := in.toModel(true)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	requested, err := formutil.OptionalID("branch_id", in.BranchID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if b.BranchID, err = branchpolicy.WriteBranch(p, requested); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if p.IsSuperAdmin() {
		if err := h.Branches.CheckWritable(ctx, *b.BranchID); err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
	}

	out, err := h.Beneficiaries.Create(ctx, b)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventBeneficiaryCreated, out.ID, out.BranchID,
		map[string]string{"priority": strconv.Itoa(out.Priority)})
	uierrors.JSON(w, http.StatusCreated, out)
}

// HandleUpdate handles PUT /api/beneficiaries/{id}. The branch never changes.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	var in beneficiaryRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	b, err := in.toModel(true)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.Beneficiaries.Update(ctx, branchpolicy.ResolveFilter(p, nil), id, b)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventBeneficiaryUpdated, out.ID, out.BranchID,
		map[string]string{"priority": strconv.Itoa(out.Priority)})
	uierrors.JSON(w, http.StatusOK, out)
}

// HandleDelete handles DELETE /api/beneficiaries/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Beneficiaries.SoftDelete(ctx, branchpolicy.ResolveFilter(p, nil), id); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventBeneficiaryDeleted, id, nil, nil)
	w.WriteHeader(http.StatusNoContent)
}
