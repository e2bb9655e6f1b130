// internal/app/features/products/edit.go
package products

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
)

// HandleCreate handles POST /api/products. New products start with zero
// counters; stock arrives through a purchase.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var in productRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	name, category, unit, err := in.clean()
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	requested, err := formutil.OptionalID("branch_id", in.BranchID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	branch, err := branchpolicy.WriteBranch(p, requested)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if p.IsSuperAdmin() {
		if err := h.Branches.CheckWritable(ctx, *branch); err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
	}

	prod, err := h.Products.Create(ctx, models.Product{
		Name:     name,
		Category: category,
		Unit:     unit,
		BranchID: branch,
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventProductCreated, prod.ID, prod.BranchID,
		map[string]string{"name": prod.Name})
	uierrors.JSON(w, http.StatusCreated, prod)
}

// HandleUpdate handles PUT /api/products/{id}. Only name, category and unit
// change; the branch is fixed at creation.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	var in productRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if in.BranchID != "" {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("branch_id", "cannot be changed"))
		return
	}
	name, category, unit, err := in.clean()
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prod, err := h.Products.UpdateInfo(ctx, branchpolicy.ResolveFilter(p, nil), id, name, category, unit)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventProductUpdated, prod.ID, prod.BranchID, nil)
	uierrors.JSON(w, http.StatusOK, prod)
}

// HandleArchive handles POST /api/products/{id}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

// HandleUnarchive handles POST /api/products/{id}/unarchive. The status
// returns to active or depleted by quantity.
func (h *Handler) HandleUnarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prod, err := h.Products.SetArchived(ctx, branchpolicy.ResolveFilter(p, nil), id, archived)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventProductArchived, prod.ID, prod.BranchID,
		map[string]string{"status": prod.Status})
	uierrors.JSON(w, http.StatusOK, prod)
}

// HandleDelete handles DELETE /api/products/{id}. A product that still holds
// stock cannot be deleted; reverse or sell it down first.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	scope := branchpolicy.ResolveFilter(p, nil)
	prod, err := h.Products.GetByID(ctx, scope, id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if prod.Status != models.ProductDepleted && prod.Status != models.ProductArchived {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("id", "product still holds stock"))
		return
	}
	if err := h.Products.SoftDelete(ctx, scope, id); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventProductDeleted, id, prod.BranchID, nil)
	w.WriteHeader(http.StatusNoContent)
}
