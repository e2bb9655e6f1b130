// internal/app/features/products/list.go
package products

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

// ServeList handles GET /api/products. ?status= filters by status.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	override, err := formutil.BranchOverride(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	status := query.Get(r, "status")
	switch status {
	case "", models.ProductActive, models.ProductDepleted, models.ProductArchived:
	default:
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("status", "unknown product status %q", status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Products.List(ctx, branchpolicy.ResolveFilter(p, override), status)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.Product{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Products: rows})
}

// ServeView handles GET /api/products/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	h.serveProduct(w, r, false)
}

// ServeOperations handles GET /api/products/{id}/operations. The log holds
// live operations on the product, transform-in rows included.
func (h *Handler) ServeOperations(w http.ResponseWriter, r *http.Request) {
	h.serveProduct(w, r, true)
}

func (h *Handler) serveProduct(w http.ResponseWriter, r *http.Request, withOps bool) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prod, err := h.Products.GetByID(ctx, branchpolicy.ResolveFilter(p, nil), id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if !withOps {
		uierrors.JSON(w, http.StatusOK, prod)
		return
	}
	ops, err := h.Ops.ListForProduct(ctx, id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if ops == nil {
		ops = []models.ProductOperation{}
	}
	uierrors.JSON(w, http.StatusOK, viewResponse{Product: prod, Operations: ops})
}
