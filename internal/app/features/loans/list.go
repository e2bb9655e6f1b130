// internal/app/features/loans/list.go
package loans

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

// readScope is the caller's read filter with an optional ?branch= override.
func readScope(r *http.Request) (bson.M, error) {
	p, _ := branchpolicy.FromRequest(r)
	override, err := formutil.BranchOverride(r)
	if err != nil {
		return nil, err
	}
	return branchpolicy.ResolveFilter(p, override), nil
}

// ServeList handles GET /api/loans. ?status= filters by status.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	status := query.Get(r, "status")
	switch status {
	case "", models.LoanActive, models.LoanCompleted, models.LoanDefaulted:
	default:
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("status", "unknown loan status %q", status))
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Loans.List(ctx, scope, status, page.LimitPlusOne(), page.Offset())
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	res := paging.Trim(&rows, page)
	if rows == nil {
		rows = []models.Loan{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Loans: rows, Page: res})
}

// ServeView handles GET /api/loans/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	p, _ := branchpolicy.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Loans.GetByID(ctx, branchpolicy.ResolveFilter(p, nil), id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, l)
}

// ServeFund handles GET /api/loans/fund: capital, lent, repaid and
// available for the caller's scope.
func (h *Handler) ServeFund(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	fund, err := ledgerqueries.LoanFundPosition(ctx, h.DB, scope)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, fundResponse{LoanFund: fund, Outstanding: fund.Outstanding()})
}

// ServeCapitalList handles GET /api/loans/capital.
func (h *Handler) ServeCapitalList(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Capital.List(ctx, scope, int64(page.Limit))
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.LoanCapital{}
	}
	uierrors.JSON(w, http.StatusOK, capitalListResponse{Capital: rows})
}
