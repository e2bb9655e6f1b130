// internal/app/features/treasury/donors.go
package treasury

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	treasurystore "github.com/dalemusser/charityhub/internal/app/store/treasury"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeDonors handles GET /api/treasury/donors. Donors are global; ?q=
// matches a name prefix.
func (h *Handler) ServeDonors(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Donors.List(ctx, query.Get(r, "q"), int64(page.Limit))
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.Donor{}
	}
	uierrors.JSON(w, http.StatusOK, donorListResponse{Donors: rows})
}

// ServeDonor handles GET /api/treasury/donors/{id}. The donor record is
// global; the transactions listed are limited to the caller's scope.
func (h *Handler) ServeDonor(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Donors.GetByID(ctx, id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	txs, err := h.Transactions.List(ctx, branchpolicy.ResolveFilter(p, nil), treasurystore.ListFilter{
		Type:    models.TxnIncome,
		DonorID: &id,
		Limit:   paging.PageSize,
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if txs == nil {
		txs = []models.TreasuryTransaction{}
	}
	uierrors.JSON(w, http.StatusOK, donorResponse{Donor: d, Transactions: txs})
}
