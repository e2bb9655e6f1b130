// internal/app/features/treasury/list.go
package treasury

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	treasurystore "github.com/dalemusser/charityhub/internal/app/store/treasury"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

func readScope(r *http.Request) (bson.M, error) {
	p, _ := branchpolicy.FromRequest(r)
	override, err := formutil.BranchOverride(r)
	if err != nil {
		return nil, err
	}
	return branchpolicy.ResolveFilter(p, override), nil
}

// ServeList handles GET /api/treasury/transactions. ?type= and ?donor=
// narrow the list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	typ := query.Get(r, "type")
	switch typ {
	case "", models.TxnIncome, models.TxnExpense:
	default:
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("type", "must be income or expense"))
		return
	}
	donor, err := formutil.OptionalID("donor", query.Get(r, "donor"))
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Transactions.List(ctx, scope, treasurystore.ListFilter{
		Type:    typ,
		DonorID: donor,
		Limit:   page.LimitPlusOne(),
		Offset:  page.Offset(),
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	res := paging.Trim(&rows, page)
	if rows == nil {
		rows = []models.TreasuryTransaction{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Transactions: rows, Page: res})
}

// ServeBalance handles GET /api/treasury/balance.
func (h *Handler) ServeBalance(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := ledgerqueries.TreasuryBalance(ctx, h.DB, scope)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, t)
}
