// internal/app/features/treasury/edit.go
package treasury

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
)

// HandleCreate handles POST /api/treasury/transactions. Income naming a
// donor updates that donor's totals in the same write.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var in transactionRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	branch, err := formutil.OptionalID("branch_id", in.BranchID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	date, err := formutil.Date("date", in.Date)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tx, err := h.Ledger.CreateTransaction(ctx, p, ledger.TransactionInput{
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Donor:       in.Donor,
		Date:        date,
		BranchID:    branch,
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, tx)
}

// HandleDelete handles DELETE /api/treasury/transactions/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Ledger.DeleteTransaction(ctx, p, id); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
