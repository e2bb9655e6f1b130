// internal/app/features/loans/edit.go
package loans

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
)

// HandleCreate handles POST /api/loans. The amount must fit in the target
// branch's available fund; otherwise 409.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var in createRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	branch, err := formutil.OptionalID("branch_id", in.BranchID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loan, err := h.Ledger.CreateLoan(ctx, p, ledger.LoanInput{
		BeneficiaryName: in.BeneficiaryName,
		NationalID:      in.NationalID,
		Amount:          in.Amount,
		Notes:           in.Notes,
		BranchID:        branch,
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, loan)
}

// HandleDelete handles DELETE /api/loans/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Ledger.DeleteLoan(ctx, p, id); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles POST /api/loans/{id}/status with
// {"status":"defaulted"} or {"status":"active"} to reinstate.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	var in statusRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loan, err := h.Ledger.SetLoanStatus(ctx, p, id, in.Status)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, loan)
}

// HandleAddCapital handles POST /api/loans/capital.
func (h *Handler) HandleAddCapital(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var in capitalRequest
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

	lc, err := h.Ledger.AddCapital(ctx, p, ledger.CapitalInput{
		Amount:   in.Amount,
		Source:   in.Source,
		Date:     date,
		BranchID: branch,
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, lc)
}
