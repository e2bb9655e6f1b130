// internal/app/features/loans/repayments.go
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

func decodeRepayment(r *http.Request) (ledger.RepaymentInput, error) {
	var in repaymentRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		return ledger.RepaymentInput{}, err
	}
	date, err := formutil.Date("date", in.Date)
	if err != nil {
		return ledger.RepaymentInput{}, err
	}
	return ledger.RepaymentInput{Amount: in.Amount, Date: date, Notes: in.Notes}, nil
}

// HandleAddRepayment handles POST /api/loans/{id}/repayments.
func (h *Handler) HandleAddRepayment(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	in, err := decodeRepayment(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loan, err := h.Ledger.AddRepayment(ctx, p, id, in)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, loan)
}

// HandleEditRepayment handles PUT /api/loans/{id}/repayments/{rid}.
func (h *Handler) HandleEditRepayment(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	rid, err := formutil.PathID(r, "rid")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	in, err := decodeRepayment(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loan, err := h.Ledger.EditRepayment(ctx, p, id, rid, in)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, loan)
}

// HandleDeleteRepayment handles DELETE /api/loans/{id}/repayments/{rid}.
func (h *Handler) HandleDeleteRepayment(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	rid, err := formutil.PathID(r, "rid")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	loan, err := h.Ledger.DeleteRepayment(ctx, p, id, rid)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, loan)
}
