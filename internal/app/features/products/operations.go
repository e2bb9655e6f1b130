// internal/app/features/products/operations.go
package products

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	productopstore "github.com/dalemusser/charityhub/internal/app/store/productops"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
)

func decodeOperation(r *http.Request) (ledger.OperationInput, error) {
	id, err := formutil.PathID(r, "id")
	if err != nil {
		return ledger.OperationInput{}, err
	}
	var in operationRequest
	if err := formutil.DecodeJSON(r, &in); err != nil {
		return ledger.OperationInput{}, err
	}
	target, err := formutil.OptionalID("target_product_id", in.TargetProductID)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	date, err := formutil.Date("date", in.Date)
	if err != nil {
		return ledger.OperationInput{}, err
	}
	return ledger.OperationInput{
		ProductID:       id,
		Type:            in.Type,
		Quantity:        in.Quantity,
		Amount:          in.Amount,
		AmountType:      in.AmountType,
		TargetProductID: target,
		TargetQuantity:  in.TargetQuantity,
		Notes:           in.Notes,
		Date:            date,
	}, nil
}

// HandleApply handles POST /api/products/{id}/operations.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	in, err := decodeOperation(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	op, prod, err := h.Ledger.ApplyOperation(ctx, p, in)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, applyResponse{Operation: op, Product: prod})
}

// HandleAmend handles PUT /api/products/{id}/operations/{opid}. Product,
// type and target stay as recorded.
func (h *Handler) HandleAmend(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	opID, err := formutil.PathID(r, "opid")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	in, err := decodeOperation(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	op, err := h.Ledger.AmendOperation(ctx, p, opID, in)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, op)
}

// HandleReverse handles DELETE /api/products/{id}/operations/{opid}.
// Reversing twice is a no-op.
func (h *Handler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	opID, err := formutil.PathID(r, "opid")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The operation must belong to the product in the path.
	existing, err := h.Ops.GetByID(ctx, branchpolicy.ResolveFilter(p, nil), opID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if existing.ProductID != id {
		uierrors.WriteJSON(w, r, h.Log, productopstore.ErrNotFound)
		return
	}

	op, err := h.Ledger.ReverseOperation(ctx, p, opID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, op)
}
