// internal/app/features/warehouse/list.go
package warehouse

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	warehousestore "github.com/dalemusser/charityhub/internal/app/store/warehouse"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/normalize"
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

// ServeList handles GET /api/warehouse/movements. ?category= and ?item=
// narrow the list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	category := query.Get(r, "category")
	switch category {
	case "", models.MovementCash, models.MovementProduct:
	default:
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("category", "must be cash or product"))
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Movements.List(ctx, scope, warehousestore.ListFilter{
		Category: category,
		ItemName: normalize.Key(query.Get(r, "item")),
		Limit:    page.LimitPlusOne(),
		Offset:   page.Offset(),
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	res := paging.Trim(&rows, page)
	if rows == nil {
		rows = []models.WarehouseMovement{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Movements: rows, Page: res})
}

// ServeView handles GET /api/warehouse/movements/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Movements.GetByID(ctx, branchpolicy.ResolveFilter(p, nil), id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, m)
}

// ServeStock handles GET /api/warehouse/stock. With ?item= it returns the
// one item's balance, otherwise every item with a nonzero balance.
func (h *Handler) ServeStock(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if item := normalize.Key(query.Get(r, "item")); item != "" {
		qty, err := ledgerqueries.WarehouseStock(ctx, h.DB, scope, item)
		if err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
		uierrors.JSON(w, http.StatusOK, itemStockResponse{Item: item, Quantity: qty})
		return
	}

	items, err := ledgerqueries.WarehouseStockByItem(ctx, h.DB, scope)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, stockResponse{Items: items})
}

// ServeCash handles GET /api/warehouse/cash.
func (h *Handler) ServeCash(w http.ResponseWriter, r *http.Request) {
	scope, err := readScope(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cash, err := ledgerqueries.WarehouseCash(ctx, h.DB, scope)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, cashResponse{Cash: cash})
}
