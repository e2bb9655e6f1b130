// internal/app/features/branches/list.go
package branches

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/branches. ?active=true hides inactive branches.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	branches, err := h.Branches.List(ctx, query.Get(r, "active") == "true")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if branches == nil {
		branches = []models.Branch{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Branches: branches})
}

// ServeView handles GET /api/branches/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Branches.GetByID(ctx, id)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, b)
}
