// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/authz"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/paging"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// branchFor returns the branch an audit query is limited to. Admins are
// pinned to their own branch; a superadmin may pick one with ?branch=.
func branchFor(r *http.Request) (*primitive.ObjectID, error) {
	if !authz.IsSuperAdmin(r) {
		branch := authz.UserBranchID(r)
		if branch == nil {
			return nil, apperr.ErrForbidden
		}
		return branch, nil
	}
	return formutil.BranchOverride(r)
}

// ServeList handles GET /api/audit with ?category=, ?event_type=,
// ?start_date= and ?end_date= filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFor(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	category := query.Get(r, "category")
	if !validCategory(category) {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("category", "must be admin or ledger"))
		return
	}
	filter := audit.QueryFilter{
		BranchID:  branch,
		Category:  category,
		EventType: query.Get(r, "event_type"),
	}

	if s := query.Get(r, "start_date"); s != "" {
		t, err := formutil.Date("start_date", s)
		if err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := formutil.Date("end_date", s)
		if err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	page := paging.Parse(r)
	filter.Limit = page.LimitPlusOne()
	filter.Offset = page.Offset()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	res := paging.Trim(&events, page)
	uierrors.JSON(w, http.StatusOK, listResponse{Events: toItems(events), Total: total, Page: res})
}

// ServeEntity handles GET /api/audit/entity/{id}: the history of one loan,
// operation, movement or transaction.
func (h *Handler) ServeEntity(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFor(r)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.Query(ctx, audit.QueryFilter{
		BranchID: branch,
		EntityID: &id,
		Limit:    paging.MaxPageSize,
	})
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Events: toItems(events), Total: int64(len(events))})
}
