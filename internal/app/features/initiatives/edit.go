// internal/app/features/initiatives/edit.go
package initiatives

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/charityhub/internal/app/features/errors"
	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/formutil"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/initiatives. A superadmin who names no
// branch gets one copy per active branch; everyone else creates in their
// own branch.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	var req createRequest
	if err := formutil.DecodeJSON(r, &req); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	name := htmlsanitize.Text(strings.TrimSpace(req.Name))
	if name == "" {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("name", "is required"))
		return
	}
	if req.Status != "" && !validStatus(req.Status) {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("status", "unknown initiative status %q", req.Status))
		return
	}
	requested, err := formutil.OptionalID("branch_id", req.BranchID)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	target, err := branchpolicy.ResolveTarget(p, requested, true)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	in := models.Initiative{
		Name:        name,
		Description: htmlsanitize.Text(req.Description),
		Status:      req.Status,
	}
	if oid, err := primitive.ObjectIDFromHex(p.UserID); err == nil {
		in.CreatedBy = &oid
	}

	var out []models.Initiative
	if target.IsFanOut() {
		ids, err := h.Branches.ActiveIDs(ctx)
		if err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
		if len(ids) == 0 {
			uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("branch_id", "there are no active branches"))
			return
		}
		if out, err = h.Initiatives.CreateMany(ctx, in, ids); err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
		h.Log.Info("initiative fanned out",
			zap.String("fan_out_id", out[0].FanOutID.Hex()),
			zap.Int("branches", len(out)))
	} else {
		if p.IsSuperAdmin() {
			if err := h.Branches.CheckWritable(ctx, *target.BranchID); err != nil {
				uierrors.WriteJSON(w, r, h.Log, err)
				return
			}
		}
		in.BranchID = target.BranchID
		created, err := h.Initiatives.Create(ctx, in)
		if err != nil {
			uierrors.WriteJSON(w, r, h.Log, err)
			return
		}
		out = []models.Initiative{created}
	}

	for _, it := range out {
		h.Audit.AdminAction(ctx, r, p.UserID, audit.EventInitiativeCreated, it.ID, it.BranchID,
			map[string]string{"copies": strconv.Itoa(len(out))})
	}
	uierrors.JSON(w, http.StatusCreated, createResponse{Initiatives: out})
}

// HandleStatus handles POST /api/initiatives/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := branchpolicy.FromRequest(r)
	id, err := formutil.PathID(r, "id")
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	var req statusRequest
	if err := formutil.DecodeJSON(r, &req); err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}
	if !validStatus(req.Status) {
		uierrors.WriteJSON(w, r, h.Log, apperr.Invalid("status", "unknown initiative status %q", req.Status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, err := h.Initiatives.UpdateStatus(ctx, branchpolicy.ResolveFilter(p, nil), id, req.Status)
	if err != nil {
		uierrors.WriteJSON(w, r, h.Log, err)
		return
	}

	h.Audit.AdminAction(ctx, r, p.UserID, audit.EventInitiativeUpdated, in.ID, in.BranchID,
		map[string]string{"status": in.Status})
	uierrors.JSON(w, http.StatusOK, in)
}
