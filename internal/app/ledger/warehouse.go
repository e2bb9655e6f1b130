package ledger

import (
	"context"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	guardstore "github.com/dalemusser/charityhub/internal/app/store/guards"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/app/system/ledgermetrics"
	"github.com/dalemusser/charityhub/internal/app/system/normalize"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementInput is a warehouse movement as submitted.
type MovementInput struct {
	Type     string
	Category string
	Item     string
	Quantity float64
	Value    float64
	Notes    string
	Date     time.Time
	BranchID *primitive.ObjectID
}

func normalizeMovement(in MovementInput) (models.WarehouseMovement, error) {
	m := models.WarehouseMovement{
		Type:     in.Type,
		Category: in.Category,
		Quantity: in.Quantity,
		Value:    in.Value,
		Notes:    htmlsanitize.Text(in.Notes),
		Date:     in.Date,
	}
	switch in.Type {
	case models.MovementInbound, models.MovementOutbound:
	default:
		return m, apperr.Invalid("type", "must be inbound or outbound")
	}
	if in.Value < 0 {
		return m, apperr.Invalid("value", "must not be negative")
	}
	switch in.Category {
	case models.MovementProduct:
		label := normalize.Name(htmlsanitize.Text(in.Item))
		if label == "" {
			return m, apperr.Invalid("item", "is required for product movements")
		}
		if in.Quantity <= 0 {
			return m, apperr.Invalid("quantity", "must be greater than zero")
		}
		m.ItemLabel = label
		m.ItemName = normalize.Key(label)
	case models.MovementCash:
		if in.Value <= 0 {
			return m, apperr.Invalid("value", "must be greater than zero")
		}
		m.Quantity = 0
	default:
		return m, apperr.Invalid("category", "must be cash or product")
	}
	return m, nil
}

// contribution is what m adds to the balance it belongs to.
func contribution(m models.WarehouseMovement) decimal.Decimal {
	v := decimal.NewFromFloat(m.Quantity)
	if m.Category == models.MovementCash {
		v = decimal.NewFromFloat(m.Value)
	}
	if m.Type == models.MovementOutbound {
		return v.Neg()
	}
	return v
}

// balanceOf returns the balance m belongs to (its item's stock or the cash
// box) over rows in scope.
func (s *Service) balanceOf(ctx context.Context, scope bson.M, m models.WarehouseMovement) (decimal.Decimal, error) {
	if m.Category == models.MovementCash {
		return ledgerqueries.WarehouseCash(ctx, s.db, scope)
	}
	return ledgerqueries.WarehouseStock(ctx, s.db, scope, m.ItemName)
}

func shortfall(m models.WarehouseMovement, have decimal.Decimal) error {
	if m.Category == models.MovementCash {
		return apperr.Shortf(apperr.ErrInsufficientFund, "warehouse cash would be %s", have.String())
	}
	return apperr.Shortf(apperr.ErrInsufficientStock, "%s stock would be %s", m.ItemLabel, have.String())
}

func sameBalance(a, b models.WarehouseMovement) bool {
	if a.Category != b.Category {
		return false
	}
	return a.Category == models.MovementCash || a.ItemName == b.ItemName
}

// RecordMovement records goods or cash entering or leaving the target
// branch. An outbound movement may not take the balance below zero.
func (s *Service) RecordMovement(ctx context.Context, p branchpolicy.Principal, in MovementInput) (models.WarehouseMovement, error) {
	reject := func(err error) (models.WarehouseMovement, error) {
		return models.WarehouseMovement{}, ledgermetrics.Rejected(ledgermetrics.KindMovement, err)
	}
	if err := requireWriter(p); err != nil {
		return reject(err)
	}
	m, err := normalizeMovement(in)
	if err != nil {
		return reject(err)
	}
	branch, err := s.writeBranch(ctx, p, in.BranchID)
	if err != nil {
		return reject(err)
	}
	m.BranchID = branch
	m.CreatedBy = actor(p)

	err = s.withPool(ctx, guardstore.Warehouse, p, branch, func(ctx context.Context) error {
		if m.Type == models.MovementOutbound {
			have, err := s.balanceOf(ctx, branchpolicy.BalanceScope(p, branch), m)
			if err != nil {
				return err
			}
			if after := have.Add(contribution(m)); after.IsNegative() {
				return shortfall(m, after)
			}
		}
		var err error
		m, err = s.movements.Create(ctx, m)
		return err
	})
	if err != nil {
		return reject(err)
	}

	ledgermetrics.OperationsApplied.WithLabelValues(ledgermetrics.KindMovement).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventMovementRecorded, m.ID, m.BranchID, "",
		map[string]string{"type": m.Type, "category": m.Category, "item": m.ItemName})
	return m, nil
}

// AmendMovement rewrites a movement. Every balance the old or new row
// touches is recomputed without the old row and must stay non-negative.
func (s *Service) AmendMovement(ctx context.Context, p branchpolicy.Principal, id primitive.ObjectID, in MovementInput) (models.WarehouseMovement, error) {
	reject := func(err error) (models.WarehouseMovement, error) {
		return models.WarehouseMovement{}, ledgermetrics.Rejected(ledgermetrics.KindMovement, err)
	}
	if err := requireWriter(p); err != nil {
		return reject(err)
	}
	next, err := normalizeMovement(in)
	if err != nil {
		return reject(err)
	}

	cur, err := s.movements.GetByID(ctx, readScope(p), id)
	if err != nil {
		return reject(err)
	}
	if in.BranchID != nil && (cur.BranchID == nil || *in.BranchID != *cur.BranchID) {
		return reject(apperr.Invalid("branch_id", "cannot move a movement to another branch"))
	}

	var out models.WarehouseMovement
	err = s.withPool(ctx, guardstore.Warehouse, p, cur.BranchID, func(ctx context.Context) error {
		old, err := s.movements.GetByID(ctx, readScope(p), id)
		if err != nil {
			return err
		}

		scope := branchpolicy.Scope(branchpolicy.BalanceScope(p, old.BranchID), bson.M{"_id": bson.M{"$ne": id}})
		haveNext, err := s.balanceOf(ctx, scope, next)
		if err != nil {
			return err
		}
		if after := haveNext.Add(contribution(next)); after.IsNegative() {
			return shortfall(next, after)
		}
		if !sameBalance(old, next) {
			haveOld, err := s.balanceOf(ctx, scope, old)
			if err != nil {
				return err
			}
			if haveOld.IsNegative() {
				return shortfall(old, haveOld)
			}
		}

		next.ID = old.ID
		if next.Date.IsZero() {
			next.Date = old.Date
		}
		out, err = s.movements.Replace(ctx, next)
		return err
	})
	if err != nil {
		return reject(err)
	}

	ledgermetrics.OperationsAmended.WithLabelValues(ledgermetrics.KindMovement).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventMovementAmended, out.ID, out.BranchID, "",
		map[string]string{"type": out.Type, "category": out.Category, "item": out.ItemName})
	return out, nil
}

// DeleteMovement soft-deletes a movement. Deleting an inbound row is
// refused when later outbound rows depend on it.
func (s *Service) DeleteMovement(ctx context.Context, p branchpolicy.Principal, id primitive.ObjectID) error {
	if err := requireWriter(p); err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindMovement, err)
	}

	old, err := s.movements.GetByID(ctx, readScope(p), id)
	if err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindMovement, err)
	}
	err = s.withPool(ctx, guardstore.Warehouse, p, old.BranchID, func(ctx context.Context) error {
		var err error
		old, err = s.movements.GetByID(ctx, readScope(p), id)
		if err != nil {
			return err
		}
		if old.Type == models.MovementInbound {
			scope := branchpolicy.Scope(branchpolicy.BalanceScope(p, old.BranchID), bson.M{"_id": bson.M{"$ne": id}})
			have, err := s.balanceOf(ctx, scope, old)
			if err != nil {
				return err
			}
			if have.IsNegative() {
				return shortfall(old, have)
			}
		}
		return s.movements.SoftDelete(ctx, id)
	})
	if err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindMovement, err)
	}

	ledgermetrics.OperationsReversed.WithLabelValues(ledgermetrics.KindMovement).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventMovementDeleted, old.ID, old.BranchID, "",
		map[string]string{"type": old.Type, "category": old.Category, "item": old.ItemName})
	return nil
}
