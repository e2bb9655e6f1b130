package ledger

import (
	"context"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/app/system/ledgermetrics"
	"github.com/dalemusser/charityhub/internal/domain/effects"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OperationInput is a product operation as submitted.
type OperationInput struct {
	ProductID       primitive.ObjectID
	Type            string
	Quantity        float64
	Amount          float64
	AmountType      string
	TargetProductID *primitive.ObjectID
	TargetQuantity  float64
	Notes           string
	Date            time.Time
}

// naturalAmountType is where each operation type books its amount. Transform
// and donation have none and must say where an amount goes.
var naturalAmountType = map[string]string{
	models.OpPurchase: models.AmountCost,
	models.OpExpense:  models.AmountCost,
	models.OpSale:     models.AmountRevenue,
}

// validateOperation checks in and fills AmountType from the operation type
// when it is omitted.
func validateOperation(in *OperationInput) error {
	switch in.Type {
	case models.OpPurchase, models.OpSale, models.OpDonation, models.OpTransform:
		if in.Quantity <= 0 {
			return apperr.Invalid("quantity", "must be greater than zero")
		}
	case models.OpExpense:
		if in.Amount <= 0 {
			return apperr.Invalid("amount", "must be greater than zero")
		}
	default:
		return apperr.Invalid("type", "unknown operation type %q", in.Type)
	}
	if in.Amount < 0 {
		return apperr.Invalid("amount", "must not be negative")
	}
	switch in.AmountType {
	case "", models.AmountCost, models.AmountRevenue:
	default:
		return apperr.Invalid("amount_type", "must be cost or revenue")
	}
	if natural := naturalAmountType[in.Type]; natural != "" {
		if in.AmountType == "" {
			in.AmountType = natural
		}
		if in.AmountType != natural {
			return apperr.Invalid("amount_type", "a %s is always booked as %s", in.Type, natural)
		}
	} else if in.Amount > 0 && in.AmountType == "" {
		return apperr.Invalid("amount_type", "required when a %s carries an amount", in.Type)
	}
	if in.TargetProductID != nil {
		if in.Type != models.OpTransform {
			return apperr.Invalid("target_product_id", "only a transform has a target")
		}
		if *in.TargetProductID == in.ProductID {
			return apperr.Invalid("target_product_id", "must differ from the source product")
		}
		if in.TargetQuantity <= 0 {
			return apperr.Invalid("target_quantity", "must be greater than zero")
		}
	}
	if in.TargetQuantity < 0 {
		return apperr.Invalid("target_quantity", "must not be negative")
	}
	return nil
}

// applyChanges applies cs in order. On the first failure it undoes the
// changes already applied and returns the failure.
func (s *Service) applyChanges(ctx context.Context, cs []effects.Change) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(cs))
	for i, c := range cs {
		p, err := s.products.ApplyDelta(ctx, c.ProductID, c.Delta)
		if err != nil {
			s.undoChanges(ctx, cs[:i])
			return nil, err
		}
		out[c.ProductID] = p
	}
	return out, nil
}

func (s *Service) undoChanges(ctx context.Context, applied []effects.Change) {
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		if _, err := s.products.ApplyDelta(ctx, c.ProductID, c.Delta.Neg()); err != nil {
			s.log.Error("failed to undo product counter change",
				zap.String("product_id", c.ProductID.Hex()),
				zap.Error(err))
		}
	}
}

// compensate removes a speculatively created operation whose effect was
// rejected. A row that cannot be removed is logged, audited and counted for
// manual repair.
func (s *Service) compensate(ctx context.Context, op models.ProductOperation) {
	var err error
	for attempt := 1; attempt <= compensationAttempts; attempt++ {
		if err = s.ops.HardDelete(ctx, op.ID); err == nil {
			return
		}
		s.log.Warn("compensation delete failed",
			zap.String("op_id", op.ID.Hex()),
			zap.String("correlation_id", op.CorrelationID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	s.log.Error("irreconcilable product operation left behind",
		zap.String("op_id", op.ID.Hex()),
		zap.String("product_id", op.ProductID.Hex()),
		zap.String("correlation_id", op.CorrelationID),
		zap.Error(err))
	ledgermetrics.CompensationFailures.Inc()
	s.audit.CompensationFailed(context.WithoutCancel(ctx), op.ID, op.BranchID, op.CorrelationID, err)
}

// ApplyOperation records an operation against a product visible to p and
// applies its effect. A rejected operation leaves no record behind.
func (s *Service) ApplyOperation(ctx context.Context, p branchpolicy.Principal, in OperationInput) (models.ProductOperation, models.Product, error) {
	if err := requireWriter(p); err != nil {
		return models.ProductOperation{}, models.Product{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}
	in.Notes = htmlsanitize.Text(in.Notes)
	if err := validateOperation(&in); err != nil {
		return models.ProductOperation{}, models.Product{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}

	scope := readScope(p)
	var (
		op      models.ProductOperation
		product models.Product
	)
	err := s.inTxn(ctx, func(ctx context.Context) error {
		src, err := s.products.GetByID(ctx, scope, in.ProductID)
		if err != nil {
			return err
		}
		if in.TargetProductID != nil {
			if _, err := s.products.GetByID(ctx, scope, *in.TargetProductID); err != nil {
				return err
			}
		}

		op, err = s.ops.Create(ctx, models.ProductOperation{
			ProductID:       in.ProductID,
			Type:            in.Type,
			Quantity:        in.Quantity,
			Amount:          in.Amount,
			AmountType:      in.AmountType,
			TargetProductID: in.TargetProductID,
			TargetQuantity:  in.TargetQuantity,
			Notes:           in.Notes,
			Date:            in.Date,
			BranchID:        src.BranchID,
			CreatedBy:       actor(p),
		})
		if err != nil {
			return err
		}

		updated, err := s.applyChanges(ctx, effects.Of(op))
		if err != nil {
			s.compensate(ctx, op)
			return err
		}
		product = updated[in.ProductID]
		return nil
	})
	if err != nil {
		return models.ProductOperation{}, models.Product{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}

	ledgermetrics.OperationsApplied.WithLabelValues(ledgermetrics.KindProductOp).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventOperationApplied, op.ID, op.BranchID, op.CorrelationID,
		map[string]string{"type": op.Type, "product_id": op.ProductID.Hex()})
	return op, product, nil
}

// ReverseOperation soft-deletes an operation and applies its exact inverse.
// Reversing an already reversed operation changes nothing. A reversal that
// would drive a counter negative fails and leaves everything as it was.
func (s *Service) ReverseOperation(ctx context.Context, p branchpolicy.Principal, opID primitive.ObjectID) (models.ProductOperation, error) {
	if err := requireWriter(p); err != nil {
		return models.ProductOperation{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}

	scope := readScope(p)
	var (
		op      models.ProductOperation
		changed bool
	)
	err := s.inTxn(ctx, func(ctx context.Context) error {
		var err error
		op, err = s.ops.GetByID(ctx, scope, opID)
		if err != nil {
			return err
		}
		if op.DeletedAt != nil {
			changed = false
			return nil
		}
		changed, err = s.ops.MarkDeleted(ctx, opID)
		if err != nil || !changed {
			return err
		}
		if _, err := s.applyChanges(ctx, effects.Inverse(op)); err != nil {
			if uerr := s.ops.Unmark(ctx, opID); uerr != nil {
				s.log.Error("failed to restore operation after rejected reversal",
					zap.String("op_id", opID.Hex()),
					zap.String("correlation_id", op.CorrelationID),
					zap.Error(uerr))
			}
			changed = false
			return err
		}
		now := time.Now().UTC()
		op.DeletedAt = &now
		return nil
	})
	if err != nil {
		return models.ProductOperation{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}
	if changed {
		ledgermetrics.OperationsReversed.WithLabelValues(ledgermetrics.KindProductOp).Inc()
		s.audit.LedgerAction(ctx, p.UserID, audit.EventOperationReversed, op.ID, op.BranchID, op.CorrelationID,
			map[string]string{"type": op.Type, "product_id": op.ProductID.Hex()})
	}
	return op, nil
}

// AmendOperation edits a live operation in place and applies only the
// difference between its new and old effects. The product, type and target
// cannot change; reverse and re-apply for that.
func (s *Service) AmendOperation(ctx context.Context, p branchpolicy.Principal, opID primitive.ObjectID, in OperationInput) (models.ProductOperation, error) {
	if err := requireWriter(p); err != nil {
		return models.ProductOperation{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}
	in.Notes = htmlsanitize.Text(in.Notes)

	scope := readScope(p)
	var op models.ProductOperation
	err := s.inTxn(ctx, func(ctx context.Context) error {
		old, err := s.ops.GetByID(ctx, scope, opID)
		if err != nil {
			return err
		}
		if old.DeletedAt != nil {
			return apperr.NotFoundf("operation %s was reversed", opID.Hex())
		}

		// Identity fields come from the stored operation.
		if !in.ProductID.IsZero() && in.ProductID != old.ProductID {
			return apperr.Invalid("product_id", "cannot change the product of an operation")
		}
		if in.Type != "" && in.Type != old.Type {
			return apperr.Invalid("type", "cannot change the type of an operation")
		}
		if in.TargetProductID != nil && (old.TargetProductID == nil || *in.TargetProductID != *old.TargetProductID) {
			return apperr.Invalid("target_product_id", "cannot change the target of an operation")
		}
		in.ProductID = old.ProductID
		in.Type = old.Type
		in.TargetProductID = old.TargetProductID
		if old.TargetProductID == nil {
			in.TargetQuantity = 0
		}
		if err := validateOperation(&in); err != nil {
			return err
		}

		next := old
		next.Quantity = in.Quantity
		next.Amount = in.Amount
		next.AmountType = in.AmountType
		next.TargetQuantity = in.TargetQuantity

		if _, err := s.applyChanges(ctx, effects.Diff(old, next)); err != nil {
			return err
		}
		op, err = s.ops.UpdateAmounts(ctx, opID, next.Quantity, next.Amount, next.TargetQuantity, next.AmountType, in.Notes, in.Date)
		return err
	})
	if err != nil {
		return models.ProductOperation{}, ledgermetrics.Rejected(ledgermetrics.KindProductOp, err)
	}

	ledgermetrics.OperationsAmended.WithLabelValues(ledgermetrics.KindProductOp).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventOperationAmended, op.ID, op.BranchID, op.CorrelationID,
		map[string]string{"type": op.Type, "product_id": op.ProductID.Hex()})
	return op, nil
}
