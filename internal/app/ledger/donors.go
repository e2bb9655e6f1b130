package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	donorstore "github.com/dalemusser/charityhub/internal/app/store/donors"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/app/system/ledgermetrics"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TransactionInput is a treasury transaction as submitted. Donor is a donor
// id or a name; it is only used on income.
type TransactionInput struct {
	Type        string
	Amount      float64
	Description string
	Category    string
	Donor       string
	Date        time.Time
	BranchID    *primitive.ObjectID
}

// ResolveDonor returns the donor named by nameOrID. A hex id of an existing
// donor selects it; anything else is treated as a name and found or created
// by its normalized form. Donors are shared by every branch.
func (s *Service) ResolveDonor(ctx context.Context, nameOrID string) (models.Donor, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if oid, err := primitive.ObjectIDFromHex(nameOrID); err == nil {
		d, err := s.donors.GetByID(ctx, oid)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, donorstore.ErrNotFound) {
			return models.Donor{}, err
		}
	}
	return s.donors.FindOrCreate(ctx, htmlsanitize.Text(nameOrID), "")
}

// AdjustDonorTotals moves a donor's running totals by the given deltas.
// A positive count also advances the last donation date to at.
func (s *Service) AdjustDonorTotals(ctx context.Context, donorID primitive.ObjectID, amount float64, count int64, at time.Time) error {
	return s.donors.AdjustTotals(ctx, donorID, amount, count, at)
}

// CreateTransaction records a treasury transaction in the target branch.
// Income naming a donor is linked to it and added to its totals in the same
// transaction. Expenses never touch donors.
func (s *Service) CreateTransaction(ctx context.Context, p branchpolicy.Principal, in TransactionInput) (models.TreasuryTransaction, error) {
	reject := func(err error) (models.TreasuryTransaction, error) {
		return models.TreasuryTransaction{}, ledgermetrics.Rejected(ledgermetrics.KindTreasury, err)
	}
	if err := requireWriter(p); err != nil {
		return reject(err)
	}
	switch in.Type {
	case models.TxnIncome, models.TxnExpense:
	default:
		return reject(apperr.Invalid("type", "must be income or expense"))
	}
	if in.Amount <= 0 {
		return reject(apperr.Invalid("amount", "must be greater than zero"))
	}
	in.Description = htmlsanitize.Text(in.Description)
	in.Category = htmlsanitize.Text(in.Category)
	if in.Description == "" {
		return reject(apperr.Invalid("description", "is required"))
	}
	branch, err := s.writeBranch(ctx, p, in.BranchID)
	if err != nil {
		return reject(err)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	var tx models.TreasuryTransaction
	err = s.inTxn(ctx, func(ctx context.Context) error {
		tx = models.TreasuryTransaction{
			Type:        in.Type,
			Amount:      in.Amount,
			Description: in.Description,
			Category:    in.Category,
			BranchID:    branch,
			Date:        in.Date,
			CreatedBy:   actor(p),
		}
		linked := in.Type == models.TxnIncome && strings.TrimSpace(in.Donor) != ""
		if linked {
			d, err := s.ResolveDonor(ctx, in.Donor)
			if err != nil {
				return err
			}
			tx.DonorID = &d.ID
			tx.DonorName = d.Name
		}
		var err error
		if tx, err = s.treasury.Create(ctx, tx); err != nil {
			return err
		}
		if linked {
			return s.AdjustDonorTotals(ctx, *tx.DonorID, tx.Amount, 1, tx.Date)
		}
		return nil
	})
	if err != nil {
		return reject(err)
	}

	ledgermetrics.OperationsApplied.WithLabelValues(ledgermetrics.KindTreasury).Inc()
	details := map[string]string{"type": tx.Type, "amount": decimal.NewFromFloat(tx.Amount).String()}
	if tx.DonorID != nil {
		details["donor_id"] = tx.DonorID.Hex()
	}
	s.audit.LedgerAction(ctx, p.UserID, audit.EventTransactionCreated, tx.ID, tx.BranchID, "", details)
	return tx, nil
}

// DeleteTransaction hard-deletes a transaction. Deleting linked income
// takes its amount and count back off the donor.
func (s *Service) DeleteTransaction(ctx context.Context, p branchpolicy.Principal, id primitive.ObjectID) error {
	if err := requireWriter(p); err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindTreasury, err)
	}

	var tx models.TreasuryTransaction
	err := s.inTxn(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.treasury.Delete(ctx, readScope(p), id)
		if err != nil {
			return err
		}
		if tx.Type != models.TxnIncome || tx.DonorID == nil {
			return nil
		}
		err = s.AdjustDonorTotals(ctx, *tx.DonorID, -tx.Amount, -1, time.Time{})
		if errors.Is(err, donorstore.ErrNotFound) {
			s.log.Warn("deleted income references a missing donor",
				zap.String("transaction_id", tx.ID.Hex()),
				zap.String("donor_id", tx.DonorID.Hex()))
			return nil
		}
		return err
	})
	if err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindTreasury, err)
	}

	ledgermetrics.OperationsReversed.WithLabelValues(ledgermetrics.KindTreasury).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventTransactionDeleted, tx.ID, tx.BranchID, "",
		map[string]string{"type": tx.Type, "amount": decimal.NewFromFloat(tx.Amount).String()})
	return nil
}

// RelinkReport summarizes a relink pass.
type RelinkReport struct {
	Scanned   int `json:"scanned"`
	Linked    int `json:"linked"`
	Unmatched int `json:"unmatched"`
	Failed    int `json:"failed"`
}

// RelinkDonors links income transactions that carry a donor name snapshot
// but no donor id to the donor whose name matches, ignoring case and runs of
// whitespace. Only the link is written; totals are left to reconciliation.
// A failure on one row is logged and the pass moves on.
func (s *Service) RelinkDonors(ctx context.Context) (RelinkReport, error) {
	var rep RelinkReport
	rows, err := s.treasury.Unlinked(ctx)
	if err != nil {
		return rep, err
	}

	for _, tx := range rows {
		rep.Scanned++
		d, err := s.donors.FindByName(ctx, tx.DonorName)
		if errors.Is(err, donorstore.ErrNotFound) {
			rep.Unmatched++
			continue
		}
		if err != nil {
			rep.Failed++
			s.log.Warn("relink: donor lookup failed",
				zap.String("transaction_id", tx.ID.Hex()),
				zap.String("donor_name", tx.DonorName),
				zap.Error(err))
			continue
		}
		linked, err := s.treasury.SetDonor(ctx, tx.ID, d.ID)
		if err != nil {
			rep.Failed++
			s.log.Warn("relink: update failed",
				zap.String("transaction_id", tx.ID.Hex()),
				zap.Error(err))
			continue
		}
		if linked {
			rep.Linked++
			ledgermetrics.RelinkedTransactions.Inc()
		}
	}

	s.log.Info("donor relink finished",
		zap.Int("scanned", rep.Scanned),
		zap.Int("linked", rep.Linked),
		zap.Int("unmatched", rep.Unmatched),
		zap.Int("failed", rep.Failed))
	s.audit.Log(ctx, audit.Event{
		Category:  audit.CategoryLedger,
		EventType: audit.EventDonorsRelinked,
		Success:   rep.Failed == 0,
		Details: map[string]string{
			"scanned":   strconv.Itoa(rep.Scanned),
			"linked":    strconv.Itoa(rep.Linked),
			"unmatched": strconv.Itoa(rep.Unmatched),
			"failed":    strconv.Itoa(rep.Failed),
		},
	})
	return rep, nil
}
