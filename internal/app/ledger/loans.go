package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/charityhub/internal/app/policy/branchpolicy"
	"github.com/dalemusser/charityhub/internal/app/store/audit"
	guardstore "github.com/dalemusser/charityhub/internal/app/store/guards"
	loanstore "github.com/dalemusser/charityhub/internal/app/store/loans"
	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/charityhub/internal/app/system/ledgermetrics"
	"github.com/dalemusser/charityhub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LoanInput describes a new loan.
type LoanInput struct {
	BeneficiaryName string
	NationalID      string
	Amount          float64
	Notes           string
	BranchID        *primitive.ObjectID
}

// RepaymentInput is one installment as submitted.
type RepaymentInput struct {
	Amount float64
	Date   time.Time
	Notes  string
}

// CapitalInput is a contribution to a branch's lending fund.
type CapitalInput struct {
	Amount   float64
	Source   string
	Date     time.Time
	BranchID *primitive.ObjectID
}

// CreateLoan lends from the target branch's fund. The amount must not
// exceed the fund available in that branch's balance scope.
func (s *Service) CreateLoan(ctx context.Context, p branchpolicy.Principal, in LoanInput) (models.Loan, error) {
	reject := func(err error) (models.Loan, error) {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindLoan, err)
	}
	if err := requireWriter(p); err != nil {
		return reject(err)
	}
	in.BeneficiaryName = htmlsanitize.Text(in.BeneficiaryName)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Notes = htmlsanitize.Text(in.Notes)
	if in.BeneficiaryName == "" {
		return reject(apperr.Invalid("beneficiary_name", "is required"))
	}
	if in.Amount <= 0 {
		return reject(apperr.Invalid("amount", "must be greater than zero"))
	}
	branch, err := s.writeBranch(ctx, p, in.BranchID)
	if err != nil {
		return reject(err)
	}

	var loan models.Loan
	err = s.withPool(ctx, guardstore.LoanFund, p, branch, func(ctx context.Context) error {
		fund, err := ledgerqueries.AvailableLoanFund(ctx, s.db, branchpolicy.BalanceScope(p, branch))
		if err != nil {
			return err
		}
		if decimal.NewFromFloat(in.Amount).GreaterThan(fund) {
			return apperr.Shortf(apperr.ErrInsufficientFund, "requested %v, available %s", in.Amount, fund.String())
		}
		loan, err = s.loans.Create(ctx, models.Loan{
			BeneficiaryName: in.BeneficiaryName,
			NationalID:      in.NationalID,
			Amount:          in.Amount,
			Notes:           in.Notes,
			BranchID:        branch,
			CreatedBy:       actor(p),
		})
		return err
	})
	if err != nil {
		return reject(err)
	}

	ledgermetrics.OperationsApplied.WithLabelValues(ledgermetrics.KindLoan).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventLoanCreated, loan.ID, loan.BranchID, "",
		map[string]string{"amount": decimal.NewFromFloat(loan.Amount).String()})
	return loan, nil
}

// paidFrom sums repayments exactly.
func paidFrom(rs []models.Repayment) float64 {
	total := decimal.Zero
	for _, r := range rs {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	if total.IsNegative() {
		return 0
	}
	return total.InexactFloat64()
}

// statusFor derives a loan's status from its amounts. A defaulted loan stays
// defaulted until it is reinstated explicitly.
func statusFor(current string, amount, paid float64) string {
	if current == models.LoanDefaulted {
		return models.LoanDefaulted
	}
	if decimal.NewFromFloat(paid).GreaterThanOrEqual(decimal.NewFromFloat(amount)) {
		return models.LoanCompleted
	}
	return models.LoanActive
}

func exceeds(paid, amount float64) bool {
	return decimal.NewFromFloat(paid).GreaterThan(decimal.NewFromFloat(amount))
}

// mutateLoan runs a versioned read-modify-write on a loan visible to p. fn
// edits the loan in memory; it is re-run against a fresh copy whenever a
// concurrent writer wins. After maxRetries lost races it returns ErrConflict.
func (s *Service) mutateLoan(ctx context.Context, p branchpolicy.Principal, loanID primitive.ObjectID, fn func(l *models.Loan) error) (models.Loan, error) {
	scope := readScope(p)
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		l, err := s.loans.GetByID(ctx, scope, loanID)
		if err != nil {
			return models.Loan{}, err
		}
		if err := fn(&l); err != nil {
			return models.Loan{}, err
		}
		l.AmountPaid = paidFrom(l.Repayments)
		saved, err := s.loans.SaveState(ctx, l)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, loanstore.ErrStale) {
			return models.Loan{}, err
		}
		s.log.Debug("loan changed concurrently; retrying",
			zap.String("loan_id", loanID.Hex()),
			zap.Int("attempt", attempt+1))
	}
	return models.Loan{}, apperr.ErrConflict
}

// AddRepayment appends an installment. The total paid may not exceed the
// principal.
func (s *Service) AddRepayment(ctx context.Context, p branchpolicy.Principal, loanID primitive.ObjectID, in RepaymentInput) (models.Loan, error) {
	if err := requireWriter(p); err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, err)
	}
	if in.Amount <= 0 {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, apperr.Invalid("amount", "must be greater than zero"))
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	rep := models.Repayment{ID: primitive.NewObjectID(), Amount: in.Amount, Date: in.Date.UTC(), Notes: htmlsanitize.Text(in.Notes)}

	loan, err := s.mutateLoan(ctx, p, loanID, func(l *models.Loan) error {
		next := append(append([]models.Repayment{}, l.Repayments...), rep)
		if exceeds(paidFrom(next), l.Amount) {
			return apperr.Invalid("amount", "repayment exceeds the remaining balance of %s",
				decimal.NewFromFloat(l.Remaining()).String())
		}
		l.Repayments = next
		l.Status = statusFor(l.Status, l.Amount, paidFrom(next))
		return nil
	})
	if err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, err)
	}

	ledgermetrics.OperationsApplied.WithLabelValues(ledgermetrics.KindRepayment).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventRepaymentAdded, loan.ID, loan.BranchID, "",
		map[string]string{"repayment_id": rep.ID.Hex(), "amount": decimal.NewFromFloat(rep.Amount).String()})
	return loan, nil
}

func findRepayment(rs []models.Repayment, id primitive.ObjectID) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// EditRepayment changes an installment. The new total paid may not exceed
// the principal.
func (s *Service) EditRepayment(ctx context.Context, p branchpolicy.Principal, loanID, repaymentID primitive.ObjectID, in RepaymentInput) (models.Loan, error) {
	if err := requireWriter(p); err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, err)
	}
	if in.Amount <= 0 {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, apperr.Invalid("amount", "must be greater than zero"))
	}
	notes := htmlsanitize.Text(in.Notes)

	loan, err := s.mutateLoan(ctx, p, loanID, func(l *models.Loan) error {
		i := findRepayment(l.Repayments, repaymentID)
		if i < 0 {
			return apperr.NotFoundf("repayment %s", repaymentID.Hex())
		}
		next := append([]models.Repayment{}, l.Repayments...)
		next[i].Amount = in.Amount
		next[i].Notes = notes
		if !in.Date.IsZero() {
			next[i].Date = in.Date.UTC()
		}
		if exceeds(paidFrom(next), l.Amount) {
			return apperr.Invalid("amount", "repayments would exceed the loan amount")
		}
		l.Repayments = next
		l.Status = statusFor(l.Status, l.Amount, paidFrom(next))
		return nil
	})
	if err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, err)
	}

	ledgermetrics.OperationsAmended.WithLabelValues(ledgermetrics.KindRepayment).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventRepaymentEdited, loan.ID, loan.BranchID, "",
		map[string]string{"repayment_id": repaymentID.Hex(), "amount": decimal.NewFromFloat(in.Amount).String()})
	return loan, nil
}

// DeleteRepayment removes an installment. A completed loan drops back to
// active when the total paid falls below the principal.
func (s *Service) DeleteRepayment(ctx context.Context, p branchpolicy.Principal, loanID, repaymentID primitive.ObjectID) (models.Loan, error) {
	if err := requireWriter(p); err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, err)
	}

	loan, err := s.mutateLoan(ctx, p, loanID, func(l *models.Loan) error {
		i := findRepayment(l.Repayments, repaymentID)
		if i < 0 {
			return apperr.NotFoundf("repayment %s", repaymentID.Hex())
		}
		next := make([]models.Repayment, 0, len(l.Repayments)-1)
		next = append(next, l.Repayments[:i]...)
		next = append(next, l.Repayments[i+1:]...)
		l.Repayments = next
		l.Status = statusFor(l.Status, l.Amount, paidFrom(next))
		return nil
	})
	if err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindRepayment, err)
	}

	ledgermetrics.OperationsReversed.WithLabelValues(ledgermetrics.KindRepayment).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventRepaymentDeleted, loan.ID, loan.BranchID, "",
		map[string]string{"repayment_id": repaymentID.Hex()})
	return loan, nil
}

// SetLoanStatus marks a loan defaulted or reinstates it. Reinstating derives
// the status from the amounts, so a fully repaid loan becomes completed.
func (s *Service) SetLoanStatus(ctx context.Context, p branchpolicy.Principal, loanID primitive.ObjectID, status string) (models.Loan, error) {
	if err := requireWriter(p); err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindLoan, err)
	}
	switch status {
	case models.LoanDefaulted, models.LoanActive:
	default:
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindLoan,
			apperr.Invalid("status", "must be defaulted or active"))
	}

	var previous string
	loan, err := s.mutateLoan(ctx, p, loanID, func(l *models.Loan) error {
		previous = l.Status
		if status == models.LoanDefaulted {
			l.Status = models.LoanDefaulted
			return nil
		}
		l.Status = statusFor(models.LoanActive, l.Amount, paidFrom(l.Repayments))
		return nil
	})
	if err != nil {
		return models.Loan{}, ledgermetrics.Rejected(ledgermetrics.KindLoan, err)
	}

	s.audit.LedgerAction(ctx, p.UserID, audit.EventLoanStatusChanged, loan.ID, loan.BranchID, "",
		map[string]string{"from": previous, "to": loan.Status})
	return loan, nil
}

// DeleteLoan soft-deletes a loan; it stops counting against the fund.
func (s *Service) DeleteLoan(ctx context.Context, p branchpolicy.Principal, loanID primitive.ObjectID) error {
	if err := requireWriter(p); err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindLoan, err)
	}
	loan, err := s.loans.SoftDelete(ctx, readScope(p), loanID)
	if err != nil {
		return ledgermetrics.Rejected(ledgermetrics.KindLoan, err)
	}
	ledgermetrics.OperationsReversed.WithLabelValues(ledgermetrics.KindLoan).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventLoanDeleted, loan.ID, loan.BranchID, "", nil)
	return nil
}

// AddCapital adds money to the target branch's lending fund.
func (s *Service) AddCapital(ctx context.Context, p branchpolicy.Principal, in CapitalInput) (models.LoanCapital, error) {
	reject := func(err error) (models.LoanCapital, error) {
		return models.LoanCapital{}, ledgermetrics.Rejected(ledgermetrics.KindCapital, err)
	}
	if err := requireWriter(p); err != nil {
		return reject(err)
	}
	if in.Amount <= 0 {
		return reject(apperr.Invalid("amount", "must be greater than zero"))
	}
	branch, err := s.writeBranch(ctx, p, in.BranchID)
	if err != nil {
		return reject(err)
	}

	var lc models.LoanCapital
	err = s.withPool(ctx, guardstore.LoanFund, p, branch, func(ctx context.Context) error {
		var err error
		lc, err = s.capital.Create(ctx, models.LoanCapital{
			Amount:    in.Amount,
			Source:    htmlsanitize.Text(in.Source),
			Date:      in.Date,
			BranchID:  branch,
			CreatedBy: actor(p),
		})
		return err
	})
	if err != nil {
		return reject(err)
	}

	ledgermetrics.OperationsApplied.WithLabelValues(ledgermetrics.KindCapital).Inc()
	s.audit.LedgerAction(ctx, p.UserID, audit.EventCapitalAdded, lc.ID, lc.BranchID, "",
		map[string]string{"amount": decimal.NewFromFloat(lc.Amount).String()})
	return lc, nil
}
