package ledger

import (
	"context"
	"math"
	"strconv"

	"github.com/dalemusser/charityhub/internal/app/store/queries/ledgerqueries"
	"github.com/dalemusser/charityhub/internal/app/system/ledgermetrics"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// driftTolerance absorbs float noise in stored doubles.
const driftTolerance = 1e-6

// Drift is one record whose running totals disagree with its log.
type Drift struct {
	Check    string             `json:"check"`
	EntityID primitive.ObjectID `json:"entity_id"`
	Stored   string             `json:"stored"`
	Derived  string             `json:"derived"`
	Fixed    bool               `json:"fixed"`
}

// ReconcileReport lists every drift found in one pass.
type ReconcileReport struct {
	ProductsChecked int     `json:"products_checked"`
	DonorsChecked   int     `json:"donors_checked"`
	LoansChecked    int     `json:"loans_checked"`
	Drifts          []Drift `json:"drifts"`
}

func differs(a, b float64) bool {
	return math.Abs(a-b) > driftTolerance
}

func fmtNum(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Reconcile recomputes running totals from their logs: product counters
// from the operation log, donor totals from linked income, and loan amount
// paid from the repayment list. Drift is logged, audited and exported as a
// gauge. With fix set the stored totals are overwritten; the log wins.
func (s *Service) Reconcile(ctx context.Context, fix bool) (ReconcileReport, error) {
	var rep ReconcileReport
	counts := map[string]int{
		ledgermetrics.CheckProductCounters: 0,
		ledgermetrics.CheckDonorTotals:     0,
		ledgermetrics.CheckLoanPaid:        0,
	}
	record := func(d Drift) {
		rep.Drifts = append(rep.Drifts, d)
		counts[d.Check]++
		s.log.Warn("ledger drift",
			zap.String("check", d.Check),
			zap.String("entity_id", d.EntityID.Hex()),
			zap.String("stored", d.Stored),
			zap.String("derived", d.Derived),
			zap.Bool("fixed", d.Fixed))
		s.audit.Drift(ctx, d.Check, d.EntityID, d.Fixed, map[string]string{"stored": d.Stored, "derived": d.Derived})
	}

	if err := s.reconcileProducts(ctx, fix, &rep, record); err != nil {
		return rep, err
	}
	if err := s.reconcileDonors(ctx, fix, &rep, record); err != nil {
		return rep, err
	}
	if err := s.reconcileLoans(ctx, fix, &rep, record); err != nil {
		return rep, err
	}

	for check, n := range counts {
		ledgermetrics.Drift.WithLabelValues(check).Set(float64(n))
	}
	return rep, nil
}

func (s *Service) reconcileProducts(ctx context.Context, fix bool, rep *ReconcileReport, record func(Drift)) error {
	products, err := s.products.Find(ctx, bson.M{"deleted_at": nil})
	if err != nil {
		return err
	}
	for _, p := range products {
		rep.ProductsChecked++
		bal, err := ledgerqueries.ProductBalanceFromLog(ctx, s.db, p.ID)
		if err != nil {
			return err
		}
		if !differs(bal.Quantity, p.CurrentQuantity) && !differs(bal.Cost, p.TotalCost) && !differs(bal.Revenue, p.TotalRevenue) {
			continue
		}
		d := Drift{
			Check:    ledgermetrics.CheckProductCounters,
			EntityID: p.ID,
			Stored:   fmtNum(p.CurrentQuantity) + "/" + fmtNum(p.TotalCost) + "/" + fmtNum(p.TotalRevenue),
			Derived:  fmtNum(bal.Quantity) + "/" + fmtNum(bal.Cost) + "/" + fmtNum(bal.Revenue),
		}
		// A log implying negative counters is itself broken; leave it for a person.
		if fix && bal.Quantity >= 0 && bal.Cost >= 0 && bal.Revenue >= 0 {
			if _, err := s.products.OverwriteCounters(ctx, p.ID, bal.Quantity, bal.Cost, bal.Revenue); err != nil {
				return err
			}
			d.Fixed = true
		}
		record(d)
	}
	return nil
}

func (s *Service) reconcileDonors(ctx context.Context, fix bool, rep *ReconcileReport, record func(Drift)) error {
	totals, err := ledgerqueries.DonorTotalsFromLog(ctx, s.db)
	if err != nil {
		return err
	}
	donors, err := s.donors.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	for _, d := range donors {
		rep.DonorsChecked++
		want := totals[d.ID]
		amount := want.Amount.InexactFloat64()
		if !differs(amount, d.TotalDonated) && want.Count == d.DonationsCount {
			continue
		}
		dr := Drift{
			Check:    ledgermetrics.CheckDonorTotals,
			EntityID: d.ID,
			Stored:   fmtNum(d.TotalDonated) + "/" + strconv.FormatInt(d.DonationsCount, 10),
			Derived:  want.Amount.String() + "/" + strconv.FormatInt(want.Count, 10),
		}
		if fix {
			if err := s.donors.SetTotals(ctx, d.ID, amount, want.Count); err != nil {
				return err
			}
			dr.Fixed = true
		}
		record(dr)
	}
	return nil
}

func (s *Service) reconcileLoans(ctx context.Context, fix bool, rep *ReconcileReport, record func(Drift)) error {
	loans, err := s.loans.Find(ctx, bson.M{"deleted_at": nil})
	if err != nil {
		return err
	}
	for _, l := range loans {
		rep.LoansChecked++
		paid := paidFrom(l.Repayments)
		status := statusFor(l.Status, l.Amount, paid)
		if !differs(paid, l.AmountPaid) && status == l.Status {
			continue
		}
		d := Drift{
			Check:    ledgermetrics.CheckLoanPaid,
			EntityID: l.ID,
			Stored:   fmtNum(l.AmountPaid) + "/" + l.Status,
			Derived:  fmtNum(paid) + "/" + status,
		}
		if fix {
			l.AmountPaid = paid
			l.Status = status
			if _, err := s.loans.SaveState(ctx, l); err != nil {
				s.log.Warn("loan changed during reconciliation; skipped",
					zap.String("loan_id", l.ID.Hex()), zap.Error(err))
			} else {
				d.Fixed = true
			}
		}
		record(d)
	}
	return nil
}

// RescoreReport counts the beneficiaries whose stored priority was stale.
type RescoreReport struct {
	Rewritten int `json:"rewritten"`
}

// Rescore recomputes every beneficiary's priority from its stored inputs
// and rewrites the ones that changed, e.g. after a scoring rule change.
func (s *Service) Rescore(ctx context.Context) (RescoreReport, error) {
	n, err := s.beneficiaries.Rescore(ctx, s.log)
	if err != nil {
		return RescoreReport{Rewritten: n}, err
	}
	if n > 0 {
		s.log.Info("beneficiary priorities rewritten", zap.Int("count", n))
	}
	return RescoreReport{Rewritten: n}, nil
}
