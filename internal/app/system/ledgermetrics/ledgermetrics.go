// Package ledgermetrics exposes Prometheus counters for ledger mutations and
// reconciliation drift. Served at /metrics by the bootstrap router.
package ledgermetrics

import (
	"errors"

	"github.com/dalemusser/charityhub/internal/app/system/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation kinds used as the "kind" label.
const (
	KindProductOp = "product_op"
	KindLoan      = "loan"
	KindRepayment = "repayment"
	KindCapital   = "capital"
	KindMovement  = "warehouse_movement"
	KindTreasury  = "treasury"
)

// Drift checks used as the "check" label.
const (
	CheckProductCounters = "product_counters"
	CheckDonorTotals     = "donor_totals"
	CheckLoanPaid        = "loan_amount_paid"
)

// OperationsApplied counts committed apply/create mutations.
var OperationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "charityhub",
	Subsystem: "ledger",
	Name:      "operations_applied_total",
	Help:      "Ledger mutations committed (apply, create, add).",
}, []string{"kind"})

// OperationsReversed counts committed reversals and deletes.
var OperationsReversed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "charityhub",
	Subsystem: "ledger",
	Name:      "operations_reversed_total",
	Help:      "Ledger mutations reversed (soft delete, hard delete with compensation).",
}, []string{"kind"})

// OperationsAmended counts committed edits applied as deltas.
var OperationsAmended = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "charityhub",
	Subsystem: "ledger",
	Name:      "operations_amended_total",
	Help:      "Ledger mutations amended by delta.",
}, []string{"kind"})

// OperationsRejected counts mutations refused before commit.
var OperationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "charityhub",
	Subsystem: "ledger",
	Name:      "operations_rejected_total",
	Help:      "Ledger mutations rejected, by reason.",
}, []string{"kind", "reason"})

// CompensationFailures counts speculative rows that could not be removed.
var CompensationFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "charityhub",
	Subsystem: "ledger",
	Name:      "compensation_failures_total",
	Help:      "Operation records left behind after a failed compensation delete.",
})

// Drift is the number of records whose counters disagreed with their log
// on the last reconciliation pass.
var Drift = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "charityhub",
	Subsystem: "reconcile",
	Name:      "drifted_records",
	Help:      "Records whose running totals disagreed with the log on the last pass.",
}, []string{"check"})

// RelinkedTransactions counts treasury rows linked to a donor by the relink pass.
var RelinkedTransactions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "charityhub",
	Subsystem: "donors",
	Name:      "relinked_transactions_total",
	Help:      "Income transactions linked to a donor by the relink repair pass.",
})

// Reason maps an error to a low-cardinality label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case apperr.IsValidation(err):
		return "validation"
	case errors.Is(err, apperr.ErrInsufficientFund):
		return "insufficient_fund"
	case errors.Is(err, apperr.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// Rejected increments OperationsRejected for err and returns err unchanged.
func Rejected(kind string, err error) error {
	if err != nil {
		OperationsRejected.WithLabelValues(kind, Reason(err)).Inc()
	}
	return err
}
