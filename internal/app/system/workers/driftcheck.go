// internal/app/system/workers/driftcheck.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/dalemusser/charityhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Reconciler is the part of the ledger service the drift check needs.
type Reconciler interface {
	Reconcile(ctx context.Context, fix bool) (ledger.ReconcileReport, error)
}

// DriftCheck is a background worker that compares running totals with
// their logs on an interval. It reports drift but never repairs it; fixing
// is an explicit operator action.
type DriftCheck struct {
	ledger   Reconciler
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewDriftCheck creates a new drift check worker.
//
// Parameters:
//   - r: the ledger service
//   - logger: zap logger for logging
//   - interval: how often to run the check (e.g., 1 hour)
func NewDriftCheck(r Reconciler, logger *zap.Logger, interval time.Duration) *DriftCheck {
	return &DriftCheck{
		ledger:   r,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background check loop.
func (w *DriftCheck) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("drift check worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *DriftCheck) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("drift check worker stopped")
}

func (w *DriftCheck) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *DriftCheck) check() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	rep, err := w.ledger.Reconcile(ctx, false)
	if err != nil {
		w.log.Error("drift check failed", zap.Error(err))
		return
	}

	if len(rep.Drifts) > 0 {
		w.log.Warn("ledger drift detected",
			zap.Int("drifts", len(rep.Drifts)),
			zap.Int("products_checked", rep.ProductsChecked),
			zap.Int("donors_checked", rep.DonorsChecked),
			zap.Int("loans_checked", rep.LoansChecked))
	}
}
