/*
scheduler.go - Automated payroll period finalization

PURPOSE:
  Periodically finalizes open payroll periods whose end date passed more
  than GraceDays ago, so late attendance corrections have a window before
  the period locks.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Lists overdue open periods across tenants in one query
  - Finalizes each through payroll.Service, so the usual lifecycle rules
    and logging apply
  - A period finalized concurrently (ErrPeriodNotFinalizable) is skipped

CONFIGURATION:
  payroll.auto_finalize      enable the scheduler (default: false)
  payroll.finalize_interval  check interval (default: 1h)
  payroll.grace_days         days after period end (default: 3)

USAGE:
  scheduler := NewFinalizeScheduler(store, svc, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - payroll.go: FinalizePeriod endpoint (manual finalization)
  - payroll/period.go: Finalize rules
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
	"go.uber.org/zap"
)

// OverduePeriods lists open periods that ended before a date.
type OverduePeriods interface {
	ListOverduePeriods(ctx context.Context, before generic.Date) ([]payroll.Period, error)
}

// FinalizeScheduler finalizes overdue payroll periods in the background.
type FinalizeScheduler struct {
	Periods       OverduePeriods
	Payroll       *payroll.Service
	CheckInterval time.Duration
	GraceDays     int
	Enabled       bool
	Now           func() time.Time

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// FinalizeRun summarizes one pass of the scheduler.
type FinalizeRun struct {
	Finalized []payroll.PeriodID
	Skipped   int
	Failed    int
}

func NewFinalizeScheduler(periods OverduePeriods, svc *payroll.Service, log *zap.Logger) *FinalizeScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FinalizeScheduler{
		Periods:       periods,
		Payroll:       svc,
		CheckInterval: time.Hour,
		GraceDays:     3,
		Enabled:       true,
		Now:           time.Now,
		log:           log.Named("scheduler"),
	}
}

// Start begins the scheduler. It runs one pass immediately.
func (fs *FinalizeScheduler) Start() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.Enabled {
		fs.log.Info("auto-finalize disabled, not starting")
		return
	}
	if fs.ticker != nil {
		return
	}

	fs.ticker = time.NewTicker(fs.CheckInterval)
	fs.stop = make(chan struct{})
	fs.wg.Add(1)
	go fs.run()

	fs.log.Info("auto-finalize started",
		zap.Duration("interval", fs.CheckInterval),
		zap.Int("grace_days", fs.GraceDays))
}

// Stop stops the scheduler and waits for an in-flight pass.
func (fs *FinalizeScheduler) Stop() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.ticker == nil {
		return
	}
	fs.ticker.Stop()
	close(fs.stop)
	fs.wg.Wait()
	fs.ticker = nil
	fs.log.Info("auto-finalize stopped")
}

func (fs *FinalizeScheduler) run() {
	defer fs.wg.Done()

	fs.RunNow(context.Background())
	for {
		select {
		case <-fs.ticker.C:
			fs.RunNow(context.Background())
		case <-fs.stop:
			return
		}
	}
}

// RunNow finalizes every period that ended more than GraceDays ago.
func (fs *FinalizeScheduler) RunNow(ctx context.Context) FinalizeRun {
	var run FinalizeRun

	cutoff := generic.DateOf(fs.Now()).AddDays(-fs.GraceDays)
	periods, err := fs.Periods.ListOverduePeriods(ctx, cutoff)
	if err != nil {
		fs.log.Error("list overdue periods", zap.Error(err))
		return run
	}

	for _, p := range periods {
		_, err := fs.Payroll.FinalizePeriod(ctx, p.TenantID, p.ID)
		switch {
		case err == nil:
			run.Finalized = append(run.Finalized, p.ID)
		case errors.Is(err, generic.ErrPeriodNotFinalizable):
			run.Skipped++
		default:
			run.Failed++
			fs.log.Error("auto-finalize failed",
				zap.String("tenant_id", string(p.TenantID)),
				zap.String("period_id", string(p.ID)),
				zap.Error(err))
		}
	}

	if len(run.Finalized) > 0 || run.Failed > 0 {
		fs.log.Info("auto-finalize pass completed",
			zap.Int("finalized", len(run.Finalized)),
			zap.Int("skipped", run.Skipped),
			zap.Int("failed", run.Failed))
	}
	return run
}

// NextRunTime returns when the next scheduled check will occur.
func (fs *FinalizeScheduler) NextRunTime() time.Time {
	return fs.Now().Add(fs.CheckInterval)
}
