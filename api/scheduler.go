/*
scheduler.go - Unpaid-department reminder scheduler

PURPOSE:
  Once the grace period of the current month has passed, composes the
  reminder for departments that have not remitted yet and hands it to a
  Notifier. Each period is notified at most once per process.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reads records only; never mutates the store
  - Skips while the grace period is active or when nobody is unpaid
  - Unpaid departments without an email are logged, not notified

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active
  - Start after Stop resumes checking

USAGE:
  scheduler := NewReminderScheduler(handler, LogNotifier{Log: log})
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - reports.go: GetReminder endpoint (manual reminder)
  - remittance/delinquency.go: grace period and reminder text
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
)

// Notifier delivers a reminder.
type Notifier interface {
	Notify(ctx context.Context, r remittance.Reminder) error
}

// LogNotifier writes reminders to the log instead of sending them.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r remittance.Reminder) error {
	n.Log.Info("reminder ready",
		zap.Stringer("period", r.Period),
		zap.Int("recipients", len(r.Bcc)),
		zap.String("subject", r.Subject),
		zap.String("mailto", r.MailtoURL()),
	)
	return nil
}

// ReminderScheduler periodically notifies unpaid departments.
type ReminderScheduler struct {
	Handler       *Handler
	Notifier      Notifier
	CheckInterval time.Duration
	Enabled       bool

	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	notified map[generic.Period]bool
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(handler *Handler, notifier Notifier) *ReminderScheduler {
	return &ReminderScheduler{
		Handler:       handler,
		Notifier:      notifier,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		notified:      make(map[generic.Period]bool),
	}
}

// Start begins the scheduler. Starting a running scheduler is a no-op; a
// stopped one can be started again.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	log := rs.Handler.Log
	if !rs.Enabled {
		log.Info("reminder scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker.C, rs.stop)

	log.Info("reminder scheduler started",
		zap.Duration("interval", rs.CheckInterval),
		zap.Time("next_run", rs.GetNextRunTime()),
	)
}

// Stop stops the scheduler.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	ticker, stop := rs.ticker, rs.stop
	rs.ticker, rs.stop = nil, nil
	rs.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(stop)
		rs.wg.Wait()
		rs.Handler.Log.Info("reminder scheduler stopped")
	}
}

func (rs *ReminderScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow(context.Background())

	for {
		select {
		case <-tick:
			rs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one check. It returns true when a reminder was handed to
// the notifier.
func (rs *ReminderScheduler) RunNow(ctx context.Context) bool {
	h := rs.Handler
	period := h.Monitor.CurrentPeriod()

	rs.mu.Lock()
	done := rs.notified[period]
	rs.mu.Unlock()
	if done || h.Monitor.InGracePeriod() {
		return false
	}

	records, err := h.Repo.List(ctx)
	if err != nil {
		h.Log.Error("reminder check: load records", zap.Error(err))
		return false
	}
	report := h.Monitor.Unpaid(records)
	if report.Count == 0 {
		return false
	}

	reminder, err := remittance.BuildReminder(report)
	if errors.Is(err, generic.ErrNoRecipients) {
		h.Log.Warn("unpaid departments have no email address",
			zap.Stringer("period", period), zap.Int("unpaid", report.Count))
		return false
	}
	if err != nil {
		h.Log.Error("reminder check: build reminder", zap.Error(err))
		return false
	}
	if missing := report.Count - len(report.Recipients); missing > 0 {
		h.Log.Warn("some unpaid departments have no email address", zap.Int("missing", missing))
	}

	if err := rs.Notifier.Notify(ctx, reminder); err != nil {
		h.Log.Error("reminder delivery failed", zap.Error(err))
		return false
	}

	rs.mu.Lock()
	rs.notified[period] = true
	rs.mu.Unlock()
	return true
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rs *ReminderScheduler) GetNextRunTime() time.Time {
	return rs.Handler.Monitor.Clock.Now().Add(rs.CheckInterval)
}
