package scheduler

import (
	"context"
	"fmt"

	"SpendGuard/internal/custody"
	"SpendGuard/internal/ledger"
	"SpendGuard/internal/notifier"
	"SpendGuard/internal/recorder"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// reportWindow is how many recent spends the daily report scans.
const reportWindow = 1000

// Scheduler manages cron tasks and chat commands for one custody service.
type Scheduler struct {
	Cron     *cron.Cron
	Custody  *custody.Service
	Notifier *notifier.TelegramNotifier // nil when Telegram is not configured
	Recorder recorder.Recorder
	Logger   *zap.Logger
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *custody.Service, tn *notifier.TelegramNotifier, rec recorder.Recorder, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Custody:  svc,
		Notifier: tn,
		Recorder: rec,
		Logger:   logger,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily report and the snapshot flush.
func (s *Scheduler) RegisterAll(reportCron, flushCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.dailyReport); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	if _, err := s.Cron.AddFunc(flushCron, s.flush); err != nil {
		return fmt.Errorf("register flush task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunReportNow sends the daily report immediately (for testing/manual trigger).
func (s *Scheduler) RunReportNow() {
	s.dailyReport()
}

func (s *Scheduler) dailyReport() {
	s.Logger.Info("running daily report")
	s.trySend(s.DailyReport())
}

// DailyReport builds the summary of the last ledger.Window of activity.
func (s *Scheduler) DailyReport() string {
	state := s.Custody.Status()
	spends, err := s.Recorder.RecentSpends(reportWindow)
	if err != nil {
		s.Logger.Error("load recent spends", zap.Error(err))
	}
	return notifier.FormatDailyReport(&state, spends, state.UpdatedAt.Add(-ledger.Window))
}

func (s *Scheduler) flush() {
	if err := s.Custody.Flush(); err != nil {
		s.Logger.Error("flush ledger state", zap.Error(err))
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.TrySend(s.Ctx, text)
}
