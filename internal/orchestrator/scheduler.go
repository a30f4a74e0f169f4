package orchestrator

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"koyeb-checker/internal/models"
	"koyeb-checker/internal/notify"
	"koyeb-checker/internal/utils"
)

// Notifier delivers a run report or failure message to the operator chat
type Notifier interface {
	Send(ctx context.Context, message string) notify.SendResult
}

// Scheduler is the timer-triggered boundary of the job. It owns the
// run-or-fail decision: every run ends in a notification attempt, either
// the rendered report or a job failure message, and the scheduler only
// returns after that attempt has resolved.
type Scheduler struct {
	cfg      models.Config
	runner   *BatchRunner
	notifier Notifier

	// gate rejects overlapping runs: a tick that fires while a run is
	// still in flight is skipped, not queued.
	gate *semaphore.Weighted
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(cfg models.Config, runner *BatchRunner, notifier Notifier) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		notifier: notifier,
		gate:     semaphore.NewWeighted(1),
	}
}

// RunOnce executes one full batch run. No error escapes: fatal conditions
// are converted into a failure notification so operators hear about total
// job failure, not just per-account failures.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.gate.TryAcquire(1) {
		log.Warn("⚠️ previous run still in progress, skipping this trigger")
		return
	}
	defer s.gate.Release(1)

	started := time.Now()

	report, err := s.runner.Run(ctx, s.cfg.Accounts)
	if err != nil {
		log.WithError(err).Error("❌ batch run failed")
		result := s.notifier.Send(ctx, fmt.Sprintf("❌ Job failed: %v", err))
		log.WithField("notification", string(result.Status)).Info("📋 failure notification resolved")
		return
	}

	log.WithField("run_id", report.RunID).Info("📋 batch finished, sending Telegram notification")
	result := s.notifier.Send(ctx, report.Render())

	log.WithFields(log.Fields{
		"run_id":       report.RunID,
		"total":        report.Total,
		"success":      report.Succeeded,
		"failed":       report.Failed(),
		"notification": string(result.Status),
		"duration":     utils.FormatDuration(time.Since(started)),
	}).Info("✅ run complete")
}

// Start runs immediately, then on every CheckInterval tick until the
// context is cancelled. Without an interval the job is a single run, the
// timer being owned by the external scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.RunOnce(ctx)

	if s.cfg.CheckInterval <= 0 {
		return
	}

	log.WithField("interval", s.cfg.CheckInterval).Info("⏰ running on interval")
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("⏹️ scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
