package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"koyeb-checker/internal/models"
)

// Fatal batch conditions. Per-account failures never surface as errors;
// they degrade to report lines instead.
var (
	ErrNoAccounts         = errors.New("no accounts to process")
	ErrAllAccountsSkipped = errors.New("all accounts were incomplete and skipped")
)

// Authenticator performs a single account's login attempt
type Authenticator interface {
	Login(ctx context.Context, account models.Account) models.LoginOutcome
}

// BatchRunner processes accounts sequentially and assembles the run report
type BatchRunner struct {
	authenticator Authenticator
	delay         time.Duration
}

// NewBatchRunner creates a new BatchRunner instance. The delay is inserted
// before every login except the first, to stay under Koyeb's abuse
// detection; processing is deliberately serial for the same reason.
func NewBatchRunner(authenticator Authenticator, delay time.Duration) *BatchRunner {
	return &BatchRunner{
		authenticator: authenticator,
		delay:         delay,
	}
}

// Run iterates the accounts in input order and builds the report in that
// same order. One account's crash never prevents the remaining accounts
// from being attempted. Fails only when zero outcomes were produced.
func (br *BatchRunner) Run(ctx context.Context, accounts []models.Account) (*models.RunReport, error) {
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	report := &models.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	runLog := log.WithField("run_id", report.RunID)

	for _, account := range accounts {
		if !account.IsComplete() {
			runLog.WithField("email", account.Email).Warn("⚠️ account record incomplete, skipping")
			continue
		}

		if report.Total > 0 {
			if err := sleepCtx(ctx, br.delay); err != nil {
				return nil, fmt.Errorf("batch interrupted: %w", err)
			}
		}

		runLog.WithField("email", account.Email).Info("🔄 processing account")
		outcome := br.runOne(ctx, account)

		report.Lines = append(report.Lines, formatOutcome(outcome))
		report.Total++
		if outcome.Success {
			report.Succeeded++
		}
	}

	if report.Total == 0 {
		return nil, ErrAllAccountsSkipped
	}

	runLog.WithFields(log.Fields{
		"total":   report.Total,
		"success": report.Succeeded,
		"failed":  report.Failed(),
	}).Info("📊 batch complete")

	return report, nil
}

// runOne isolates a single account's processing: a panic anywhere in the
// login path becomes a failure outcome for that account only.
func (br *BatchRunner) runOne(ctx context.Context, account models.Account) (outcome models.LoginOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"email": account.Email,
				"panic": r,
			}).Error("❌ account processing panicked")
			outcome = models.LoginOutcome{
				Account: account,
				Success: false,
				Message: fmt.Sprintf("execution exception: %v", r),
			}
		}
	}()

	return br.authenticator.Login(ctx, account)
}

func formatOutcome(outcome models.LoginOutcome) string {
	result := fmt.Sprintf("🎉 Login result: %s", outcome.Message)
	if !outcome.Success {
		result = fmt.Sprintf("❌ Login failed | reason: %s", outcome.Message)
	}
	return fmt.Sprintf("📧 Account: %s\n\n%s", outcome.Account.Email, result)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
