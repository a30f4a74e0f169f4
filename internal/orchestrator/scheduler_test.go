package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koyeb-checker/internal/models"
	"koyeb-checker/internal/notify"
)

// fakeNotifier records every message routed through the boundary
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Send(ctx context.Context, message string) notify.SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return notify.SendResult{Status: notify.StatusDelivered}
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func TestRunOnce_SendsRenderedReport(t *testing.T) {
	notifier := &fakeNotifier{}
	runner := NewBatchRunner(&fakeAuthenticator{login: succeedAll}, 0)
	cfg := models.Config{Accounts: []models.Account{
		{Email: "a@example.com", Password: "p"},
	}}

	NewScheduler(cfg, runner, notifier).RunOnce(context.Background())

	messages := notifier.sent()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "📧 Account: a@example.com")
	assert.Contains(t, messages[0], "🗓️ Beijing time:")
	assert.Contains(t, messages[0], "✅ Job finished")
}

func TestRunOnce_NotifiesFatalBatchError(t *testing.T) {
	notifier := &fakeNotifier{}
	runner := NewBatchRunner(&fakeAuthenticator{login: succeedAll}, 0)

	NewScheduler(models.Config{}, runner, notifier).RunOnce(context.Background())

	messages := notifier.sent()
	require.Len(t, messages, 1, "total job failure must still produce a notification")
	assert.Contains(t, messages[0], "❌ Job failed")
	assert.Contains(t, messages[0], "no accounts to process")
}

func TestRunOnce_RejectsOverlappingRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	auth := &fakeAuthenticator{login: func(account models.Account) models.LoginOutcome {
		close(started)
		<-release
		return succeedAll(account)
	}}

	notifier := &fakeNotifier{}
	runner := NewBatchRunner(auth, 0)
	cfg := models.Config{Accounts: []models.Account{
		{Email: "a@example.com", Password: "p"},
	}}
	scheduler := NewScheduler(cfg, runner, notifier)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.RunOnce(context.Background())
	}()

	<-started
	scheduler.RunOnce(context.Background()) // overlapping trigger, must be skipped
	assert.Empty(t, notifier.sent(), "the overlapping run must not produce a report")

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not finish")
	}

	assert.Len(t, notifier.sent(), 1, "only the first run reports")
}
