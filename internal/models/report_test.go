package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunReport_Render(t *testing.T) {
	report := &RunReport{
		RunID:     "run-1",
		StartedAt: time.Date(2025, 6, 1, 16, 30, 0, 0, time.UTC),
		Lines: []string{
			"📧 Account: a@b.c\n\n🎉 Login result: login succeeded",
			"📧 Account: d@e.f\n\n❌ Login failed | reason: request timed out",
		},
		Total:     2,
		Succeeded: 1,
	}

	text := report.Render()

	// 16:30 UTC is 00:30 the next day in Beijing.
	assert.Contains(t, text, "🗓️ Beijing time: 2025-06-02 00:30")
	assert.Contains(t, text, "📊 Accounts: 2 | Success: 1 | Failed: 1")
	assert.True(t, strings.HasSuffix(text, "✅ Job finished"))

	first := strings.Index(text, "a@b.c")
	second := strings.Index(text, "d@e.f")
	assert.Less(t, first, second, "outcome blocks keep processing order")
}

func TestAccount_IsComplete(t *testing.T) {
	assert.True(t, Account{Email: "a@b.c", Password: "p"}.IsComplete())
	assert.False(t, Account{Email: "  ", Password: "p"}.IsComplete())
	assert.False(t, Account{Email: "a@b.c", Password: ""}.IsComplete())
}
