package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// SendStatus is the tri-state result of a notification attempt
type SendStatus string

const (
	StatusDelivered SendStatus = "delivered"
	StatusSkipped   SendStatus = "skipped"
	StatusFailed    SendStatus = "failed"
)

// SendResult reports how a notification attempt ended. Send never returns
// an error; callers must not rely on error propagation for control flow.
type SendResult struct {
	Status SendStatus
	Detail string
}

// Telegram delivers run reports to a Telegram chat via the bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegram creates a new Telegram notifier. Empty credentials are
// allowed; Send degrades to a no-op in that case.
func NewTelegram(botToken, chatID string, timeout time.Duration) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send posts the message to the configured chat, Markdown first. When
// Telegram rejects the formatted payload with a client error (bad markup),
// it retries once as plain text. Delivery failures are logged and reported
// in the result, never raised.
func (t *Telegram) Send(ctx context.Context, message string) SendResult {
	if t.botToken == "" || t.chatID == "" {
		log.Warn("⚠️ TG_BOT_TOKEN or TG_CHAT_ID not set, skipping Telegram notification")
		return SendResult{Status: StatusSkipped, Detail: "telegram not configured"}
	}

	status, body, err := t.post(ctx, map[string]string{
		"chat_id":    t.chatID,
		"text":       message,
		"parse_mode": "Markdown",
	})
	if err == nil && status >= 200 && status < 300 {
		log.Info("✅ Telegram message sent")
		return SendResult{Status: StatusDelivered}
	}

	if err == nil && status >= 400 && status < 500 {
		// Markdown rejected, resend without formatting.
		log.WithFields(log.Fields{
			"status": status,
			"detail": truncate(body, 200),
		}).Warn("⚠️ Telegram rejected formatted message, retrying as plain text")

		status, body, err = t.post(ctx, map[string]string{
			"chat_id": t.chatID,
			"text":    message,
		})
		if err == nil && status >= 200 && status < 300 {
			log.Info("✅ Telegram message sent (plain text retry)")
			return SendResult{Status: StatusDelivered, Detail: "delivered after plain text retry"}
		}
	}

	detail := ""
	if err != nil {
		detail = err.Error()
	} else {
		detail = fmt.Sprintf("HTTP %d: %s", status, truncate(body, 200))
	}
	log.WithField("detail", detail).Error("❌ failed to send Telegram message")
	return SendResult{Status: StatusFailed, Detail: detail}
}

func (t *Telegram) post(ctx context.Context, payload map[string]string) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, "", err
	}

	return resp.StatusCode, string(respBody), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
