package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(srv *httptest.Server) *Telegram {
	tg := NewTelegram("test-token", "12345", 5*time.Second)
	tg.apiBase = srv.URL
	return tg
}

func TestSend_SkippedWhenUnconfigured(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	for _, tg := range []*Telegram{
		NewTelegram("", "12345", time.Second),
		NewTelegram("token", "", time.Second),
	} {
		tg.apiBase = srv.URL
		result := tg.Send(context.Background(), "hello")
		assert.Equal(t, StatusSkipped, result.Status)
	}
	assert.Zero(t, hits, "unconfigured notifier must not call the API")
}

func TestSend_DeliveredWithMarkdown(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	result := testNotifier(srv).Send(context.Background(), "*report*")
	assert.Equal(t, StatusDelivered, result.Status)
	assert.Equal(t, "Markdown", payload["parse_mode"])
	assert.Equal(t, "12345", payload["chat_id"])
	assert.Equal(t, "*report*", payload["text"])
}

func TestSend_PlainTextFallbackOn400(t *testing.T) {
	var payloads []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)

		if _, formatted := payload["parse_mode"]; formatted {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"ok":false,"description":"can't parse entities"}`)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	result := testNotifier(srv).Send(context.Background(), "broken _markdown")
	assert.Equal(t, StatusDelivered, result.Status)

	require.Len(t, payloads, 2, "exactly one plain text retry")
	assert.Contains(t, payloads[0], "parse_mode")
	assert.NotContains(t, payloads[1], "parse_mode")
	assert.Equal(t, "broken _markdown", payloads[1]["text"])
}

func TestSend_NoRetryOnServerError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := testNotifier(srv).Send(context.Background(), "report")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Detail, "HTTP 502")
	assert.Equal(t, 1, hits, "only client errors trigger the plain text retry")
}

func TestSend_FailedWhenRetryAlsoRejected(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	result := testNotifier(srv).Send(context.Background(), "report")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 2, hits)
}

func TestSend_NetworkFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	tg := NewTelegram("test-token", "12345", time.Second)
	tg.apiBase = srv.URL

	result := tg.Send(context.Background(), "report")
	assert.Equal(t, StatusFailed, result.Status)
	assert.NotEmpty(t, result.Detail)
}
