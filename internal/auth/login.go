package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"koyeb-checker/internal/models"
)

const (
	koyebLoginURL     = "https://app.koyeb.com/v1/account/login"
	koyebLoginPageURL = "https://app.koyeb.com/auth/login"
	koyebOrigin       = "https://app.koyeb.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// Diagnostics taken from upstream response bodies are capped so a
	// verbose error page cannot blow up the report.
	maxDetailLen = 200
)

// LoginService performs single-account logins against the Koyeb web API
type LoginService struct {
	loginURL     string
	loginPageURL string
	signinHost   string
	timeout      time.Duration
}

// NewLoginService creates a new LoginService instance
func NewLoginService(timeout time.Duration) *LoginService {
	return &LoginService{
		loginURL:     koyebLoginURL,
		loginPageURL: koyebLoginPageURL,
		signinHost:   koyebSigninHost,
		timeout:      timeout,
	}
}

// Login attempts to sign in one account. It never returns an error; every
// failure path resolves to a LoginOutcome with Success=false and a reason.
func (ls *LoginService) Login(ctx context.Context, account models.Account) models.LoginOutcome {
	if !account.IsComplete() {
		return failure(account, "credentials empty")
	}

	// Cookies harvested by the preflight ride along on the login POST.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return failure(account, fmt.Sprintf("cookie jar init failed: %v", err))
	}
	client := &http.Client{
		Jar:     jar,
		Timeout: ls.timeout,
	}

	fallback := ls.preflight(ctx, client, account.Email)

	reqCtx, cancel := context.WithTimeout(ctx, ls.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"email":    strings.TrimSpace(account.Email),
		"password": account.Password,
	})
	if err != nil {
		return failure(account, fmt.Sprintf("encode credentials: %v", err))
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, ls.loginURL, bytes.NewReader(payload))
	if err != nil {
		return failure(account, fmt.Sprintf("build login request: %v", err))
	}
	setBrowserHeaders(req, ls.loginPageURL)

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return failure(account, "request timed out")
		}
		return failure(account, fmt.Sprintf("login request failed: %v", truncateDetail(err.Error())))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return success(account, "login succeeded")

	case resp.StatusCode == http.StatusForbidden && fallback != nil:
		detail := extractDiagnostic(resp)
		log.WithFields(log.Fields{
			"email":  account.Email,
			"detail": detail,
		}).Info("ℹ️ legacy endpoint returned 403, trying WorkOS sign-in")
		return ls.loginWorkOS(ctx, client, account, fallback)

	case resp.StatusCode == http.StatusForbidden:
		// A 403 without a sign-in fallback usually means a challenge the
		// automated flow cannot satisfy (captcha or cookie verification).
		return failure(account, fmt.Sprintf("403 Forbidden (verification may be required): %s", extractDiagnostic(resp)))

	default:
		return failure(account, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, extractDiagnostic(resp)))
	}
}

// preflight requests the login page to pick up session cookies before the
// login POST, which lowers the odds of a 403. It also captures the WorkOS
// sign-in parameters when the page redirects there. Best effort: failures
// are logged and the login attempt proceeds without the cookies.
func (ls *LoginService) preflight(ctx context.Context, client *http.Client, email string) *signinFallback {
	reqCtx, cancel := context.WithTimeout(ctx, ls.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ls.loginPageURL, nil)
	if err != nil {
		log.WithError(err).Warn("⚠️ preflight request build failed, continuing with login")
		return nil
	}
	setBrowserHeaders(req, ls.loginPageURL)

	resp, err := client.Do(req)
	if err != nil {
		log.WithFields(log.Fields{
			"email": email,
		}).WithError(err).Warn("⚠️ login page preflight failed, continuing with login")
		return nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	// resp.Request carries the URL after redirects.
	return fallbackFromURL(resp.Request.URL, ls.signinHost)
}

func setBrowserHeaders(req *http.Request, referer string) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", koyebOrigin)
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgent)
}

// extractDiagnostic pulls a short reason out of an upstream error response:
// the message field when the body is JSON, the truncated raw text otherwise.
func extractDiagnostic(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.Status
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var parsed map[string]interface{}
		if json.Unmarshal(body, &parsed) == nil {
			for _, key := range []string{"message", "error", "detail"} {
				if msg, ok := parsed[key].(string); ok && msg != "" {
					return truncateDetail(msg)
				}
			}
		}
	}

	return truncateDetail(string(bytes.TrimSpace(body)))
}

func truncateDetail(detail string) string {
	if len(detail) > maxDetailLen {
		return detail[:maxDetailLen] + "..."
	}
	return detail
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func success(account models.Account, message string) models.LoginOutcome {
	return models.LoginOutcome{Account: account, Success: true, Message: message}
}

func failure(account models.Account, message string) models.LoginOutcome {
	return models.LoginOutcome{Account: account, Success: false, Message: message}
}
