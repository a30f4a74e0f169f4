package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"koyeb-checker/internal/models"
)

// signinFallback holds the WorkOS sign-in parameters captured from the
// login page redirect. Koyeb migrated browser logins to signin.koyeb.com;
// when the legacy API answers 403 these parameters let us finish the login
// through the new flow instead.
type signinFallback struct {
	base      string
	referer   string
	clientID  string
	redirect  string
	state     string
	sessionID string
}

// koyebSigninHost is the WorkOS-hosted sign-in domain the login page
// redirects to for migrated accounts.
const koyebSigninHost = "signin.koyeb.com"

// fallbackFromURL extracts WorkOS parameters from the final preflight URL.
// Returns nil when the page did not redirect to the sign-in host.
func fallbackFromURL(u *url.URL, signinHost string) *signinFallback {
	if u == nil || !strings.Contains(u.Host, signinHost) {
		return nil
	}

	q := u.Query()
	return &signinFallback{
		base:      fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		referer:   u.String(),
		clientID:  q.Get("client_id"),
		redirect:  q.Get("redirect_uri"),
		state:     q.Get("state"),
		sessionID: q.Get("authorization_session_id"),
	}
}

// loginWorkOS submits the credentials to the WorkOS sign-in host, reusing
// the session cookies from the preflight. A redirect response means the
// authorization succeeded; its callback is fetched best effort to complete
// the session.
func (ls *LoginService) loginWorkOS(ctx context.Context, client *http.Client, account models.Account, fb *signinFallback) models.LoginOutcome {
	reqCtx, cancel := context.WithTimeout(ctx, ls.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"email":                    strings.TrimSpace(account.Email),
		"password":                 account.Password,
		"client_id":                fb.clientID,
		"redirect_uri":             fb.redirect,
		"state":                    fb.state,
		"authorization_session_id": fb.sessionID,
	})
	if err != nil {
		return failure(account, fmt.Sprintf("encode WorkOS payload: %v", err))
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, fb.base, bytes.NewReader(payload))
	if err != nil {
		return failure(account, fmt.Sprintf("build WorkOS request: %v", err))
	}
	setBrowserHeaders(req, fb.referer)

	// Redirects are handled manually here so the authorization callback in
	// the Location header can be observed.
	noFollow := &http.Client{
		Jar:     client.Jar,
		Timeout: client.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := noFollow.Do(req)
	if err != nil {
		if isTimeout(err) {
			return failure(account, "request timed out")
		}
		return failure(account, fmt.Sprintf("WorkOS login failed: %v", truncateDetail(err.Error())))
	}
	defer resp.Body.Close()

	redirected := resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusSeeOther
	if redirected {
		if callback := resp.Header.Get("Location"); callback != "" {
			ls.followCallback(ctx, client, fb, callback)
		}
	}

	if (resp.StatusCode >= 200 && resp.StatusCode < 300) || redirected {
		return success(account, "WorkOS login succeeded")
	}

	return failure(account, fmt.Sprintf("WorkOS login failed: HTTP %d %s", resp.StatusCode, extractDiagnostic(resp)))
}

// followCallback completes the authorization by fetching the callback URL.
// Best effort: a failure here does not change the login outcome.
func (ls *LoginService) followCallback(ctx context.Context, client *http.Client, fb *signinFallback, callback string) {
	reqCtx, cancel := context.WithTimeout(ctx, ls.timeout)
	defer cancel()

	if strings.HasPrefix(callback, "/") {
		callback = fb.base + callback
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, callback, nil)
	if err != nil {
		log.WithError(err).Warn("⚠️ WorkOS callback request build failed")
		return
	}
	setBrowserHeaders(req, fb.referer)

	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Warn("⚠️ WorkOS callback fetch failed")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
}
