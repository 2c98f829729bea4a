package checks

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/techmad220/RavenX/internal/model"
)

// Check analyzes one fetched page for a class of security issues.
//
// Design decision: We use an explicit interface with an explicit ordered
// registration list rather than an import-time registry because:
// 1. The pipeline a crawl runs with is visible at the construction site
// 2. Callers merge extra checks by appending to a slice, nothing global
// 3. Tests can run a single check in isolation without registry setup
type Check interface {
	// Name returns the stable analyzer name used in logs.
	Name() string

	// Run analyzes the page and returns any findings. Follow-up probes go
	// through session.Client. Errors are isolated by the caller: they
	// void this check's findings for this page only.
	Run(ctx context.Context, page *model.Page, session *Session) ([]model.Finding, error)
}

// Session is the per-crawl state shared by all checks.
//
// The memo is a plain keyed store. Checks coordinate through it by
// convention: a later check may read what an earlier one wrote, and
// once-only work is guarded with Claim. The session, and with it the
// memo, lives exactly as long as one crawl.
type Session struct {
	// Client is the crawler's HTTP client. Probes issued through it
	// inherit the crawl's timeout, transport, and User-Agent.
	Client *http.Client

	// memo holds cross-check state for the session.
	memo sync.Map
}

// NewSession creates a session around the crawler's client.
func NewSession(client *http.Client) *Session {
	return &Session{Client: client}
}

// MemoGet returns the memo value for a key.
func (s *Session) MemoGet(key string) (any, bool) {
	return s.memo.Load(key)
}

// MemoSet stores a memo value.
func (s *Session) MemoSet(key string, value any) {
	s.memo.Store(key, value)
}

// Claim atomically marks a key as taken and reports whether this caller
// was first. Per-host once-only checks claim "<check>:<host>" so
// concurrent workers on the same host cannot both run the probe.
func (s *Session) Claim(key string) bool {
	_, loaded := s.memo.LoadOrStore(key, struct{}{})
	return !loaded
}

// replaceQueryParam rebuilds a URL with one query parameter replaced and
// the fragment dropped. Probe checks use this to inject test values.
func replaceQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// isExternalHost reports whether candidate points away from source.
// Hosts related by containment or suffix in either direction count as
// internal; everything else is external. Used by the OAuth and SAML
// redirect checks.
func isExternalHost(candidate, source string) bool {
	if candidate == "" {
		return false
	}
	if strings.Contains(source, candidate) {
		return false
	}
	if strings.HasSuffix(source, candidate) || strings.HasSuffix(candidate, source) {
		return false
	}
	return true
}
