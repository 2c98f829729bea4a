package checks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// redirectProbeTarget is the external URL injected into redirect
// parameters. example.org is reserved and never serves anything a
// victim could be sent to.
const redirectProbeTarget = "https://example.org/"

// redirectParamNames are the query parameters commonly used to carry
// post-action destinations.
var redirectParamNames = map[string]struct{}{
	"redirect": {}, "redir": {}, "url": {}, "next": {}, "return": {}, "continue": {},
}

// OpenRedirectCheck probes redirect-style parameters with an external
// URL and flags endpoints that bounce to it unvalidated.
type OpenRedirectCheck struct{}

// NewOpenRedirectCheck creates an OpenRedirectCheck.
func NewOpenRedirectCheck() *OpenRedirectCheck {
	return &OpenRedirectCheck{}
}

// Name returns the analyzer name.
func (c *OpenRedirectCheck) Name() string {
	return "open_redirect"
}

// Run reports open_redirect_param for every candidate parameter whose
// probe answers with a 3xx Location starting at the external target.
// The probe must not follow the redirect, so it runs on a non-following
// copy of the session client.
func (c *OpenRedirectCheck) Run(ctx context.Context, page *model.Page, session *Session) ([]model.Finding, error) {
	var candidates []string
	for _, key := range queryKeysInOrder(page.URL) {
		if _, ok := redirectParamNames[strings.ToLower(key)]; ok {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	probe := noRedirectClient(session.Client)
	var findings []model.Finding
	for _, key := range candidates {
		probeURL, err := replaceQueryParam(page.URL, key, redirectProbeTarget)
		if err != nil {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			continue
		}
		resp, err := probe.Do(req)
		if err != nil {
			continue
		}
		location := resp.Header.Get("Location")
		resp.Body.Close()

		if isRedirectStatus(resp.StatusCode) && strings.HasPrefix(location, redirectProbeTarget) {
			f := model.NewFinding("open_redirect_param", probeURL,
				fmt.Sprintf("Unvalidated redirect via '%s' -> %s", key, location))
			f.Method = http.MethodGet
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// isRedirectStatus reports whether the status is one of the redirect
// codes a browser would follow.
func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// noRedirectClient copies a client with redirect following disabled.
// The transport and timeout are shared; only redirect policy differs.
func noRedirectClient(base *http.Client) *http.Client {
	return &http.Client{
		Transport: base.Transport,
		Timeout:   base.Timeout,
		Jar:       base.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Ensure OpenRedirectCheck implements Check.
var _ Check = (*OpenRedirectCheck)(nil)
