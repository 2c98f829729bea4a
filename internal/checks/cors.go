package checks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// preflightOrigin is the foreign origin used to probe CORS preflight
// behavior.
const preflightOrigin = "https://example.org"

// CORSCheck flags wildcard origins combined with credentials, the
// combination that lets any site read authenticated responses.
type CORSCheck struct{}

// NewCORSCheck creates a CORSCheck.
func NewCORSCheck() *CORSCheck {
	return &CORSCheck{}
}

// Name returns the analyzer name.
func (c *CORSCheck) Name() string {
	return "cors"
}

// Run reports cors_misconfiguration when the page answers with
// Access-Control-Allow-Origin:* and Access-Control-Allow-Credentials:true.
// A preflight probe is issued to capture the server's OPTIONS behavior
// in the evidence.
func (c *CORSCheck) Run(ctx context.Context, page *model.Page, session *Session) ([]model.Finding, error) {
	origin := strings.TrimSpace(page.HeaderValue("Access-Control-Allow-Origin"))
	credentials := strings.TrimSpace(page.HeaderValue("Access-Control-Allow-Credentials"))
	if origin != "*" || !strings.EqualFold(credentials, "true") {
		return nil, nil
	}

	pf := corsPreflight(ctx, session.Client, page.URL, preflightOrigin)
	evidence := fmt.Sprintf("ACA-Origin:* with ACA-Credentials:true; preflight=%s", pf)
	return []model.Finding{model.NewFinding("cors_misconfiguration", page.URL, evidence)}, nil
}

// preflightResult captures the outcome of a CORS preflight probe.
type preflightResult struct {
	OK          bool
	Status      int
	AllowOrigin string
	Credentials string
	Err         string
}

// String renders the result for finding evidence.
func (r preflightResult) String() string {
	if !r.OK {
		return fmt.Sprintf("{ok:false error:%s}", r.Err)
	}
	return fmt.Sprintf("{ok:true status:%d allow-origin:%q credentials:%q}", r.Status, r.AllowOrigin, r.Credentials)
}

// corsPreflight issues an OPTIONS request the way a browser would before
// a credentialed cross-origin call. Network failures are reported in
// the result, never as an error: the probe is evidence, not a gate.
func corsPreflight(ctx context.Context, client *http.Client, rawURL, origin string) preflightResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, rawURL, nil)
	if err != nil {
		return preflightResult{Err: "request"}
	}
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "authorization")

	resp, err := client.Do(req)
	if err != nil {
		return preflightResult{Err: "network"}
	}
	defer resp.Body.Close()

	return preflightResult{
		OK:          true,
		Status:      resp.StatusCode,
		AllowOrigin: resp.Header.Get("Access-Control-Allow-Origin"),
		Credentials: resp.Header.Get("Access-Control-Allow-Credentials"),
	}
}

// Ensure CORSCheck implements Check.
var _ Check = (*CORSCheck)(nil)
