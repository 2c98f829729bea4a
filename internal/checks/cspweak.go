package checks

import (
	"context"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// cspWeakTokens are the source expressions that neuter a CSP's script
// protections.
var cspWeakTokens = []string{"'unsafe-inline'", "'unsafe-eval'"}

// CSPWeakCheck flags Content-Security-Policy values that permit inline
// or eval script.
type CSPWeakCheck struct{}

// NewCSPWeakCheck creates a CSPWeakCheck.
func NewCSPWeakCheck() *CSPWeakCheck {
	return &CSPWeakCheck{}
}

// Name returns the analyzer name.
func (c *CSPWeakCheck) Name() string {
	return "csp_weak"
}

// Run reports csp_weak_policy listing the weak tokens present. Pages
// without a CSP are left to the security-headers check.
func (c *CSPWeakCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	csp := page.HeaderValue("Content-Security-Policy")
	if csp == "" {
		return nil, nil
	}
	lower := strings.ToLower(csp)
	var bad []string
	for _, token := range cspWeakTokens {
		if strings.Contains(lower, token) {
			bad = append(bad, token)
		}
	}
	if len(bad) == 0 {
		return nil, nil
	}
	evidence := "CSP allows " + strings.Join(bad, ", ")
	return []model.Finding{model.NewFinding("csp_weak_policy", page.URL, evidence)}, nil
}

// Ensure CSPWeakCheck implements Check.
var _ Check = (*CSPWeakCheck)(nil)
