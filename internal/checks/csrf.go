package checks

import (
	"context"

	"github.com/techmad220/RavenX/internal/model"
)

// csrfTokenNames are the input names recognized as anti-CSRF token
// fields. Names are compared exactly (case-insensitive); framework
// variants outside this list count as missing, which is why the check
// is a heuristic.
var csrfTokenNames = []string{"csrf", "_csrf", "csrf_token", "authenticity_token", "xsrf", "_token"}

// CSRFCheck flags POST forms that carry no recognizable anti-CSRF token
// field. Heuristic: token-less forms may be protected by other means
// (custom headers, same-site cookies), hence the low severity.
type CSRFCheck struct{}

// NewCSRFCheck creates a CSRFCheck.
func NewCSRFCheck() *CSRFCheck {
	return &CSRFCheck{}
}

// Name returns the analyzer name.
func (c *CSRFCheck) Name() string {
	return "csrf"
}

// Run reports csrf_missing_token once per POST form without a token
// field.
func (c *CSRFCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !page.IsHTML() {
		return nil, nil
	}

	var findings []model.Finding
	for _, form := range parseForms(page.Body) {
		if !form.IsPost() {
			continue
		}
		if c.hasTokenField(&form) {
			continue
		}
		findings = append(findings, model.NewFinding(
			"csrf_missing_token", page.URL,
			"POST form without obvious CSRF token field (heuristic).",
		))
	}
	return findings, nil
}

// hasTokenField reports whether any input carries a known token name.
func (c *CSRFCheck) hasTokenField(form *model.Form) bool {
	for _, name := range csrfTokenNames {
		if form.HasInput(name) {
			return true
		}
	}
	return false
}

// Ensure CSRFCheck implements Check.
var _ Check = (*CSRFCheck)(nil)
