package checks

import (
	"context"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// requiredSecurityHeaders are the baseline response headers every page
// is expected to carry. Their absence is reported as one finding
// listing the whole missing set.
var requiredSecurityHeaders = []string{
	"content-security-policy",
	"x-frame-options",
	"x-content-type-options",
	"referrer-policy",
}

// SecurityHeadersCheck flags responses missing baseline security
// headers.
type SecurityHeadersCheck struct{}

// NewSecurityHeadersCheck creates a SecurityHeadersCheck.
func NewSecurityHeadersCheck() *SecurityHeadersCheck {
	return &SecurityHeadersCheck{}
}

// Name returns the analyzer name.
func (c *SecurityHeadersCheck) Name() string {
	return "security_headers"
}

// Run reports one security_headers_missing finding when any required
// header is absent.
func (c *SecurityHeadersCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	var missing []string
	for _, name := range requiredSecurityHeaders {
		if page.HeaderValue(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	evidence := "Missing headers: " + strings.Join(missing, ", ")
	return []model.Finding{model.NewFinding("security_headers_missing", page.URL, evidence)}, nil
}

// Ensure SecurityHeadersCheck implements Check.
var _ Check = (*SecurityHeadersCheck)(nil)
