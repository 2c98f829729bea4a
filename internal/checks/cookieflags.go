package checks

import (
	"context"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// cookieEvidenceLimit caps how much of a Set-Cookie value lands in the
// evidence. Session cookie values can be long and the tail adds nothing.
const cookieEvidenceLimit = 300

// CookieFlagsCheck flags cookies set without Secure or HttpOnly.
type CookieFlagsCheck struct{}

// NewCookieFlagsCheck creates a CookieFlagsCheck.
func NewCookieFlagsCheck() *CookieFlagsCheck {
	return &CookieFlagsCheck{}
}

// Name returns the analyzer name.
func (c *CookieFlagsCheck) Name() string {
	return "cookie_flags"
}

// Run reports cookie_flags_missing for the first Set-Cookie header that
// lacks Secure or HttpOnly. At most one finding per page.
func (c *CookieFlagsCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	for _, value := range page.Header.Values("Set-Cookie") {
		if value == "" {
			continue
		}
		lower := strings.ToLower(value)
		if strings.Contains(lower, "secure") && strings.Contains(lower, "httponly") {
			continue
		}
		if len(value) > cookieEvidenceLimit {
			value = value[:cookieEvidenceLimit]
		}
		return []model.Finding{model.NewFinding("cookie_flags_missing", page.URL, value)}, nil
	}
	return nil, nil
}

// Ensure CookieFlagsCheck implements Check.
var _ Check = (*CookieFlagsCheck)(nil)
