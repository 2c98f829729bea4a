package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// MixedContentCheck flags HTTPS pages that reference subresources over
// plain HTTP.
type MixedContentCheck struct{}

// NewMixedContentCheck creates a MixedContentCheck.
func NewMixedContentCheck() *MixedContentCheck {
	return &MixedContentCheck{}
}

// Name returns the analyzer name.
func (c *MixedContentCheck) Name() string {
	return "mixed_content"
}

// Run reports mixed_content with the count of http:// script, img, and
// link references on an https page.
func (c *MixedContentCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !strings.HasPrefix(strings.ToLower(page.URL), "https://") {
		return nil, nil
	}
	if !page.IsHTML() {
		return nil, nil
	}
	count := countInsecureResources(page.Body)
	if count == 0 {
		return nil, nil
	}
	evidence := fmt.Sprintf("%d http:// resources on https page", count)
	return []model.Finding{model.NewFinding("mixed_content", page.URL, evidence)}, nil
}

// Ensure MixedContentCheck implements Check.
var _ Check = (*MixedContentCheck)(nil)
