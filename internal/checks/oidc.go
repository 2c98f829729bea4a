package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// oidcDiscovery is the subset of the OpenID Connect discovery document
// the check inspects.
type oidcDiscovery struct {
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
}

// OIDCDiscoveryCheck parses OpenID Connect discovery documents and
// flags providers that omit S256 PKCE or still advertise implicit and
// hybrid response types.
type OIDCDiscoveryCheck struct{}

// NewOIDCDiscoveryCheck creates an OIDCDiscoveryCheck.
func NewOIDCDiscoveryCheck() *OIDCDiscoveryCheck {
	return &OIDCDiscoveryCheck{}
}

// Name returns the analyzer name.
func (c *OIDCDiscoveryCheck) Name() string {
	return "oidc_discovery"
}

// Run reports oidc_pkce_s256_missing and oidc_implicit_enabled from
// the provider metadata at /.well-known/openid-configuration.
func (c *OIDCDiscoveryCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	u, err := url.Parse(page.URL)
	if err != nil {
		return nil, nil
	}
	if !strings.HasSuffix(u.Path, "/.well-known/openid-configuration") {
		return nil, nil
	}

	var doc oidcDiscovery
	if err := json.Unmarshal(page.Body, &doc); err != nil {
		return nil, nil
	}

	var findings []model.Finding
	if !containsFold(doc.CodeChallengeMethodsSupported, "S256") {
		evidence := "OpenID discovery lacks S256 in code_challenge_methods_supported"
		findings = append(findings, model.NewFinding("oidc_pkce_s256_missing", page.URL, evidence))
	}

	var implicit []string
	for _, rt := range doc.ResponseTypesSupported {
		for _, part := range strings.Fields(rt) {
			if part == "token" || part == "id_token" {
				implicit = append(implicit, rt)
				break
			}
		}
	}
	if len(implicit) > 0 {
		evidence := fmt.Sprintf("Implicit/hybrid response_types advertised: %v", implicit)
		findings = append(findings, model.NewFinding("oidc_implicit_enabled", page.URL, evidence))
	}
	return findings, nil
}

// containsFold reports whether values contains want, ignoring case.
func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// Ensure OIDCDiscoveryCheck implements Check.
var _ Check = (*OIDCDiscoveryCheck)(nil)
