package checks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// authorizePathHints mark URLs that look like OAuth/OIDC authorization
// endpoints. Matching is containment on the lowercased path.
var authorizePathHints = []string{"/oauth", "/authorize", "/login/oauth", "/connect/authorize"}

// redirectURIParams are the parameters an authorization request carries
// its post-login destination in, in lookup order.
var redirectURIParams = []string{"redirect_uri", "redirect_url", "continue", "next"}

// isAuthorizeEndpoint reports whether a page path looks like an
// authorization endpoint.
func isAuthorizeEndpoint(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, hint := range authorizePathHints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}

// OAuthRedirectURICheck flags authorization requests whose redirect
// target points at a host unrelated to the endpoint's own.
type OAuthRedirectURICheck struct{}

// NewOAuthRedirectURICheck creates an OAuthRedirectURICheck.
func NewOAuthRedirectURICheck() *OAuthRedirectURICheck {
	return &OAuthRedirectURICheck{}
}

// Name returns the analyzer name.
func (c *OAuthRedirectURICheck) Name() string {
	return "oauth_redirect_uri"
}

// Run reports oauth_redirect_uri_external when a redirect parameter on
// an authorization endpoint resolves to an external host.
func (c *OAuthRedirectURICheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !isAuthorizeEndpoint(page.URL) {
		return nil, nil
	}
	query := page.Query()
	var target string
	for _, param := range redirectURIParams {
		if v := query.Get(param); v != "" {
			target = v
			break
		}
	}
	if target == "" {
		return nil, nil
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, nil
	}
	host := strings.ToLower(parsed.Host)
	srcHost := page.Host()
	if !isExternalHost(host, srcHost) {
		return nil, nil
	}
	evidence := fmt.Sprintf("redirect_uri points to external host: %s (source host: %s)", target, srcHost)
	return []model.Finding{model.NewFinding("oauth_redirect_uri_external", page.URL, evidence)}, nil
}

// OAuthImplicitFlowCheck flags authorization requests using the
// implicit grant, which returns tokens in the URL fragment.
type OAuthImplicitFlowCheck struct{}

// NewOAuthImplicitFlowCheck creates an OAuthImplicitFlowCheck.
func NewOAuthImplicitFlowCheck() *OAuthImplicitFlowCheck {
	return &OAuthImplicitFlowCheck{}
}

// Name returns the analyzer name.
func (c *OAuthImplicitFlowCheck) Name() string {
	return "oauth_implicit"
}

// Run reports oauth_implicit_flow_enabled for response_type values
// requesting a token without a code.
func (c *OAuthImplicitFlowCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !isAuthorizeEndpoint(page.URL) {
		return nil, nil
	}
	responseType := strings.ToLower(page.Query().Get("response_type"))
	if !strings.Contains(responseType, "token") || strings.Contains(responseType, "code") {
		return nil, nil
	}
	evidence := fmt.Sprintf("response_type=%s (implicit flow) observed on %s", responseType, page.URL)
	return []model.Finding{model.NewFinding("oauth_implicit_flow_enabled", page.URL, evidence)}, nil
}

// OAuthPKCECheck flags authorization-code requests made without PKCE,
// or with a PKCE method weaker than S256.
type OAuthPKCECheck struct{}

// NewOAuthPKCECheck creates an OAuthPKCECheck.
func NewOAuthPKCECheck() *OAuthPKCECheck {
	return &OAuthPKCECheck{}
}

// Name returns the analyzer name.
func (c *OAuthPKCECheck) Name() string {
	return "oauth_pkce"
}

// Run reports oauth_pkce_missing for code flows without a
// code_challenge, and for challenges negotiated with a method other
// than S256.
func (c *OAuthPKCECheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !isAuthorizeEndpoint(page.URL) {
		return nil, nil
	}
	query := page.Query()
	responseType := strings.ToLower(query.Get("response_type"))

	if strings.Contains(responseType, "code") && query.Get("code_challenge") == "" {
		evidence := fmt.Sprintf("Authorization request without PKCE code_challenge observed: %s", page.URL)
		return []model.Finding{model.NewFinding("oauth_pkce_missing", page.URL, evidence)}, nil
	}
	if method := query.Get("code_challenge_method"); query.Get("code_challenge") != "" && !strings.EqualFold(method, "S256") {
		evidence := fmt.Sprintf("PKCE code_challenge_method is not S256: %s @ %s", method, page.URL)
		return []model.Finding{model.NewFinding("oauth_pkce_missing", page.URL, evidence)}, nil
	}
	return nil, nil
}

// Ensure the OAuth checks implement Check.
var (
	_ Check = (*OAuthRedirectURICheck)(nil)
	_ Check = (*OAuthImplicitFlowCheck)(nil)
	_ Check = (*OAuthPKCECheck)(nil)
)
