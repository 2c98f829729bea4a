package checks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// queryHasParamFold reports whether any query parameter matches name
// case-insensitively.
func queryHasParamFold(query url.Values, name string) bool {
	for key := range query {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// SAMLRelayStateCheck flags SAML authentication requests whose
// RelayState resolves to a host unrelated to the request's own. An
// attacker-controlled RelayState turns the IdP round trip into an open
// redirect.
type SAMLRelayStateCheck struct{}

// NewSAMLRelayStateCheck creates a SAMLRelayStateCheck.
func NewSAMLRelayStateCheck() *SAMLRelayStateCheck {
	return &SAMLRelayStateCheck{}
}

// Name returns the analyzer name.
func (c *SAMLRelayStateCheck) Name() string {
	return "saml_relaystate"
}

// Run reports saml_relaystate_external_redirect for RelayState values
// pointing off-site.
func (c *SAMLRelayStateCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	query := page.Query()
	if !queryHasParamFold(query, "SAMLRequest") {
		return nil, nil
	}
	relay := query.Get("RelayState")
	if relay == "" {
		relay = query.Get("relaystate")
	}
	if relay == "" {
		return nil, nil
	}
	parsed, err := url.Parse(relay)
	if err != nil {
		return nil, nil
	}
	host := strings.ToLower(parsed.Host)
	srcHost := page.Host()
	if !isExternalHost(host, srcHost) {
		return nil, nil
	}
	evidence := fmt.Sprintf("RelayState points off-site: %s (source host: %s)", relay, srcHost)
	return []model.Finding{model.NewFinding("saml_relaystate_external_redirect", page.URL, evidence)}, nil
}

// SAMLRequestExposureCheck flags SAML requests carried in the query
// string. The HTTP-Redirect binding leaks the request through logs,
// referrers, and browser history.
type SAMLRequestExposureCheck struct{}

// NewSAMLRequestExposureCheck creates a SAMLRequestExposureCheck.
func NewSAMLRequestExposureCheck() *SAMLRequestExposureCheck {
	return &SAMLRequestExposureCheck{}
}

// Name returns the analyzer name.
func (c *SAMLRequestExposureCheck) Name() string {
	return "saml_request_exposure"
}

// Run reports saml_request_get_exposure when SAMLRequest travels as a
// GET parameter.
func (c *SAMLRequestExposureCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !queryHasParamFold(page.Query(), "SAMLRequest") {
		return nil, nil
	}
	evidence := "SAMLRequest observed via GET (HTTP-Redirect binding)."
	return []model.Finding{model.NewFinding("saml_request_get_exposure", page.URL, evidence)}, nil
}

// SAMLRequestParamCheck flags any URL carrying SAML protocol
// parameters, marking single sign-on surface worth manual review.
type SAMLRequestParamCheck struct{}

// NewSAMLRequestParamCheck creates a SAMLRequestParamCheck.
func NewSAMLRequestParamCheck() *SAMLRequestParamCheck {
	return &SAMLRequestParamCheck{}
}

// Name returns the analyzer name.
func (c *SAMLRequestParamCheck) Name() string {
	return "saml_request_param"
}

// Run reports saml_request_param_exposed when SAMLRequest or
// SAMLResponse appears in the query string.
func (c *SAMLRequestParamCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	query := page.Query()
	if !queryHasParamFold(query, "SAMLRequest") && !queryHasParamFold(query, "SAMLResponse") {
		return nil, nil
	}
	evidence := fmt.Sprintf("SAML parameter detected on %s", page.URL)
	return []model.Finding{model.NewFinding("saml_request_param_exposed", page.URL, evidence)}, nil
}

// Ensure the SAML checks implement Check.
var (
	_ Check = (*SAMLRelayStateCheck)(nil)
	_ Check = (*SAMLRequestExposureCheck)(nil)
	_ Check = (*SAMLRequestParamCheck)(nil)
)
