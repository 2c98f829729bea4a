package model

// Severity represents the risk level of a security finding.
// Levels form a total order: none < low < medium < high < critical.
//
// Design decision: We use iota-based constants rather than string constants
// because:
// 1. Comparisons and sorting become integer operations
// 2. The zero value (SeverityNone) is a sensible default for unknown input
// 3. The String() method pins the serialized form, which also feeds the
//    finding fingerprint and therefore must never change casing
type Severity int

const (
	// SeverityNone indicates findings with no security impact on their own.
	// Used as the fallback when parsing unknown severity strings.
	SeverityNone Severity = iota

	// SeverityLow indicates hygiene issues with limited direct impact.
	// Examples: missing security headers, cookie flags, directory listings.
	SeverityLow

	// SeverityMedium indicates issues that are exploitable under common
	// conditions. Examples: reflected input probes, permissive CORS.
	SeverityMedium

	// SeverityHigh indicates issues with a direct path to compromise.
	// Examples: subdomain takeover candidates, external OAuth redirect targets.
	SeverityHigh

	// SeverityCritical indicates confirmed, immediately exploitable issues.
	// Reserved for validated findings promoted during review.
	SeverityCritical
)

// severityNames holds the canonical lowercase names. Index matches the
// iota value. These strings participate in fingerprint hashing, so the
// list is append-only.
var severityNames = [...]string{"none", "low", "medium", "high", "critical"}

// String returns the canonical lowercase name of the severity level.
func (s Severity) String() string {
	if s < SeverityNone || int(s) >= len(severityNames) {
		return "none"
	}
	return severityNames[s]
}

// ParseSeverity converts a severity name to its Severity value.
// Unknown names map to SeverityNone.
func ParseSeverity(name string) Severity {
	for i, n := range severityNames {
		if n == name {
			return Severity(i)
		}
	}
	return SeverityNone
}

// MarshalText implements encoding.TextMarshaler so Severity serializes
// as its lowercase name in JSON and YAML.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown names deserialize to SeverityNone rather than erroring, so
// records from newer versions still load.
func (s *Severity) UnmarshalText(text []byte) error {
	*s = ParseSeverity(string(text))
	return nil
}

// FindingInfo contains metadata about a finding type: its severity and a
// short impact description attached to emitted findings.
type FindingInfo struct {
	Severity Severity
	Impact   string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across the
// application.
//
// Design decision: We use a map rather than embedding severity in each check
// because:
// 1. It allows updating risk assessments without modifying check logic
// 2. It provides a single source of truth for risk levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// HIGH - direct path to compromise
	"subdomain_takeover_possible": {
		Severity: SeverityHigh,
		Impact:   "A dangling DNS record pointing at an unclaimed provider resource lets an attacker serve content on this hostname.",
	},
	"oauth_redirect_uri_external": {
		Severity: SeverityHigh,
		Impact:   "An authorization endpoint accepting an external redirect_uri can leak authorization codes or tokens to an attacker-controlled host.",
	},
	"saml_relaystate_external_redirect": {
		Severity: SeverityHigh,
		Impact:   "A RelayState resolving outside the target scope can redirect users to an attacker-controlled host after SSO completes.",
	},

	// MEDIUM - exploitable under common conditions
	"cors_misconfiguration": {
		Severity: SeverityMedium,
		Impact:   "Wildcard origins combined with credentials allow any site to read authenticated responses.",
	},
	"reflected_xss_param_probe": {
		Severity: SeverityMedium,
		Impact:   "A query parameter is echoed into the response unencoded, the precondition for reflected cross-site scripting.",
	},
	"open_redirect_param": {
		Severity: SeverityMedium,
		Impact:   "A redirect parameter accepts arbitrary external URLs, usable for phishing and token exfiltration chains.",
	},
	"jsonp_reflection": {
		Severity: SeverityMedium,
		Impact:   "A JSONP callback parameter is reflected into executable output, allowing cross-site data reads.",
	},
	"oauth_pkce_missing": {
		Severity: SeverityMedium,
		Impact:   "An authorization-code request without PKCE is exposed to code interception on public clients.",
	},
	"oidc_pkce_s256_missing": {
		Severity: SeverityMedium,
		Impact:   "The OpenID Connect provider does not advertise S256 PKCE, leaving code flows downgradable.",
	},
	"saml_request_param_exposed": {
		Severity: SeverityMedium,
		Impact:   "SAML messages passed as GET query parameters end up in logs, referrers, and browser history.",
	},
	"exif_gps_location": {
		Severity: SeverityMedium,
		Impact:   "An image served by the target embeds GPS coordinates, leaking a physical location.",
	},

	// LOW - hygiene issues
	"csrf_missing_token": {
		Severity: SeverityLow,
		Impact:   "A state-changing form carries no recognizable anti-CSRF token field.",
	},
	"security_headers_missing": {
		Severity: SeverityLow,
		Impact:   "Baseline response headers that blunt whole bug classes are absent.",
	},
	"cookie_flags_missing": {
		Severity: SeverityLow,
		Impact:   "A cookie is set without Secure or HttpOnly, exposing it to interception or script access.",
	},
	"dir_listing": {
		Severity: SeverityLow,
		Impact:   "Directory indexes expose file layout and potentially sensitive artifacts.",
	},
	"csp_weak_policy": {
		Severity: SeverityLow,
		Impact:   "The Content-Security-Policy permits inline or eval script, weakening XSS mitigation.",
	},
	"mixed_content": {
		Severity: SeverityLow,
		Impact:   "An HTTPS page loads subresources over plain HTTP, exposing them to tampering.",
	},
	"oauth_implicit_flow_enabled": {
		Severity: SeverityLow,
		Impact:   "The implicit grant returns tokens in the URL fragment, where they leak through history and referrers.",
	},
	"oidc_implicit_enabled": {
		Severity: SeverityLow,
		Impact:   "The OpenID Connect provider still advertises implicit response types.",
	},
	"saml_request_get_exposure": {
		Severity: SeverityLow,
		Impact:   "The HTTP-Redirect binding carries SAML requests in the URL, where intermediaries can observe them.",
	},
	"exif_metadata": {
		Severity: SeverityLow,
		Impact:   "An image served by the target retains EXIF metadata such as camera model or software versions.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityNone for unknown types.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityNone
}

// GetFindingInfo returns the full metadata for a finding type.
// The second return value reports whether the type is known.
func GetFindingInfo(findingType string) (FindingInfo, bool) {
	info, ok := findingInfoMapping[findingType]
	return info, ok
}

// FindingTypes returns all registered finding types.
// Useful for documentation and for validating external records.
func FindingTypes() []string {
	types := make([]string, 0, len(findingInfoMapping))
	for t := range findingInfoMapping {
		types = append(types, t)
	}
	return types
}
