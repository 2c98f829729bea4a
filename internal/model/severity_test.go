package model

import (
	"encoding/json"
	"testing"
)

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityNone, "none"},
		{SeverityLow, "low"},
		{SeverityMedium, "medium"},
		{SeverityHigh, "high"},
		{SeverityCritical, "critical"},
		{Severity(999), "none"},
		{Severity(-1), "none"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestParseSeverity tests parsing severity names back to values.
func TestParseSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected Severity
	}{
		{"none", SeverityNone},
		{"low", SeverityLow},
		{"medium", SeverityMedium},
		{"high", SeverityHigh},
		{"critical", SeverityCritical},
		{"CRITICAL", SeverityNone}, // case sensitive: canonical form is lowercase
		{"", SeverityNone},
		{"bogus", SeverityNone},
	}

	for _, tc := range testCases {
		t.Run("parse_"+tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseSeverity(tc.name); got != tc.expected {
				t.Errorf("ParseSeverity(%q) = %v, expected %v", tc.name, got, tc.expected)
			}
		})
	}
}

// TestSeverityOrdering tests that severity levels are ordered correctly.
// none < low < medium < high < critical
func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if !(SeverityNone < SeverityLow) {
		t.Error("SeverityNone should be less than SeverityLow")
	}
	if !(SeverityLow < SeverityMedium) {
		t.Error("SeverityLow should be less than SeverityMedium")
	}
	if !(SeverityMedium < SeverityHigh) {
		t.Error("SeverityMedium should be less than SeverityHigh")
	}
	if !(SeverityHigh < SeverityCritical) {
		t.Error("SeverityHigh should be less than SeverityCritical")
	}
}

// TestSeverityJSON tests that Severity round-trips through JSON as its
// lowercase name.
func TestSeverityJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshal", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(SeverityHigh)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `"high"` {
			t.Errorf("got %s, expected %q", data, `"high"`)
		}
	})

	t.Run("unmarshal", func(t *testing.T) {
		t.Parallel()
		var s Severity
		if err := json.Unmarshal([]byte(`"medium"`), &s); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if s != SeverityMedium {
			t.Errorf("got %v, expected %v", s, SeverityMedium)
		}
	})

	t.Run("unknown name maps to none", func(t *testing.T) {
		t.Parallel()
		var s Severity
		if err := json.Unmarshal([]byte(`"catastrophic"`), &s); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if s != SeverityNone {
			t.Errorf("got %v, expected %v", s, SeverityNone)
		}
	})
}

// TestGetSeverity tests the central type-to-severity mapping.
func TestGetSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		findingType string
		expected    Severity
	}{
		// High findings
		{"subdomain_takeover_possible", SeverityHigh},
		{"oauth_redirect_uri_external", SeverityHigh},
		{"saml_relaystate_external_redirect", SeverityHigh},

		// Medium findings
		{"cors_misconfiguration", SeverityMedium},
		{"reflected_xss_param_probe", SeverityMedium},
		{"open_redirect_param", SeverityMedium},
		{"jsonp_reflection", SeverityMedium},
		{"oauth_pkce_missing", SeverityMedium},

		// Low findings
		{"csrf_missing_token", SeverityLow},
		{"security_headers_missing", SeverityLow},
		{"cookie_flags_missing", SeverityLow},
		{"dir_listing", SeverityLow},
		{"csp_weak_policy", SeverityLow},
		{"mixed_content", SeverityLow},

		// Unknown finding type defaults to none
		{"unknown_type", SeverityNone},
	}

	for _, tc := range testCases {
		t.Run(tc.findingType, func(t *testing.T) {
			t.Parallel()
			result := GetSeverity(tc.findingType)
			if result != tc.expected {
				t.Errorf("GetSeverity(%q) = %v, expected %v", tc.findingType, result, tc.expected)
			}
		})
	}
}

// TestGetFindingInfo tests that registered types carry impact text.
func TestGetFindingInfo(t *testing.T) {
	t.Parallel()

	info, ok := GetFindingInfo("csrf_missing_token")
	if !ok {
		t.Fatal("csrf_missing_token should be a registered finding type")
	}
	if info.Severity != SeverityLow {
		t.Errorf("severity = %v, expected %v", info.Severity, SeverityLow)
	}
	if info.Impact == "" {
		t.Error("registered finding types should carry impact text")
	}

	if _, ok := GetFindingInfo("no_such_type"); ok {
		t.Error("unknown type should not be registered")
	}
}
