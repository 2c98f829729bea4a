package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/techmad220/RavenX/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.ScanReport {
	report := model.NewScanReport("scan-0a1b2c3d", []string{"http://app.example.com"})
	report.PagesCrawled = 12
	report.URLsVisited = 14
	report.ElapsedSeconds = 8.4

	report.AddFinding(model.NewFinding("subdomain_takeover_possible", "http://old.example.com/", "CNAME old.example.com unclaimed.provider.io"))
	report.AddFinding(model.NewFinding("cors_misconfiguration", "http://app.example.com/api", "Access-Control-Allow-Origin: * with credentials"))
	report.AddFinding(model.NewFinding("cors_misconfiguration", "http://app.example.com/v2", "Access-Control-Allow-Origin: * with credentials"))
	report.AddFinding(model.NewFinding("dir_listing", "http://app.example.com/files/", "<title>Index of /files</title>"))

	return report
}

// TestTextWriter tests the human-readable report writer.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "RAVENX SCAN REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "scan-0a1b2c3d") {
			t.Error("expected output to contain scan ID")
		}
		if !strings.Contains(output, "http://app.example.com") {
			t.Error("expected output to contain seed URL")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SEVERITY SUMMARY") {
			t.Error("expected output to contain severity summary")
		}
		if !strings.Contains(output, "HIGH:     1") {
			t.Error("expected output to contain high count")
		}
		if !strings.Contains(output, "MEDIUM:   2") {
			t.Error("expected output to contain medium count")
		}
		if !strings.Contains(output, "TOTAL:    4 findings") {
			t.Error("expected output to contain total count")
		}
	})

	t.Run("writes finding counts by type", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FINDINGS BY TYPE") {
			t.Error("expected output to contain type counts section")
		}
		if !strings.Contains(output, "CORS Misconfiguration") {
			t.Error("expected output to contain CORS type title")
		}
		if !strings.Contains(output, "Subdomain Takeover Possible") {
			t.Error("expected output to contain takeover type title")
		}
	})

	t.Run("writes findings with evidence", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!!] high") {
			t.Error("expected high severity section")
		}
		if !strings.Contains(output, "Index of /files") {
			t.Error("expected evidence in output")
		}
		if !strings.Contains(output, "Fingerprint:") {
			t.Error("expected fingerprint in output")
		}
	})

	t.Run("verbose mode includes impact", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf, WithVerbose(true))
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Impact:") {
			t.Error("expected verbose output to contain impact text")
		}
	})

	t.Run("handles timed out report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := createTestReport()
		report.TimedOut = true

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "TIMED OUT") {
			t.Error("expected output to indicate timeout")
		}
	})

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := model.NewScanReport("scan-error", []string{"http://app.example.com"})
		report.ErrorMessage = "connection refused"

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ERROR") {
			t.Error("expected ERROR in status")
		}
		if !strings.Contains(output, "connection refused") {
			t.Error("expected error message in output")
		}
	})

	t.Run("shows all severity levels with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf, WithShowEmpty(true))
		report := model.NewScanReport("scan-empty", []string{"http://app.example.com"})

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, indicator := range []string{"[!!!]", "[!!]", "[!]", "[-]", "[i]"} {
			if !strings.Contains(output, indicator) {
				t.Errorf("expected severity indicator %s", indicator)
			}
		}
	})

	t.Run("hides empty sections without showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewTextWriter(&buf)
		report := model.NewScanReport("scan-quiet", []string{"http://app.example.com"})

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "FINDINGS BY TYPE") {
			t.Error("should not show type counts for empty report")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify it's valid JSON
		var parsed model.ScanReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.ScanID != "scan-0a1b2c3d" {
			t.Errorf("expected scan ID %q, got %q", "scan-0a1b2c3d", parsed.ScanID)
		}
		if len(parsed.Findings) != 4 {
			t.Errorf("expected 4 findings, got %d", len(parsed.Findings))
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Compact JSON should be on fewer lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Pretty printed JSON should have multiple lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})
}

// TestWithIndent tests the WithIndent JSON option.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})
}

// TestFullJSONWriter tests the full JSON writer with metadata.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("includes version and summary in output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.0.0", WithPrettyPrint())
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed JSONReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Version != "1.0.0" {
			t.Errorf("expected version %q, got %q", "1.0.0", parsed.Version)
		}
		if parsed.Summary["medium"] != 2 {
			t.Errorf("expected 2 medium findings in summary, got %d", parsed.Summary["medium"])
		}
		if parsed.Report == nil || parsed.Report.ScanID != "scan-0a1b2c3d" {
			t.Error("expected wrapped report with scan ID")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		w1 := NewTextWriter(&buf1)
		w2 := NewJSONWriter(&buf2)

		multi := NewMultiWriter(w1, w2)
		report := createTestReport()

		_, err := multi.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Check both buffers have content
		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}

		// Verify formats are different
		if strings.HasPrefix(strings.TrimSpace(buf1.String()), "{") {
			t.Error("expected buf1 (text) to not be JSON")
		}
		if !strings.HasPrefix(strings.TrimSpace(buf2.String()), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()
		report := createTestReport()

		n, err := multi.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# RavenX Scan Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "scan-0a1b2c3d") {
			t.Error("expected output to contain scan ID")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Severity Summary") {
			t.Error("expected output to contain severity summary header")
		}
		if !strings.Contains(output, "🔴 Critical") {
			t.Error("expected output to contain critical severity row")
		}
	})

	t.Run("writes finding counts by type", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Findings by Type") {
			t.Error("expected output to contain type counts header")
		}
		if !strings.Contains(output, "CORS Misconfiguration") {
			t.Error("expected output to contain CORS type title")
		}
	})

	t.Run("writes findings table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Findings") {
			t.Error("expected output to contain findings header")
		}
		if !strings.Contains(output, "### 🟠 High") {
			t.Error("expected high severity section")
		}
		if !strings.Contains(output, "Subdomain Takeover Possible") {
			t.Error("expected output to contain takeover finding")
		}
	})

	t.Run("includes fenced evidence in details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "<details>") {
			t.Error("expected output to contain details tags")
		}
		if !strings.Contains(output, "CNAME old.example.com unclaimed.provider.io") {
			t.Error("expected evidence in output")
		}
		if !strings.Contains(output, "```") {
			t.Error("expected fenced evidence block")
		}
	})

	t.Run("includes GitHub alert for high findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected WARNING alert for high findings")
		}
	})

	t.Run("includes CAUTION alert for critical findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := model.NewScanReport("scan-critical", []string{"http://app.example.com"})

		// Critical severity is assigned during review, not by checks, so
		// construct the promoted finding directly.
		promoted := model.Finding{
			Severity: model.SeverityCritical,
			Type:     "subdomain_takeover_possible",
			URL:      "http://old.example.com/",
			Evidence: "confirmed takeover",
		}
		promoted.Normalize()
		report.AddFinding(promoted)

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected CAUTION alert for critical findings")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("handles timed out report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()
		report.TimedOut = true

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Timed Out") {
			t.Error("expected output to indicate timeout")
		}
	})

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := model.NewScanReport("scan-error", []string{"http://app.example.com"})
		report.ErrorMessage = "connection failed"

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "connection failed") {
			t.Error("expected error message in output")
		}
	})

	t.Run("handles report with no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := model.NewScanReport("scan-clean", []string{"http://app.example.com"})

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No security findings detected") {
			t.Error("expected message about no findings")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert for no findings")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		report := createTestReport()

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://github.com/techmad220/RavenX") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestTypeTitle tests finding type heading generation.
func TestTypeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"cors_misconfiguration", "CORS Misconfiguration"},
		{"reflected_xss_param_probe", "Reflected XSS Param Probe"},
		{"oauth_redirect_uri_external", "OAuth Redirect URI External"},
		{"dir_listing", "Dir Listing"},
		{"exif_gps_location", "EXIF GPS Location"},
		{"saml_relaystate_external_redirect", "SAML RelayState External Redirect"},
		{"oidc_pkce_s256_missing", "OIDC PKCE S256 Missing"},
		{"csrf_missing_token", "CSRF Missing Token"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := TypeTitle(tt.input)
			if result != tt.expected {
				t.Errorf("TypeTitle(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestShortFingerprint tests fingerprint abbreviation.
func TestShortFingerprint(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ab", 32)
	if got := shortFingerprint(long); got != "abababababab" {
		t.Errorf("expected 12-char prefix, got %q", got)
	}
	if got := shortFingerprint("short"); got != "short" {
		t.Errorf("expected short input unchanged, got %q", got)
	}
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
