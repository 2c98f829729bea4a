package report

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/techmad220/RavenX/internal/model"
)

// Writer defines the interface for report output.
// Implementations write scan results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.ScanReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.ScanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// typeTitleWords overrides words whose heading form is not a plain
// capitalization of the snake_case fragment.
var typeTitleWords = map[string]string{
	"cors":       "CORS",
	"csp":        "CSP",
	"csrf":       "CSRF",
	"dns":        "DNS",
	"exif":       "EXIF",
	"gps":        "GPS",
	"jsonp":      "JSONP",
	"oauth":      "OAuth",
	"oidc":       "OIDC",
	"pkce":       "PKCE",
	"relaystate": "RelayState",
	"s256":       "S256",
	"saml":       "SAML",
	"uri":        "URI",
	"url":        "URL",
	"xss":        "XSS",
}

// TypeTitle renders a snake_case finding type as a human-readable
// heading, e.g. "cors_misconfiguration" becomes "CORS Misconfiguration".
func TypeTitle(findingType string) string {
	titler := cases.Title(language.English)
	words := strings.Split(findingType, "_")
	for i, word := range words {
		if title, ok := typeTitleWords[word]; ok {
			words[i] = title
			continue
		}
		words[i] = titler.String(word)
	}
	return strings.Join(words, " ")
}

// shortFingerprint abbreviates a fingerprint for display. Full
// fingerprints stay in the JSON output; human-facing formats show a
// prefix long enough to pass to review commands.
func shortFingerprint(fingerprint string) string {
	const displayLen = 12
	if len(fingerprint) <= displayLen {
		return fingerprint
	}
	return fingerprint[:displayLen]
}

// findingsWithSeverity selects findings at exactly the given severity,
// preserving report order.
func findingsWithSeverity(report *model.ScanReport, severity model.Severity) []model.Finding {
	var out []model.Finding
	for _, f := range report.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

// typeCount pairs a finding type heading with its occurrence count.
type typeCount struct {
	title string
	count int
}

// sortedTypeCounts returns per-type counts ordered by count descending,
// then by title, for a stable layout.
func sortedTypeCounts(report *model.ScanReport) []typeCount {
	counts := report.TypeCounts()
	out := make([]typeCount, 0, len(counts))
	for findingType, count := range counts {
		out = append(out, typeCount{title: TypeTitle(findingType), count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].title < out[j].title
	})
	return out
}
