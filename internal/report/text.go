package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and severity indicators.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with impact text and full evidence.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *TextWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, report)

	// Severity summary
	w.writeSummary(&sb, report)

	// Finding counts by type
	w.writeTypeCounts(&sb, report)

	// Findings by severity
	w.writeFindings(&sb, report)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with session information.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          RAVENX SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Scan ID:        %s\n", report.ScanID))
	sb.WriteString(fmt.Sprintf("Seeds:          %s\n", strings.Join(report.Seeds, ", ")))
	sb.WriteString(fmt.Sprintf("Scan Date:      %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", report.PagesCrawled))
	sb.WriteString(fmt.Sprintf("URLs Visited:   %d\n", report.URLsVisited))
	sb.WriteString(fmt.Sprintf("Elapsed:        %.1fs\n", report.ElapsedSeconds))

	if report.TimedOut {
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	} else if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *TextWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := report.SeverityCounts()
	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", counts[model.SeverityCritical]))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", counts[model.SeverityHigh]))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", counts[model.SeverityMedium]))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", counts[model.SeverityLow]))
	sb.WriteString(fmt.Sprintf("  NONE:     %d\n", counts[model.SeverityNone]))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", len(report.Findings)))
	sb.WriteString("\n")
}

// writeTypeCounts writes the per-type finding counts.
func (w *TextWriter) writeTypeCounts(sb *strings.Builder, report *model.ScanReport) {
	counts := sortedTypeCounts(report)
	if len(counts) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS BY TYPE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(counts) == 0 {
		sb.WriteString("  No findings\n")
	} else {
		for _, tc := range counts {
			sb.WriteString(fmt.Sprintf("  %-45s %d\n", tc.title, tc.count))
		}
	}
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *TextWriter) writeFindings(sb *strings.Builder, report *model.ScanReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	// Write findings in order of severity (critical first)
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityNone,
	}

	for _, severity := range severities {
		findings := findingsWithSeverity(report, severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *TextWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	// Severity header with visual indicator
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", TypeTitle(finding.Type)))
		sb.WriteString(fmt.Sprintf("    URL: %s\n", finding.URL))
		if finding.Evidence != "" {
			evidence := finding.Evidence
			if !w.verbose {
				evidence = truncateString(strings.ReplaceAll(evidence, "\n", " "), 100)
			}
			sb.WriteString(fmt.Sprintf("    Evidence: %s\n", evidence))
		}
		sb.WriteString(fmt.Sprintf("    Fingerprint: %s\n", shortFingerprint(finding.Fingerprint)))
		if w.verbose && finding.Impact != "" {
			sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *TextWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityNone:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by RavenX\n")
	sb.WriteString("https://github.com/techmad220/RavenX\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
