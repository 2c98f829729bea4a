package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/techmad220/RavenX/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, report)

	// Summary
	w.writeSummary(md, report)

	// Finding counts by type
	w.writeTypeCounts(md, report)

	// Findings by severity
	w.writeFindings(md, report)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("RavenX Scan Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan ID", "`" + report.ScanID + "`"},
			{"Seeds", strings.Join(report.Seeds, ", ")},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"URLs Visited", strconv.Itoa(report.URLsVisited)},
			{"Elapsed", fmt.Sprintf("%.1fs", report.ElapsedSeconds)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.ScanReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	counts := report.SeverityCounts()

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(counts[model.SeverityCritical])},
			{"🟠 High", strconv.Itoa(counts[model.SeverityHigh])},
			{"🟡 Medium", strconv.Itoa(counts[model.SeverityMedium])},
			{"🔵 Low", strconv.Itoa(counts[model.SeverityLow])},
			{"⚪ None", strconv.Itoa(counts[model.SeverityNone])},
			{"**Total**", "**" + strconv.Itoa(len(report.Findings)) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if there are findings
	if len(report.Findings) > 0 {
		w.writePieChart(md, counts)
	}

	// Add alert based on severity
	w.writeAlert(md, report, counts)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Severity]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if counts[model.SeverityCritical] > 0 {
		chart.LabelAndIntValue("Critical", uint64(counts[model.SeverityCritical]))
	}
	if counts[model.SeverityHigh] > 0 {
		chart.LabelAndIntValue("High", uint64(counts[model.SeverityHigh]))
	}
	if counts[model.SeverityMedium] > 0 {
		chart.LabelAndIntValue("Medium", uint64(counts[model.SeverityMedium]))
	}
	if counts[model.SeverityLow] > 0 {
		chart.LabelAndIntValue("Low", uint64(counts[model.SeverityLow]))
	}
	if counts[model.SeverityNone] > 0 {
		chart.LabelAndIntValue("None", uint64(counts[model.SeverityNone]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport, counts map[model.Severity]int) {
	switch {
	case counts[model.SeverityCritical] > 0:
		md.Cautionf(
			"Critical security issues detected! %d critical finding(s) require immediate attention.",
			counts[model.SeverityCritical],
		)
	case counts[model.SeverityHigh] > 0:
		md.Warningf(
			"High severity issues detected. %d high severity finding(s) should be addressed.",
			counts[model.SeverityHigh],
		)
	case counts[model.SeverityMedium] > 0:
		md.Importantf(
			"Medium severity issues found. %d finding(s) warrant review.",
			counts[model.SeverityMedium],
		)
	case len(report.Findings) > 0:
		md.Note("Only low severity findings detected.")
	default:
		md.Tip("No significant security issues detected.")
	}
	md.PlainText("")
}

// writeTypeCounts writes the per-type finding counts.
func (w *MarkdownWriter) writeTypeCounts(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Findings by Type")
	md.PlainText("")

	counts := sortedTypeCounts(report)
	if len(counts) == 0 {
		md.PlainText("No findings recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(counts))
	for i, tc := range counts {
		rows[i] = []string{tc.title, strconv.Itoa(tc.count)}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Findings")
	md.PlainText("")

	if len(report.Findings) == 0 {
		md.PlainText("No security findings detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityNone, "### ⚪ None"},
	}

	for _, sev := range severities {
		findings := findingsWithSeverity(report, sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with evidence details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Type", "URL", "Fingerprint"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			TypeTitle(f.Type),
			truncateString(f.URL, 60),
			"`" + shortFingerprint(f.Fingerprint) + "`",
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Evidence and impact in collapsible blocks; evidence stays fenced
	// so markup in captured responses cannot leak into the document.
	for _, f := range findings {
		if f.Evidence == "" && f.Impact == "" {
			continue
		}

		var body strings.Builder
		if f.Impact != "" {
			body.WriteString(f.Impact)
			body.WriteString("\n\n")
		}
		if f.Evidence != "" {
			body.WriteString("```\n")
			body.WriteString(f.Evidence)
			body.WriteString("\n```")
		}

		summary := fmt.Sprintf("%s (%s)", TypeTitle(f.Type), shortFingerprint(f.Fingerprint))
		md.Details(summary, body.String())
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [RavenX](https://github.com/techmad220/RavenX)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
