package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/techmad220/RavenX/internal/config"
	"github.com/techmad220/RavenX/internal/database"
)

// fingerprintDisplayLen is how many fingerprint characters list views
// show. Twelve hex characters are enough to paste back into --approve
// without collisions in any realistic queue.
const fingerprintDisplayLen = 12

// NewReviewCmd creates the review command.
// This command works through the findings queue stored in the database.
func NewReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review queued findings and record triage decisions",
		Long: `Review lists findings saved by previous scans and records triage
decisions against them.

Every finding enters the queue as pending. Approving a finding marks
it as confirmed scanner output; rejecting marks it a false positive.
Decisions stick across re-scans: a re-observed finding refreshes its
validation timestamp but keeps its review status.

Findings are addressed by fingerprint. A unique prefix of at least
four characters is enough; list output shows the first twelve.

Examples:
  # List pending findings
  ravenx review

  # Approve a finding by fingerprint prefix
  ravenx review --approve 3f2a81c9

  # Reject a false positive
  ravenx review --reject 3f2a81c9

  # List confirmed findings
  ravenx review --approved

  # List stored scan sessions
  ravenx review --list-scans

  # Pending findings as JSON for external triage tooling
  ravenx review --json`,
		Args: cobra.NoArgs,
		RunE: runReviewCmd,
	}

	// Triage decision flags
	cmd.Flags().StringP("approve", "a", "",
		"Approve the finding with this fingerprint (prefix allowed)")
	cmd.Flags().StringP("reject", "r", "",
		"Reject the finding with this fingerprint (prefix allowed)")

	// Listing flags
	cmd.Flags().Bool("approved", false,
		"List approved findings instead of pending ones")
	cmd.Flags().BoolP("list-scans", "l", false,
		"List stored scan sessions")
	cmd.Flags().Int("limit", 0,
		"Maximum findings to list (0 lists all)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output results in JSON format")

	return cmd
}

// runReviewCmd executes the review command.
func runReviewCmd(cmd *cobra.Command, _ []string) error {
	approveFP, err := cmd.Flags().GetString("approve")
	if err != nil {
		return err
	}
	rejectFP, err := cmd.Flags().GetString("reject")
	if err != nil {
		return err
	}

	// Validate flag combinations before opening the database so bad
	// invocations never take the lock.
	if approveFP != "" && rejectFP != "" {
		return errors.New("--approve and --reject are mutually exclusive")
	}

	listApproved, err := cmd.Flags().GetBool("approved")
	if err != nil {
		return err
	}
	listScans, err := cmd.Flags().GetBool("list-scans")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case approveFP != "":
		return recordDecision(ctx, db, approveFP, database.StatusApproved)
	case rejectFP != "":
		return recordDecision(ctx, db, rejectFP, database.StatusRejected)
	case listScans:
		return listScanSessions(ctx, db, jsonOutput)
	case listApproved:
		return listFindings(ctx, db, database.StatusApproved, limit, jsonOutput)
	default:
		return listFindings(ctx, db, database.StatusPending, limit, jsonOutput)
	}
}

// recordDecision applies a triage decision and echoes the finding it hit.
func recordDecision(ctx context.Context, db *database.ScanDB, fingerprint, status string) error {
	var err error
	switch status {
	case database.StatusApproved:
		err = db.Approve(ctx, fingerprint)
	case database.StatusRejected:
		err = db.Reject(ctx, fingerprint)
	default:
		return fmt.Errorf("unknown review status %q", status)
	}
	if err != nil {
		return fmt.Errorf("failed to update finding: %w", err)
	}

	fmt.Printf("Finding %s marked %s.\n", shortFingerprint(fingerprint), status)
	return nil
}

// reviewItem is the JSON shape of one finding in list output.
type reviewItem struct {
	// Fingerprint is the full content-address of the finding.
	Fingerprint string `json:"fingerprint"`

	// Severity is the canonical lowercase severity name.
	Severity string `json:"severity"`

	// Type is the finding type identifier.
	Type string `json:"type"`

	// URL is the page the finding was observed on.
	URL string `json:"url"`

	// Evidence supports the finding.
	Evidence string `json:"evidence,omitempty"`

	// Impact explains the security implications.
	Impact string `json:"impact,omitempty"`

	// Status is the review status of the finding.
	Status string `json:"status"`

	// ScanID is the most recent scan that observed the finding.
	ScanID string `json:"scan_id"`

	// FirstSeen is when the finding was first recorded.
	FirstSeen time.Time `json:"first_seen"`

	// Validated is when the finding was last confirmed.
	Validated time.Time `json:"validated"`
}

// listFindings lists findings in the given review status.
func listFindings(ctx context.Context, db *database.ScanDB, status string, limit int, jsonOutput bool) error {
	var records []database.FindingRecord
	var err error

	switch status {
	case database.StatusApproved:
		records, err = db.ApprovedFindings(ctx)
	default:
		records, err = db.PendingFindings(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list findings: %w", err)
	}

	if jsonOutput {
		return outputFindingsJSON(records)
	}
	return outputFindingsText(records, status)
}

// outputFindingsJSON writes the findings list as indented JSON.
func outputFindingsJSON(records []database.FindingRecord) error {
	items := make([]reviewItem, 0, len(records))
	for _, rec := range records {
		items = append(items, reviewItem{
			Fingerprint: rec.Finding.Fingerprint,
			Severity:    rec.Finding.Severity.String(),
			Type:        rec.Finding.Type,
			URL:         rec.Finding.URL,
			Evidence:    rec.Finding.Evidence,
			Impact:      rec.Finding.Impact,
			Status:      rec.Status,
			ScanID:      rec.ScanID,
			FirstSeen:   time.UnixMilli(rec.Finding.FirstSeenMS),
			Validated:   time.UnixMilli(rec.Finding.ValidatedMS),
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}

// outputFindingsText writes the findings list as a human-readable table.
func outputFindingsText(records []database.FindingRecord, status string) error {
	if len(records) == 0 {
		fmt.Printf("No %s findings in the review queue.\n", status)
		if status == database.StatusPending {
			fmt.Println("\nUse 'ravenx scan' to scan a target and queue its findings.")
		}
		return nil
	}

	fmt.Printf("%s findings (%d):\n\n", cases.Title(language.English).String(status), len(records))
	fmt.Printf("  %-12s  %-8s  %-28s  %s\n", "Fingerprint", "Severity", "Type", "URL")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, rec := range records {
		fmt.Printf("  %-12s  %-8s  %-28s  %s\n",
			shortFingerprint(rec.Finding.Fingerprint),
			rec.Finding.Severity.String(),
			rec.Finding.Type,
			rec.Finding.URL,
		)
	}

	if status == database.StatusPending {
		fmt.Println("\nUse 'ravenx review --approve <fingerprint>' to confirm a finding.")
		fmt.Println("Use 'ravenx review --reject <fingerprint>' to mark a false positive.")
	}

	return nil
}

// scanSession is the JSON shape of one stored scan in --list-scans output.
type scanSession struct {
	// ScanID identifies the scan session.
	ScanID string `json:"scan_id"`

	// Timestamp is when the report was saved.
	Timestamp time.Time `json:"timestamp"`

	// RiskSummary counts findings by severity level.
	RiskSummary map[string]int `json:"risk_summary,omitempty"`
}

// listScanSessions lists stored scan sessions, most recent first.
func listScanSessions(ctx context.Context, db *database.ScanDB, jsonOutput bool) error {
	scans, err := db.ListScans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	if jsonOutput {
		sessions := make([]scanSession, 0, len(scans))
		for _, s := range scans {
			sessions = append(sessions, scanSession{
				ScanID:      s.ScanID,
				Timestamp:   s.Timestamp,
				RiskSummary: s.RiskSummary,
			})
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sessions)
	}

	if len(scans) == 0 {
		fmt.Println("No stored scans found in the database.")
		fmt.Println("\nUse 'ravenx scan' to scan a target.")
		return nil
	}

	fmt.Printf("Stored scans (%d):\n\n", len(scans))
	fmt.Printf("  %-36s  %-20s  %s\n", "Scan ID", "Date", "Risk Summary")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, s := range scans {
		fmt.Printf("  %-36s  %-20s  %s\n",
			s.ScanID,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			formatRiskSummary(s.RiskSummary),
		)
	}

	return nil
}

// formatRiskSummary formats the risk summary map into a compact string.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["none"]; v > 0 {
		parts = append(parts, fmt.Sprintf("N:%d", v))
	}

	if len(parts) == 0 {
		return "No findings"
	}
	return strings.Join(parts, " ")
}

// shortFingerprint abbreviates a fingerprint for display.
func shortFingerprint(fp string) string {
	if len(fp) <= fingerprintDisplayLen {
		return fp
	}
	return fp[:fingerprintDisplayLen]
}
