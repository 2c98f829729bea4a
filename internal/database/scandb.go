package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/techmad220/RavenX/internal/model"
)

// Review statuses a stored finding moves through. Every finding enters
// the store as StatusPending; Approve and Reject are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// minFingerprintPrefix is the shortest fingerprint prefix accepted when
// resolving review decisions. Shorter prefixes are rejected before
// querying so a typo cannot silently match an unrelated finding.
const minFingerprintPrefix = 4

// ScanDB provides SQLite-based storage for findings, crawl records, and
// scan reports.
//
// Design decision: We use a single database file shared across scan
// sessions rather than one file per session. This keeps fingerprint
// deduplication working across re-scans (the UNIQUE constraint needs all
// findings in one table), lets review decisions outlive the session that
// produced the finding, and makes scan-over-scan comparison a local query.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, "ravenx.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- Findings store one row per unique finding, keyed by fingerprint.
	-- Re-scans that observe the same finding update validated_ms only;
	-- first_seen_ms and the review status survive.
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL UNIQUE,
		severity TEXT NOT NULL,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		evidence TEXT,
		impact TEXT,
		method TEXT,
		first_seen_ms INTEGER NOT NULL,
		validated_ms INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		scan_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_findings_status ON findings(status);
	CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity);
	CREATE INDEX IF NOT EXISTS idx_findings_scan ON findings(scan_id);

	-- Crawl records store visited URLs and their response statuses per scan
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		url TEXT NOT NULL,
		host TEXT NOT NULL,
		status_code INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(url, scan_id)
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_scan ON crawls(scan_id);
	CREATE INDEX IF NOT EXISTS idx_crawls_host ON crawls(host);

	-- Scan reports store complete session results as JSON
	CREATE TABLE IF NOT EXISTS scan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		risk_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_scan ON scan_reports(scan_id);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON scan_reports(timestamp);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// FindingRecord is a stored finding together with its review state.
type FindingRecord struct {
	// ID is the unique identifier of the finding row in the database.
	ID int64

	// Finding is the finding as produced by a check.
	Finding model.Finding

	// Status is the review status: pending, approved, or rejected.
	Status string

	// ScanID identifies the most recent scan that observed this finding.
	ScanID string
}

// SaveFinding inserts a finding or, when a row with the same fingerprint
// already exists, refreshes it. A refresh updates validated_ms and
// scan_id only: first_seen_ms and the review status are part of the
// finding's history and survive re-scans.
func (sdb *ScanDB) SaveFinding(ctx context.Context, f model.Finding, scanID string) error {
	query := `
	INSERT INTO findings (fingerprint, severity, type, url, evidence, impact, method, first_seen_ms, validated_ms, status, scan_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		validated_ms = excluded.validated_ms,
		scan_id = excluded.scan_id
	`

	_, err := sdb.db.ExecContext(ctx, query,
		f.Fingerprint,
		f.Severity.String(),
		f.Type,
		f.URL,
		f.Evidence,
		f.Impact,
		f.Method,
		f.FirstSeenMS,
		f.ValidatedMS,
		StatusPending,
		scanID,
	)
	if err != nil {
		return fmt.Errorf("failed to save finding: %w", err)
	}

	return nil
}

// SaveFindings saves all findings of a scan. The first failure aborts
// the remaining inserts.
func (sdb *ScanDB) SaveFindings(ctx context.Context, findings []model.Finding, scanID string) error {
	for _, f := range findings {
		if err := sdb.SaveFinding(ctx, f, scanID); err != nil {
			return err
		}
	}
	return nil
}

// GetFinding retrieves a finding by its full fingerprint.
// Returns (nil, nil) when no finding matches.
func (sdb *ScanDB) GetFinding(ctx context.Context, fingerprint string) (*FindingRecord, error) {
	query := `
	SELECT id, fingerprint, severity, type, url, evidence, impact, method, first_seen_ms, validated_ms, status, scan_id
	FROM findings
	WHERE fingerprint = ?
	`

	rec, err := scanFindingRow(sdb.db.QueryRowContext(ctx, query, fingerprint))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finding: %w", err)
	}

	return rec, nil
}

// PendingFindings returns findings awaiting review, oldest first.
// A limit of zero or less returns all pending findings.
func (sdb *ScanDB) PendingFindings(ctx context.Context, limit int) ([]FindingRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	return sdb.findingsWithStatus(ctx, StatusPending, limit)
}

// ApprovedFindings returns findings approved during review, oldest first.
func (sdb *ScanDB) ApprovedFindings(ctx context.Context) ([]FindingRecord, error) {
	return sdb.findingsWithStatus(ctx, StatusApproved, -1)
}

// findingsWithStatus returns findings in a given review status, ordered
// by insertion.
func (sdb *ScanDB) findingsWithStatus(ctx context.Context, status string, limit int) ([]FindingRecord, error) {
	query := `
	SELECT id, fingerprint, severity, type, url, evidence, impact, method, first_seen_ms, validated_ms, status, scan_id
	FROM findings
	WHERE status = ?
	ORDER BY id ASC
	LIMIT ?
	`

	rows, err := sdb.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var results []FindingRecord
	for rows.Next() {
		rec, err := scanFindingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		results = append(results, *rec)
	}

	return results, rows.Err()
}

// Approve marks a finding as approved. The fingerprint may be abbreviated
// to a unique prefix of at least four characters.
func (sdb *ScanDB) Approve(ctx context.Context, fingerprint string) error {
	return sdb.setStatus(ctx, fingerprint, StatusApproved)
}

// Reject marks a finding as rejected. The fingerprint may be abbreviated
// to a unique prefix of at least four characters.
func (sdb *ScanDB) Reject(ctx context.Context, fingerprint string) error {
	return sdb.setStatus(ctx, fingerprint, StatusRejected)
}

// setStatus records a review decision for the finding matching the
// fingerprint prefix.
func (sdb *ScanDB) setStatus(ctx context.Context, prefix, status string) error {
	fingerprint, err := sdb.resolveFingerprint(ctx, prefix)
	if err != nil {
		return err
	}

	query := `UPDATE findings SET status = ? WHERE fingerprint = ?`
	if _, err := sdb.db.ExecContext(ctx, query, status, fingerprint); err != nil {
		return fmt.Errorf("failed to update finding status: %w", err)
	}

	return nil
}

// resolveFingerprint expands a fingerprint prefix to the single stored
// fingerprint it identifies. Prefix matching uses substr rather than
// LIKE so operator input cannot carry pattern metacharacters.
func (sdb *ScanDB) resolveFingerprint(ctx context.Context, prefix string) (string, error) {
	if len(prefix) < minFingerprintPrefix {
		return "", fmt.Errorf("fingerprint prefix %q shorter than %d characters: %w", prefix, minFingerprintPrefix, ErrAmbiguousFingerprint)
	}

	query := `SELECT fingerprint FROM findings WHERE substr(fingerprint, 1, ?) = ? LIMIT 2`

	rows, err := sdb.db.QueryContext(ctx, query, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve fingerprint: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return "", fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		matches = append(matches, fp)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no finding matches %q: %w", prefix, ErrFindingNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("fingerprint prefix %q matches multiple findings: %w", prefix, ErrAmbiguousFingerprint)
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanFindingRow reads one finding row into a FindingRecord.
func scanFindingRow(row rowScanner) (*FindingRecord, error) {
	var rec FindingRecord
	var severity string

	err := row.Scan(
		&rec.ID,
		&rec.Finding.Fingerprint,
		&severity,
		&rec.Finding.Type,
		&rec.Finding.URL,
		&rec.Finding.Evidence,
		&rec.Finding.Impact,
		&rec.Finding.Method,
		&rec.Finding.FirstSeenMS,
		&rec.Finding.ValidatedMS,
		&rec.Status,
		&rec.ScanID,
	)
	if err != nil {
		return nil, err
	}

	rec.Finding.Severity = model.ParseSeverity(severity)

	// Findings reconstructed from storage recompute their fingerprint
	// from the content fields; a stored value that disagrees loses.
	rec.Finding.Normalize()
	return &rec, nil
}

// SaveCrawls records the visited URLs of a scan and their response
// statuses. Re-saving the same scan upserts per URL, so a resumed or
// repeated persist is idempotent.
func (sdb *ScanDB) SaveCrawls(ctx context.Context, scanID string, crawls map[string]int) error {
	query := `
	INSERT INTO crawls (scan_id, url, host, status_code)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url, scan_id) DO UPDATE SET
		status_code = excluded.status_code,
		timestamp = CURRENT_TIMESTAMP
	`

	for url, statusCode := range crawls {
		_, err := sdb.db.ExecContext(ctx, query, scanID, url, model.HostOf(url), statusCode)
		if err != nil {
			return fmt.Errorf("failed to save crawl record: %w", err)
		}
	}

	return nil
}

// GetCrawls retrieves the visited URLs of a scan as a URL to status code
// map, the same shape the crawler reports. Comparing two scans is a map
// diff.
func (sdb *ScanDB) GetCrawls(ctx context.Context, scanID string) (map[string]int, error) {
	query := `SELECT url, status_code FROM crawls WHERE scan_id = ?`

	rows, err := sdb.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl records: %w", err)
	}
	defer rows.Close()

	crawls := make(map[string]int)
	for rows.Next() {
		var url string
		var statusCode int
		if err := rows.Scan(&url, &statusCode); err != nil {
			return nil, fmt.Errorf("failed to scan crawl record: %w", err)
		}
		crawls[url] = statusCode
	}

	return crawls, rows.Err()
}

// SaveScanReport saves a complete scan report as JSON.
func (sdb *ScanDB) SaveScanReport(ctx context.Context, report *model.ScanReport) error {
	// Serialize report to JSON
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	// Create risk summary
	riskSummary := map[string]int{
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
		"none":     0,
	}
	for severity, count := range report.SeverityCounts() {
		riskSummary[severity.String()] = count
	}
	riskJSON, _ := json.Marshal(riskSummary) //nolint:errcheck,errchkjson // riskSummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO scan_reports (scan_id, report_json, risk_summary)
	VALUES (?, ?, ?)
	`

	_, err = sdb.db.ExecContext(ctx, query,
		report.ScanID,
		string(reportJSON),
		string(riskJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	return nil
}

// GetScanReport retrieves the report for a specific scan.
// Returns (nil, nil) when the scan is unknown.
func (sdb *ScanDB) GetScanReport(ctx context.Context, scanID string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE scan_id = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, scanID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	return parseReportJSON(reportJSON)
}

// GetLatestScanReport retrieves the most recent scan report.
// Returns (nil, nil) when no scans have been saved.
func (sdb *ScanDB) GetLatestScanReport(ctx context.Context) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	return parseReportJSON(reportJSON)
}

// parseReportJSON deserializes a stored report. Findings coming back
// from storage recompute their fingerprints, so a hand-edited row
// cannot smuggle a mismatched identity into comparisons.
func parseReportJSON(reportJSON string) (*model.ScanReport, error) {
	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	for i := range report.Findings {
		report.Findings[i].Normalize()
	}

	return &report, nil
}

// ScanSummary contains summary information about a stored scan report.
// This is used for displaying scan history without loading full reports.
type ScanSummary struct {
	// ID is the unique identifier of the scan report in the database.
	ID int64

	// ScanID identifies the scan session.
	ScanID string

	// Timestamp is when the report was saved.
	Timestamp time.Time

	// RiskSummary contains counts of findings by severity level.
	RiskSummary map[string]int
}

// ListScans retrieves summaries of all stored scan reports, most recent
// first. This is more efficient than loading full reports when only
// history is needed.
func (sdb *ScanDB) ListScans(ctx context.Context) ([]ScanSummary, error) {
	query := `
	SELECT id, scan_id, timestamp, risk_summary
	FROM scan_reports
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var results []ScanSummary
	for rows.Next() {
		var summary ScanSummary
		var timestamp string
		var riskJSON sql.NullString

		if err := rows.Scan(&summary.ID, &summary.ScanID, &timestamp, &riskJSON); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}

		// Parse timestamp (SQLite may return different formats depending on version/configuration)
		summary.Timestamp = parseTimestamp(timestamp)

		// Parse risk summary
		if riskJSON.Valid && riskJSON.String != "" {
			if err := json.Unmarshal([]byte(riskJSON.String), &summary.RiskSummary); err != nil {
				summary.RiskSummary = make(map[string]int)
			}
		} else {
			summary.RiskSummary = make(map[string]int)
		}

		results = append(results, summary)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
