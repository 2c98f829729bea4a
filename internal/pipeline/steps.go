package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/techmad220/RavenX/internal/crawler"
	"github.com/techmad220/RavenX/internal/database"
	"github.com/techmad220/RavenX/internal/export"
	"github.com/techmad220/RavenX/internal/metrics"
	"github.com/techmad220/RavenX/internal/model"
	"github.com/techmad220/RavenX/internal/report"
	"github.com/techmad220/RavenX/internal/scope"
	"github.com/techmad220/RavenX/internal/subenum"
)

// EnumerateStep grows the session scope before the crawl starts. It
// admits extra hosts (typically certificate transparency discoveries)
// and, when an enumerator is configured, live subdomains of the seed
// domains. Every admitted host joins both the scope and the seed list,
// so the crawl reaches it directly instead of waiting for a link.
//
// Design decision: Scope growth is a separate step because:
// 1. The scope must be complete before the first worker dequeues
// 2. It is optional; quick scans skip it entirely
// 3. Enumeration problems must never abort the crawl itself
type EnumerateStep struct {
	// scope receives admitted hosts.
	scope *scope.Scope

	// enumerator resolves wordlist candidates against the seed domains.
	// Nil disables subdomain enumeration.
	enumerator *subenum.Enumerator

	// words is the enumeration wordlist. Empty falls back to the
	// built-in list.
	words []string

	// extraHosts are admitted verbatim, before enumeration runs.
	extraHosts []string

	// logger for structured logging.
	logger *slog.Logger
}

// EnumerateStepOption configures an EnumerateStep.
type EnumerateStepOption func(*EnumerateStep)

// WithEnumerator enables subdomain enumeration.
func WithEnumerator(e *subenum.Enumerator) EnumerateStepOption {
	return func(s *EnumerateStep) {
		s.enumerator = e
	}
}

// WithWordlist sets the enumeration wordlist.
func WithWordlist(words []string) EnumerateStepOption {
	return func(s *EnumerateStep) {
		s.words = words
	}
}

// WithExtraHosts adds hosts to admit into scope and seeds before
// enumeration runs. Entries may be bare hosts or full URLs.
func WithExtraHosts(hosts []string) EnumerateStepOption {
	return func(s *EnumerateStep) {
		s.extraHosts = hosts
	}
}

// WithEnumerateLogger sets a custom logger for the enumerate step.
func WithEnumerateLogger(logger *slog.Logger) EnumerateStepOption {
	return func(s *EnumerateStep) {
		s.logger = logger
	}
}

// NewEnumerateStep creates a scope growth step over the given scope.
func NewEnumerateStep(sc *scope.Scope, opts ...EnumerateStepOption) *EnumerateStep {
	s := &EnumerateStep{
		scope:  sc,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *EnumerateStep) Name() string {
	return "enumerate"
}

// Do executes the scope growth step.
func (s *EnumerateStep) Do(ctx context.Context, report *model.ScanReport) error {
	// Hosts that already have a seed never get a second one.
	seen := make(map[string]struct{}, len(report.Seeds))
	for _, seed := range report.Seeds {
		if host := subenum.SeedHost(seed); host != "" {
			seen[host] = struct{}{}
		}
	}

	added := 0
	for _, host := range s.extraHosts {
		if s.admit(seen, report, host) {
			added++
		}
	}

	if s.enumerator != nil {
		bases := subenum.BaseDomains(report.Seeds)
		if len(bases) > 0 {
			words := s.words
			if len(words) == 0 {
				words = subenum.DefaultWordlist()
			}

			hosts, err := s.enumerator.Enumerate(ctx, bases, words)
			for _, host := range hosts {
				if s.admit(seen, report, host) {
					added++
				}
			}
			if err != nil {
				// Hosts resolved before the context ended are already in.
				return fmt.Errorf("subdomain enumeration cut short: %w", err)
			}
		}
	}

	if added > 0 {
		s.logger.Info("scope grew",
			"hosts_added", added,
			"seeds", len(report.Seeds),
		)
	}

	return nil
}

// admit adds one discovered host to the scope and the seed list.
// Wildcard entries widen the scope but cannot be fetched, so they get
// no seed. Returns true if the entry changed the session.
func (s *EnumerateStep) admit(seen map[string]struct{}, report *model.ScanReport, entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.HasPrefix(entry, "*.") {
		s.scope.AddHost(entry)
		return true
	}

	host := subenum.SeedHost(entry)
	if host == "" || strings.ContainsAny(host, "/ ") {
		return false
	}
	if _, dup := seen[host]; dup {
		return false
	}
	seen[host] = struct{}{}
	s.scope.AddHost(host)

	seedURL := entry
	if !strings.Contains(entry, "://") {
		seedURL = "https://" + host + "/"
	}
	report.Seeds = append(report.Seeds, seedURL)
	return true
}

// CrawlStep runs the crawl session over the report's seed list.
//
// Design decision: The step receives a constructed Crawler rather than
// building one because:
// 1. Client, scope, and governor wiring belong to the caller's config
// 2. Tests inject crawlers bound to httptest servers without hooks
// 3. The step stays a thin adapter between pipeline and engine
type CrawlStep struct {
	// crawler is the configured crawl engine.
	crawler *crawler.Crawler

	// scope is recorded into the report as the session's final
	// allowed-host set, after any enumeration growth.
	scope *scope.Scope

	// metrics receives the session duration. Nil disables recording.
	metrics *metrics.Metrics

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMetrics enables scan duration recording.
func WithCrawlMetrics(m *metrics.Metrics) CrawlStepOption {
	return func(s *CrawlStep) {
		s.metrics = m
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step around a configured engine.
func NewCrawlStep(c *crawler.Crawler, sc *scope.Scope, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler: c,
		scope:   sc,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl session.
func (s *CrawlStep) Do(ctx context.Context, report *model.ScanReport) error {
	report.AllowedHosts = s.scope.Hosts()

	err := s.crawler.Crawl(ctx, report.Seeds, report)

	elapsed := time.Since(report.DateScanned)
	report.ElapsedSeconds = elapsed.Seconds()
	s.metrics.SetScanDuration(elapsed)

	s.logger.Info("crawl completed",
		"scan_id", report.ScanID,
		"pages_crawled", report.PagesCrawled,
		"urls_visited", report.URLsVisited,
		"findings", len(report.Findings),
		"timed_out", report.TimedOut,
	)

	return err
}

// PersistStep saves the session's findings, crawl records, and report
// to the findings database. New findings enter the review queue as
// pending; re-observed findings keep their review status and first-seen
// timestamp.
type PersistStep struct {
	// db is the findings store. Nil turns the step into a no-op.
	db *database.ScanDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persistence step over the given store.
func NewPersistStep(db *database.ScanDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, report *model.ScanReport) error {
	if s.db == nil {
		s.logger.Debug("skipping persistence, no database configured")
		return nil
	}

	if err := s.db.SaveFindings(ctx, report.Findings, report.ScanID); err != nil {
		return fmt.Errorf("failed to save findings: %w", err)
	}
	if err := s.db.SaveCrawls(ctx, report.ScanID, report.Crawls); err != nil {
		return fmt.Errorf("failed to save crawl records: %w", err)
	}
	if err := s.db.SaveScanReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	s.logger.Info("scan persisted",
		"scan_id", report.ScanID,
		"findings", len(report.Findings),
		"crawls", len(report.Crawls),
	)

	return nil
}

// ReportStep renders the report through a configured writer. The format
// choice and destination (stdout, a file, a MultiWriter fanning out to
// several) belong to the caller.
type ReportStep struct {
	// writer renders the report. Nil turns the step into a no-op.
	writer report.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a report rendering step.
func NewReportStep(w report.Writer, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		writer: w,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(_ context.Context, report *model.ScanReport) error {
	if s.writer == nil {
		s.logger.Debug("skipping report, no writer configured")
		return nil
	}

	n, err := s.writer.Write(report)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Debug("report written", "bytes", n)
	return nil
}

// ExportStep emits machine-readable outputs at the end of the session:
// a JSONL findings file under the output directory and, when a webhook
// exporter is configured, a message highlighting high-severity findings.
type ExportStep struct {
	// outputDir is where the JSONL file goes. Empty disables the file
	// export.
	outputDir string

	// slack posts high-severity highlights. Nil disables delivery.
	slack *export.SlackExporter

	// logger for structured logging.
	logger *slog.Logger
}

// ExportStepOption configures an ExportStep.
type ExportStepOption func(*ExportStep)

// WithOutputDir enables JSONL export into the given directory.
func WithOutputDir(dir string) ExportStepOption {
	return func(s *ExportStep) {
		s.outputDir = dir
	}
}

// WithSlackExporter enables webhook delivery.
func WithSlackExporter(se *export.SlackExporter) ExportStepOption {
	return func(s *ExportStep) {
		s.slack = se
	}
}

// WithExportLogger sets a custom logger for the export step.
func WithExportLogger(logger *slog.Logger) ExportStepOption {
	return func(s *ExportStep) {
		s.logger = logger
	}
}

// NewExportStep creates an export step.
func NewExportStep(opts ...ExportStepOption) *ExportStep {
	s := &ExportStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do executes the export step.
func (s *ExportStep) Do(ctx context.Context, report *model.ScanReport) error {
	if s.outputDir != "" {
		path, err := s.exportJSONL(report)
		if err != nil {
			return err
		}
		s.logger.Info("findings exported",
			"path", path,
			"findings", len(report.Findings),
		)
	}

	if s.slack != nil {
		delivered, err := s.slack.Send(ctx, report)
		if err != nil {
			return fmt.Errorf("failed to deliver webhook highlights: %w", err)
		}
		if delivered {
			s.logger.Info("webhook highlights delivered", "scan_id", report.ScanID)
		}
	}

	return nil
}

// exportJSONL writes the findings stream to findings-<scan-id>.jsonl
// under the output directory, creating the directory if needed.
func (s *ExportStep) exportJSONL(report *model.ScanReport) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.outputDir, "findings-"+report.ScanID+".jsonl")

	// Evidence can quote session cookies and tokens, so the file is
	// owner-only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Operator-chosen output path
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	_, err = export.NewJSONLExporter(f).Export(report.Findings)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to export findings: %w", err)
	}

	return path, nil
}
