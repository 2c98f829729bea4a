package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/techmad220/RavenX/internal/config"
	"github.com/techmad220/RavenX/internal/crawler"
	"github.com/techmad220/RavenX/internal/database"
	"github.com/techmad220/RavenX/internal/export"
	ravenlog "github.com/techmad220/RavenX/internal/log"
	"github.com/techmad220/RavenX/internal/metrics"
	"github.com/techmad220/RavenX/internal/model"
	"github.com/techmad220/RavenX/internal/pipeline"
	"github.com/techmad220/RavenX/internal/report"
	"github.com/techmad220/RavenX/internal/scope"
	"github.com/techmad220/RavenX/internal/subenum"
	"github.com/techmad220/RavenX/internal/transport"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [seed-url...]",
		Short: "Crawl targets and analyze every page for security issues",
		Long: `Scan crawls the given seed URLs, bounded to their hosts plus any
extra hosts admitted with --allow-host, and runs every fetched page
through the check pipeline.

The crawl is governed per host: a sustained request rate, a page
quota, and one shared wall-clock budget for the whole session. When
the budget runs out, in-flight pages finish and the partial results
flow through reporting, persistence, and export as usual.

Findings are saved to the review queue; use 'ravenx review' to work
through them.

Examples:
  # Scan a single target
  ravenx scan --attest-authorized https://target.example.com

  # Scan from a targets file, two requests per second per host
  ravenx scan --attest-authorized --targets scope.txt --rate 2

  # Include all subdomains and enumerate live ones first
  ravenx scan --attest-authorized --allow-host '*.example.com' --subenum https://example.com

  # JSON report to a file, JSONL findings export to ./out
  ravenx scan --attest-authorized --json -o report.json https://target.example.com

Configuration file (.ravenx) example:
  per_host_rate: 2.0
  max_pages_per_host: 150
  allow_hosts:
    - "*.example.com"
  hosts:
    app.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Target selection flags
	cmd.Flags().StringP("targets", "f", "",
		"File with seed URLs, one per line (# comments allowed)")
	cmd.Flags().StringSliceP("allow-host", "H", nil,
		"Extra host admitted into scope (repeatable; '*.domain' wildcards allowed)")
	cmd.Flags().Bool("attest-authorized", false,
		"Confirm you are authorized to test every target (required)")

	// Crawl governance flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent crawl workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Float64P("rate", "r", config.DefaultPerHostRate,
		"Sustained requests per second per host (0 disables pacing)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPagesPerHost,
		"Maximum pages fetched per host (must be at least 1)")
	cmd.Flags().DurationP("time-budget", "T", config.DefaultTimeBudget,
		"Wall-clock budget for the whole session")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Scope growth flags
	cmd.Flags().Bool("subenum", false,
		"Enumerate live subdomains of the seed domains before crawling")
	cmd.Flags().String("wordlist", "",
		"Wordlist file for subdomain enumeration (default: built-in list)")
	cmd.Flags().String("ct-seeds", "",
		"File with extra hosts (e.g. from certificate transparency) to add to scope")
	cmd.Flags().Bool("containment-scope", false,
		"Widen scope matching to substring containment (broad recall, use with care)")

	// Transport flags
	cmd.Flags().String("socks5", "",
		"Route scan traffic through a SOCKS5 proxy at host:port")
	cmd.Flags().Bool("insecure", false,
		"Skip TLS certificate verification (lab targets only)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ravenx in current or home directory)")

	// Report and export flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("out-dir", config.DefaultOutputDir,
		"Directory for the JSONL findings export (empty disables it)")
	cmd.Flags().String("slack-webhook", "",
		"Incoming-webhook URL for high-severity highlights")

	// Observability
	cmd.Flags().String("metrics-addr", "",
		"Listen address for the Prometheus /metrics endpoint (empty disables it)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
//
// Precedence is: defaults, then configuration file values, then flags
// the user actually set. Cobra's Changed lets the file win over a flag
// default while losing to an explicit flag.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Load the configuration file first so explicit flags override it.
	// If the user explicitly specified a config file path, error if not
	// found. If no path was specified, silently proceed without one.
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	explicitConfigPath := configPath != ""
	foundPath := config.FindConfigFile(configPath)

	switch {
	case foundPath != "":
		file, err := config.LoadConfigFile(foundPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", foundPath, err)
		}
		cfg.ApplyFile(file)
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	if cfg.TargetsFile, err = cmd.Flags().GetString("targets"); err != nil {
		return nil, err
	}

	allowHosts, err := cmd.Flags().GetStringSlice("allow-host")
	if err != nil {
		return nil, err
	}
	cfg.AllowHosts = append(cfg.AllowHosts, allowHosts...)

	if cfg.Attested, err = cmd.Flags().GetBool("attest-authorized"); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("concurrency") || cfg.Concurrency == 0 {
		if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") || cfg.Timeout == 0 {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("rate") {
		if cfg.PerHostRate, err = cmd.Flags().GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-pages") {
		if cfg.MaxPagesPerHost, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("time-budget") || cfg.TimeBudget == 0 {
		if cfg.TimeBudget, err = cmd.Flags().GetDuration("time-budget"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("user-agent") || cfg.UserAgent == "" {
		if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
			return nil, err
		}
	}

	if cfg.SubEnum, err = cmd.Flags().GetBool("subenum"); err != nil {
		return nil, err
	}
	if cfg.SubEnumWordlist, err = cmd.Flags().GetString("wordlist"); err != nil {
		return nil, err
	}
	if cfg.CTSeedsFile, err = cmd.Flags().GetString("ct-seeds"); err != nil {
		return nil, err
	}
	if cfg.ContainmentScope, err = cmd.Flags().GetBool("containment-scope"); err != nil {
		return nil, err
	}

	if cfg.SOCKS5Proxy, err = cmd.Flags().GetString("socks5"); err != nil {
		return nil, err
	}
	if cfg.InsecureTLS, err = cmd.Flags().GetBool("insecure"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = cmd.Flags().GetString("out-dir"); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("slack-webhook") {
		if cfg.SlackWebhook, err = cmd.Flags().GetString("slack-webhook"); err != nil {
			return nil, err
		}
	}

	if cfg.MetricsAddr, err = cmd.Flags().GetString("metrics-addr"); err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (seed URLs)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler is wrapped in a SecureHandler so credentials quoted in
// finding evidence never reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return ravenlog.NewSecureLogger(os.Stderr, verbose)
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seeds, err := resolveSeeds(cfg)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return errors.New("no targets provided (specify seed URLs as arguments or use --targets)")
	}

	logger.Info("starting scan",
		"seeds", len(seeds),
		"concurrency", cfg.Concurrency,
		"perHostRate", cfg.PerHostRate,
		"maxPagesPerHost", cfg.MaxPagesPerHost,
		"timeBudget", cfg.TimeBudget,
	)

	// Open database connection if saving is enabled
	var db *database.ScanDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	client, err := transport.NewClient(transport.Options{
		Timeout:     cfg.Timeout,
		UserAgent:   cfg.UserAgent,
		SOCKS5Proxy: cfg.SOCKS5Proxy,
		InsecureTLS: cfg.InsecureTLS,
		Overrides:   cfg.Overrides,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var scopeOpts []scope.Option
	if cfg.ContainmentScope {
		scopeOpts = append(scopeOpts, scope.WithContainment())
	}
	sc := scope.New(seeds, scopeOpts...)
	for _, host := range cfg.AllowHosts {
		sc.AddHost(host)
	}

	gov := crawler.NewGovernor(cfg.PerHostRate, cfg.MaxPagesPerHost, cfg.TimeBudget)

	// First signal drains: the time budget is forced out, in-flight
	// pages finish, and partial results still flow through persistence
	// and reporting. A second signal aborts outright.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			logger.Info("shutdown signal received, draining crawl (signal again to abort)")
			gov.Expire()
		}
		select {
		case <-ctx.Done():
		case <-sigCh:
			logger.Warn("second shutdown signal, aborting")
			cancel()
		}
	}()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		serveErrs := m.Serve(cfg.MetricsAddr)
		go func() {
			for err := range serveErrs {
				logger.Error("metrics listener failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() { _ = m.Close() }() //nolint:errcheck // Best effort shutdown
		logger.Info("metrics listener started", "addr", cfg.MetricsAddr)
	}

	engine := crawler.New(client, sc, gov,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithLogger(logger),
		crawler.WithMetrics(m),
	)

	// Determine report destination before the crawl so a bad path fails
	// fast instead of after minutes of crawling.
	output, closeOutput, err := openReportOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	p, err := buildPipeline(cfg, engine, sc, db, m, buildReportWriter(cfg, output), logger)
	if err != nil {
		return err
	}

	scanReport := model.NewScanReport(uuid.NewString(), seeds)

	fmt.Printf("Scanning %d seed(s) across %d host(s) in scope...\n", len(seeds), sc.Len())
	startTime := time.Now()

	execErr := p.Execute(ctx, scanReport)

	elapsed := time.Since(startTime)
	fmt.Printf("Scan %s completed in %s: %d pages crawled, %d findings\n",
		scanReport.ScanID, elapsed.Round(time.Millisecond),
		scanReport.PagesCrawled, len(scanReport.Findings))

	return execErr
}

// resolveSeeds merges positional targets with the targets file and
// normalizes every entry to a URL. Bare hosts get an https:// prefix.
// Duplicates are dropped, first occurrence wins.
func resolveSeeds(cfg *config.Config) ([]string, error) {
	entries := make([]string, 0, len(cfg.Targets))
	entries = append(entries, cfg.Targets...)

	if cfg.TargetsFile != "" {
		fromFile, err := config.LoadTargets(cfg.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load targets file: %w", err)
		}
		entries = append(entries, fromFile...)
	}

	seen := make(map[string]struct{}, len(entries))
	seeds := make([]string, 0, len(entries))
	for _, entry := range entries {
		seed, err := normalizeSeed(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", entry, err)
		}
		if _, dup := seen[seed]; dup {
			continue
		}
		seen[seed] = struct{}{}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// normalizeSeed turns a target entry into an absolute http(s) URL.
func normalizeSeed(entry string) (string, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", errors.New("empty target")
	}
	if !strings.Contains(entry, "://") {
		entry = "https://" + entry
	}

	u, err := url.Parse(entry)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", errors.New("no host")
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// buildPipeline assembles the scan steps: scope growth, the crawl,
// persistence, report rendering, and export.
func buildPipeline(cfg *config.Config, engine *crawler.Crawler, sc *scope.Scope, db *database.ScanDB, m *metrics.Metrics, writer report.Writer, logger *slog.Logger) (*pipeline.Pipeline, error) {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		// A persistence or export failure must not suppress the report
		// for a crawl that succeeded.
		pipeline.WithContinueOnError(true),
	)

	enumOpts := []pipeline.EnumerateStepOption{pipeline.WithEnumerateLogger(logger)}
	if cfg.CTSeedsFile != "" {
		hosts, err := config.LoadTargets(cfg.CTSeedsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load CT seeds file: %w", err)
		}
		enumOpts = append(enumOpts, pipeline.WithExtraHosts(hosts))
	}
	if cfg.SubEnum {
		enumOpts = append(enumOpts, pipeline.WithEnumerator(subenum.New()))
		if cfg.SubEnumWordlist != "" {
			words, err := subenum.LoadWordlist(cfg.SubEnumWordlist)
			if err != nil {
				return nil, fmt.Errorf("failed to load wordlist: %w", err)
			}
			enumOpts = append(enumOpts, pipeline.WithWordlist(words))
		}
	}
	p.AddStep(pipeline.NewEnumerateStep(sc, enumOpts...))

	p.AddStep(pipeline.NewCrawlStep(engine, sc,
		pipeline.WithCrawlMetrics(m),
		pipeline.WithCrawlLogger(logger),
	))

	p.AddStep(pipeline.NewPersistStep(db, pipeline.WithPersistLogger(logger)))

	p.AddStep(pipeline.NewReportStep(writer, pipeline.WithReportLogger(logger)))

	exportOpts := []pipeline.ExportStepOption{pipeline.WithExportLogger(logger)}
	if cfg.OutputDir != "" {
		exportOpts = append(exportOpts, pipeline.WithOutputDir(cfg.OutputDir))
	}
	if cfg.SlackWebhook != "" {
		exportOpts = append(exportOpts, pipeline.WithSlackExporter(export.NewSlackExporter(cfg.SlackWebhook)))
	}
	p.AddStep(pipeline.NewExportStep(exportOpts...))

	return p, nil
}

// openReportOutput resolves the report destination: stdout by default,
// or the given file with parent directories created as needed. Reports
// may quote sensitive evidence, so files are created owner-only.
func openReportOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Operator-chosen output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildReportWriter selects the report format requested by the config.
func buildReportWriter(cfg *config.Config, output *os.File) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
