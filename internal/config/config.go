package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are tuned for polite scanning of authorized targets:
// conservative enough not to disturb production services, fast enough
// that a session over a typical program scope finishes within minutes.
const (
	// DefaultTimeout is the per-request timeout. Clearnet targets answer
	// in well under 10 seconds; anything slower is treated as a fetch
	// error rather than holding a worker hostage.
	DefaultTimeout = 10 * time.Second

	// DefaultConcurrency is the number of crawl workers. Eight workers
	// saturate the per-host rate limit for typical scopes without
	// stressing the local network stack.
	DefaultConcurrency = 8

	// DefaultPerHostRate is the sustained request rate per host in
	// requests per second. Two per second stays under most WAF and
	// rate-limit thresholds while still covering a 150-page quota in
	// under two minutes.
	DefaultPerHostRate = 2.0

	// DefaultMaxPagesPerHost caps fetch attempts per host. This bounds
	// session cost on large sites; the interesting surface (auth flows,
	// APIs, misconfigured headers) almost always appears early.
	DefaultMaxPagesPerHost = 150

	// DefaultTimeBudget is the wall-clock limit for one crawl session.
	// When it expires, in-flight pages finish but nothing new starts.
	DefaultTimeBudget = 10 * time.Minute

	// DefaultUserAgent identifies RavenX in HTTP requests. A descriptive
	// User-Agent lets target operators attribute scanner traffic in
	// their logs, which authorized testing requires.
	DefaultUserAgent = "RavenX/1.0"

	// DefaultOutputDir is where reports and exports are written.
	DefaultOutputDir = "out"

	// AppName is the application name used for XDG directory paths.
	AppName = "ravenx"
)

// Config holds all configuration options for RavenX.
// This struct is designed to be populated from CLI flags and the
// .ravenx file and passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Targets is the list of seed URLs to scan. Populated from the
	// targets file plus any discovered hosts (subdomain enumeration,
	// CT seed intake).
	Targets []string

	// TargetsFile is the path to a file with one seed URL per line.
	// Blank lines and "#" comments are skipped.
	TargetsFile string

	// AllowHosts are extra hosts admitted into the crawl scope beyond
	// the seed hosts. Entries may use "*.domain" wildcards.
	AllowHosts []string

	// Attested records that the operator confirmed authorization for
	// every target. Scanning refuses to start without it.
	Attested bool

	// Concurrency is the number of concurrent crawl workers.
	Concurrency int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// PerHostRate is the sustained request rate per host in requests
	// per second. Zero disables rate limiting.
	PerHostRate float64

	// MaxPagesPerHost caps fetch attempts per host. Zero means
	// unlimited.
	MaxPagesPerHost int

	// TimeBudget is the wall-clock limit for the crawl session.
	TimeBudget time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool

	// ContainmentScope widens scope matching to substring containment
	// in both directions. Off by default; strict label-boundary
	// matching is the safe default for authorized engagements.
	ContainmentScope bool

	// SubEnum enables wordlist subdomain enumeration before the crawl.
	// Discovered hosts join the scope and the seed list.
	SubEnum bool

	// SubEnumWordlist is the path to the enumeration wordlist. When
	// empty, a built-in list is used.
	SubEnumWordlist string

	// CTSeedsFile is the path to a file of extra hosts (one per line,
	// typically from certificate transparency) to add to scope and
	// seeds.
	CTSeedsFile string

	// JSONReport enables JSON report output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When empty,
	// the report goes to stdout.
	ReportFile string

	// OutputDir is the directory for JSONL exports. Created if absent.
	OutputDir string

	// DBDir is the directory for the SQLite findings database. When
	// empty, XDGDataDir() is used.
	DBDir string

	// SaveToDB indicates whether findings and crawl records are
	// persisted for review and cross-scan comparison.
	SaveToDB bool

	// SlackWebhook is an optional incoming-webhook URL. High-severity
	// findings are posted there at the end of the session.
	SlackWebhook string

	// MetricsAddr is an optional listen address (e.g. "127.0.0.1:9321")
	// for the Prometheus /metrics endpoint. Empty disables it.
	MetricsAddr string

	// SOCKS5Proxy is an optional upstream SOCKS5 proxy in "host:port"
	// format. Useful for routing scans through an inspection proxy or
	// a different network vantage point. Empty means direct.
	SOCKS5Proxy string

	// InsecureTLS disables certificate verification. Only for lab
	// targets with self-signed certificates.
	InsecureTLS bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .ravenx in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// Overrides holds the loaded .ravenx file, including any per-host
	// request overrides. Populated by LoadConfigFile.
	Overrides *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, rate).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency:     DefaultConcurrency,
		Timeout:         DefaultTimeout,
		PerHostRate:     DefaultPerHostRate,
		MaxPagesPerHost: DefaultMaxPagesPerHost,
		TimeBudget:      DefaultTimeBudget,
		UserAgent:       DefaultUserAgent,
		OutputDir:       DefaultOutputDir,
	}
}

// XDGDataDir returns the XDG data directory for RavenX.
// On Linux: ~/.local/share/ravenx
// On macOS: ~/Library/Application Support/ravenx
// On Windows: %LOCALAPPDATA%\ravenx
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for RavenX.
// On Linux: ~/.config/ravenx
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for RavenX.
// On Linux: ~/.cache/ravenx
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// The operator must confirm authorization before anything touches
	// the network.
	if !c.Attested {
		return ErrNotAttested
	}

	if len(c.Targets) == 0 && c.TargetsFile == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// Zero disables rate limiting; negative rates are meaningless.
	if c.PerHostRate < 0 {
		return ErrInvalidPerHostRate
	}

	// The quota is a strict cap; anything below one admits no fetches.
	if c.MaxPagesPerHost < 1 {
		return ErrInvalidPageQuota
	}

	// A zero budget would expire the session before the first fetch.
	if c.TimeBudget <= 0 {
		return ErrInvalidTimeBudget
	}

	// JSONReport and MarkdownReport are mutually exclusive.
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
