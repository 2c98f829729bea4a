package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNotAttested is returned when the operator has not confirmed
	// authorization. RavenX only runs against assets the operator is
	// allowed to test, and that confirmation must be explicit.
	ErrNotAttested = errors.New("authorization not attested: pass --attest-authorized and only scan assets you are allowed to test")

	// ErrNoTarget is returned when no seed URL or targets file is specified.
	ErrNoTarget = errors.New("no target specified: provide a seed URL or use --targets")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	// Zero workers would mean the frontier is never drained.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidPerHostRate is returned when the per-host rate is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidPerHostRate = errors.New("invalid per-host rate: must be non-negative")

	// ErrInvalidPageQuota is returned when the per-host page quota is
	// below one. The quota caps fetches strictly, so a quota under one
	// could never admit a page.
	ErrInvalidPageQuota = errors.New("invalid max pages per host: must be at least 1")

	// ErrInvalidTimeBudget is returned when the session time budget is
	// not positive. A zero budget would end the session before any fetch.
	ErrInvalidTimeBudget = errors.New("invalid time budget: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
