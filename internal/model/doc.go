// Package model defines the core data structures used throughout RavenX.
//
// This package contains the following main types:
//   - Severity: Ordered risk levels for findings
//   - Finding: A single content-addressed security finding
//   - Page: A fetched page as presented to checks
//   - ScanReport: The aggregated result of one crawl session
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, checks, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
