// Package metrics exposes crawl counters for Prometheus scraping.
//
// The crawler and pipeline record pages fetched, fetch errors, quota
// drops, and findings by severity and type. Metrics live in a private
// registry so importing this package never touches the global
// Prometheus state. Serving is optional: without Serve the counters
// still accumulate and can be read in tests through the registry.
//
// All record methods are safe to call on a nil *Metrics, so callers
// that run without metrics skip the nil checks.
package metrics
