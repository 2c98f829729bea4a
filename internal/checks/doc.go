// Package checks contains the security analyzers that run against every
// fetched page.
//
// Each analyzer implements the Check interface and is registered in an
// explicit ordered list (see Defaults). The crawler runs the list
// sequentially per page; a Check that returns an error or panics
// contributes zero findings for that page and never stops the others.
//
// Checks share one Session per crawl: the crawler's HTTP client for
// follow-up probes and a concurrent memo for cross-check state such as
// per-host once-only claims. Checks never touch the crawl frontier.
package checks
