// Package scope decides which URLs a crawl session may touch.
//
// A Scope is a set of allowed hosts built from the seed URLs plus any
// configured extra hosts. The set only grows during a session: subdomain
// enumeration and seed intake add hosts before and never remove them.
// Membership checks are safe for concurrent use by all crawl workers.
package scope
