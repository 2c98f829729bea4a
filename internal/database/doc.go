// Package database provides SQLite-based storage for RavenX.
//
// This package implements the ScanDB, which stores:
//   - Findings keyed by fingerprint, with their review status
//   - Crawl records (visited URLs and status codes) per scan
//   - Scan reports for historical analysis
//
// The findings table is the review queue: every finding enters as
// pending, and Approve/Reject record the triage decision. Because rows
// are keyed by the content-addressed fingerprint, a re-scan that
// observes a known finding refreshes its validated timestamp instead of
// creating a duplicate, and the earlier review decision stands.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
