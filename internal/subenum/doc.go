// Package subenum discovers live subdomains of the scan targets.
//
// The enumerator derives base domains (eTLD+1) from the seed URLs,
// prepends wordlist entries, and keeps the candidates that resolve in
// DNS. Discovered hosts are meant to join the session scope and seed
// list before the crawl starts.
//
// Design decision: We resolve candidates instead of querying passive
// sources because:
//  1. A resolving host is immediately crawlable; passive data is full
//     of dead records that would waste the page budget.
//  2. Plain DNS lookups need no API keys and work offline against test
//     resolvers.
//  3. The per-base cap keeps wildcard DNS zones from flooding the
//     scope.
package subenum
