package model

import (
	"time"
)

// ScanReport is the aggregated result of one crawl session.
//
// Design decision: We deduplicate findings here, by fingerprint, rather
// than in the checks or the crawler because:
// 1. The fingerprint layer itself never drops duplicates; identity and
//    dedup are separate concerns
// 2. Checks stay stateless and the crawler stays a plain accumulator
// 3. Downstream consumers (reports, exporters, the review store) all
//    want the deduplicated view
type ScanReport struct {
	// ScanID uniquely identifies this session across reports, logs,
	// and database rows.
	ScanID string `json:"scan_id"`

	// Seeds are the starting URLs of the session.
	Seeds []string `json:"seeds"`

	// AllowedHosts is the scope the session ended with, including
	// hosts contributed by enumeration.
	AllowedHosts []string `json:"allowed_hosts,omitempty"`

	// DateScanned is when the session started.
	DateScanned time.Time `json:"date_scanned"`

	// ElapsedSeconds is the wall-clock duration of the session.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// PagesCrawled is the number of fetch attempts that returned a response.
	PagesCrawled int `json:"pages_crawled"`

	// URLsVisited is the size of the visited set at session end.
	URLsVisited int `json:"urls_visited"`

	// Crawls maps visited URLs to their HTTP status codes.
	// URLs that never produced a response are absent.
	Crawls map[string]int `json:"crawls,omitempty"`

	// Findings contains the deduplicated findings, in insertion order.
	Findings []Finding `json:"findings,omitempty"`

	// TimedOut is true if the session ended on its time budget rather
	// than by draining the frontier.
	TimedOut bool `json:"timed_out"`

	// ErrorMessage is set when the session failed outright.
	ErrorMessage string `json:"error,omitempty"`

	// seen tracks fingerprints already added, for dedup.
	seen map[string]struct{}
}

// NewScanReport creates a report for a session over the given seeds.
func NewScanReport(scanID string, seeds []string) *ScanReport {
	return &ScanReport{
		ScanID:      scanID,
		Seeds:       seeds,
		DateScanned: time.Now(),
		Crawls:      make(map[string]int),
		seen:        make(map[string]struct{}),
	}
}

// AddFinding adds a finding unless one with the same fingerprint is
// already present. The first occurrence wins. Returns true if the
// finding was added.
//
// Not safe for concurrent use; the crawler accumulates findings under
// its own lock and hands them over after the session ends.
func (r *ScanReport) AddFinding(finding Finding) bool {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, dup := r.seen[finding.Fingerprint]; dup {
		return false
	}
	r.seen[finding.Fingerprint] = struct{}{}
	r.Findings = append(r.Findings, finding)
	return true
}

// AddCrawl records a visited URL and its response status.
func (r *ScanReport) AddCrawl(url string, statusCode int) {
	if r.Crawls == nil {
		r.Crawls = make(map[string]int)
	}
	r.Crawls[url] = statusCode
}

// SeverityCounts returns the number of findings per severity level.
func (r *ScanReport) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// TypeCounts returns the number of findings per finding type.
func (r *ScanReport) TypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Type]++
	}
	return counts
}

// FindingsAtLeast returns findings at or above the given severity,
// preserving insertion order. Exporters use this to select highlights.
func (r *ScanReport) FindingsAtLeast(min Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity >= min {
			out = append(out, f)
		}
	}
	return out
}
