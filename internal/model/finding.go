package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// EvidenceHashLimit is the number of evidence bytes that participate in
// fingerprint hashing. Evidence beyond this limit never changes the
// fingerprint, so captures of varying verbosity still collapse to the
// same identity.
const EvidenceHashLimit = 512

// Finding represents a single security finding produced by a check.
//
// Findings are content-addressed: the Fingerprint field is derived from
// what was found and where, never from when. Two sessions observing the
// same issue at the same URL therefore produce the same fingerprint,
// which is what downstream stores key dedup on.
type Finding struct {
	// Severity is the risk level of the finding.
	Severity Severity `json:"severity"`

	// Type is the snake_case finding type identifier, e.g. "csrf_missing_token".
	// Known types are registered in findingInfoMapping.
	Type string `json:"type"`

	// URL is the page the finding was observed on.
	URL string `json:"url"`

	// Evidence is free text supporting the finding: a header value, a
	// matched body excerpt, a probe URL. Only the first EvidenceHashLimit
	// bytes participate in the fingerprint.
	Evidence string `json:"evidence"`

	// Fingerprint is the 64-char hex SHA-256 identity of the finding.
	// See ComputeFingerprint for the exact derivation.
	Fingerprint string `json:"fingerprint"`

	// FirstSeenMS is when this finding was first recorded, in unix
	// milliseconds. Not part of the fingerprint.
	FirstSeenMS int64 `json:"first_seen_ms"`

	// ValidatedMS is when this finding was last confirmed, in unix
	// milliseconds. Re-scans bump this without changing identity.
	ValidatedMS int64 `json:"validated_ms"`

	// Method is the HTTP method of the probe that produced the finding,
	// when one applies.
	Method string `json:"method,omitempty"`

	// Impact explains the security implications of this finding.
	Impact string `json:"impact,omitempty"`
}

// ComputeFingerprint derives the content address of a finding.
//
// The hash is SHA-256 over five sequential updates with no separators:
// the severity name, the type, the lowercased network location of the
// URL, the full URL, and the first EvidenceHashLimit bytes of evidence.
// The update order and the absence of separators are part of the
// identity contract: stored fingerprints from earlier runs must keep
// matching, so none of this may change.
func ComputeFingerprint(severity Severity, findingType, rawURL, evidence string) string {
	h := sha256.New()
	h.Write([]byte(severity.String()))
	h.Write([]byte(findingType))
	h.Write([]byte(HostOf(rawURL)))
	h.Write([]byte(rawURL))
	if len(evidence) > EvidenceHashLimit {
		evidence = evidence[:EvidenceHashLimit]
	}
	h.Write([]byte(evidence))
	return hex.EncodeToString(h.Sum(nil))
}

// HostOf extracts the lowercased network location (host, plus port if
// present) from a URL. Returns "" for unparseable input so fingerprints
// of malformed URLs remain stable rather than erroring.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// NowMS returns the current time in unix milliseconds, the timestamp
// unit used throughout finding records.
func NowMS() int64 {
	return time.Now().UnixMilli()
}

// NewFinding creates a Finding of a registered type. Severity and impact
// come from the central mapping, the fingerprint is computed, and both
// timestamps are set to now.
func NewFinding(findingType, rawURL, evidence string) Finding {
	info, _ := GetFindingInfo(findingType)
	now := NowMS()
	return Finding{
		Severity:    info.Severity,
		Type:        findingType,
		URL:         rawURL,
		Evidence:    evidence,
		Fingerprint: ComputeFingerprint(info.Severity, findingType, rawURL, evidence),
		FirstSeenMS: now,
		ValidatedMS: now,
		Impact:      info.Impact,
	}
}

// Normalize repairs a finding parsed from external input: a missing or
// stale fingerprint is recomputed from the content fields, and zero
// timestamps are filled with now. The recomputed fingerprint always
// wins over a stored one that disagrees.
func (f *Finding) Normalize() {
	f.Fingerprint = ComputeFingerprint(f.Severity, f.Type, f.URL, f.Evidence)
	now := NowMS()
	if f.FirstSeenMS == 0 {
		f.FirstSeenMS = now
	}
	if f.ValidatedMS == 0 {
		f.ValidatedMS = now
	}
}
