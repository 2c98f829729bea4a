package scope

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Scope is the allowed-host set for one crawl session.
//
// Matching rules for a candidate host, checked against every entry:
//  1. Exact match.
//  2. Wildcard entries of the form "*.example.com" match any host ending
//     in ".example.com" (the bare domain itself does not match).
//  3. A host that is a dot-separated subdomain of an entry matches
//     ("a.example.com" against entry "example.com").
//
// Design decision: The rules stop at label boundaries. Bare substring
// containment would also pull "nottest.com" into scope for entry
// "test.com", which is never what a scoped engagement wants. Containment
// matching survives behind WithContainment for callers that opt into
// broad recall deliberately.
type Scope struct {
	// mu guards allowed. The predicate takes read locks so workers can
	// check membership while host intake is still adding entries.
	mu sync.RWMutex

	// allowed holds lowercased host entries, ports stripped. Wildcard
	// entries keep their "*." prefix.
	allowed map[string]struct{}

	// containment enables substring matching in both directions.
	containment bool
}

// Option configures a Scope.
type Option func(*Scope)

// WithContainment enables broad substring matching: a host is in scope
// when it contains an entry or an entry contains it. Off by default.
func WithContainment() Option {
	return func(s *Scope) {
		s.containment = true
	}
}

// New builds a Scope from seed URLs. Seeds whose host cannot be
// determined are skipped. Extra hosts (including "*." wildcards) are
// added via AddHost.
func New(seeds []string, opts ...Option) *Scope {
	s := &Scope{
		allowed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, seed := range seeds {
		u, err := url.Parse(seed)
		if err != nil {
			continue
		}
		s.AddHost(u.Hostname())
	}
	return s
}

// AddHost adds a host entry. Entries are lowercased and trimmed; empty
// entries are ignored. Accepts "*.domain" wildcards. The set only
// grows, so adding concurrently with membership checks is safe.
func (s *Scope) AddHost(host string) {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return
	}
	s.mu.Lock()
	s.allowed[host] = struct{}{}
	s.mu.Unlock()
}

// Hosts returns the current entries, sorted. For reports and logs.
func (s *Scope) Hosts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hosts := make([]string, 0, len(s.allowed))
	for h := range s.allowed {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// Len returns the number of entries.
func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allowed)
}

// InScope reports whether a URL may be fetched. Non-http(s) schemes and
// unparseable URLs are always out of scope. The port does not
// participate in matching.
func (s *Scope) InScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.allowed[host]; ok {
		return true
	}
	for entry := range s.allowed {
		if s.matches(host, entry) {
			return true
		}
	}
	return false
}

// matches applies the wildcard, subdomain, and optional containment
// rules for a single entry. Caller holds at least a read lock.
func (s *Scope) matches(host, entry string) bool {
	if rest, ok := strings.CutPrefix(entry, "*."); ok {
		return strings.HasSuffix(host, "."+rest)
	}
	if strings.HasSuffix(host, "."+entry) {
		return true
	}
	if s.containment {
		return strings.Contains(host, entry) || strings.Contains(entry, host)
	}
	return false
}
