package subenum

import (
	"bufio"
	"context"
	"net"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultConcurrency is the number of in-flight DNS lookups.
	defaultConcurrency = 8

	// defaultLimitPerBase caps discoveries per base domain. Wildcard
	// zones resolve every candidate, so an uncapped run would add the
	// whole wordlist to the scope.
	defaultLimitPerBase = 200
)

// defaultWords is the built-in wordlist used when no file is given.
var defaultWords = []string{
	"www", "api", "app", "dev", "staging", "stage", "test", "uat",
	"beta", "demo", "admin", "portal", "mail", "m", "cdn", "static",
	"assets", "docs", "blog", "shop", "vpn", "git", "internal", "intranet",
}

// Enumerator resolves wordlist candidates against base domains.
type Enumerator struct {
	// lookup resolves a host to its addresses. Defaults to the system
	// resolver.
	lookup func(ctx context.Context, host string) ([]string, error)

	// concurrency bounds in-flight lookups.
	concurrency int

	// limitPerBase caps discoveries per base domain.
	limitPerBase int
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithConcurrency sets the number of concurrent DNS lookups.
func WithConcurrency(n int) Option {
	return func(e *Enumerator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLimitPerBase sets the maximum discoveries per base domain.
func WithLimitPerBase(n int) Option {
	return func(e *Enumerator) {
		if n > 0 {
			e.limitPerBase = n
		}
	}
}

// WithLookup replaces the resolver function. The default is the system
// resolver; tests and callers with custom DNS inject their own.
func WithLookup(fn func(ctx context.Context, host string) ([]string, error)) Option {
	return func(e *Enumerator) {
		if fn != nil {
			e.lookup = fn
		}
	}
}

// New creates an Enumerator with the given options.
func New(opts ...Option) *Enumerator {
	e := &Enumerator{
		lookup: func(ctx context.Context, host string) ([]string, error) {
			return net.DefaultResolver.LookupHost(ctx, host)
		},
		concurrency:  defaultConcurrency,
		limitPerBase: defaultLimitPerBase,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enumerate resolves word.base candidates and returns the hosts that
// answered, sorted. The error is non-nil only when the context ends
// before all bases are tried; the hosts found so far are still
// returned.
func (e *Enumerator) Enumerate(ctx context.Context, bases, words []string) ([]string, error) {
	var (
		mu    sync.Mutex
		hosts []string
	)

	for _, base := range bases {
		var found atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)

		for _, word := range words {
			if gctx.Err() != nil || found.Load() >= int64(e.limitPerBase) {
				break
			}
			candidate := word + "." + base
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				addrs, err := e.lookup(gctx, candidate)
				if err != nil || len(addrs) == 0 {
					return nil
				}
				mu.Lock()
				if found.Load() < int64(e.limitPerBase) {
					found.Add(1)
					hosts = append(hosts, candidate)
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // workers never return errors
	}

	sort.Strings(hosts)
	return hosts, ctx.Err()
}

// BaseDomains extracts the unique registrable domains (eTLD+1) from
// seed URLs or bare hosts, sorted. IP literals and hosts without a
// public suffix are skipped.
func BaseDomains(seeds []string) []string {
	set := make(map[string]struct{})
	for _, seed := range seeds {
		host := SeedHost(seed)
		if host == "" || net.ParseIP(host) != nil {
			continue
		}
		base, err := publicsuffix.EffectiveTLDPlusOne(host)
		if err != nil {
			continue
		}
		set[base] = struct{}{}
	}

	bases := make([]string, 0, len(set))
	for b := range set {
		bases = append(bases, b)
	}
	sort.Strings(bases)
	return bases
}

// SeedHost extracts a lowercased, port-free host from a seed entry,
// which may be a URL or a bare host. Returns "" when no host can be
// determined.
func SeedHost(seed string) string {
	seed = strings.TrimSpace(seed)
	if strings.Contains(seed, "://") {
		u, err := url.Parse(seed)
		if err != nil {
			return ""
		}
		return strings.ToLower(u.Hostname())
	}
	host := strings.ToLower(seed)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

// LoadWordlist reads one word per line, skipping blanks and "#"
// comments. Duplicates are dropped, first occurrence wins.
func LoadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// DefaultWordlist returns a copy of the built-in wordlist.
func DefaultWordlist() []string {
	words := make([]string, len(defaultWords))
	copy(words, defaultWords)
	return words
}
