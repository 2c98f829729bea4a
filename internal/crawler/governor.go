package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// hostState is the governance state for one host.
type hostState struct {
	// limiter spaces requests to the host.
	limiter *rate.Limiter

	// pages counts fetch slots reserved against the host's quota.
	pages atomic.Int64
}

// Governor enforces the politeness contract of a crawl: a per-host
// request rate, a per-host page quota, and one shared soft time budget.
// All methods are safe for concurrent use by the crawl workers.
//
// Design decision: We reserve a quota slot before the fetch rather than
// counting after it because:
// 1. The quota bounds requests sent, which is what the target observes
// 2. Concurrent workers cannot overshoot between a fetch and its count
// 3. A failed fetch still consumed the target's attention, so it counts
type Governor struct {
	// qps is the per-host request rate. Zero or negative disables rate
	// limiting.
	qps float64

	// maxPages is the per-host fetch quota. The cap is strict: a quota
	// below one admits nothing.
	maxPages int

	// mu guards hosts and deadline.
	mu    sync.RWMutex
	hosts map[string]*hostState

	// deadline is when the time budget runs out. The clock starts when
	// the Governor is created, which is scan start. Expire moves it.
	deadline time.Time
}

// NewGovernor creates a Governor for one scan. A zero budget expires
// immediately and a quota below one admits no pages; either way the
// frontier drains without fetching anything.
func NewGovernor(qps float64, maxPages int, budget time.Duration) *Governor {
	return &Governor{
		qps:      qps,
		maxPages: maxPages,
		deadline: time.Now().Add(budget),
		hosts:    make(map[string]*hostState),
	}
}

// host returns the state for a host, creating it on first use.
func (g *Governor) host(name string) *hostState {
	g.mu.RLock()
	state, ok := g.hosts[name]
	g.mu.RUnlock()
	if ok {
		return state
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.hosts[name]; ok {
		return state
	}

	limit := rate.Inf
	if g.qps > 0 {
		limit = rate.Limit(g.qps)
	}
	state = &hostState{limiter: rate.NewLimiter(limit, 1)}
	g.hosts[name] = state
	return state
}

// Admit reserves one fetch slot against the host's quota. Returns false
// when the quota is exhausted. The slot is never returned: a fetch
// attempt counts whether or not it succeeds.
func (g *Governor) Admit(host string) bool {
	if g.maxPages <= 0 {
		return false
	}
	state := g.host(host)
	for {
		n := state.pages.Load()
		if n >= int64(g.maxPages) {
			return false
		}
		if state.pages.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Wait blocks until the host's rate limiter grants a slot or the
// context is done.
func (g *Governor) Wait(ctx context.Context, host string) error {
	return g.host(host).limiter.Wait(ctx)
}

// Expired reports whether the time budget has run out. The budget is
// soft: callers check it before starting work, never to abort work in
// flight.
func (g *Governor) Expired() bool {
	g.mu.RLock()
	deadline := g.deadline
	g.mu.RUnlock()
	return !time.Now().Before(deadline)
}

// Expire forces the time budget to run out now. Interrupt handling uses
// this to drain the session gracefully: in-flight pages finish, queued
// URLs are discarded, and the partial results flow through the rest of
// the pipeline.
func (g *Governor) Expire() {
	g.mu.Lock()
	g.deadline = time.Now()
	g.mu.Unlock()
}

// Pages returns the number of fetch slots reserved for a host.
func (g *Governor) Pages(host string) int64 {
	g.mu.RLock()
	state, ok := g.hosts[host]
	g.mu.RUnlock()
	if !ok {
		return 0
	}
	return state.pages.Load()
}
