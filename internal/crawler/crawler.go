package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/techmad220/RavenX/internal/checks"
	"github.com/techmad220/RavenX/internal/metrics"
	"github.com/techmad220/RavenX/internal/model"
	"github.com/techmad220/RavenX/internal/scope"
)

const (
	// defaultConcurrency is the worker pool size.
	defaultConcurrency = 8

	// defaultDequeueTimeout is how long a worker waits on the frontier
	// before re-checking the pending counter.
	defaultDequeueTimeout = 500 * time.Millisecond

	// frontierBuffer is the frontier channel capacity. With per-host
	// quotas bounding total work, a full frontier means the crawl is
	// already saturated and dropping the overflow is harmless.
	frontierBuffer = 4096

	// defaultUserAgent identifies the scanner to targets.
	defaultUserAgent = "RavenX/1.0"
)

// Crawler runs scope-bounded concurrent crawls. It is configured once
// and can run multiple sessions; per-session state lives in the crawl
// struct.
type Crawler struct {
	// client is the HTTP client used for page fetches and check probes.
	client *http.Client

	// scope decides which discovered URLs enter the frontier.
	scope *scope.Scope

	// governor enforces per-host rate, quota, and the time budget.
	governor *Governor

	// checks is the analyzer set run against every fetched page.
	checks []checks.Check

	// concurrency is the number of crawl workers.
	concurrency int

	// userAgent is sent on every page fetch.
	userAgent string

	// dequeueTimeout is the worker poll interval on an empty frontier.
	dequeueTimeout time.Duration

	// logger receives per-URL progress and error events.
	logger *slog.Logger

	// metrics receives crawl counters. Nil disables recording.
	metrics *metrics.Metrics
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the number of crawl workers.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithChecks replaces the default analyzer set.
func WithChecks(set []checks.Check) Option {
	return func(c *Crawler) {
		c.checks = set
	}
}

// WithLogger sets the logger for crawl events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithDequeueTimeout sets the worker poll interval. Tests shorten it to
// finish drain detection quickly.
func WithDequeueTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.dequeueTimeout = d
		}
	}
}

// New creates a Crawler.
//
// Design decision: We require an external client because:
//  1. Timeout and transport policy belong to the caller's config
//  2. Checks reuse the same client, so probes share the crawl's identity
//  3. Tests swap in httptest clients without extra hooks
func New(client *http.Client, sc *scope.Scope, gov *Governor, opts ...Option) *Crawler {
	c := &Crawler{
		client:         client,
		scope:          sc,
		governor:       gov,
		checks:         checks.Defaults(),
		concurrency:    defaultConcurrency,
		userAgent:      defaultUserAgent,
		dequeueTimeout: defaultDequeueTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// crawl is the state of one session.
type crawl struct {
	*Crawler

	// session carries cross-check state for this session.
	session *checks.Session

	// frontier holds queued URLs.
	frontier chan string

	// pending counts URLs enqueued but not yet fully processed. Workers
	// may exit only when it reaches zero: a zero means the frontier is
	// drained and no in-flight page can still grow it.
	pending atomic.Int64

	// mu guards visited and report.
	mu      sync.Mutex
	visited map[string]struct{}
	report  *model.ScanReport
}

// Crawl runs one session from the given seeds, accumulating results
// into report. It returns when the frontier is drained or the context
// is canceled; the soft time budget drains the queue instead of
// returning an error.
func (c *Crawler) Crawl(ctx context.Context, seeds []string, report *model.ScanReport) error {
	run := &crawl{
		Crawler:  c,
		session:  checks.NewSession(c.client),
		frontier: make(chan string, frontierBuffer),
		visited:  make(map[string]struct{}),
		report:   report,
	}

	for _, seed := range seeds {
		run.enqueue(seed)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.concurrency; i++ {
		g.Go(func() error {
			return run.worker(gctx)
		})
	}
	err := g.Wait()

	run.mu.Lock()
	report.URLsVisited = len(run.visited)
	run.mu.Unlock()
	return err
}

// worker processes frontier URLs until the session drains or the
// context is canceled.
func (r *crawl) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rawURL := <-r.frontier:
			r.process(ctx, rawURL)
		case <-time.After(r.dequeueTimeout):
			// Zero pending on an empty frontier means done: every
			// enqueued URL has been fully processed, so nothing can
			// arrive anymore.
			if r.pending.Load() == 0 {
				return nil
			}
		}
	}
}

// process handles one dequeued URL: governance, fetch, checks, and
// frontier growth. Failures are logged and swallowed so one bad URL
// never stops the session.
func (r *crawl) process(ctx context.Context, rawURL string) {
	defer r.pending.Add(-1)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic processing url", "url", rawURL, "panic", rec)
		}
	}()

	if r.governor.Expired() {
		r.markTimedOut()
		return
	}

	host := model.HostOf(rawURL)
	if host == "" {
		return
	}
	if !r.governor.Admit(host) {
		r.metrics.RecordQuotaDrop()
		r.logger.Debug("page quota exhausted", "host", host, "url", rawURL)
		return
	}
	if err := r.governor.Wait(ctx, host); err != nil {
		return
	}

	page, err := r.fetch(ctx, rawURL)
	if err != nil {
		r.metrics.RecordFetchError()
		r.logger.Debug("fetch failed", "url", rawURL, "error", err)
		return
	}
	r.metrics.RecordPage()

	r.mu.Lock()
	r.report.AddCrawl(rawURL, page.StatusCode)
	r.report.PagesCrawled++
	r.mu.Unlock()

	findings := r.runChecks(ctx, page)
	if len(findings) > 0 {
		r.mu.Lock()
		for _, f := range findings {
			if r.report.AddFinding(f) {
				r.metrics.RecordFinding(f.Severity.String(), f.Type)
			}
		}
		r.mu.Unlock()
	}

	if page.IsHTML() && !r.governor.Expired() {
		r.enqueueLinks(page)
	}
}

// fetch retrieves one page. The body is capped at model.MaxBodySize.
func (r *crawl) fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, model.MaxBodySize))
	if err != nil {
		return nil, err
	}

	return &model.Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
		FetchedAt:   time.Now(),
	}, nil
}

// runChecks runs the analyzer set against a page. Each check is
// isolated: an error or panic voids that check's findings only.
func (r *crawl) runChecks(ctx context.Context, page *model.Page) []model.Finding {
	var findings []model.Finding
	for _, check := range r.checks {
		results, err := r.runCheck(ctx, check, page)
		if err != nil {
			r.logger.Debug("check failed", "check", check.Name(), "url", page.URL, "error", err)
			continue
		}
		findings = append(findings, results...)
	}
	return findings
}

// runCheck runs one check, converting panics into errors.
func (r *crawl) runCheck(ctx context.Context, check checks.Check, page *model.Page) (findings []model.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return check.Run(ctx, page, r.session)
}

// enqueueLinks parses a page and feeds in-scope links to the frontier.
// Links resolve against the final URL so redirected pages link the way
// a browser would see them.
func (r *crawl) enqueueLinks(page *model.Page) {
	parser, err := NewParser(page.FinalURL)
	if err != nil {
		return
	}
	result, err := parser.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return
	}

	r.logger.Debug("crawled page",
		"url", page.URL, "status", page.StatusCode,
		"title", result.Title, "links", len(result.Links))

	for _, link := range result.Links {
		r.enqueue(link)
	}
}

// enqueue adds a URL to the frontier if it is in scope and unseen.
// The visited check and insert are one atomic step, so two workers
// discovering the same URL enqueue it exactly once.
func (r *crawl) enqueue(rawURL string) {
	normalized := normalizeURL(rawURL)
	if !r.scope.InScope(normalized) {
		return
	}

	r.mu.Lock()
	if _, dup := r.visited[normalized]; dup {
		r.mu.Unlock()
		return
	}
	r.visited[normalized] = struct{}{}
	r.mu.Unlock()

	r.pending.Add(1)
	select {
	case r.frontier <- normalized:
	default:
		// The URL stays visited so it is not retried.
		r.pending.Add(-1)
		r.logger.Debug("frontier full, dropping url", "url", normalized)
	}
}

// markTimedOut records that the session hit its time budget.
func (r *crawl) markTimedOut() {
	r.mu.Lock()
	r.report.TimedOut = true
	r.mu.Unlock()
}

// normalizeURL canonicalizes a URL for visited-set deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. An empty path and "/" are the same resource
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// mediaType strips parameters like charset from a Content-Type value.
func mediaType(value string) string {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		if i := strings.IndexByte(value, ';'); i >= 0 {
			value = value[:i]
		}
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mt
}
