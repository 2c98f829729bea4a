package checks

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// takeoverProviderHints are DNS target fragments of hosting providers
// where dangling CNAMEs are claimable.
var takeoverProviderHints = []string{
	"github.io", "github.map.fastly.net", "amazonaws.com", "s3-website", "cloudfront.net",
	"herokudns.com", "herokuapp.com", "fastly.net", "pages.dev", "vercel.app", "azurewebsites.net",
	"zendesk.com", "wpengine.com", "readme.io", "surge.sh", "bitbucket.io", "gitbooks.io",
}

// takeoverBodySignatures are provider error phrases served from
// unclaimed resources.
var takeoverBodySignatures = []struct {
	provider  string
	signature string
}{
	{"github", "There isn't a GitHub Pages site here"},
	{"s3", "NoSuchBucket"},
	{"heroku", "No such app"},
	{"fastly", "Fastly error: unknown domain"},
	{"vercel", "This deployment does not exist"},
}

// takeoverBodyLimit is how much of the body is scanned for provider
// signatures.
const takeoverBodyLimit = 2000

// SubdomainTakeoverCheck looks for hosts whose DNS points at a
// provider resource nobody claims. Runs once per host per session.
type SubdomainTakeoverCheck struct {
	// lookupCNAME resolves the canonical name for a host. Injected so
	// tests can avoid real DNS. Defaults to the system resolver.
	lookupCNAME func(ctx context.Context, host string) (string, error)
}

// NewSubdomainTakeoverCheck creates a SubdomainTakeoverCheck using the
// system resolver.
func NewSubdomainTakeoverCheck() *SubdomainTakeoverCheck {
	return &SubdomainTakeoverCheck{
		lookupCNAME: net.DefaultResolver.LookupCNAME,
	}
}

// Name returns the analyzer name.
func (c *SubdomainTakeoverCheck) Name() string {
	return "takeover"
}

// Run reports subdomain_takeover_possible when the host's CNAME chain
// targets a known provider or the body carries an unclaimed-resource
// phrase. The session memo guarantees one probe per host no matter how
// many of its pages the crawl visits.
func (c *SubdomainTakeoverCheck) Run(ctx context.Context, page *model.Page, session *Session) ([]model.Finding, error) {
	host := page.Host()
	if host == "" {
		return nil, nil
	}
	if !session.Claim("takeover:" + host) {
		return nil, nil
	}

	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	var hints []string
	cname := ""
	// CNAME lookup is best-effort: NXDOMAIN and lookup failures are as
	// normal as answers here.
	if target, err := c.lookupCNAME(ctx, hostname); err == nil {
		cname = strings.ToLower(strings.TrimSuffix(target, "."))
		for _, hint := range takeoverProviderHints {
			if strings.Contains(cname, hint) {
				hints = append(hints, hint)
			}
		}
	}

	body := page.Body
	if len(body) > takeoverBodyLimit {
		body = body[:takeoverBodyLimit]
	}
	lowerBody := strings.ToLower(string(body))
	matched := ""
	for _, sig := range takeoverBodySignatures {
		if strings.Contains(lowerBody, strings.ToLower(sig.signature)) {
			matched = sig.signature
			break
		}
	}

	if len(hints) == 0 && matched == "" {
		return nil, nil
	}
	evidence := fmt.Sprintf("hints=%v cname=%s bodySig=%s", hints, cname, matched)
	return []model.Finding{model.NewFinding("subdomain_takeover_possible", page.URL, evidence)}, nil
}

// Ensure SubdomainTakeoverCheck implements Check.
var _ Check = (*SubdomainTakeoverCheck)(nil)
