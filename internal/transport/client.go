package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/techmad220/RavenX/internal/config"
)

// maxRedirects caps redirect chains to prevent loops while allowing
// normal login and canonicalization hops.
const maxRedirects = 10

// Options configures the HTTP client.
type Options struct {
	// Timeout is the whole-request timeout, including redirects.
	Timeout time.Duration

	// UserAgent is set on requests that do not carry one already.
	UserAgent string

	// SOCKS5Proxy is an optional upstream SOCKS5 proxy in "host:port"
	// format. Empty means direct connections.
	SOCKS5Proxy string

	// InsecureTLS disables certificate verification. Only for lab
	// targets with self-signed certificates.
	InsecureTLS bool

	// Overrides supplies per-host cookies and headers. May be nil.
	Overrides *config.File
}

// NewClient creates the HTTP client used for all scan traffic.
//
// Design decisions:
//   - Cookies are enabled via a jar so authenticated areas stay
//     reachable once a session cookie is set.
//   - The redirect limit is 10 to prevent redirect loops while allowing
//     normal redirects.
//   - Connection pool settings stay modest; the per-host rate limiter
//     means deep pools would only hold idle sockets.
//   - Custom headers and cookies are injected by a RoundTripper rather
//     than per request, so redirects and analyzer probes carry them too.
func NewClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Operator opt-in for lab targets
		}
	}

	if opts.SOCKS5Proxy != "" {
		if !isValidProxyAddress(opts.SOCKS5Proxy) {
			return nil, ErrInvalidProxyAddress
		}
		// nil auth: inspection proxies and local SOCKS listeners do not
		// require credentials.
		dialer, err := proxy.SOCKS5("tcp", opts.SOCKS5Proxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: &injectingTransport{
			base:      transport,
			userAgent: opts.UserAgent,
			overrides: opts.Overrides,
		},
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
// We use a simple check rather than a full URL parser because the format
// is very specific (no scheme, no path, just host and port).
func isValidProxyAddress(address string) bool {
	parts := strings.Split(address, ":")
	if len(parts) != 2 {
		return false
	}

	host, port := parts[0], parts[1]
	if host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}
	return portNum >= 1
}

// injectingTransport wraps an http.RoundTripper to set the default
// User-Agent and inject per-host headers and cookies into every
// request.
type injectingTransport struct {
	base      http.RoundTripper
	userAgent string
	overrides *config.File
}

// RoundTrip implements http.RoundTripper.
func (t *injectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone so callers' requests stay untouched.
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	if t.overrides != nil {
		override := t.overrides.HostConfig(clone.URL.Hostname())

		if override.Cookie != "" {
			if existing := clone.Header.Get("Cookie"); existing != "" {
				clone.Header.Set("Cookie", existing+"; "+override.Cookie)
			} else {
				clone.Header.Set("Cookie", override.Cookie)
			}
		}

		for key, value := range override.Headers {
			clone.Header.Set(key, value)
		}
	}

	return t.base.RoundTrip(clone)
}
