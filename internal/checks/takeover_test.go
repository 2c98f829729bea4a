package checks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/techmad220/RavenX/internal/model"
)

// TestSubdomainTakeoverCheck tests dangling DNS detection with a
// stubbed resolver.
func TestSubdomainTakeoverCheck(t *testing.T) {
	t.Parallel()

	t.Run("flags provider CNAME", func(t *testing.T) {
		t.Parallel()

		check := &SubdomainTakeoverCheck{
			lookupCNAME: func(_ context.Context, host string) (string, error) {
				return "orphaned.github.io.", nil
			},
		}
		page := htmlPage("https://blog.example.com/", "<html></html>")
		session := NewSession(http.DefaultClient)

		findings, err := check.Run(context.Background(), page, session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(findings))
		}
		f := findings[0]
		if f.Type != "subdomain_takeover_possible" {
			t.Errorf("unexpected type %s", f.Type)
		}
		if f.Severity != model.SeverityHigh {
			t.Errorf("expected high severity, got %s", f.Severity)
		}
		if !strings.Contains(f.Evidence, "github.io") {
			t.Errorf("expected hint in evidence, got %q", f.Evidence)
		}
		if !strings.Contains(f.Evidence, "cname=orphaned.github.io") {
			t.Errorf("expected cname in evidence, got %q", f.Evidence)
		}
	})

	t.Run("flags unclaimed-resource body signature", func(t *testing.T) {
		t.Parallel()

		check := &SubdomainTakeoverCheck{
			lookupCNAME: func(_ context.Context, host string) (string, error) {
				return "", errors.New("nxdomain")
			},
		}
		page := htmlPage("https://pages.example.com/",
			"<html><body>There isn't a GitHub Pages site here.</body></html>")

		findings, err := check.Run(context.Background(), page, NewSession(http.DefaultClient))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(findings) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(findings))
		}
		if !strings.Contains(findings[0].Evidence, "bodySig=There isn't a GitHub Pages site here") {
			t.Errorf("expected body signature in evidence, got %q", findings[0].Evidence)
		}
	})

	t.Run("silent on healthy host", func(t *testing.T) {
		t.Parallel()

		check := &SubdomainTakeoverCheck{
			lookupCNAME: func(_ context.Context, host string) (string, error) {
				return "lb.internal.example.com.", nil
			},
		}
		page := htmlPage("https://www.example.com/", "<html><body>welcome</body></html>")

		findings, err := check.Run(context.Background(), page, NewSession(http.DefaultClient))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %d", len(findings))
		}
	})

	t.Run("runs once per host per session", func(t *testing.T) {
		t.Parallel()

		lookups := 0
		check := &SubdomainTakeoverCheck{
			lookupCNAME: func(_ context.Context, host string) (string, error) {
				lookups++
				return "orphaned.github.io.", nil
			},
		}
		session := NewSession(http.DefaultClient)

		first, err := check.Run(context.Background(), htmlPage("https://blog.example.com/", ""), session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := check.Run(context.Background(), htmlPage("https://blog.example.com/about", ""), session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(first) != 1 {
			t.Errorf("expected first run to report, got %d findings", len(first))
		}
		if len(second) != 0 {
			t.Errorf("expected second run on same host to be silent, got %d findings", len(second))
		}
		if lookups != 1 {
			t.Errorf("expected 1 DNS lookup, got %d", lookups)
		}
	})

	t.Run("strips port before DNS lookup", func(t *testing.T) {
		t.Parallel()

		var lookedUp string
		check := &SubdomainTakeoverCheck{
			lookupCNAME: func(_ context.Context, host string) (string, error) {
				lookedUp = host
				return "", errors.New("nxdomain")
			},
		}
		page := htmlPage("https://app.example.com:8443/", "")

		if _, err := check.Run(context.Background(), page, NewSession(http.DefaultClient)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lookedUp != "app.example.com" {
			t.Errorf("expected bare hostname for lookup, got %q", lookedUp)
		}
	})
}
