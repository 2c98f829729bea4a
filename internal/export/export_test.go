package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/techmad220/RavenX/internal/model"
)

// TestJSONLExporter tests the JSON Lines finding export.
func TestJSONLExporter(t *testing.T) {
	t.Parallel()

	t.Run("writes one JSON object per line", func(t *testing.T) {
		t.Parallel()

		findings := []model.Finding{
			model.NewFinding("dir_listing", "http://app.example.com/files/", "Index of /files"),
			model.NewFinding("cors_misconfiguration", "http://app.example.com/api", "Access-Control-Allow-Origin: *"),
			model.NewFinding("csrf_missing_token", "http://app.example.com/login", "form action=/login"),
		}

		var buf bytes.Buffer
		n, err := NewJSONLExporter(&buf).Export(findings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 findings written, got %d", n)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}

		for i, line := range lines {
			var parsed model.Finding
			if err := json.Unmarshal([]byte(line), &parsed); err != nil {
				t.Fatalf("line %d is not valid JSON: %v", i, err)
			}
			if parsed.Fingerprint != findings[i].Fingerprint {
				t.Errorf("line %d fingerprint mismatch: %q", i, parsed.Fingerprint)
			}
		}
	})

	t.Run("empty stream writes nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONLExporter(&buf).Export(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 findings written, got %d", n)
		}
		if buf.Len() != 0 {
			t.Errorf("expected empty output, got %q", buf.String())
		}
	})
}

// TestSlackExporter tests webhook highlight delivery.
func TestSlackExporter(t *testing.T) {
	t.Parallel()

	// highReport builds a report with one high and one low finding.
	highReport := func() *model.ScanReport {
		report := model.NewScanReport("scan-slack", []string{"http://app.example.com"})
		report.AddFinding(model.NewFinding("subdomain_takeover_possible", "http://old.example.com/", "CNAME dangling"))
		report.AddFinding(model.NewFinding("dir_listing", "http://app.example.com/files/", "Index of /files"))
		return report
	}

	t.Run("posts high findings only", func(t *testing.T) {
		t.Parallel()

		var received slackMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode payload: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sent, err := NewSlackExporter(srv.URL).Send(context.Background(), highReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sent {
			t.Fatal("expected message to be sent")
		}

		if !strings.Contains(received.Text, "RavenX: high-priority findings") {
			t.Error("expected header line in message")
		}
		if !strings.Contains(received.Text, "*HIGH* subdomain_takeover_possible") {
			t.Error("expected high finding in message")
		}
		if strings.Contains(received.Text, "dir_listing") {
			t.Error("low finding should not appear in highlights")
		}
	})

	t.Run("caps highlights at twenty", func(t *testing.T) {
		t.Parallel()

		var received slackMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode payload: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		report := model.NewScanReport("scan-many", []string{"http://app.example.com"})
		for i := 0; i < 25; i++ {
			url := fmt.Sprintf("http://h%02d.example.com/", i)
			report.AddFinding(model.NewFinding("subdomain_takeover_possible", url, "CNAME dangling"))
		}

		sent, err := NewSlackExporter(srv.URL).Send(context.Background(), report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sent {
			t.Fatal("expected message to be sent")
		}

		// Header plus at most twenty highlight lines
		lines := strings.Split(received.Text, "\n")
		if len(lines) != 21 {
			t.Errorf("expected 21 lines, got %d", len(lines))
		}
	})

	t.Run("no high findings sends nothing", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		report := model.NewScanReport("scan-low", []string{"http://app.example.com"})
		report.AddFinding(model.NewFinding("dir_listing", "http://app.example.com/files/", "Index of /files"))

		sent, err := NewSlackExporter(srv.URL).Send(context.Background(), report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent {
			t.Error("expected nothing sent for low-only report")
		}
		if calls.Load() != 0 {
			t.Error("webhook should not have been called")
		}
	})

	t.Run("empty webhook URL disables exporter", func(t *testing.T) {
		t.Parallel()

		sent, err := NewSlackExporter("").Send(context.Background(), highReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent {
			t.Error("expected nothing sent without webhook URL")
		}
	})

	t.Run("non-success status returns error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no_service", http.StatusInternalServerError)
		}))
		defer srv.Close()

		sent, err := NewSlackExporter(srv.URL).Send(context.Background(), highReport())
		if err == nil {
			t.Fatal("expected error for 500 response")
		}
		if sent {
			t.Error("expected sent=false on error")
		}
	})

	t.Run("canceled context aborts delivery", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewSlackExporter(srv.URL).Send(ctx, highReport())
		if err == nil {
			t.Fatal("expected error for canceled context")
		}
	})
}
