package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/techmad220/RavenX/internal/database"
	"github.com/techmad220/RavenX/internal/model"
)

func TestNewReviewCmd(t *testing.T) {
	t.Parallel()

	cmd := NewReviewCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "review" {
			t.Errorf("unexpected Use: got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty Short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty Long description")
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		flagsWithShort := map[string]string{
			"approve":    "a",
			"reject":     "r",
			"list-scans": "l",
			"json":       "j",
		}
		for flag, shorthand := range flagsWithShort {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				t.Errorf("expected flag %q to exist", flag)
				continue
			}
			if f.Shorthand != shorthand {
				t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
			}
		}
	})

	t.Run("has approved flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("approved") == nil {
			t.Error("expected approved flag")
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.DefValue != "0" {
			t.Errorf("expected default '0', got %q", flag.DefValue)
		}
	})

	t.Run("does not have db-dir flag (uses XDG)", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db-dir") != nil {
			t.Error("db-dir flag should not exist")
		}
	})
}

// TestRunReviewCmdConflictingDecisions tests that approve and reject
// cannot be combined.
func TestRunReviewCmdConflictingDecisions(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"review", "--approve", "aaaa", "--reject", "bbbb"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for conflicting decisions")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("expected 'mutually exclusive' error, got: %v", err)
	}
}

// seedTestFindings saves a couple of findings to a fresh database and
// returns them with the open handle.
func seedTestFindings(t *testing.T) (*database.ScanDB, []model.Finding) {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	findings := []model.Finding{
		model.NewFinding("security_headers_missing", "https://target.example.com/", "missing: Content-Security-Policy"),
		model.NewFinding("csrf_missing_token", "https://target.example.com/login", "form action=/login method=POST"),
	}

	ctx := context.Background()
	if err := db.SaveFindings(ctx, findings, "scan-test"); err != nil {
		t.Fatalf("failed to seed findings: %v", err)
	}

	return db, findings
}

func TestRecordDecision(t *testing.T) {
	t.Parallel()

	t.Run("approves finding by fingerprint prefix", func(t *testing.T) {
		t.Parallel()
		db, findings := seedTestFindings(t)
		ctx := context.Background()

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := recordDecision(ctx, db, findings[0].Fingerprint[:8], database.StatusApproved)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("recordDecision() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		if !strings.Contains(buf.String(), "approved") {
			t.Errorf("expected confirmation output, got %q", buf.String())
		}

		rec, err := db.GetFinding(ctx, findings[0].Fingerprint)
		if err != nil {
			t.Fatalf("failed to get finding: %v", err)
		}
		if rec == nil || rec.Status != database.StatusApproved {
			t.Errorf("expected status approved, got %+v", rec)
		}
	})

	t.Run("rejects finding", func(t *testing.T) {
		t.Parallel()
		db, findings := seedTestFindings(t)
		ctx := context.Background()

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := recordDecision(ctx, db, findings[1].Fingerprint, database.StatusRejected)

		w.Close()
		os.Stdout = oldStdout

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if err != nil {
			t.Fatalf("recordDecision() error = %v", err)
		}

		rec, err := db.GetFinding(ctx, findings[1].Fingerprint)
		if err != nil {
			t.Fatalf("failed to get finding: %v", err)
		}
		if rec == nil || rec.Status != database.StatusRejected {
			t.Errorf("expected status rejected, got %+v", rec)
		}
	})

	t.Run("returns error for unknown fingerprint", func(t *testing.T) {
		t.Parallel()
		db, _ := seedTestFindings(t)

		err := recordDecision(context.Background(), db, "ffffffffffff", database.StatusApproved)
		if err == nil {
			t.Error("expected error for unknown fingerprint")
		}
	})

	t.Run("returns error for unknown status", func(t *testing.T) {
		t.Parallel()
		db, findings := seedTestFindings(t)

		err := recordDecision(context.Background(), db, findings[0].Fingerprint, "escalated")
		if err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

func TestListFindings(t *testing.T) {
	t.Parallel()

	t.Run("lists pending findings as text", func(t *testing.T) {
		t.Parallel()
		db, findings := seedTestFindings(t)

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listFindings(context.Background(), db, database.StatusPending, 0, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listFindings() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "Pending findings (2)") {
			t.Errorf("expected pending header, got %q", output)
		}
		if !strings.Contains(output, shortFingerprint(findings[0].Fingerprint)) {
			t.Error("expected abbreviated fingerprint in output")
		}
		if !strings.Contains(output, "security_headers_missing") {
			t.Error("expected finding type in output")
		}
	})

	t.Run("lists pending findings as JSON", func(t *testing.T) {
		t.Parallel()
		db, findings := seedTestFindings(t)

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listFindings(context.Background(), db, database.StatusPending, 0, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listFindings() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var items []reviewItem
		if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
			t.Fatalf("expected valid JSON output, got error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].Fingerprint != findings[0].Fingerprint {
			t.Error("expected full fingerprint in JSON output")
		}
		if items[0].Status != database.StatusPending {
			t.Errorf("expected pending status, got %q", items[0].Status)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		t.Parallel()
		db, _ := seedTestFindings(t)

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listFindings(context.Background(), db, database.StatusPending, 1, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listFindings() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var items []reviewItem
		if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
			t.Fatalf("expected valid JSON output, got error: %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected 1 item with limit, got %d", len(items))
		}
	})

	t.Run("lists only approved findings after decision", func(t *testing.T) {
		t.Parallel()
		db, findings := seedTestFindings(t)
		ctx := context.Background()

		if err := db.Approve(ctx, findings[0].Fingerprint); err != nil {
			t.Fatalf("failed to approve: %v", err)
		}

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listFindings(ctx, db, database.StatusApproved, 0, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listFindings() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var items []reviewItem
		if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
			t.Fatalf("expected valid JSON output, got error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 approved item, got %d", len(items))
		}
		if items[0].Fingerprint != findings[0].Fingerprint {
			t.Error("expected the approved finding")
		}
	})

	t.Run("reports empty queue", func(t *testing.T) {
		t.Parallel()
		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = listFindings(context.Background(), db, database.StatusPending, 0, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listFindings() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "No pending findings") {
			t.Errorf("expected empty queue message, got %q", buf.String())
		}
	})
}

func TestListScanSessions(t *testing.T) {
	t.Parallel()

	t.Run("lists stored scans", func(t *testing.T) {
		t.Parallel()
		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		ctx := context.Background()
		scanReport := model.NewScanReport("scan-history-test", []string{"https://target.example.com/"})
		scanReport.AddFinding(model.NewFinding("dir_listing", "https://target.example.com/backup/", "Index of /backup"))
		if err := db.SaveScanReport(ctx, scanReport); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = listScanSessions(ctx, db, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listScanSessions() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "scan-history-test") {
			t.Errorf("expected scan ID in output, got %q", output)
		}
		if !strings.Contains(output, "Stored scans (1)") {
			t.Errorf("expected scan count header, got %q", output)
		}
	})

	t.Run("lists stored scans as JSON", func(t *testing.T) {
		t.Parallel()
		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		ctx := context.Background()
		scanReport := model.NewScanReport("scan-json-test", []string{"https://target.example.com/"})
		if err := db.SaveScanReport(ctx, scanReport); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = listScanSessions(ctx, db, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listScanSessions() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var sessions []scanSession
		if err := json.Unmarshal(buf.Bytes(), &sessions); err != nil {
			t.Fatalf("expected valid JSON output, got error: %v", err)
		}
		if len(sessions) != 1 || sessions[0].ScanID != "scan-json-test" {
			t.Errorf("unexpected sessions: %+v", sessions)
		}
	})

	t.Run("reports empty database", func(t *testing.T) {
		t.Parallel()
		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = listScanSessions(context.Background(), db, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("listScanSessions() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "No stored scans") {
			t.Errorf("expected empty message, got %q", buf.String())
		}
	})
}

func TestFormatRiskSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary map[string]int
		want    string
	}{
		{
			name:    "nil summary",
			summary: nil,
			want:    "N/A",
		},
		{
			name:    "empty summary",
			summary: map[string]int{},
			want:    "No findings",
		},
		{
			name:    "mixed severities ordered by weight",
			summary: map[string]int{"critical": 1, "high": 2, "low": 3},
			want:    "C:1 H:2 L:3",
		},
		{
			name:    "zero counts skipped",
			summary: map[string]int{"critical": 0, "medium": 4},
			want:    "M:4",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := formatRiskSummary(tt.summary)
			if got != tt.want {
				t.Errorf("formatRiskSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortFingerprint(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ab", 32)
	if got := shortFingerprint(long); got != long[:fingerprintDisplayLen] {
		t.Errorf("expected %q, got %q", long[:fingerprintDisplayLen], got)
	}

	if got := shortFingerprint("abcd"); got != "abcd" {
		t.Errorf("short input should pass through, got %q", got)
	}
}

// TestReviewDecisionSurvivesRescan verifies that a review decision is
// kept when the same finding is observed again by a later scan.
func TestReviewDecisionSurvivesRescan(t *testing.T) {
	t.Parallel()

	db, findings := seedTestFindings(t)
	ctx := context.Background()

	if err := db.Reject(ctx, findings[0].Fingerprint); err != nil {
		t.Fatalf("failed to reject: %v", err)
	}

	// Simulate a re-scan observing the identical finding later.
	rescan := findings[0]
	rescan.ValidatedMS = time.Now().Add(time.Hour).UnixMilli()
	if err := db.SaveFinding(ctx, rescan, "scan-later"); err != nil {
		t.Fatalf("failed to re-save finding: %v", err)
	}

	rec, err := db.GetFinding(ctx, findings[0].Fingerprint)
	if err != nil {
		t.Fatalf("failed to get finding: %v", err)
	}
	if rec.Status != database.StatusRejected {
		t.Errorf("expected rejection to survive re-scan, got %q", rec.Status)
	}
	if rec.ScanID != "scan-later" {
		t.Errorf("expected scan ID refresh, got %q", rec.ScanID)
	}
}
