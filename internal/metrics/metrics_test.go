package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsRecording tests that counters accumulate per instance.
func TestMetricsRecording(t *testing.T) {
	t.Parallel()

	t.Run("counters increment", func(t *testing.T) {
		t.Parallel()

		m := New()
		m.RecordPage()
		m.RecordPage()
		m.RecordFetchError()
		m.RecordQuotaDrop()
		m.RecordFinding("high", "subdomain_takeover_possible")
		m.RecordFinding("high", "subdomain_takeover_possible")
		m.RecordFinding("low", "dir_listing")

		if got := testutil.ToFloat64(m.pagesFetched); got != 2 {
			t.Errorf("expected 2 pages fetched, got %v", got)
		}
		if got := testutil.ToFloat64(m.fetchErrors); got != 1 {
			t.Errorf("expected 1 fetch error, got %v", got)
		}
		if got := testutil.ToFloat64(m.quotaDrops); got != 1 {
			t.Errorf("expected 1 quota drop, got %v", got)
		}
		high := m.findingsTotal.WithLabelValues("high", "subdomain_takeover_possible")
		if got := testutil.ToFloat64(high); got != 2 {
			t.Errorf("expected 2 high findings, got %v", got)
		}
	})

	t.Run("nil receiver is a no-op", func(t *testing.T) {
		t.Parallel()

		var m *Metrics
		m.RecordPage()
		m.RecordFetchError()
		m.RecordQuotaDrop()
		m.RecordFinding("low", "dir_listing")
		if err := m.Close(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("independent instances register cleanly", func(t *testing.T) {
		t.Parallel()

		a := New()
		b := New()
		a.RecordPage()
		if got := testutil.ToFloat64(b.pagesFetched); got != 0 {
			t.Errorf("expected isolated registries, got %v", got)
		}
	})
}
