package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.EntriesAppended == nil || m.HTTPRequests == nil || m.StoreDuration == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.RateLimited()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewWithSeparateRegistries(t *testing.T) {
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestRecorderMethods(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EntryAppended(&domain.Entry{
		Currency:      domain.CurrencyUZS,
		FlowDirection: domain.FlowOutflow,
		Amount:        decimal.RequireFromString("12600"),
	})
	m.IngestRejected("invalid_entry")
	m.IngestRejected("invalid_entry")
	m.ExportFinished(domain.ExportDelivered)
	m.ObserveStore("append", 10*time.Millisecond, nil)
	m.ObserveStore("append", 10*time.Millisecond, errors.New("down"))
	m.AuthFailed("invalid_signature")

	if got := testutil.ToFloat64(m.EntriesAppended.WithLabelValues("UZS", "OUTFLOW")); got != 1 {
		t.Fatalf("expected 1 appended entry, got %v", got)
	}
	if got := testutil.ToFloat64(m.IngestRejections.WithLabelValues("invalid_entry")); got != 2 {
		t.Fatalf("expected 2 rejections, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExportsFinished.WithLabelValues("DELIVERED")); got != 1 {
		t.Fatalf("expected 1 delivered export, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("append")); got != 1 {
		t.Fatalf("expected 1 store error, got %v", got)
	}
	if got := testutil.ToFloat64(m.AuthFailures.WithLabelValues("invalid_signature")); got != 1 {
		t.Fatalf("expected 1 auth failure, got %v", got)
	}
}
