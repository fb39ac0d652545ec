package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSettlementMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSettlementMetrics(reg)
	m.IncSettled()
	m.IncSettled()
	m.IncAdminSkipped()
	m.AddCredited("vendor", decimal.RequireFromString("90.50"))
	m.AddCredited("vendor", decimal.Zero)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	settled, err := fetchCounterValue(mfs, "settlements_total", "result", "settled")
	require.NoError(t, err)
	require.Equal(t, float64(2), settled)

	credited, err := fetchCounterValue(mfs, "settlement_credited_amount_total", "party", "vendor")
	require.NoError(t, err)
	require.InDelta(t, 90.5, credited, 0.0001)
}

func TestWalletMetricsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWalletMetrics(reg)
	m.SetReconcileResult(12, 1)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	mf := findMetricFamily(mfs, "wallet_balance_mismatch")
	require.NotNil(t, mf)
	require.Equal(t, float64(1), mf.GetMetric()[0].GetGauge().GetValue())
}

func TestOutboxAndHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	outbox := NewOutboxMetrics(reg)
	outbox.IncPublished("order_created")
	outbox.IncFailed("order_created", "")

	httpMetrics := NewHTTPMetrics(reg)
	httpMetrics.Observe("GET", "/api/v1/orders", 200, 20*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	published, err := fetchCounterValue(mfs, "outbox_published_total", "event_type", "order_created")
	require.NoError(t, err)
	require.Equal(t, float64(1), published)

	failed, err := fetchCounterValue(mfs, "outbox_failed_total", "reason", "unknown")
	require.NoError(t, err)
	require.Equal(t, float64(1), failed)

	requests, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/orders")
	require.NoError(t, err)
	require.Equal(t, float64(1), requests)
}

func TestOutboxMetricsBlankLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	outbox := NewOutboxMetrics(reg)
	outbox.IncFailed("", "")
	outbox.IncPublished("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	failed, err := fetchCounterValue(mfs, "outbox_failed_total", "event_type", "unknown")
	require.NoError(t, err)
	require.Equal(t, float64(1), failed)

	published, err := fetchCounterValue(mfs, "outbox_published_total", "event_type", "unknown")
	require.NoError(t, err)
	require.Equal(t, float64(1), published)
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewSettlementMetrics(nil).IncSettled()
	NewWalletMetrics(nil).SetReconcileResult(1, 1)
	NewOutboxMetrics(nil).IncPublished("x")
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
}
