package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// SettlementMetrics counts settled deliveries and the amounts moved per party.
type SettlementMetrics struct {
	settlements *prometheus.CounterVec
	credited    *prometheus.CounterVec
}

func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Delivered schedules settled into wallets.",
	}, []string{"result"})
	credited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_credited_amount_total",
		Help: "Amount credited by settlements in the base currency unit.",
	}, []string{"party"})
	reg.MustRegister(settlements, credited)
	return &SettlementMetrics{settlements: settlements, credited: credited}
}

func (m *SettlementMetrics) IncSettled() {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues("settled").Inc()
}

func (m *SettlementMetrics) IncAdminSkipped() {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues("admin_skipped").Inc()
}

func (m *SettlementMetrics) AddCredited(party string, amount decimal.Decimal) {
	if m == nil || m.credited == nil {
		return
	}
	value, _ := amount.Float64()
	if value <= 0 {
		return
	}
	m.credited.WithLabelValues(normalizeLabel(party)).Add(value)
}

// WalletMetrics exposes the last reconcile result.
type WalletMetrics struct {
	mismatched prometheus.Gauge
	checked    prometheus.Gauge
}

func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	if reg == nil {
		return &WalletMetrics{}
	}
	mismatched := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_balance_mismatch",
		Help: "Wallets whose balance differs from their transaction ledger at the last reconcile.",
	})
	checked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_reconcile_checked",
		Help: "Wallets inspected by the last reconcile.",
	})
	reg.MustRegister(mismatched, checked)
	return &WalletMetrics{mismatched: mismatched, checked: checked}
}

func (m *WalletMetrics) SetReconcileResult(checked, mismatched int) {
	if m == nil || m.mismatched == nil {
		return
	}
	m.checked.Set(float64(checked))
	m.mismatched.Set(float64(mismatched))
}

// OutboxMetrics tracks publisher outcomes per event type.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published to Pub/Sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_failed_total",
		Help: "Outbox publish failures by reason.",
	}, []string{"event_type", "reason"})
	reg.MustRegister(published, failed)
	return &OutboxMetrics{published: published, failed: failed}
}

func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailed(eventType, reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}
