package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/metrics"
)

type fakeReconciler struct {
	results []wallets.ReconcileResult
	err     error
}

func (f fakeReconciler) ReconcileAll(context.Context) ([]wallets.ReconcileResult, error) {
	return f.results, f.err
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestWalletReconcileJobReportsDrift(t *testing.T) {
	reg := prometheus.NewRegistry()
	job, err := NewWalletReconcileJob(WalletReconcileJobParams{
		Logger: testLogger(),
		Wallets: fakeReconciler{results: []wallets.ReconcileResult{
			{WalletID: uuid.New(), OwnerType: enums.WalletOwnerVendor, Consistent: true},
			{
				WalletID:   uuid.New(),
				OwnerType:  enums.WalletOwnerDeliveryPartner,
				Balance:    decimal.RequireFromString("40"),
				LedgerSum:  decimal.RequireFromString("30"),
				Difference: decimal.RequireFromString("10"),
			},
		}},
		Metrics: metrics.NewWalletMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 2.0, gaugeValue(t, reg, "wallet_reconcile_checked"))
	require.Equal(t, 1.0, gaugeValue(t, reg, "wallet_balance_mismatch"))
}

func TestWalletReconcileJobPropagatesError(t *testing.T) {
	job, err := NewWalletReconcileJob(WalletReconcileJobParams{
		Logger:  testLogger(),
		Wallets: fakeReconciler{err: errors.New("db down")},
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}
