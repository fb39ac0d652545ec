package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/metrics"
)

type walletReconciler interface {
	ReconcileAll(ctx context.Context) ([]wallets.ReconcileResult, error)
}

type WalletReconcileJobParams struct {
	Logger  *logger.Logger
	Wallets walletReconciler
	Metrics *metrics.WalletMetrics
}

// NewWalletReconcileJob compares every wallet balance with its ledger sum.
// Drift is reported through logs and the mismatch gauge; balances are never
// rewritten.
func NewWalletReconcileJob(params WalletReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallets service required")
	}
	return &walletReconcileJob{
		logg:    params.Logger,
		wallets: params.Wallets,
		metrics: params.Metrics,
	}, nil
}

type walletReconcileJob struct {
	logg    *logger.Logger
	wallets walletReconciler
	metrics *metrics.WalletMetrics
}

func (j *walletReconcileJob) Name() string { return "wallet-reconcile" }

func (j *walletReconcileJob) Run(ctx context.Context) error {
	results, err := j.wallets.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("wallet reconcile: %w", err)
	}

	mismatched := 0
	for _, result := range results {
		if result.Consistent {
			continue
		}
		mismatched++
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"wallet_id":  result.WalletID.String(),
			"owner_type": result.OwnerType,
			"owner_id":   result.OwnerID.String(),
			"balance":    result.Balance.String(),
			"ledger_sum": result.LedgerSum.String(),
			"difference": result.Difference.String(),
		})
		j.logg.Warn(logCtx, "wallet balance drifted from ledger")
	}
	j.metrics.SetReconcileResult(len(results), mismatched)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked":    len(results),
		"mismatched": mismatched,
	})
	j.logg.Info(logCtx, "wallet reconcile complete")
	return nil
}
