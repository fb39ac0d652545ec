package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
)

func newWalletsCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallets",
		Short: "Wallet maintenance",
	}
	cmd.AddCommand(newWalletsReconcileCommand(env))
	return cmd
}

func newWalletsReconcileCommand(env *environment) *cobra.Command {
	var (
		walletID string
		strict   bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare wallet balances with their ledger sums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var target uuid.UUID
			if walletID != "" {
				id, err := uuid.Parse(walletID)
				if err != nil {
					return fmt.Errorf("invalid --wallet: %w", err)
				}
				target = id
			}

			ctx := cmd.Context()
			_, logg, client, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			conn := client.DB()
			svc, err := wallets.NewService(wallets.NewRepository(conn), client, outbox.NewService(outbox.NewRepository(conn), logg), logg)
			if err != nil {
				return err
			}

			var results []wallets.ReconcileResult
			if target != uuid.Nil {
				result, err := svc.Reconcile(ctx, target)
				if err != nil {
					return err
				}
				results = append(results, *result)
			} else if results, err = svc.ReconcileAll(ctx); err != nil {
				return err
			}

			mismatched := 0
			for _, r := range results {
				if !r.Consistent {
					mismatched++
				}
			}
			if err := env.emit(cmd.OutOrStdout(), results, func(w io.Writer) error {
				return renderReconcile(w, results, mismatched)
			}); err != nil {
				return err
			}
			if strict && mismatched > 0 {
				return fmt.Errorf("%d wallet(s) out of balance", mismatched)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&walletID, "wallet", "", "reconcile a single wallet id")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any wallet is out of balance")
	return cmd
}

func renderReconcile(w io.Writer, results []wallets.ReconcileResult, mismatched int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WALLET\tOWNER\tBALANCE\tLEDGER\tDIFF\tOK")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s:%s\t%s\t%s\t%s\t%t\n",
			r.WalletID, r.OwnerType, r.OwnerID,
			r.Balance.StringFixed(2), r.LedgerSum.StringFixed(2), r.Difference.StringFixed(2), r.Consistent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d wallet(s) checked, %d out of balance\n", len(results), mismatched)
	return err
}
