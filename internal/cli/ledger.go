package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/charityhub/internal/app/ledger"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(relinkCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(rescoreCmd)

	reconcileCmd.Flags().Bool("fix", false, "Rewrite drifted totals from their logs")
	reconcileCmd.Flags().Duration("timeout", 10*time.Minute, "Give up after this long")
	relinkCmd.Flags().Duration("timeout", 10*time.Minute, "Give up after this long")
	rescoreCmd.Flags().Duration("timeout", 10*time.Minute, "Give up after this long")
}

var relinkCmd = &cobra.Command{
	Use:   "relink-donors",
	Short: "Link income transactions to donors by name",
	Long: `Scan income transactions that carry a donor name but no donor id and link
each one to the donor with the same name, ignoring case and extra spaces.
Donor totals are not touched; run reconcile afterwards to check them.`,
	Args: cobra.NoArgs,
	RunE: runRelink,
}

func runRelink(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	return withLedger(ctx, func(ctx context.Context, svc *ledger.Service) error {
		rep, err := svc.RelinkDonors(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rep)
	})
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare running totals with their logs",
	Long: `Recompute product counters, donor totals and loan paid amounts from the
operation, transaction and repayment logs and report every difference.
With --fix the stored totals are rewritten, except where the fix would
make a counter negative.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	fix, _ := cmd.Flags().GetBool("fix")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	return withLedger(ctx, func(ctx context.Context, svc *ledger.Service) error {
		rep, err := svc.Reconcile(ctx, fix)
		if err != nil {
			return err
		}
		if rep.Drifts == nil {
			rep.Drifts = []ledger.Drift{}
		}
		if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
		if len(rep.Drifts) > 0 && !fix {
			return fmt.Errorf("%d drift(s) found", len(rep.Drifts))
		}
		return nil
	})
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute every beneficiary's priority",
	Long: `Recompute each beneficiary's priority from its stored income, family and
health fields and rewrite the ones that changed.`,
	Args: cobra.NoArgs,
	RunE: runRescore,
}

func runRescore(cmd *cobra.Command, args []string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	return withLedger(ctx, func(ctx context.Context, svc *ledger.Service) error {
		rep, err := svc.Rescore(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rep)
	})
}
