package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// obligationsCmd groups maintenance commands for pending report
// deliveries.
var obligationsCmd = &cobra.Command{
	Use:     "obligations",
	Aliases: []string{"deliveries"},
	Short:   "Inspect and purge pending report deliveries",
	Long: `Inspect and purge pending report deliveries.

Only the postgres obligation store outlives a process, so these commands
are mostly useful with delivery.store set to postgres.`,
}

var obligationsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Count unexpired pending deliveries",
	Args:  cobra.NoArgs,
	RunE:  runObligationsPending,
}

var obligationsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired pending deliveries",
	Args:  cobra.NoArgs,
	RunE:  runObligationsSweep,
}

func init() {
	rootCmd.AddCommand(obligationsCmd)
	obligationsCmd.AddCommand(obligationsPendingCmd, obligationsSweepCmd)
}

func runObligationsPending(_ *cobra.Command, _ []string) error {
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		n, err := a.coordinator.Pending(ctx)
		if err != nil {
			return fmt.Errorf("failed to count pending deliveries: %w", err)
		}
		fmt.Printf("%d pending deliveries (%s store)\n", n, a.cfg.Delivery.Store)

		sched, err := newSweeper(a, nil)
		if err != nil {
			return err
		}
		for _, job := range sched.GetJobs() {
			fmt.Printf("Next %s at %s (%s)\n", job.Name, job.NextRun.Format(time.RFC3339), job.Schedule)
		}
		return nil
	})
}

func runObligationsSweep(_ *cobra.Command, _ []string) error {
	return withApp(context.Background(), func(_ context.Context, a *app) error {
		sched, err := newSweeper(a, func(removed int) {
			fmt.Printf("Removed %d expired deliveries\n", removed)
		})
		if err != nil {
			return err
		}
		if err := sched.RunNow(sweepJobName); err != nil {
			return fmt.Errorf("failed to sweep deliveries: %w", err)
		}
		return nil
	})
}
