package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanbridge/internal/orchestrator"
	"github.com/anstrom/scanbridge/internal/targets"
)

var (
	scanEmail string
	scanType  string
)

// scanCmd groups the scan lifecycle commands.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Start, stop and inspect engine scans",
	Long: `Drive scan tasks on the engine directly, without the HTTP API.

A single target is scanned as given. A network target is first swept with
nmap and only the live hosts are handed to the engine.`,
	Example: `  scanbridge scan start 192.168.1.10
  scanbridge scan start 192.168.1.0/24 --type network --email ops@example.com
  scanbridge scan status 5f1c...
  scanbridge scan results 5f1c... --json
  scanbridge scan stop 5f1c...`,
}

var scanStartCmd = &cobra.Command{
	Use:   "start <target>",
	Short: "Create and start a scan task",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanStart,
}

var scanStopCmd = &cobra.Command{
	Use:   "stop <task-id>",
	Short: "Stop a running scan task",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanStop,
}

var scanStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the status of a scan task",
	Long: `Show the status of a scan task.

When the task is done and a report was requested by email, this also
sends the report before exiting.`,
	Args: cobra.ExactArgs(1),
	RunE: runScanStatus,
}

var scanResultsCmd = &cobra.Command{
	Use:   "results <task-id>",
	Short: "List the findings of a scan task",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanResults,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.AddCommand(scanStartCmd, scanStopCmd, scanStatusCmd, scanResultsCmd)

	scanStartCmd.Flags().StringVar(&scanType, "type", string(targets.ScanSingle), "Scan type: single or network")
	scanStartCmd.Flags().StringVar(&scanEmail, "email", "", "Mail the PDF report to this address when done")
}

func runScanStart(_ *cobra.Command, args []string) error {
	st, err := targets.ParseScanType(scanType)
	if err != nil {
		return err
	}

	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		res, err := a.orch.StartScan(ctx, orchestrator.StartRequest{
			Target:   args[0],
			Email:    scanEmail,
			ScanType: st,
		})
		if err != nil {
			return describeFailure("start scan", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, res)
		}

		fmt.Printf("Scan started for %s\n", res.Target)
		fmt.Printf("Task ID:   %s\n", res.TaskID)
		fmt.Printf("Target ID: %s\n", res.TargetID)
		if len(res.Hosts) > 0 {
			fmt.Printf("Hosts:     %d live\n", len(res.Hosts))
		}
		if res.Warning != "" {
			fmt.Printf("Warning:   %s\n", res.Warning)
		}
		return nil
	})
}

func runScanStop(_ *cobra.Command, args []string) error {
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		if err := a.orch.StopScan(ctx, args[0]); err != nil {
			return describeFailure("stop scan", err)
		}
		fmt.Printf("Scan %s stopped\n", args[0])
		return nil
	})
}

func runScanStatus(_ *cobra.Command, args []string) error {
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		res, err := a.orch.Status(ctx, args[0])
		if err != nil {
			return describeFailure("query status", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, res)
		}

		fmt.Printf("Task %s: %s\n", res.TaskID, res.Status)
		if res.Message != "" {
			fmt.Println(res.Message)
		}
		if res.Delivering {
			fmt.Println("Sending report by email...")
		}
		return nil
	})
}

func runScanResults(_ *cobra.Command, args []string) error {
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		res, err := a.orch.Results(ctx, args[0])
		if err != nil {
			return describeFailure("fetch results", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, res)
		}
		renderFindings(os.Stdout, res)
		return nil
	})
}

// describeFailure wraps an orchestrator error for display. Stage errors
// already carry the failing stage in their message.
func describeFailure(action string, err error) error {
	return fmt.Errorf("failed to %s: %w", action, err)
}
