package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const reportFilePermissions = 0600

var reportOutput string

// reportCmd groups the report commands.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download reports and list report formats",
	Example: `  scanbridge report download 5f1c... --output scan.pdf
  scanbridge report formats`,
}

var reportDownloadCmd = &cobra.Command{
	Use:   "download <task-id>",
	Short: "Download the PDF report of a scan task",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDownload,
}

var reportFormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the report formats installed on the engine",
	Args:  cobra.NoArgs,
	RunE:  runReportFormats,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDownloadCmd, reportFormatsCmd)

	reportDownloadCmd.Flags().StringVarP(&reportOutput, "output", "o", "",
		"Output file (default report_<task-id>.pdf)")
}

// reportFileName returns the file a task's report is written to.
func reportFileName(taskID string) string {
	if reportOutput != "" {
		return reportOutput
	}
	return fmt.Sprintf("report_%s.pdf", taskID)
}

func runReportDownload(_ *cobra.Command, args []string) error {
	taskID := args[0]
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		pdf, err := a.orch.DownloadReport(ctx, taskID)
		if err != nil {
			return describeFailure("download report", err)
		}

		path := reportFileName(taskID)
		if err := os.WriteFile(path, pdf, reportFilePermissions); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s (%d bytes)\n", path, len(pdf))
		return nil
	})
}

func runReportFormats(_ *cobra.Command, _ []string) error {
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		formats, err := a.orch.ReportFormats(ctx)
		if err != nil {
			return describeFailure("list report formats", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, formats)
		}
		renderFormats(os.Stdout, formats)
		return nil
	})
}
