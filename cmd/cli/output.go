package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/orchestrator"
	"github.com/anstrom/scanbridge/internal/report"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderFindings prints findings as a table, most severe first as the
// engine reports them.
func renderFindings(w io.Writer, res *orchestrator.Results) {
	fmt.Fprintf(w, "Task %s (%s), report %s: %d findings\n",
		res.TaskID, res.Status, res.ReportID, len(res.Findings))
	if len(res.Findings) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Severity", "Threat", "QoD", "Host", "Port")
	for i := range res.Findings {
		f := &res.Findings[i]
		_ = table.Append([]string{
			truncate(f.Name, 60),
			strconv.FormatFloat(f.Severity, 'f', 1, 64),
			threatLevel(f),
			strconv.Itoa(f.QoD),
			f.Host,
			f.Port,
		})
	}
	_ = table.Render()

	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "%d result entries could not be parsed\n", len(res.Skipped))
	}
}

// renderFormats prints the engine's report formats.
func renderFormats(w io.Writer, formats []orchestrator.ReportFormat) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Extension", "Summary")
	for _, f := range formats {
		_ = table.Append([]string{f.ID, f.Name, f.Extension, truncate(f.Summary, 50)})
	}
	_ = table.Render()
}

// renderDiscovery prints the live hosts and the outcome of each pass.
func renderDiscovery(w io.Writer, res *discovery.Result) {
	fmt.Fprintf(w, "Network %s: %d live hosts\n", res.Network, len(res.Hosts))
	if len(res.Hosts) > 0 {
		fmt.Fprintln(w, strings.Join(res.Hosts, "\n"))
	}
	if !verbose {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Pass", "Hosts", "Duration", "Error")
	for _, p := range res.Passes {
		errText := ""
		if p.Err != nil {
			errText = p.Err.Error()
		}
		_ = table.Append([]string{
			strconv.Itoa(p.Pass),
			strconv.Itoa(len(p.Hosts)),
			p.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	_ = table.Render()
}

func threatLevel(f *report.Finding) string {
	if f.ThreatLevel == nil {
		return "-"
	}
	return *f.ThreatLevel
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
