// Command scanbridge serves the scan orchestration API and drives the scan
// engine from the command line.
package main

import "github.com/anstrom/scanbridge/cmd/cli"

// Build information, set by ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
