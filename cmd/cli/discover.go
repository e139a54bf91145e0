package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/errors"
)

// discoverCmd represents the discover command.
var discoverCmd = &cobra.Command{
	Use:   "discover <network>",
	Short: "Find live hosts in a network",
	Long: `Sweep a network with nmap host discovery and print the live hosts.

The sweep is repeated several times and the hosts seen in any pass are
reported. Networks larger than a /16 are rejected.`,
	Example: `  scanbridge discover 192.168.1.0/24
  scanbridge discover 10.0.0.0/16 --json
  scanbridge discover 192.168.1.0/24 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(_ *cobra.Command, args []string) error {
	if err := discovery.ValidateNetwork(args[0]); err != nil {
		return err
	}

	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		res, err := a.orch.Discover(ctx, args[0])
		if err != nil && !errors.IsCode(err, errors.CodeNoLiveHosts) {
			return describeFailure("discover hosts", err)
		}
		if res == nil {
			res = &discovery.Result{Network: args[0]}
		}
		if jsonOutput {
			return printJSON(os.Stdout, res)
		}
		renderDiscovery(os.Stdout, res)
		return nil
	})
}
