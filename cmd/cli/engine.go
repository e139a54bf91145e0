package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// engineCmd groups commands about the scan engine itself.
var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Inspect the scan engine connection",
}

var engineVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Authenticate against the engine and print its protocol version",
	Args:  cobra.NoArgs,
	RunE:  runEngineVersion,
}

func init() {
	rootCmd.AddCommand(engineCmd)
	engineCmd.AddCommand(engineVersionCmd)
}

func runEngineVersion(_ *cobra.Command, _ []string) error {
	return withApp(context.Background(), func(ctx context.Context, a *app) error {
		info, err := a.orch.TestConnection(ctx)
		if err != nil {
			return fmt.Errorf("engine at %s is not usable: %w", a.cfg.GetEngineAddress(), err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, info)
		}
		fmt.Printf("Connected to %s, GMP version %s\n", a.cfg.GetEngineAddress(), info.Version)
		return nil
	})
}
