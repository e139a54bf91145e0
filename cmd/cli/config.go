package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanbridge/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default settings",
	Long: `Write a configuration file with default settings to the path given by
--config, or config.yaml in the working directory. Credentials are left
empty; set them in the file or through SCANBRIDGE_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration file")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path := getConfigFilePath()
	if err := writeDefaultConfig(path, configForce); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
		}
	}
	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
