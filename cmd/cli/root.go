// Package cli provides command-line interface commands for scanbridge.
// This package implements the Cobra-based CLI structure with commands for
// serving the API, driving scans, downloading reports, host discovery and
// delivery maintenance.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/logging"
)

const (
	envPrefix         = "SCANBRIDGE"
	defaultConfigFile = "config.yaml"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// envKeys are the configuration keys that may be overridden from the
// environment, e.g. SCANBRIDGE_ENGINE_PASSWORD.
var envKeys = []string{
	"engine.host",
	"engine.port",
	"engine.username",
	"engine.password",
	"engine.tls_insecure_skip_verify",
	"engine.preferred_scanner",
	"engine.report_format_id",
	"discovery.mode",
	"discovery.nmap_path",
	"delivery.store",
	"delivery.obligation_ttl",
	"delivery.sweep_schedule",
	"delivery.smtp.host",
	"delivery.smtp.port",
	"delivery.smtp.username",
	"delivery.smtp.password",
	"delivery.smtp.from",
	"archive.enabled",
	"archive.endpoint",
	"archive.access_key",
	"archive.secret_key",
	"archive.bucket",
	"database.host",
	"database.port",
	"database.database",
	"database.username",
	"database.password",
	"database.ssl_mode",
	"api.listen_addr",
	"api.port",
	"logging.level",
	"logging.format",
	"logging.output",
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scanbridge",
	Short: "Vulnerability scan orchestration",
	Long: `Scanbridge drives a GMP vulnerability scan engine on behalf of a web
frontend: it discovers live hosts with nmap, creates and starts scan tasks,
reports their status and findings, and mails the PDF report once a task is
done.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig loads .env files and prepares viper for environment overrides.
func initConfig() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	bindEnv(viper.GetViper())

	initLogging()
}

// bindEnv maps every overridable key onto its SCANBRIDGE_ variable.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

// getConfigFilePath returns the configuration file in use.
func getConfigFilePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	return defaultConfigFile
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		logging.SetDefault(logging.NewDefault())
		return
	}

	logger, err := logging.New(loggingConfig(cfg))
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)

	if verbose {
		logging.Info("Structured logging initialized", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	}
}

func loggingConfig(cfg *config.Config) logging.Config {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.Config{
		Level:     logging.LogLevel(level),
		Format:    logging.LogFormat(cfg.Logging.Format),
		Output:    cfg.Logging.Output,
		AddSource: level == "debug",
	}
}
