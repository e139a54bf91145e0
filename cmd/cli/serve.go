package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanbridge/internal/api"
	"github.com/anstrom/scanbridge/internal/api/handlers"
	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/metrics"
	"github.com/anstrom/scanbridge/internal/scheduler"
)

const (
	metricsUpdateInterval = 15 * time.Second
	sweepJobName          = "obligation-sweep"
)

// Serve command flags.
var (
	serveHost      string
	servePort      int
	serveNoMetrics bool
)

// serveCmd runs the HTTP API in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the scanbridge HTTP API in the foreground.

The server exposes the scan lifecycle endpoints used by the frontend, a
websocket status stream, health and version endpoints and Prometheus
metrics. Pending report deliveries are swept on the configured schedule.`,
	Example: `  scanbridge serve
  scanbridge serve --host 0.0.0.0 --port 8080
  scanbridge serve --config /etc/scanbridge/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override listen address")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override listen port")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "Do not serve /metrics")
}

// applyServeFlags overrides the API section with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.API.ListenAddr = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.API.Port = servePort
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pm *metrics.PrometheusMetrics
	if !serveNoMetrics {
		pm = metrics.NewPrometheusMetrics()
		go pm.StartPeriodicUpdates(ctx, metricsUpdateInterval)
	}

	a, err := newApp(ctx, cfg, pm)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := startSweeper(a)
	if err != nil {
		return err
	}
	defer sched.Stop()

	handlers.SetBuildInfo(version, commit, buildTime)
	a.logger.Info("Starting scanbridge API server",
		"version", version,
		"commit", commit,
		"build_time", buildTime,
		"address", cfg.GetAPIAddress(),
		"engine", cfg.GetEngineAddress(),
		"obligation_store", cfg.Delivery.Store)

	apiServer, err := api.New(cfg, a.dependencies(), pm)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	fmt.Printf("Scanbridge %s listening on http://%s\n", getVersion(), cfg.GetAPIAddress())
	return waitForShutdown(ctx, cancel, apiServer, a)
}

// newSweeper registers the purge of expired delivery obligations on a new
// scheduler. onSweep, when set, receives the number of purged obligations.
func newSweeper(a *app, onSweep func(removed int)) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(a.logger)
	err := sched.AddJob(sweepJobName, a.cfg.Delivery.SweepSchedule, func(ctx context.Context) error {
		removed, err := a.coordinator.Sweep(ctx)
		if err == nil && onSweep != nil {
			onSweep(removed)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule obligation sweep: %w", err)
	}
	return sched, nil
}

// startSweeper runs the obligation sweep on its configured schedule.
func startSweeper(a *app) (*scheduler.Scheduler, error) {
	sched, err := newSweeper(a, nil)
	if err != nil {
		return nil, err
	}
	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return sched, nil
}

// waitForShutdown runs the server until a signal arrives or it fails.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, apiServer *api.Server, a *app) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- apiServer.Start(ctx)
	}()

	select {
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", "signal", sig.String())
		fmt.Printf("\nReceived %s signal, shutting down gracefully...\n", sig.String())
	case err := <-serverErrChan:
		if err != nil {
			a.logger.Error("API server error", "error", err)
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	}

	cancel()
	if err := <-serverErrChan; err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Server stopped successfully")
	return nil
}
