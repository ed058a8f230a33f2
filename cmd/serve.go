package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api"
	"github.com/killallgit/waskita-api/api/version"
	"github.com/killallgit/waskita-api/internal/services/cleanup"
	"github.com/killallgit/waskita-api/internal/services/workers"
	"github.com/killallgit/waskita-api/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Waskita API server with the configured settings.

The database is migrated on startup. Scrape jobs are processed by a background
worker pool and the maintenance scheduler runs when cleanup is enabled.

Example:
  waskita-api serve
  waskita-api serve --port 9090
  waskita-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	host, port := cfg.Server.Host, cfg.Server.Port
	if serverHost != "" {
		host = serverHost
	}
	if serverPort != 0 {
		port = serverPort
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if n, err := a.jobs.FailInterrupted(ctx); err != nil {
		log.Warn("Failed to fail interrupted jobs", logger.Error(err))
	} else if n > 0 {
		log.Info("Failed jobs interrupted by a previous shutdown", logger.Int64("count", n))
	}

	pool := workers.NewWorkerPool(a.jobs, cfg.Processing.Workers, cfg.Processing.PollInterval, log)
	pool.RegisterProcessor(workers.NewScrapeProcessor(a.jobs, a.apify, a.negotiator, a.datasets,
		apifyConfig(cfg).Wait, log))
	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Stop()

	if cfg.Cleanup.Enabled {
		scheduler := cleanup.NewService(a.db.DB, a.jobs, a.datasets, cfg.Cleanup.Schedules,
			cfg.Processing.JobRetention, log)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("starting cleanup scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	version.Current.Version = Version

	address := fmt.Sprintf("%s:%d", host, port)
	server := api.NewServer(address, api.Options{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	})
	server.SetDependencies(a.dependencies())
	if err := server.Initialize(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Info("Server is ready to handle requests", logger.String("address", address))

	select {
	case sig := <-stop:
		log.Info("Shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("Command context done, shutting down")
	case err = <-serverErr:
		log.Error("Server stopped unexpectedly", logger.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("Server forced to shutdown", logger.Error(shutdownErr))
		return shutdownErr
	}

	log.Info("Server gracefully stopped")
	return err
}
