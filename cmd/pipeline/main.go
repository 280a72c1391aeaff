// Package main provides the entry point for the backtest completion pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/backtest-pipeline/internal/config"
	"github.com/yourusername/backtest-pipeline/internal/database"
	"github.com/yourusername/backtest-pipeline/internal/engine"
	"github.com/yourusername/backtest-pipeline/internal/health"
	applogger "github.com/yourusername/backtest-pipeline/internal/logger"
	"github.com/yourusername/backtest-pipeline/internal/metrics"
	"github.com/yourusername/backtest-pipeline/internal/pipeline"
	"github.com/yourusername/backtest-pipeline/internal/report"
	"github.com/yourusername/backtest-pipeline/internal/repository"
	"github.com/yourusername/backtest-pipeline/internal/tracing"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Backtest completion pipeline",
	Long:  `Consumes simulation engine completion callbacks, persists results across the aggregate and timeseries stores, and generates analytical reports.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// An explicitly requested config file must exist and carry the
		// full configuration; the default path tolerates a missing file
		// and fills in defaults for environment-only setups.
		load := config.LoadWithDefaults
		if cmd.Flags().Changed("config") {
			load = config.Load
		}

		var err error
		cfg, err = load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLog = applogger.NewLogger(cfg.App.LogLevel, cfg.IsDevelopment())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the completion pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pipeline %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func serve() error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Backtest completion pipeline starting")

	if err := tracing.Initialize(tracing.Config{
		ServiceName:  cfg.App.Name,
		Enabled:      cfg.Tracing.Enabled,
		SamplingRate: cfg.Tracing.SamplingRate,
		DaemonAddr:   cfg.Tracing.DaemonAddr,
	}, appLog); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two physically separate stores: snapshot state lives on the
	// aggregate store, bulk time-series rows on the timeseries store.
	aggregateDB, err := database.NewDB(ctx, cfg.AggregateStore.DSN(), database.PoolSettings{
		MaxConnections: cfg.AggregateStore.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to aggregate store: %w", err)
	}
	defer aggregateDB.Close()

	timeseriesDB, err := database.NewDB(ctx, cfg.TimeseriesStore.DSN(), database.PoolSettings{
		MaxConnections: cfg.TimeseriesStore.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to timeseries store: %w", err)
	}
	defer timeseriesDB.Close()

	appLog.Info("Store connections established")

	repos, err := repository.NewRepositories(aggregateDB, timeseriesDB)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}

	coordinator := pipeline.NewCoordinator(
		repos.Snapshot,
		repos.TradeLog,
		repos.Holding,
		cfg.Pipeline.ChunkSize,
		appLog,
	)

	generator := report.NewHTTPGenerator(&cfg.Generator, appLog)

	orchestrator := pipeline.NewOrchestrator(
		repos.Backtest,
		repos.Snapshot,
		coordinator,
		generator,
		appLog,
	)

	jobMap := engine.NewJobMap(time.Duration(cfg.Pipeline.JobMappingTTLHours) * time.Hour)

	queue := pipeline.NewQueue(
		cfg.Pipeline.QueueSize,
		cfg.Pipeline.Workers,
		jobMap,
		orchestrator,
		appLog,
	)
	queue.Start(ctx)
	defer queue.Close()

	watchdog := pipeline.NewWatchdog(
		repos.Backtest,
		cfg.Pipeline.WatchdogSchedule,
		time.Duration(cfg.Pipeline.StaleRunningAfterMinutes)*time.Minute,
		appLog,
	)
	if err := watchdog.Start(); err != nil {
		return fmt.Errorf("failed to start watchdog: %w", err)
	}
	defer watchdog.Stop()

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx)
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		Stores: map[string]health.StorePinger{
			"aggregate_store":  aggregateDB,
			"timeseries_store": timeseriesDB,
		},
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	healthServer.SetReady(true)

	if cfg.Engine.ListenerEnabled {
		listener := engine.NewListener(engine.ListenerConfig{
			CallbackURL:      cfg.Engine.CallbackURL,
			ReconnectBackoff: time.Duration(cfg.Engine.ReconnectSeconds) * time.Second,
		}, queue, appLog)

		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				appLog.WithError(err).Error("Engine callback listener stopped")
			}
		}()

		appLog.WithField("callback_url", cfg.Engine.CallbackURL).Info("Engine callback listener started")
	} else {
		appLog.Info("Engine callback listener disabled")
	}

	appLog.WithFields(logrus.Fields{
		"workers":    cfg.Pipeline.Workers,
		"queue_size": cfg.Pipeline.QueueSize,
		"chunk_size": cfg.Pipeline.ChunkSize,
	}).Info("Pipeline is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	appLog.Info("Pipeline stopped")
	return nil
}

func startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
		if err := server.ListenAndServe(); err != nil && ctx.Err() == nil {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()
}
