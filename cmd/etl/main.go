package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/met-climate-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/met-climate-etl/internal/adapter/kafka"
	"github.com/couchcryptid/met-climate-etl/internal/adapter/metoffice"
	"github.com/couchcryptid/met-climate-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/met-climate-etl/internal/config"
	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/couchcryptid/met-climate-etl/internal/observability"
	"github.com/couchcryptid/met-climate-etl/internal/pipeline"
	"github.com/couchcryptid/met-climate-etl/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion pass and exit")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	catalog, err := domain.DefaultCatalog().Filter(cfg.Regions, cfg.Parameters)
	if err != nil {
		logger.Error("invalid catalog selection", "error", err)
		os.Exit(1)
	}

	aliases := cfg.RegionAliases
	if aliases == nil {
		aliases = domain.DefaultAliases
	}
	resolver := domain.NewResolver(cfg.BaseURL, catalog, aliases)
	client := metoffice.NewClient(cfg.FetchTimeout, cfg.UserAgent, cfg.BreakerMaxFailures, metrics, logger)

	store, err := sqlite.New(cfg.DBPath, clock)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	var (
		publisher pipeline.ReportPublisher
		writer    *kafkaadapter.ReportWriter
	)
	if cfg.ReportsEnabled() {
		writer = kafkaadapter.NewReportWriter(cfg, logger)
		publisher = writer
		logger.Info("report publishing enabled", "topic", cfg.KafkaReportTopic)
	}

	p := pipeline.New(catalog, resolver, client, store, publisher, logger, metrics, clock, pipeline.Settings{
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closeAll := func() {
		if writer != nil {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}

	if *once {
		_, err := p.Run(ctx)
		closeAll()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingestion: on a schedule, or a single pass.
	var sched *scheduler.Scheduler
	runDone := make(chan struct{})
	if cfg.ScheduleInterval > 0 {
		close(runDone)
		sched = scheduler.New(p, cfg.ScheduleInterval, logger)
		if err := sched.Start(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
			stop()
		}
	} else {
		go func() {
			defer close(runDone)
			if _, err := p.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-runDone:
	case <-shutdownCtx.Done():
		logger.Warn("ingestion run did not stop before shutdown timeout")
	}
	closeAll()

	logger.Info("shutdown complete")
}
