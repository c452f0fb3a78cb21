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

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/gios"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	years := flag.String("years", "", "comma-separated years to process (overrides PM25_YEARS)")
	out := flag.String("out", "", "output directory (overrides OUTPUT_DIR)")
	serve := flag.Bool("serve", false, "keep serving /metrics and /status after the run until interrupted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if *years != "" {
		override, err := config.ParseYears(*years)
		if err != nil {
			slog.Error("invalid -years", "error", err)
			return 1
		}
		cfg.SetYears(override)
	}
	if *out != "" {
		cfg.OutputDir = *out
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Source: live archive, or a local directory.
	var source pipeline.Source
	switch cfg.Source {
	case config.SourceLocal:
		source = xlsx.NewLocalSource(cfg.LocalDataDir)
		logger.Info("reading local archives", "dir", cfg.LocalDataDir)
	default:
		source = gios.NewClient(cfg.GIOSBaseURL, cfg.GIOSTimeout, cfg.GIOSRateLimit, cfg.GIOSCacheSize, metrics, logger)
		logger.Info("reading GIOŚ archive", "url", cfg.GIOSBaseURL, "timeout", cfg.GIOSTimeout, "cache_size", cfg.GIOSCacheSize)
	}

	loaders := []pipeline.Loader{csvexport.NewExporter(cfg, logger)}
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, kafkaWriter)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}
	var influxWriter *influx.Writer
	if cfg.InfluxEnabled() {
		influxWriter = influx.NewWriter(cfg, logger)
		loaders = append(loaders, influxWriter)
		logger.Info("influxdb sink enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	}

	transformer := pipeline.NewTransformer(pipeline.Options{
		Threshold:    cfg.Threshold,
		ReportCities: cfg.ReportCities,
		ReportYears:  cfg.ReportYears,
	}, logger, metrics)
	p := pipeline.New(source, transformer, loaders, logger, metrics, pipeline.RunOptions{
		Retries:         cfg.FetchRetries,
		SkipFailedYears: cfg.SkipFailedYears,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	exitCode := 0
	if _, err := p.Run(ctx, cfg.Years); err != nil {
		logger.Error("pipeline error", "error", err)
		exitCode = 1
	}

	if *serve && srv != nil && ctx.Err() == nil {
		logger.Info("run finished, serving until interrupted", "addr", cfg.MetricsAddr)
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if influxWriter != nil {
		influxWriter.Close()
	}

	logger.Info("shutdown complete")
	return exitCode
}
