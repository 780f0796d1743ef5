// Command etl runs one batch of the weather observation pipeline: it
// reads every configured source, normalizes and resolves the records,
// and writes the observation table to SQLite.
//
// All configuration comes from environment variables; see
// internal/config. The process exits non-zero only when every source
// failed or the sink write failed.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tenkilab/tenki-etl/internal/adapter/metadata"
	"github.com/tenkilab/tenki-etl/internal/adapter/rankinghtml"
	"github.com/tenkilab/tenki-etl/internal/adapter/seriesjson"
	"github.com/tenkilab/tenki-etl/internal/adapter/sqlitesink"
	"github.com/tenkilab/tenki-etl/internal/adapter/stationapi"
	"github.com/tenkilab/tenki-etl/internal/config"
	"github.com/tenkilab/tenki-etl/internal/domain"
	"github.com/tenkilab/tenki-etl/internal/observability"
	"github.com/tenkilab/tenki-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	season := domain.SeasonWindow{
		StartMonth: cfg.SeasonStartMonth,
		StartDay:   cfg.SeasonStartDay,
		Length:     cfg.SeasonLengthDays,
	}
	if err := season.Validate(); err != nil {
		logger.Error("invalid season window", "error", err)
		os.Exit(1)
	}

	stations, err := metadata.Load(cfg.MetadataPath)
	if err != nil {
		logger.Error("failed to load station metadata", "path", cfg.MetadataPath, "error", err)
		os.Exit(1)
	}
	resolver := domain.NewResolver(stations, cfg.ResolverMaxDistanceKM, cfg.ResolverCacheSize)
	logger.Info("station metadata loaded", "stations", len(stations))

	// Reader order is dedupe precedence: earlier sources win ties.
	var readers []pipeline.SourceReader
	if cfg.SeriesJSONPath != "" {
		readers = append(readers, seriesjson.New(
			cfg.SeriesJSONPath, cfg.SeriesEntityID,
			domain.Metric(cfg.SeriesMetric), domain.Unit(cfg.SeriesUnit),
			cfg.ReaderTimeout, logger))
	}
	if cfg.RankingURL != "" {
		readers = append(readers, rankinghtml.New(
			cfg.RankingURL, domain.Metric(cfg.RankingMetric), cfg.RankingYear,
			cfg.RankingTimeout, logger))
	}
	if len(cfg.StationIDs) > 0 {
		client := stationapi.NewClient(cfg.StationAPIBaseURL, cfg.StationAPITimeout, cfg.StationAPIRate, logger)
		readers = append(readers, stationapi.NewReader(client, cfg.StationIDs, cfg.StationStart, cfg.StationEnd, logger))
	}

	sink, err := sqlitesink.Open(cfg.SQLitePath, logger)
	if err != nil {
		logger.Error("failed to open sink", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer sink.Close()

	p := pipeline.New(readers, resolver, sink, season, cfg.ReaderTimeout, cfg.ReaderConcurrency, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrAllSourcesFailed) {
			for _, src := range summary.Sources {
				logger.Error("source failed", "source", src.Source, "error", src.Err)
			}
		}
		logger.Error("run failed", "run_id", summary.RunID, "error", err)
		sink.Close()
		os.Exit(1)
	}

	for _, src := range summary.Sources {
		if src.Failed() {
			logger.Warn("partial result: source contributed nothing", "source", src.Source, "error", src.Err)
		}
	}
	logger.Info("observations written",
		"run_id", summary.RunID,
		"path", cfg.SQLitePath,
		"emitted", summary.Emitted,
		"excluded", summary.ExcludedTotal(),
		"deduplicated", summary.Deduplicated,
	)
}
