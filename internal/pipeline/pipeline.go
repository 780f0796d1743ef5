// Package pipeline orchestrates one batch run: read every configured
// source, normalize and resolve the records, derive comfort metrics,
// deduplicate, and write the observation table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tenkilab/tenki-etl/internal/domain"
	"github.com/tenkilab/tenki-etl/internal/observability"
)

// SourceReader extracts raw records from one upstream source. Name is the
// stable source label used in logs, metrics, and the output table.
type SourceReader interface {
	Name() string
	Read(ctx context.Context) ([]domain.RawRecord, error)
}

// EntityResolver joins an entity hint to station/region metadata.
type EntityResolver interface {
	Resolve(hint domain.EntityHint) (domain.Resolution, error)
}

// TableWriter persists the normalized observation table.
type TableWriter interface {
	WriteTable(ctx context.Context, observations []domain.Observation) error
}

// Pipeline runs the extract-normalize-resolve-load batch.
type Pipeline struct {
	readers       []SourceReader
	resolver      EntityResolver
	writer        TableWriter
	season        domain.SeasonWindow
	readerTimeout time.Duration
	concurrency   int
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// New creates a Pipeline. Reader order is the dedupe precedence order:
// when two sources produce the same (entity, date, metric), the earlier
// reader's value is kept. concurrency caps simultaneous reads; zero
// means unbounded.
func New(readers []SourceReader, resolver EntityResolver, writer TableWriter,
	season domain.SeasonWindow, readerTimeout time.Duration, concurrency int,
	logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		readers:       readers,
		resolver:      resolver,
		writer:        writer,
		season:        season,
		readerTimeout: readerTimeout,
		concurrency:   concurrency,
		logger:        logger,
		metrics:       metrics,
	}
}

// Run executes one batch. It fails only when every source fails or the
// sink write fails; individual source failures and record exclusions
// produce a partial result, accounted for in the returned Summary.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := newSummary(time.Now().UTC())
	p.logger.Info("run started", "run_id", summary.RunID, "sources", len(p.readers))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	batches := p.readAll(ctx, summary)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if summary.AllSourcesFailed() {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		return summary, ErrAllSourcesFailed
	}

	observations := p.normalizeAndResolve(batches, summary)

	kept := 0
	for _, o := range observations {
		if o.Metric != domain.MetricRelativeHumidity {
			kept++
		}
	}
	observations = domain.DeriveComfortMetrics(observations)
	summary.Derived = len(observations) - kept

	observations = dedupe(observations, summary)

	sort.Slice(observations, func(i, j int) bool {
		a, b := observations[i], observations[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Metric < b.Metric
	})

	if err := p.writer.WriteTable(ctx, observations); err != nil {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		return summary, fmt.Errorf("write observation table: %w", err)
	}

	summary.Emitted = len(observations)
	p.metrics.ObservationsEmitted.Add(float64(len(observations)))

	outcome := "success"
	for _, src := range summary.Sources {
		if src.Failed() {
			outcome = "partial"
			break
		}
	}
	p.metrics.RunsTotal.WithLabelValues(outcome).Inc()

	p.logger.Info("run complete",
		"run_id", summary.RunID,
		"outcome", outcome,
		"records_read", summary.RecordsRead,
		"excluded", summary.ExcludedTotal(),
		"deduplicated", summary.Deduplicated,
		"emitted", summary.Emitted,
		"duration", time.Since(summary.Started),
	)
	return summary, nil
}

// readAll fans the readers out concurrently, each under its own timeout.
// A reader failure is captured in the summary; the other sources still
// contribute, so the group functions never return an error themselves.
func (p *Pipeline) readAll(ctx context.Context, summary *Summary) [][]domain.RawRecord {
	batches := make([][]domain.RawRecord, len(p.readers))
	summary.Sources = make([]SourceStatus, len(p.readers))

	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, reader := range p.readers {
		g.Go(func() error {
			name := reader.Name()
			start := time.Now()

			readCtx, cancel := context.WithTimeout(gctx, p.readerTimeout)
			defer cancel()

			records, err := reader.Read(readCtx)
			elapsed := time.Since(start)
			p.metrics.ReaderDuration.WithLabelValues(name).Observe(elapsed.Seconds())

			if err != nil {
				p.metrics.SourceFailures.WithLabelValues(name).Inc()
				p.logger.Error("source failed", "source", name, "error", err)
				summary.Sources[i] = SourceStatus{Source: name, Duration: elapsed, Err: err}
				return nil
			}

			p.metrics.RecordsRead.WithLabelValues(name).Add(float64(len(records)))
			p.logger.Info("source read", "source", name, "records", len(records), "duration", elapsed)
			batches[i] = records
			summary.Sources[i] = SourceStatus{Source: name, RecordsRead: len(records), Duration: elapsed}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // group funcs always return nil

	for _, status := range summary.Sources {
		summary.RecordsRead += status.RecordsRead
	}
	return batches
}

// normalizeAndResolve walks the batches in declared source order, so the
// dedupe pass downstream sees earlier sources first.
func (p *Pipeline) normalizeAndResolve(batches [][]domain.RawRecord, summary *Summary) []domain.Observation {
	var out []domain.Observation
	for _, batch := range batches {
		for _, rec := range batch {
			obs, err := domain.Normalize(rec, p.season)
			if err != nil {
				p.exclude(summary, rec.Source, err)
				continue
			}

			res, err := p.resolver.Resolve(obs.Hint)
			if err != nil {
				p.exclude(summary, rec.Source, err)
				continue
			}

			obs.EntityID = res.Station.EntityID
			obs.DisplayName = res.Station.DisplayName
			obs.ParentRegion = res.Station.ParentRegion
			obs.ResolvedDistanceKM = res.DistanceKM
			obs.ID = domain.ObservationID(obs.EntityID, obs.Date, obs.Metric)
			out = append(out, obs)
		}
	}

	if hits, misses := cacheStats(p.resolver); hits+misses > 0 {
		p.metrics.ResolverCache.WithLabelValues("hit").Add(float64(hits))
		p.metrics.ResolverCache.WithLabelValues("miss").Add(float64(misses))
	}
	return out
}

// exclude accounts for a dropped record. Out-of-range offsets and
// malformed records point at upstream or reader defects, so they log at
// error level; the data-quality reasons log at warn.
func (p *Pipeline) exclude(summary *Summary, source string, err error) {
	reason, ok := domain.ExclusionReasonFor(err)
	switch {
	case !ok:
		reason = reasonMalformedRecord
		p.logger.Error("record excluded", "source", source, "reason", reason, "error", err)
	case reason == domain.ReasonOffsetOutOfRange:
		p.logger.Error("record excluded", "source", source, "reason", reason, "error", err)
	default:
		p.logger.Warn("record excluded", "source", source, "reason", reason, "error", err)
	}
	summary.Excluded[reason]++
	p.metrics.Exclusions.WithLabelValues(string(reason)).Inc()
}

// dedupe keeps the first observation per (entity, date, metric). Input
// order is source declaration order, so earlier sources win.
func dedupe(observations []domain.Observation, summary *Summary) []domain.Observation {
	seen := make(map[string]bool, len(observations))
	out := observations[:0]
	for _, o := range observations {
		key := o.EntityID + "|" + domain.DateKey(o.Date) + "|" + string(o.Metric)
		if seen[key] {
			summary.Deduplicated++
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}

// cacheStats reads hit/miss counters when the resolver exposes them.
func cacheStats(r EntityResolver) (hits, misses uint64) {
	type statser interface {
		CacheStats() (uint64, uint64)
	}
	if s, ok := r.(statser); ok {
		return s.CacheStats()
	}
	return 0, 0
}
