// Package seriesjson reads a digitized historical time series: a JSON
// document keyed by year, each year holding one value per day of the
// season window (array index = day offset from the season start).
package seriesjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

const sourceName = "series_json"

// Reader converts one series document into raw records. The document
// format carries no unit or station information of its own; both come
// from configuration describing the digitization.
type Reader struct {
	locator    string // file path or http(s) URL
	entityID   string
	metric     domain.Metric
	unit       domain.Unit
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a series reader for one document.
func New(locator, entityID string, metric domain.Metric, unit domain.Unit, timeout time.Duration, logger *slog.Logger) *Reader {
	return &Reader{
		locator:    locator,
		entityID:   entityID,
		metric:     metric,
		unit:       unit,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name implements pipeline.SourceReader.
func (r *Reader) Name() string { return sourceName }

// Read fetches and parses the document. I/O failures are
// ErrSourceUnavailable; structural surprises are ErrMalformedSource.
// Years shorter than the season window are legal (collection stopped
// mid-season): offsets still count from the season start.
func (r *Reader) Read(ctx context.Context) ([]domain.RawRecord, error) {
	body, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var series map[string][]domain.Value
	dec := json.NewDecoder(body)
	if err := dec.Decode(&series); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedSource, r.locator, err)
	}

	// Deterministic record order regardless of map iteration.
	years := make([]int, 0, len(series))
	for key := range series {
		year, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: year key %q", domain.ErrMalformedSource, r.locator, key)
		}
		years = append(years, year)
	}
	sort.Ints(years)

	var records []domain.RawRecord
	for _, year := range years {
		values := series[strconv.Itoa(year)]
		for offset, v := range values {
			if v.IsZero() {
				continue // JSON null: day never digitized
			}
			records = append(records, domain.RawRecord{
				Source:    sourceName,
				EntityID:  r.entityID,
				Year:      year,
				DayOffset: offset,
				Metric:    r.metric,
				Value:     v,
				Unit:      r.unit,
			})
		}
	}

	r.logger.Info("series document read", "locator", r.locator, "years", len(years), "records", len(records))
	return records, nil
}

func (r *Reader) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(r.locator, "http://") || strings.HasPrefix(r.locator, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.locator, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, r.locator, err)
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, r.locator, err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s: status %d: %s", domain.ErrSourceUnavailable, r.locator, resp.StatusCode, body)
		}
		return resp.Body, nil
	}

	f, err := os.Open(r.locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, r.locator, err)
	}
	return f, nil
}
