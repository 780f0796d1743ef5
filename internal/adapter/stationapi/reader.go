package stationapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

const sourceName = "station_api"

// metricFields maps response fields to metrics. Relative humidity is
// intermediate: it feeds the derived dew point and humidity index and is
// dropped before the output table.
var metricFields = []struct {
	metric domain.Metric
	unit   domain.Unit
	value  func(Reading) domain.Value
}{
	{domain.MetricAverageTemperature, domain.UnitCelsius, func(r Reading) domain.Value { return r.AvgTemp }},
	{domain.MetricMaxTemperature, domain.UnitCelsius, func(r Reading) domain.Value { return r.MaxTemp }},
	{domain.MetricMinTemperature, domain.UnitCelsius, func(r Reading) domain.Value { return r.MinTemp }},
	{domain.MetricRelativeHumidity, domain.UnitPercent, func(r Reading) domain.Value { return r.RH }},
}

// Reader fetches readings for a set of stations over one date range and
// flattens them into raw records: one record per reading per field the
// reading actually carries.
type Reader struct {
	client     *Client
	stationIDs []string
	start, end time.Time
	logger     *slog.Logger
}

// NewReader creates a station API reader covering the given stations.
func NewReader(client *Client, stationIDs []string, start, end time.Time, logger *slog.Logger) *Reader {
	return &Reader{client: client, stationIDs: stationIDs, start: start, end: end, logger: logger}
}

// Name implements pipeline.SourceReader.
func (r *Reader) Name() string { return sourceName }

// Read fetches every configured station. The whole reader is one source:
// a failing station fails the reader's contribution, and sibling readers
// keep running.
func (r *Reader) Read(ctx context.Context) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	for _, id := range r.stationIDs {
		info, readings, err := r.client.FetchDaily(ctx, id, r.start, r.end)
		if err != nil {
			return nil, err
		}
		recs, err := r.flatten(id, info, readings)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	r.logger.Info("station readings read", "stations", len(r.stationIDs), "records", len(records))
	return records, nil
}

func (r *Reader) flatten(requestedID string, info StationInfo, readings []Reading) ([]domain.RawRecord, error) {
	entityID := info.ID
	if entityID == "" {
		entityID = requestedID
	}
	hasCoords := info.Lat != 0 || info.Lon != 0

	records := make([]domain.RawRecord, 0, len(readings))
	for _, reading := range readings {
		date, err := time.Parse("2006-01-02", reading.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: station %s: reading date %q", domain.ErrMalformedSource, requestedID, reading.Date)
		}
		for _, field := range metricFields {
			v := field.value(reading)
			if v.IsZero() {
				continue // field absent for this station
			}
			records = append(records, domain.RawRecord{
				Source:     sourceName,
				EntityID:   entityID,
				EntityName: info.Name,
				Lat:        info.Lat,
				Lon:        info.Lon,
				HasCoords:  hasCoords,
				Date:       date,
				HasDate:    true,
				Metric:     field.metric,
				Value:      v,
				Unit:       field.unit,
			})
		}
	}
	return records, nil
}
