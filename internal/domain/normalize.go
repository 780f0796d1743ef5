package domain

import (
	"fmt"
	"time"
)

// Normalize projects a raw source record onto the Observation shape:
// reconstructs the calendar date for offset-dated records, coerces the
// value union to a number, and converts it to the metric's canonical
// unit. The returned Observation still carries the unresolved entity
// hint; the resolver attaches metadata and the final ID.
//
// Errors are record-scoped (ErrUnparseableValue, ErrImplausibleValue,
// ErrOffsetOutOfRange) except for reader bugs surfacing as
// ErrMalformedSource.
func Normalize(rec RawRecord, season SeasonWindow) (Observation, error) {
	if !KnownMetric(rec.Metric) {
		return Observation{}, fmt.Errorf("%w: source %s produced unknown metric %q", ErrMalformedSource, rec.Source, rec.Metric)
	}

	date := rec.Date
	if !rec.HasDate {
		var err error
		date, err = season.DateFor(rec.Year, rec.DayOffset)
		if err != nil {
			return Observation{}, fmt.Errorf("source %s, year %d: %w", rec.Source, rec.Year, err)
		}
	} else {
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}

	raw, err := rec.Value.Float()
	if err != nil {
		return Observation{}, fmt.Errorf("source %s: %w", rec.Source, err)
	}

	value, err := Canonicalize(rec.Metric, rec.Unit, raw)
	if err != nil {
		return Observation{}, fmt.Errorf("source %s: %w", rec.Source, err)
	}

	return Observation{
		EntityID:    rec.EntityID,
		Date:        date,
		Metric:      rec.Metric,
		Value:       value,
		Unit:        CanonicalUnit(rec.Metric),
		Source:      rec.Source,
		ProcessedAt: clock.Now().UTC(),
		Hint: EntityHint{
			ID:        rec.EntityID,
			Name:      rec.EntityName,
			Lat:       rec.Lat,
			Lon:       rec.Lon,
			HasCoords: rec.HasCoords,
		},
	}, nil
}
