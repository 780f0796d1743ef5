package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Metric identifies what an Observation measures. The set is closed per
// pipeline run: readers may only emit metrics listed here.
type Metric string

const (
	MetricAverageTemperature Metric = "average_temperature"
	MetricMaxTemperature     Metric = "max_temperature"
	MetricMinTemperature     Metric = "min_temperature"
	MetricDewPoint           Metric = "dew_point"
	MetricHumidityIndex      Metric = "humidity_index"

	// MetricRelativeHumidity is an intermediate metric: station readings
	// carry it so dew point and humidity index can be derived, but it is
	// removed before the output table (it is not part of the output enum).
	MetricRelativeHumidity Metric = "relative_humidity"
)

// KnownMetric reports whether m is a metric the pipeline understands,
// including the intermediate relative humidity.
func KnownMetric(m Metric) bool {
	switch m {
	case MetricAverageTemperature, MetricMaxTemperature, MetricMinTemperature,
		MetricDewPoint, MetricHumidityIndex, MetricRelativeHumidity:
		return true
	}
	return false
}

// OutputMetric reports whether m may appear in the output table.
func OutputMetric(m Metric) bool {
	return KnownMetric(m) && m != MetricRelativeHumidity
}

// RawRecord is the loosely-typed record a source reader produces. It is
// never persisted past normalization. Exactly one of Date (HasDate) or the
// Year/DayOffset pair identifies the observation day.
type RawRecord struct {
	Source string // reader name, kept for traceability

	// Entity hints, resolved later against station metadata.
	EntityID   string
	EntityName string
	Lat        float64
	Lon        float64
	HasCoords  bool

	Date      time.Time // explicit calendar date (UTC midnight)
	HasDate   bool
	Year      int // offset-dated records: season year
	DayOffset int // offset-dated records: days since season start

	Metric Metric
	Value  Value
	Unit   Unit
}

// EntityHint carries the identity clues a raw record had, for the resolver.
type EntityHint struct {
	ID        string
	Name      string
	Lat       float64
	Lon       float64
	HasCoords bool
}

// Observation is one normalized (entity_id, date, metric, value) row.
// Value is always in the metric's canonical unit and Date is always a
// fully-resolved calendar date.
type Observation struct {
	ID       string    `json:"id"`
	EntityID string    `json:"entity_id"`
	Date     time.Time `json:"date"`
	Metric   Metric    `json:"metric"`
	Value    float64   `json:"value"`
	Unit     Unit      `json:"unit"`
	Source   string    `json:"source"`

	// Metadata attached by the resolver.
	DisplayName        string  `json:"display_name,omitempty"`
	ParentRegion       string  `json:"parent_region,omitempty"`
	ResolvedDistanceKM float64 `json:"resolved_distance_km,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`

	Hint EntityHint `json:"-"`
}

// Station is one row of the read-only station/region metadata table.
type Station struct {
	EntityID     string  `json:"id"`
	DisplayName  string  `json:"name"`
	ParentRegion string  `json:"region"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
}

// Validate checks metadata row sanity before the table is indexed.
func (s Station) Validate() error {
	if s.EntityID == "" {
		return fmt.Errorf("%w: station metadata row missing id", ErrMalformedSource)
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("%w: station %s: invalid latitude %f", ErrMalformedSource, s.EntityID, s.Lat)
	}
	if s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("%w: station %s: invalid longitude %f", ErrMalformedSource, s.EntityID, s.Lon)
	}
	return nil
}

// DateKey formats a date the way the output table and dedupe keys use it.
func DateKey(d time.Time) string {
	return d.UTC().Format("2006-01-02")
}

// ObservationID produces a deterministic ID from the row's natural key.
// Deterministic IDs keep sink writes idempotent (INSERT OR IGNORE) across
// re-runs over the same inputs.
func ObservationID(entityID string, date time.Time, metric Metric) string {
	input := fmt.Sprintf("%s|%s|%s", entityID, DateKey(date), metric)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if metric == "" {
		return short
	}
	return string(metric) + "-" + short
}
