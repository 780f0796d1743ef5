// Package domain models Japanese weather observations and the rules for
// normalizing them out of heterogeneous historical and current sources.
//
// # Data Sources
//
// Three source families feed the pipeline:
//
//   - A digitized historical time series: a JSON document keyed by year,
//     each year holding one value per day of the summer season window.
//     The day is implicit (array index = days since the season start);
//     the calendar date is reconstructed by [SeasonWindow.DateFor].
//   - A government ranking page: a fixed-layout HTML table of per-station
//     daily extremes, usually served as Shift_JIS.
//   - A station measurement API: per-day readings for a station ID over a
//     date range, already keyed by explicit calendar dates.
//
// # Value Conventions
//
// Source values are loosely typed. The same column may hold a JSON number,
// a numeric string ("22.3"), or an annotated numeric string carrying a JMA
// quality mark:
//
//	"38.9 ]"  incomplete-data value (資料不足値)
//	"38.9 )"  quasi-normal value (準正常値)
//	"38.9 #"  suspect value
//
// Quality marks are stripped during coercion; the numeric part is kept.
// Missing-data marks are a fixed set of sentinels:
//
//	"" , "//", "///", "×", "-", "UNK"
//
// A value that is neither numeric, nor annotated-numeric, nor a known
// missing mark cannot be coerced and excludes the record as
// unparseable_value. Missing marks exclude under the same reason; both are
// counted, never silently dropped.
//
// # Units
//
// The canonical unit for every temperature metric (average, max, min, dew
// point) is degrees Celsius. Early digitized series (pre-1880s instrument
// logs) report Fahrenheit; conversion happens once, during coercion, via
// [FahrenheitToCelsius]. Relative humidity arrives in percent and is never
// emitted itself: it only feeds the derived dew point (Magnus formula) and
// the Japanese discomfort index, both computed from already-canonicalized
// Celsius values.
//
// Plausibility bounds are checked after canonicalization. Temperatures
// outside [-90, 65] °C are sensor sentinels or digitization garbage, not
// weather; they exclude the record as implausible_value.
//
// # Entity Resolution
//
// Observations reference a station, prefecture, or region. Resolution
// against the metadata table tries, in order: exact entity ID, exact
// display name, then nearest station by haversine distance when the record
// carries coordinates. Equidistant candidates resolve to the
// lexicographically smallest entity ID so repeated runs never flip between
// stations. One logical station frequently appears under several raw
// identities (AMeDAS code vs. office code sharing a compound); after
// resolution the first observation per (entity_id, date, metric) wins.
//
// # ID Generation
//
// Observation IDs are deterministic SHA-256 hashes of entity|date|metric.
// Re-running the pipeline over the same inputs produces the same IDs, so
// the SQLite sink can INSERT OR IGNORE and stay idempotent. See
// [ObservationID].
package domain
