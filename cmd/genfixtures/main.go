// Command genfixtures writes a self-consistent set of test fixtures: a
// nested JSON series file, a station metadata table, a Shift_JIS ranking
// page, a station API daily payload, and the observations the pipeline
// is expected to produce from them. It runs the actual domain code with
// a fixed clock so the expected output matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genfixtures -out internal/integration/testdata
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/encoding/japanese"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

var frozenNow = time.Date(2026, time.August, 26, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture files")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	// Fixed clock for reproducible ProcessedAt timestamps and IDs.
	domain.SetClock(clockwork.NewFakeClockAt(frozenNow))
	defer domain.SetClock(nil)

	stations := fixtureStations()
	season := domain.SeasonWindow{StartMonth: 6, StartDay: 1, Length: 122}

	records, err := writeSources(*outDir, stations)
	if err != nil {
		return err
	}

	expected, err := expectedObservations(records, stations, season)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(*outDir, "expected_observations.json"), expected); err != nil {
		return err
	}

	log.Printf("wrote %d source records, %d expected observations to %s",
		len(records), len(expected), *outDir)
	return nil
}

func fixtureStations() []domain.Station {
	return []domain.Station{
		{EntityID: "47626", DisplayName: "Kumagaya", ParentRegion: "Saitama", Lat: 36.1500, Lon: 139.3833},
		{EntityID: "47654", DisplayName: "Hamamatsu", ParentRegion: "Shizuoka", Lat: 34.7089, Lon: 137.7181},
		{EntityID: "47662", DisplayName: "Tokyo", ParentRegion: "Tokyo", Lat: 35.6917, Lon: 139.7500},
		{EntityID: "47759", DisplayName: "Kyoto", ParentRegion: "Kyoto", Lat: 35.0150, Lon: 135.7328},
	}
}

// writeSources emits the three source fixtures plus the metadata table and
// returns the raw records a correct reader set would extract from them.
func writeSources(outDir string, stations []domain.Station) ([]domain.RawRecord, error) {
	if err := writeJSON(filepath.Join(outDir, "stations.json"), stations); err != nil {
		return nil, err
	}

	// Nested series: year -> per-day values, Fahrenheit, with a missing
	// sentinel and a quality-marked value.
	series := map[string][]any{
		"1876": {77.0, 68.0, "80.6]", "UNK"},
		"1877": {nil, 71.6},
	}
	if err := writeJSON(filepath.Join(outDir, "series.json"), series); err != nil {
		return nil, err
	}

	rankingHTML := `<html><head><meta charset="shift_jis"></head><body>
<table>
<tr><th>順位</th><th>都道府県</th><th>地点</th><th>℃</th><th>起日</th></tr>
<tr><td>1</td><td>埼玉県</td><td>Kumagaya</td><td>41.1</td><td>2025-08-05</td></tr>
<tr><td>2</td><td>静岡県</td><td>Hamamatsu</td><td>41.1</td><td>2025-08-16</td></tr>
<tr><td>3</td><td>東京都</td><td>Tokyo</td><td>39.5</td><td>2025-08-10</td></tr>
</table>
</body></html>`
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(rankingHTML))
	if err != nil {
		return nil, fmt.Errorf("encode ranking page: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "ranking.html"), encoded, 0o644); err != nil {
		return nil, err
	}

	stationDaily := map[string]any{
		"station": map[string]any{"id": "47662", "name": "Tokyo", "lat": 35.6917, "lon": 139.7500},
		"readings": []map[string]any{
			{"date": "2025-07-10", "avg_temp": 30.0, "max_temp": 35.2, "min_temp": 26.1, "rh": 70.0},
			{"date": "2025-07-11", "avg_temp": 28.4, "max_temp": 33.0, "min_temp": 25.0, "rh": "//"},
		},
	}
	if err := writeJSON(filepath.Join(outDir, "station_daily.json"), stationDaily); err != nil {
		return nil, err
	}

	return fixtureRecords(), nil
}

// fixtureRecords mirrors what the readers extract from the files above,
// in source declaration order.
func fixtureRecords() []domain.RawRecord {
	avg := func(entity string, year, offset int, v domain.Value) domain.RawRecord {
		return domain.RawRecord{
			Source: "series_json", EntityID: entity, Year: year, DayOffset: offset,
			Metric: domain.MetricAverageTemperature, Value: v, Unit: domain.UnitFahrenheit,
		}
	}
	ranked := func(name string, day int, v float64) domain.RawRecord {
		return domain.RawRecord{
			Source: "ranking_html", EntityName: name,
			Date: time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC), HasDate: true,
			Metric: domain.MetricMaxTemperature, Value: domain.NumberValue(v), Unit: domain.UnitCelsius,
		}
	}
	daily := func(day int, m domain.Metric, v float64, u domain.Unit) domain.RawRecord {
		return domain.RawRecord{
			Source: "station_api", EntityID: "47662",
			Lat: 35.6917, Lon: 139.7500, HasCoords: true,
			Date: time.Date(2025, 7, day, 0, 0, 0, 0, time.UTC), HasDate: true,
			Metric: m, Value: domain.NumberValue(v), Unit: u,
		}
	}

	return []domain.RawRecord{
		avg("47662", 1876, 0, domain.NumberValue(77)),
		avg("47662", 1876, 1, domain.NumberValue(68)),
		avg("47662", 1876, 2, domain.TextValue("80.6]")),
		avg("47662", 1876, 3, domain.TextValue("UNK")),
		avg("47662", 1877, 1, domain.NumberValue(71.6)),

		ranked("Kumagaya", 5, 41.1),
		ranked("Hamamatsu", 16, 41.1),
		ranked("Tokyo", 10, 39.5),

		daily(10, domain.MetricAverageTemperature, 30.0, domain.UnitCelsius),
		daily(10, domain.MetricMaxTemperature, 35.2, domain.UnitCelsius),
		daily(10, domain.MetricMinTemperature, 26.1, domain.UnitCelsius),
		daily(10, domain.MetricRelativeHumidity, 70.0, domain.UnitPercent),
		daily(11, domain.MetricAverageTemperature, 28.4, domain.UnitCelsius),
		daily(11, domain.MetricMaxTemperature, 33.0, domain.UnitCelsius),
		daily(11, domain.MetricMinTemperature, 25.0, domain.UnitCelsius),
	}
}

// expectedObservations runs the real normalize-resolve-derive-dedupe
// sequence over the fixture records.
func expectedObservations(records []domain.RawRecord, stations []domain.Station, season domain.SeasonWindow) ([]domain.Observation, error) {
	resolver := domain.NewResolver(stations, 25, 100)

	var observations []domain.Observation
	for _, rec := range records {
		obs, err := domain.Normalize(rec, season)
		if err != nil {
			if _, excluded := domain.ExclusionReasonFor(err); excluded {
				continue
			}
			return nil, err
		}
		res, err := resolver.Resolve(obs.Hint)
		if err != nil {
			continue
		}
		obs.EntityID = res.Station.EntityID
		obs.DisplayName = res.Station.DisplayName
		obs.ParentRegion = res.Station.ParentRegion
		obs.ResolvedDistanceKM = res.DistanceKM
		obs.ID = domain.ObservationID(obs.EntityID, obs.Date, obs.Metric)
		observations = append(observations, obs)
	}

	observations = domain.DeriveComfortMetrics(observations)

	seen := make(map[string]bool)
	deduped := observations[:0]
	for _, o := range observations {
		key := o.EntityID + "|" + domain.DateKey(o.Date) + "|" + string(o.Metric)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, o)
	}

	sort.Slice(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Metric < b.Metric
	})
	return deduped, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
