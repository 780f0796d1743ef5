// Command validate performs integrity checks on an observation table
// produced by the etl command: natural-key uniqueness, metric and unit
// vocabulary, value plausibility, date validity, ID determinism, and
// entity membership against the station metadata table.
//
// Usage:
//
//	go run ./cmd/validate -db observations.db -stations stations.json
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tenkilab/tenki-etl/internal/adapter/metadata"
	"github.com/tenkilab/tenki-etl/internal/domain"
)

// row is one observation as stored in the output table.
type row struct {
	ID           string
	EntityID     string
	Date         string
	Metric       string
	Value        float64
	Unit         string
	Source       string
	DisplayName  string
	ParentRegion string
	ProcessedAt  string
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("db", "", "path to the observations SQLite database")
	stationsPath := flag.String("stations", "", "path to the station metadata JSON table")
	flag.Parse()

	if *dbPath == "" || *stationsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dbPath, *stationsPath); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath, stationsPath string) int {
	fmt.Println("=== Observation Table Integrity Validation ===")
	fmt.Println()

	rows, err := loadRows(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load observations: %v\n", err)
		return 1
	}

	stations, err := metadata.Load(stationsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load station metadata: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateNaturalKeys(rows),
		validateVocabulary(rows),
		validatePlausibility(rows),
		validateDates(rows),
		validateEntities(rows, stations),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d observations, %d metadata stations\n", len(rows), len(stations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadRows(path string) ([]row, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	result, err := db.Query(`
		SELECT id, entity_id, date, metric, value, unit, source,
		       COALESCE(display_name, ''), COALESCE(parent_region, ''), processed_at
		FROM observations
		ORDER BY entity_id, date, metric`)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var rows []row
	for result.Next() {
		var r row
		if err := result.Scan(&r.ID, &r.EntityID, &r.Date, &r.Metric, &r.Value,
			&r.Unit, &r.Source, &r.DisplayName, &r.ParentRegion, &r.ProcessedAt); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, result.Err()
}

// validateNaturalKeys checks (entity, date, metric) uniqueness and that
// each stored ID matches the deterministic hash of its natural key.
func validateNaturalKeys(rows []row) *phase {
	p := &phase{name: "natural key uniqueness and ID determinism"}

	seen := make(map[string]string)
	for _, r := range rows {
		key := r.EntityID + "|" + r.Date + "|" + r.Metric
		if prev, dup := seen[key]; dup {
			p.errorf("duplicate natural key %s (ids %s, %s)", key, prev, r.ID)
		}
		seen[key] = r.ID

		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue // reported by the date phase
		}
		want := domain.ObservationID(r.EntityID, date, domain.Metric(r.Metric))
		if r.ID != want {
			p.errorf("row %s: stored ID %s, natural key hashes to %s", key, r.ID, want)
		}
	}
	return p
}

// validateVocabulary checks metrics against the output vocabulary and
// units against each metric's canonical unit.
func validateVocabulary(rows []row) *phase {
	p := &phase{name: "metric and unit vocabulary"}

	for _, r := range rows {
		m := domain.Metric(r.Metric)
		if !domain.OutputMetric(m) {
			p.errorf("row %s/%s: metric %q is not an output metric", r.EntityID, r.Date, r.Metric)
			continue
		}
		if want := domain.CanonicalUnit(m); domain.Unit(r.Unit) != want {
			p.errorf("row %s/%s/%s: unit %q, want canonical %q", r.EntityID, r.Date, r.Metric, r.Unit, want)
		}
	}
	return p
}

// validatePlausibility re-checks stored values through the same bounds
// normalization enforces.
func validatePlausibility(rows []row) *phase {
	p := &phase{name: "value plausibility"}

	for _, r := range rows {
		m := domain.Metric(r.Metric)
		if !domain.KnownMetric(m) {
			continue // reported by the vocabulary phase
		}
		if _, err := domain.Canonicalize(m, domain.CanonicalUnit(m), r.Value); err != nil {
			p.errorf("row %s/%s/%s: value %g: %v", r.EntityID, r.Date, r.Metric, r.Value, err)
		}
	}
	return p
}

func validateDates(rows []row) *phase {
	p := &phase{name: "date and timestamp validity"}

	for _, r := range rows {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			p.errorf("row %s/%s: bad date: %v", r.EntityID, r.Metric, err)
		}
		if _, err := time.Parse(time.RFC3339, r.ProcessedAt); err != nil {
			p.errorf("row %s/%s/%s: bad processed_at %q", r.EntityID, r.Date, r.Metric, r.ProcessedAt)
		}
	}
	return p
}

// validateEntities checks that every row's entity and attached metadata
// agree with the station table.
func validateEntities(rows []row, stations []domain.Station) *phase {
	p := &phase{name: "entity membership and metadata agreement"}

	byID := make(map[string]domain.Station, len(stations))
	for _, s := range stations {
		if _, dup := byID[s.EntityID]; !dup {
			byID[s.EntityID] = s
		}
	}

	for _, r := range rows {
		s, ok := byID[r.EntityID]
		if !ok {
			p.errorf("row %s/%s/%s: entity not in metadata table", r.EntityID, r.Date, r.Metric)
			continue
		}
		if r.DisplayName != s.DisplayName {
			p.errorf("row %s/%s: display_name %q, metadata says %q", r.EntityID, r.Date, r.DisplayName, s.DisplayName)
		}
		if r.ParentRegion != s.ParentRegion {
			p.errorf("row %s/%s: parent_region %q, metadata says %q", r.EntityID, r.Date, r.ParentRegion, s.ParentRegion)
		}
	}
	return p
}
