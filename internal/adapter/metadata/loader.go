// Package metadata loads the read-only station/region reference table.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

// Load reads the station metadata table from a JSON file: an array of
// {id, name, region, lat, lon} rows. File order is preserved; the
// resolver's first-row-wins indexing depends on it. Loaded once per run.
func Load(path string) ([]domain.Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, path, err)
	}
	defer f.Close()

	var stations []domain.Station
	if err := json.NewDecoder(f).Decode(&stations); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedSource, path, err)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: %s: empty metadata table", domain.ErrMalformedSource, path)
	}

	for _, s := range stations {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return stations, nil
}
