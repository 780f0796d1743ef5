package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequired sets the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("METADATA_PATH", "testdata/stations.json")
	t.Setenv("SERIES_JSON_PATH", "testdata/series.json")
	t.Setenv("SERIES_ENTITY_ID", "47662")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.June, cfg.SeasonStartMonth)
	assert.Equal(t, 1, cfg.SeasonStartDay)
	assert.Equal(t, 122, cfg.SeasonLengthDays)
	assert.Equal(t, "average_temperature", cfg.SeriesMetric)
	assert.Equal(t, "fahrenheit", cfg.SeriesUnit)
	assert.Equal(t, "max_temperature", cfg.RankingMetric)
	assert.Equal(t, 10*time.Second, cfg.RankingTimeout)
	assert.Equal(t, 10*time.Second, cfg.StationAPITimeout)
	assert.Equal(t, 5.0, cfg.StationAPIRate)
	assert.Equal(t, "observations.db", cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.ReaderTimeout)
	assert.Equal(t, 3, cfg.ReaderConcurrency)
	assert.Equal(t, 1000, cfg.ResolverCacheSize)
	assert.Equal(t, 25.0, cfg.ResolverMaxDistanceKM)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("METADATA_PATH", "/data/stations.json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SEASON_START", "05-15")
	t.Setenv("SEASON_LENGTH_DAYS", "90")
	t.Setenv("SERIES_JSON_PATH", "/data/series.json")
	t.Setenv("SERIES_ENTITY_ID", "47662")
	t.Setenv("SERIES_METRIC", "min_temperature")
	t.Setenv("SERIES_UNIT", "celsius")
	t.Setenv("RANKING_URL", "https://example.test/ranking")
	t.Setenv("RANKING_YEAR", "2025")
	t.Setenv("RANKING_TIMEOUT", "3s")
	t.Setenv("STATION_API_BASE_URL", "https://api.example.test")
	t.Setenv("STATION_IDS", "47662, 47626,47759")
	t.Setenv("STATION_START", "2025-06-01")
	t.Setenv("STATION_END", "2025-09-30")
	t.Setenv("STATION_API_TIMEOUT", "2s")
	t.Setenv("STATION_API_RATE", "0.5")
	t.Setenv("SQLITE_PATH", "/data/out.db")
	t.Setenv("READER_TIMEOUT", "1m")
	t.Setenv("RESOLVER_CACHE_SIZE", "50")
	t.Setenv("RESOLVER_MAX_DISTANCE_KM", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.May, cfg.SeasonStartMonth)
	assert.Equal(t, 15, cfg.SeasonStartDay)
	assert.Equal(t, 90, cfg.SeasonLengthDays)
	assert.Equal(t, "min_temperature", cfg.SeriesMetric)
	assert.Equal(t, "celsius", cfg.SeriesUnit)
	assert.Equal(t, 2025, cfg.RankingYear)
	assert.Equal(t, 3*time.Second, cfg.RankingTimeout)
	assert.Equal(t, []string{"47662", "47626", "47759"}, cfg.StationIDs)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), cfg.StationStart)
	assert.Equal(t, time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC), cfg.StationEnd)
	assert.Equal(t, 0.5, cfg.StationAPIRate)
	assert.Equal(t, "/data/out.db", cfg.SQLitePath)
	assert.Equal(t, time.Minute, cfg.ReaderTimeout)
	assert.Equal(t, 50, cfg.ResolverCacheSize)
	assert.Equal(t, 10.0, cfg.ResolverMaxDistanceKM)
}

func TestLoad_MissingMetadataPath(t *testing.T) {
	t.Setenv("SERIES_JSON_PATH", "series.json")
	t.Setenv("SERIES_ENTITY_ID", "47662")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METADATA_PATH")
}

func TestLoad_NoSources(t *testing.T) {
	t.Setenv("METADATA_PATH", "stations.json")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources configured")
}

func TestLoad_SeriesWithoutEntityID(t *testing.T) {
	t.Setenv("METADATA_PATH", "stations.json")
	t.Setenv("SERIES_JSON_PATH", "series.json")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERIES_ENTITY_ID")
}

func TestLoad_InvalidSeasonStart(t *testing.T) {
	setRequired(t)
	t.Setenv("SEASON_START", "June 1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEASON_START")
}

func TestLoad_InvalidSeasonLength(t *testing.T) {
	setRequired(t)
	t.Setenv("SEASON_LENGTH_DAYS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEASON_LENGTH_DAYS")
}

func TestLoad_InvalidReaderTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("READER_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READER_TIMEOUT")
}

func TestLoad_NegativeReaderTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("READER_TIMEOUT", "-5s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READER_TIMEOUT")
}

func TestLoad_StationIDsWithoutBaseURL(t *testing.T) {
	t.Setenv("METADATA_PATH", "stations.json")
	t.Setenv("STATION_IDS", "47662")
	t.Setenv("STATION_START", "2025-06-01")
	t.Setenv("STATION_END", "2025-09-30")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATION_API_BASE_URL")
}

func TestLoad_StationIDsWithoutDates(t *testing.T) {
	t.Setenv("METADATA_PATH", "stations.json")
	t.Setenv("STATION_API_BASE_URL", "https://api.example.test")
	t.Setenv("STATION_IDS", "47662")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATION_START")
}

func TestLoad_StationEndBeforeStart(t *testing.T) {
	t.Setenv("METADATA_PATH", "stations.json")
	t.Setenv("STATION_API_BASE_URL", "https://api.example.test")
	t.Setenv("STATION_IDS", "47662")
	t.Setenv("STATION_START", "2025-09-30")
	t.Setenv("STATION_END", "2025-06-01")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATION_END")
}

func TestLoad_InvalidStationRate(t *testing.T) {
	setRequired(t)
	t.Setenv("STATION_API_RATE", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATION_API_RATE")
}
