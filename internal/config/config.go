package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	// Season window used to reconstruct dates from day offsets.
	SeasonStartMonth time.Month
	SeasonStartDay   int
	SeasonLengthDays int

	// series_json source. Enabled when SERIES_JSON_PATH is set.
	SeriesJSONPath string
	SeriesEntityID string
	SeriesMetric   string
	SeriesUnit     string

	// ranking_html source. Enabled when RANKING_URL is set.
	RankingURL     string
	RankingMetric  string
	RankingYear    int
	RankingTimeout time.Duration

	// station_api source. Enabled when STATION_IDS is set.
	StationAPIBaseURL string
	StationIDs        []string
	StationStart      time.Time
	StationEnd        time.Time
	StationAPITimeout time.Duration
	StationAPIRate    float64

	MetadataPath string
	SQLitePath   string

	ReaderTimeout         time.Duration
	ReaderConcurrency     int
	ResolverCacheSize     int
	ResolverMaxDistanceKM float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	startMonth, startDay, err := parseSeasonStart(envOrDefault("SEASON_START", "06-01"))
	if err != nil {
		return nil, err
	}

	seasonLength, err := parsePositiveInt("SEASON_LENGTH_DAYS", 122)
	if err != nil {
		return nil, err
	}

	rankingYear, err := parsePositiveInt("RANKING_YEAR", time.Now().Year())
	if err != nil {
		return nil, err
	}

	rankingTimeout, err := parseDuration("RANKING_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	stationTimeout, err := parseDuration("STATION_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	stationRate, err := parsePositiveFloat("STATION_API_RATE", 5)
	if err != nil {
		return nil, err
	}

	readerTimeout, err := parseDuration("READER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	readerConcurrency, err := parsePositiveInt("READER_CONCURRENCY", 3)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("RESOLVER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	maxDistance, err := parsePositiveFloat("RESOLVER_MAX_DISTANCE_KM", 25)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		SeasonStartMonth: startMonth,
		SeasonStartDay:   startDay,
		SeasonLengthDays: seasonLength,

		SeriesJSONPath: os.Getenv("SERIES_JSON_PATH"),
		SeriesEntityID: os.Getenv("SERIES_ENTITY_ID"),
		SeriesMetric:   envOrDefault("SERIES_METRIC", "average_temperature"),
		SeriesUnit:     envOrDefault("SERIES_UNIT", "fahrenheit"),

		RankingURL:     os.Getenv("RANKING_URL"),
		RankingMetric:  envOrDefault("RANKING_METRIC", "max_temperature"),
		RankingYear:    rankingYear,
		RankingTimeout: rankingTimeout,

		StationAPIBaseURL: os.Getenv("STATION_API_BASE_URL"),
		StationIDs:        splitList(os.Getenv("STATION_IDS")),
		StationAPITimeout: stationTimeout,
		StationAPIRate:    stationRate,

		MetadataPath: os.Getenv("METADATA_PATH"),
		SQLitePath:   envOrDefault("SQLITE_PATH", "observations.db"),

		ReaderTimeout:         readerTimeout,
		ReaderConcurrency:     readerConcurrency,
		ResolverCacheSize:     cacheSize,
		ResolverMaxDistanceKM: maxDistance,
	}

	if cfg.MetadataPath == "" {
		return nil, errors.New("METADATA_PATH is required")
	}
	if cfg.SeriesJSONPath != "" && cfg.SeriesEntityID == "" {
		return nil, errors.New("SERIES_JSON_PATH is set but SERIES_ENTITY_ID is not")
	}
	if len(cfg.StationIDs) > 0 {
		if cfg.StationAPIBaseURL == "" {
			return nil, errors.New("STATION_IDS is set but STATION_API_BASE_URL is not")
		}
		cfg.StationStart, err = parseDate("STATION_START")
		if err != nil {
			return nil, err
		}
		cfg.StationEnd, err = parseDate("STATION_END")
		if err != nil {
			return nil, err
		}
		if cfg.StationEnd.Before(cfg.StationStart) {
			return nil, errors.New("STATION_END is before STATION_START")
		}
	}
	if cfg.SeriesJSONPath == "" && cfg.RankingURL == "" && len(cfg.StationIDs) == 0 {
		return nil, errors.New("no sources configured: set at least one of SERIES_JSON_PATH, RANKING_URL, STATION_IDS")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSeasonStart parses an "MM-DD" value such as "06-01".
func parseSeasonStart(s string) (time.Month, int, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid SEASON_START %q: want MM-DD", s)
	}
	return t.Month(), t.Day(), nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required when STATION_IDS is set", key)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, s)
	}
	return t, nil
}
