// Package stationapi queries a remote station-measurement API for
// per-day readings over a date range.
package stationapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

// Client talks to the station measurement API. Requests are rate-limited
// so scraping a long date range stays polite to the upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a station API client. requestsPerSec bounds the
// request rate across all stations and pages.
func NewClient(baseURL string, timeout time.Duration, requestsPerSec float64, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:     logger,
	}
}

// StationInfo is the station block each response page repeats.
type StationInfo struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Reading is one day of measurements. Values stay in the Value union:
// the API serves numbers but historical backfills contain quoted strings
// and missing marks.
type Reading struct {
	Date    string       `json:"date"` // YYYY-MM-DD
	AvgTemp domain.Value `json:"avg_temp"`
	MaxTemp domain.Value `json:"max_temp"`
	MinTemp domain.Value `json:"min_temp"`
	RH      domain.Value `json:"rh"` // relative humidity, percent
}

type dailyResponse struct {
	Station  StationInfo `json:"station"`
	Readings []Reading   `json:"readings"`
	NextPage *int        `json:"next_page"`
}

// FetchDaily retrieves every reading for one station in [start, end],
// following pagination until next_page is null.
func (c *Client) FetchDaily(ctx context.Context, stationID string, start, end time.Time) (StationInfo, []Reading, error) {
	var (
		info     StationInfo
		readings []Reading
		page     = 1
	)

	for {
		resp, err := c.fetchPage(ctx, stationID, start, end, page)
		if err != nil {
			return StationInfo{}, nil, err
		}
		info = resp.Station
		readings = append(readings, resp.Readings...)

		if resp.NextPage == nil {
			break
		}
		if *resp.NextPage <= page {
			return StationInfo{}, nil, fmt.Errorf("%w: station %s: next_page %d does not advance",
				domain.ErrMalformedSource, stationID, *resp.NextPage)
		}
		page = *resp.NextPage
	}

	c.logger.Debug("station readings fetched", "station", stationID, "readings", len(readings))
	return info, readings, nil
}

func (c *Client) fetchPage(ctx context.Context, stationID string, start, end time.Time, page int) (dailyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return dailyResponse{}, fmt.Errorf("%w: station %s: %v", domain.ErrSourceUnavailable, stationID, err)
	}

	params := url.Values{
		"start": {start.Format("2006-01-02")},
		"end":   {end.Format("2006-01-02")},
		"page":  {fmt.Sprint(page)},
	}
	u := fmt.Sprintf("%s/v1/stations/%s/daily?%s", c.baseURL, url.PathEscape(stationID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return dailyResponse{}, fmt.Errorf("%w: station %s: %v", domain.ErrSourceUnavailable, stationID, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dailyResponse{}, fmt.Errorf("%w: station %s: %v", domain.ErrSourceUnavailable, stationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return dailyResponse{}, fmt.Errorf("%w: station %s: status %d: %s",
			domain.ErrSourceUnavailable, stationID, resp.StatusCode, body)
	}

	var out dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dailyResponse{}, fmt.Errorf("%w: station %s: decode: %v", domain.ErrMalformedSource, stationID, err)
	}
	return out, nil
}
