package stationapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

func TestReader_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := dailyResponse{
			Station: tokyoStation(),
			Readings: []Reading{
				{
					Date:    "2026-06-01",
					AvgTemp: domain.NumberValue(22.1),
					MaxTemp: domain.NumberValue(26.4),
					MinTemp: domain.NumberValue(18.9),
					RH:      domain.NumberValue(61),
				},
				{Date: "2026-06-02", MaxTemp: domain.TextValue("27.0 )")},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	r := NewReader(testClient(srv.URL), []string{"47662"}, testStart, testEnd, discardLogger())
	records, err := r.Read(context.Background())
	require.NoError(t, err)

	// 4 fields on day one, 1 on day two.
	require.Len(t, records, 5)

	metrics := make(map[domain.Metric]int)
	for _, rec := range records {
		metrics[rec.Metric]++
		assert.Equal(t, "station_api", rec.Source)
		assert.Equal(t, "47662", rec.EntityID)
		assert.Equal(t, "Tokyo", rec.EntityName)
		assert.True(t, rec.HasCoords)
		assert.True(t, rec.HasDate)
	}
	assert.Equal(t, 1, metrics[domain.MetricAverageTemperature])
	assert.Equal(t, 2, metrics[domain.MetricMaxTemperature])
	assert.Equal(t, 1, metrics[domain.MetricMinTemperature])
	assert.Equal(t, 1, metrics[domain.MetricRelativeHumidity])
}

func TestReader_Read_MultipleStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := dailyResponse{
			Readings: []Reading{{Date: "2026-06-01", AvgTemp: domain.NumberValue(20)}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	r := NewReader(testClient(srv.URL), []string{"47662", "47759"}, testStart, testEnd, discardLogger())
	records, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Station block omitted entirely: the requested ID stands in, and no
	// coordinate hint is claimed.
	assert.Equal(t, "47662", records[0].EntityID)
	assert.Equal(t, "47759", records[1].EntityID)
	assert.False(t, records[0].HasCoords)
}

func TestReader_Read_BadReadingDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := dailyResponse{
			Station:  tokyoStation(),
			Readings: []Reading{{Date: "06/01", AvgTemp: domain.NumberValue(20)}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	r := NewReader(testClient(srv.URL), []string{"47662"}, testStart, testEnd, discardLogger())
	_, err := r.Read(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedSource)
}

func TestReader_Read_StationFailureFailsReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewReader(testClient(srv.URL), []string{"47662"}, testStart, testEnd, discardLogger())
	_, err := r.Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
