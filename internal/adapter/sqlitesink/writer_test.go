package sqlitesink

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testObservations(t *testing.T) []domain.Observation {
	t.Helper()
	date := time.Date(1876, time.June, 1, 0, 0, 0, 0, time.UTC)
	obs := []domain.Observation{
		{
			EntityID:     "47662",
			Date:         date,
			Metric:       domain.MetricAverageTemperature,
			Value:        25.0,
			Unit:         domain.UnitCelsius,
			Source:       "series_json",
			DisplayName:  "Tokyo",
			ParentRegion: "Tokyo",
			ProcessedAt:  time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC),
		},
		{
			EntityID:     "47626",
			Date:         date,
			Metric:       domain.MetricMaxTemperature,
			Value:        38.2,
			Unit:         domain.UnitCelsius,
			Source:       "ranking_html",
			DisplayName:  "Kumagaya",
			ParentRegion: "Saitama",
			ProcessedAt:  time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC),
		},
	}
	for i := range obs {
		obs[i].ID = domain.ObservationID(obs[i].EntityID, obs[i].Date, obs[i].Metric)
	}
	return obs
}

func TestWriterRoundTrip(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "observations.db"), discardLogger())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	obs := testObservations(t)
	require.NoError(t, w.WriteTable(ctx, obs))

	n, err := w.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriterIdempotentRerun(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "observations.db"), discardLogger())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	obs := testObservations(t)
	require.NoError(t, w.WriteTable(ctx, obs))
	require.NoError(t, w.WriteTable(ctx, obs))

	n, err := w.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "re-running the same batch must not duplicate rows")
}

func TestWriterIgnoresDuplicateTriple(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "observations.db"), discardLogger())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	obs := testObservations(t)
	require.NoError(t, w.WriteTable(ctx, obs))

	// Same (entity, date, metric) arriving from another source keeps the
	// stored row.
	dupe := obs[0]
	dupe.Source = "station_api"
	dupe.Value = 99.0
	require.NoError(t, w.WriteTable(ctx, []domain.Observation{dupe}))

	n, err := w.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriterEmptyBatch(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "observations.db"), discardLogger())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteTable(context.Background(), nil))
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "observations.db"), discardLogger())
	assert.Error(t, err)
}
