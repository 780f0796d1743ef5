package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	frozen := time.Date(2026, 8, 26, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("offset-dated fahrenheit record", func(t *testing.T) {
		rec := RawRecord{
			Source:    "series_json",
			EntityID:  "tokyo",
			Year:      1876,
			DayOffset: 0,
			Metric:    MetricAverageTemperature,
			Value:     NumberValue(77),
			Unit:      UnitFahrenheit,
		}

		obs, err := Normalize(rec, summerWindow)
		require.NoError(t, err)

		assert.Equal(t, time.Date(1876, 6, 1, 0, 0, 0, 0, time.UTC), obs.Date)
		assert.InDelta(t, 25.0, obs.Value, 1e-9)
		assert.Equal(t, UnitCelsius, obs.Unit)
		assert.Equal(t, "series_json", obs.Source)
		assert.Equal(t, frozen, obs.ProcessedAt)
		assert.Equal(t, "tokyo", obs.Hint.ID)
		assert.Empty(t, obs.ID, "ID is assigned after resolution")
	})

	t.Run("explicitly dated record truncates to midnight", func(t *testing.T) {
		rec := RawRecord{
			Source:     "ranking_html",
			EntityName: "Kumagaya",
			Date:       time.Date(2026, 8, 5, 14, 0, 0, 0, time.UTC),
			HasDate:    true,
			Metric:     MetricMaxTemperature,
			Value:      TextValue("38.9 ]"),
			Unit:       UnitCelsius,
		}

		obs, err := Normalize(rec, summerWindow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), obs.Date)
		assert.Equal(t, 38.9, obs.Value)
		assert.Equal(t, "Kumagaya", obs.Hint.Name)
	})

	t.Run("offset past season length", func(t *testing.T) {
		rec := RawRecord{
			Source: "series_json", EntityID: "tokyo", Year: 1918, DayOffset: 130,
			Metric: MetricAverageTemperature, Value: NumberValue(20), Unit: UnitCelsius,
		}
		_, err := Normalize(rec, summerWindow)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOffsetOutOfRange)

		reason, ok := ExclusionReasonFor(err)
		require.True(t, ok)
		assert.Equal(t, ReasonOffsetOutOfRange, reason)
	})

	t.Run("unparseable value", func(t *testing.T) {
		rec := RawRecord{
			Source: "series_json", EntityID: "tokyo", Year: 1900, DayOffset: 3,
			Metric: MetricAverageTemperature, Value: TextValue("//"), Unit: UnitCelsius,
		}
		_, err := Normalize(rec, summerWindow)
		reason, ok := ExclusionReasonFor(err)
		require.True(t, ok)
		assert.Equal(t, ReasonUnparseableValue, reason)
	})

	t.Run("implausible value", func(t *testing.T) {
		rec := RawRecord{
			Source: "station_api", EntityID: "47662",
			Date: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), HasDate: true,
			Metric: MetricMaxTemperature, Value: NumberValue(999), Unit: UnitCelsius,
		}
		_, err := Normalize(rec, summerWindow)
		reason, ok := ExclusionReasonFor(err)
		require.True(t, ok)
		assert.Equal(t, ReasonImplausibleValue, reason)
	})

	t.Run("unknown metric is a reader bug", func(t *testing.T) {
		rec := RawRecord{Source: "station_api", Metric: Metric("wind_speed"), Value: NumberValue(3)}
		_, err := Normalize(rec, summerWindow)
		assert.ErrorIs(t, err, ErrMalformedSource)
		_, ok := ExclusionReasonFor(err)
		assert.False(t, ok)
	})
}

func TestObservationID_Deterministic(t *testing.T) {
	date := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)

	id1 := ObservationID("47662", date, MetricMaxTemperature)
	id2 := ObservationID("47662", date, MetricMaxTemperature)
	assert.Equal(t, id1, id2)
	assert.Contains(t, id1, "max_temperature-")

	assert.NotEqual(t, id1, ObservationID("47662", date, MetricMinTemperature))
	assert.NotEqual(t, id1, ObservationID("47663", date, MetricMaxTemperature))
}
