package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summerWindow = SeasonWindow{StartMonth: time.June, StartDay: 1, Length: 122}

func TestSeasonWindow_DateFor(t *testing.T) {
	t.Run("consecutive dates from season start", func(t *testing.T) {
		want := []time.Time{
			time.Date(1876, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(1876, 6, 2, 0, 0, 0, 0, time.UTC),
			time.Date(1876, 6, 3, 0, 0, 0, 0, time.UTC),
		}
		for offset, expected := range want {
			d, err := summerWindow.DateFor(1876, offset)
			require.NoError(t, err)
			assert.Equal(t, expected, d)
		}
	})

	t.Run("full window is strictly increasing consecutive dates", func(t *testing.T) {
		prev, err := summerWindow.DateFor(2026, 0)
		require.NoError(t, err)
		for offset := 1; offset < summerWindow.Length; offset++ {
			d, err := summerWindow.DateFor(2026, offset)
			require.NoError(t, err)
			assert.Equal(t, prev.AddDate(0, 0, 1), d)
			prev = d
		}
		// Jun 1 + 121 days = Sep 30.
		assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), prev)
	})

	t.Run("offset past declared length", func(t *testing.T) {
		_, err := summerWindow.DateFor(2026, 122)
		assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	})

	t.Run("negative offset", func(t *testing.T) {
		_, err := summerWindow.DateFor(2026, -1)
		assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	})

	t.Run("leap year calendar arithmetic", func(t *testing.T) {
		w := SeasonWindow{StartMonth: time.February, StartDay: 25, Length: 10}

		d, err := w.DateFor(2024, 4) // 2024 is a leap year
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

		d, err = w.DateFor(2023, 4)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), d)
	})
}

func TestSeasonWindow_Validate(t *testing.T) {
	require.NoError(t, summerWindow.Validate())

	assert.Error(t, SeasonWindow{StartMonth: 0, StartDay: 1, Length: 10}.Validate())
	assert.Error(t, SeasonWindow{StartMonth: time.June, StartDay: 0, Length: 10}.Validate())
	assert.Error(t, SeasonWindow{StartMonth: time.June, StartDay: 1, Length: 0}.Validate())
	// Feb 30 normalizes to March under calendar arithmetic; reject it.
	assert.Error(t, SeasonWindow{StartMonth: time.February, StartDay: 30, Length: 10}.Validate())
}

func TestSeasonWindow_Contains(t *testing.T) {
	assert.True(t, summerWindow.Contains(time.Date(1876, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, summerWindow.Contains(time.Date(2026, 9, 30, 12, 30, 0, 0, time.UTC)))
	assert.False(t, summerWindow.Contains(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, summerWindow.Contains(time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)))
}
