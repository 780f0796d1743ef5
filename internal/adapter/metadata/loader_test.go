package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

func writeMeta(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeMeta(t, `[
		{"id": "47662", "name": "Tokyo", "region": "Kanto", "lat": 35.6917, "lon": 139.75},
		{"id": "47759", "name": "Kyoto", "region": "Kinki", "lat": 35.0139, "lon": 135.7328}
	]`)

	stations, err := Load(path)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "47662", stations[0].EntityID)
	assert.Equal(t, "Kanto", stations[0].ParentRegion)
	assert.Equal(t, 135.7328, stations[1].Lon)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeMeta(t, `{"not": "an array"}`))
	assert.ErrorIs(t, err, domain.ErrMalformedSource)
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(writeMeta(t, `[]`))
	assert.ErrorIs(t, err, domain.ErrMalformedSource)
}

func TestLoad_InvalidRow(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		_, err := Load(writeMeta(t, `[{"name": "Tokyo", "lat": 35.7, "lon": 139.75}]`))
		assert.ErrorIs(t, err, domain.ErrMalformedSource)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		_, err := Load(writeMeta(t, `[{"id": "x", "name": "Tokyo", "lat": 135.7, "lon": 139.75}]`))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedSource)
		assert.Contains(t, err.Error(), "latitude")
	})
}
