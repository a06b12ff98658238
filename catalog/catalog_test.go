package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoflaresat/globeview/geo"
)

const header = "Country;Capital City;Latitude;Longitude;Population\n"

func TestLoad_Paris(t *testing.T) {
	markers, skipped, err := Load(header+"FR;Paris;48.85;2.35;2148\n", 15)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, markers, 1)

	m := markers[0]
	assert.Equal(t, geo.Project(48.85, 2.35, 15), m.Position)
	assert.Equal(t, GeoRecord{
		Country:         "FR",
		Capital:         "Paris",
		Latitude:        48.85,
		Longitude:       2.35,
		Population:      2148,
		PopulationKnown: true,
	}, m.Record)
	assert.False(t, m.Highlighted)
	assert.Equal(t, BaseColor, m.Color)
}

func TestLoad_SkipsBadCoordinates(t *testing.T) {
	text := header +
		"France;Paris;48.85;2.35;2148\n" +
		"Nowhere;Ghost;north;2.0;1\n" +
		"Limbo;Void;10;NaN;1\n" +
		"Short;Row;10\n" +
		"\n" +
		"Japan;Tokyo;35.69;139.69;37833\n"

	markers, skipped, err := Load(text, 15)
	require.NoError(t, err)

	require.Len(t, markers, 2)
	assert.Equal(t, "Paris", markers[0].Record.Capital)
	assert.Equal(t, "Tokyo", markers[1].Record.Capital)

	require.Len(t, skipped, 3)
	assert.Equal(t, SkippedRecord{Line: 3, Country: "Nowhere", Capital: "Ghost", Field: "latitude", Raw: "north"}, skipped[0])
	assert.Equal(t, "longitude", skipped[1].Field)
	assert.Equal(t, "NaN", skipped[1].Raw)
	assert.Equal(t, 5, skipped[2].Line)
	assert.Equal(t, "longitude", skipped[2].Field)
	assert.Contains(t, skipped[0].Error(), "invalid latitude \"north\"")
}

func TestLoad_UnknownPopulationKeepsRecord(t *testing.T) {
	markers, skipped, err := Load(header+"Vatican;Vatican City;41.9;12.45;n/a\nMonaco;Monaco;43.73;7.42\n", 15)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, markers, 2)
	for _, m := range markers {
		assert.False(t, m.Record.PopulationKnown)
		assert.Equal(t, "unknown", m.Record.PopulationLabel())
	}
}

func TestLoad_DecimalPopulationTruncates(t *testing.T) {
	markers, _, err := Load(header+"Palau;Melekeok;7.5;134.62;0.3\nX;Y;1;1;1234.9\n", 15)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, "0", markers[0].Record.PopulationLabel())
	assert.Equal(t, int64(1234), markers[1].Record.Population)
}

func TestLoad_QuotedNames(t *testing.T) {
	markers, _, err := Load(header+"\"Korea; Republic of\";Seoul;37.57;126.98;9774\n", 15)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "Korea; Republic of", markers[0].Record.Country)
}

func TestLoad_Malformed(t *testing.T) {
	_, _, err := Load(header+"\"France;Paris;48.85;2.35;2148\n", 15)
	require.Error(t, err)
}

func TestLoad_HeaderOnlyAndEmpty(t *testing.T) {
	markers, skipped, err := Load(header, 15)
	require.NoError(t, err)
	assert.Empty(t, markers)
	assert.Empty(t, skipped)

	markers, _, err = Load("", 15)
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestMarkerHighlight(t *testing.T) {
	m := NewMarker(GeoRecord{Latitude: 1, Longitude: 2}, 15)
	m.Highlight()
	assert.True(t, m.Highlighted)
	assert.Equal(t, HighlightColor, m.Color)
	m.Reset()
	assert.False(t, m.Highlighted)
	assert.Equal(t, BaseColor, m.Color)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capitals.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"Peru;Lima;-12.06;-77.04;9722\n"), 0o644))

	markers, _, err := LoadFile(path, 15)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "Lima", markers[0].Record.Capital)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), 15)
	assert.Error(t, err)
}
