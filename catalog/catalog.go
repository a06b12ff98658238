// Package catalog turns the capital-cities dataset into markers placed on the
// globe.
//
// The dataset is a delimiter-separated file with a header row and the columns
// country, capital, latitude, longitude, population. Latitude and longitude
// are decimal degrees; population is shown as-is and never interpreted.
package catalog

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/csvtext"
	"github.com/echoflaresat/globeview/geo"
	"github.com/echoflaresat/globeview/vectors"
)

// Delimiter used by the reference dataset.
const Delimiter = ';'

// Column indices in a dataset row.
const (
	ColCountry = iota
	ColCapital
	ColLatitude
	ColLongitude
	ColPopulation
)

// MarkerRadius is the radius of the sphere drawn for each city.
const MarkerRadius = 0.15

var (
	BaseColor      = colors.Red()
	HighlightColor = colors.Green()
)

// GeoRecord is one city row of the dataset.
type GeoRecord struct {
	Country    string
	Capital    string
	Latitude   float64
	Longitude  float64
	Population int64
	// PopulationKnown is false when the population column was missing or
	// not a number.
	PopulationKnown bool
}

// PopulationLabel returns the population for display, or "unknown".
func (r GeoRecord) PopulationLabel() string {
	if !r.PopulationKnown {
		return "unknown"
	}
	return strconv.FormatInt(r.Population, 10)
}

// Marker is a city placed on the globe. Position is in the globe's local
// frame, so markers turn together with the globe.
type Marker struct {
	Position    vectors.Vec3
	Record      GeoRecord
	Highlighted bool
	Color       colors.Color4
}

// NewMarker places r on a sphere of the given radius.
func NewMarker(r GeoRecord, radius float64) *Marker {
	return &Marker{
		Position: geo.Project(r.Latitude, r.Longitude, radius),
		Record:   r,
		Color:    BaseColor,
	}
}

// Highlight switches the marker to its hover color.
func (m *Marker) Highlight() {
	m.Highlighted = true
	m.Color = HighlightColor
}

// Reset restores the marker's base color.
func (m *Marker) Reset() {
	m.Highlighted = false
	m.Color = BaseColor
}

// SkippedRecord describes a dataset row that could not be placed on the globe.
type SkippedRecord struct {
	Line    int // 1-based row number in the file, header included
	Country string
	Capital string
	Field   string
	Raw     string
}

func (s SkippedRecord) Error() string {
	return fmt.Sprintf("line %d (%s, %s): invalid %s %q", s.Line, s.Country, s.Capital, s.Field, s.Raw)
}

// Load parses a dataset and returns one marker per usable row, in file order.
// The first row is the header. Rows whose latitude or longitude is not a
// finite number are reported in skipped instead of being placed. Blank rows
// are ignored.
func Load(text string, radius float64) (markers []*Marker, skipped []SkippedRecord, err error) {
	rows, err := csvtext.Parse(text, Delimiter)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, bad := ParseRecord(row)
		if bad != nil {
			bad.Line = i + 2
			skipped = append(skipped, *bad)
			continue
		}
		markers = append(markers, NewMarker(rec, radius))
	}
	return markers, skipped, nil
}

// LoadFile reads and loads the dataset at path.
func LoadFile(path string, radius float64) ([]*Marker, []SkippedRecord, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.NewSectionReader(r, 0, int64(r.Len())))
	if err != nil {
		return nil, nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return Load(string(data), radius)
}

// ParseRecord converts one data row. The returned SkippedRecord is non-nil
// when the row cannot be positioned; its Line is left for the caller.
func ParseRecord(row []string) (GeoRecord, *SkippedRecord) {
	rec := GeoRecord{
		Country: column(row, ColCountry),
		Capital: column(row, ColCapital),
	}

	var ok bool
	if rec.Latitude, ok = parseCoordinate(column(row, ColLatitude)); !ok {
		return GeoRecord{}, rec.skip("latitude", column(row, ColLatitude))
	}
	if rec.Longitude, ok = parseCoordinate(column(row, ColLongitude)); !ok {
		return GeoRecord{}, rec.skip("longitude", column(row, ColLongitude))
	}
	rec.Population, rec.PopulationKnown = parsePopulation(column(row, ColPopulation))
	return rec, nil
}

func (r GeoRecord) skip(field, raw string) *SkippedRecord {
	return &SkippedRecord{Country: r.Country, Capital: r.Capital, Field: field, Raw: raw}
}

func column(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parsePopulation accepts integers and truncates decimals, the way the
// figures are printed in the source data.
func parsePopulation(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
