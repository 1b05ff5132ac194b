// Package district holds the static district table: coordinates plus
// tabulated seasonal rainfall for every district the system knows about.
// The table is loaded once at startup and is read-only afterwards.
package district

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/agrisense/crop-advisor/internal/season"
)

// Coordinates is a validated latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Record is one district's static data.
type Record struct {
	Name     string
	Coords   Coordinates
	Rainfall map[season.Season]float64 // millimeters per seasonal window
}

// Table maps normalized district names to their records.
type Table struct {
	records map[string]Record
}

// expected CSV header; the seasonal columns carry the rainfall windows the
// upstream dataset was tabulated on.
var header = []string{"DISTRICT", "coord", "Mar-May", "Jun-Sep", "Oct-Dec"}

// seasonColumns maps each season to its rainfall column index in the CSV.
var seasonColumns = map[season.Season]int{
	season.Summer:  2, // Mar-May
	season.Monsoon: 3, // Jun-Sep
	season.Winter:  4, // Oct-Dec
}

// Load reads the district table from a CSV file. A malformed row fails the
// load so a corrupted data file is caught at startup, not at request time.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open district table: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the district table from r.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read district table header: %w", err)
	}
	if len(head) != len(header) {
		return nil, fmt.Errorf("district table: expected %d columns, got %d", len(header), len(head))
	}
	for i, want := range header {
		if strings.TrimSpace(head[i]) != want {
			return nil, fmt.Errorf("district table: column %d is %q, want %q", i, head[i], want)
		}
	}

	records := make(map[string]Record)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("district table line %d: %w", line, err)
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, fmt.Errorf("district table line %d: empty district name", line)
		}

		coords, err := parseCoord(row[1])
		if err != nil {
			return nil, fmt.Errorf("district table line %d (%s): %w", line, name, err)
		}

		rainfall := make(map[season.Season]float64, len(seasonColumns))
		for s, col := range seasonColumns {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("district table line %d (%s): bad rainfall %q: %w", line, name, row[col], err)
			}
			if v < 0 {
				return nil, fmt.Errorf("district table line %d (%s): negative rainfall %v", line, name, v)
			}
			rainfall[s] = v
		}

		records[normalize(name)] = Record{Name: name, Coords: coords, Rainfall: rainfall}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("district table is empty")
	}
	return &Table{records: records}, nil
}

// parseCoord parses the stored coordinate cell, a minimal JSON object of the
// form {"lat": 18.52, "lon": 73.85}. Anything else is rejected.
func parseCoord(raw string) (Coordinates, error) {
	var c struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Coordinates{}, fmt.Errorf("bad coord %q: %w", raw, err)
	}
	if c.Lat == nil || c.Lon == nil {
		return Coordinates{}, fmt.Errorf("bad coord %q: lat and lon are required", raw)
	}
	if *c.Lat < -90 || *c.Lat > 90 {
		return Coordinates{}, fmt.Errorf("bad coord %q: latitude out of range", raw)
	}
	if *c.Lon < -180 || *c.Lon > 180 {
		return Coordinates{}, fmt.Errorf("bad coord %q: longitude out of range", raw)
	}
	return Coordinates{Lat: *c.Lat, Lon: *c.Lon}, nil
}

// Resolve maps a district name to its coordinates. The lookup trims
// whitespace and is case-insensitive. A miss is not an error: callers skip
// the district rather than failing the whole request.
func (t *Table) Resolve(name string) (Coordinates, bool) {
	rec, ok := t.records[normalize(name)]
	if !ok {
		return Coordinates{}, false
	}
	return rec.Coords, true
}

// SeasonalRainfall returns the tabulated rainfall for a district and season.
// ok is false when the district or season is unknown; orchestration treats
// that as 0 while presentation layers may report "no data".
func (t *Table) SeasonalRainfall(name string, s season.Season) (float64, bool) {
	rec, ok := t.records[normalize(name)]
	if !ok {
		return 0, false
	}
	v, ok := rec.Rainfall[s]
	if !ok {
		return 0, false
	}
	return v, true
}

// Len returns the number of known districts.
func (t *Table) Len() int {
	return len(t.records)
}

// Names returns the display names of all known districts.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.records))
	for _, rec := range t.records {
		names = append(names, rec.Name)
	}
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
