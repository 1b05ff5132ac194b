// Package cropinfo holds the static per-crop metadata used to enrich
// predictions. It never feeds the classifier.
package cropinfo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agrisense/crop-advisor/internal/season"
)

// Info is the enrichment metadata for one crop.
type Info struct {
	SoilType    string  `yaml:"soil_type" json:"soil_type"`
	MinYield    float64 `yaml:"min_yield" json:"min_yield"`
	MaxYield    float64 `yaml:"max_yield" json:"max_yield"`
	MinPrice    float64 `yaml:"min_price" json:"min_price"`
	MaxPrice    float64 `yaml:"max_price" json:"max_price"`
	Fertilizer  string  `yaml:"fertilizer" json:"fertilizer"`
	Description string  `yaml:"description" json:"description"`
}

// Defaults for crops or fields missing from the table.
const (
	unknownField  = "Unknown"
	noDescription = "No description available"
)

// Table maps crop display names to their metadata.
type Table struct {
	crops map[string]Info
}

// Load reads the crop metadata table from a YAML file keyed by crop
// display name.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crop info: %w", err)
	}
	return ParseBytes(b)
}

// ParseBytes parses YAML crop metadata.
func ParseBytes(b []byte) (*Table, error) {
	crops := make(map[string]Info)
	if err := yaml.Unmarshal(b, &crops); err != nil {
		return nil, fmt.Errorf("failed to parse crop info: %w", err)
	}
	if len(crops) == 0 {
		return nil, fmt.Errorf("crop info table is empty")
	}

	// Normalize keys once so lookups are capitalization-stable.
	normalized := make(map[string]Info, len(crops))
	for name, info := range crops {
		normalized[Capitalize(name)] = info
	}
	return &Table{crops: normalized}, nil
}

// Lookup returns the metadata for a crop, filling defaults for an unknown
// crop or for individual empty fields.
func (t *Table) Lookup(name string) Info {
	info := t.crops[Capitalize(name)]
	if info.SoilType == "" {
		info.SoilType = unknownField
	}
	if info.Fertilizer == "" {
		info.Fertilizer = unknownField
	}
	if info.Description == "" {
		info.Description = noDescription
	}
	return info
}

// Len returns the number of crops in the table.
func (t *Table) Len() int {
	return len(t.crops)
}

// Capitalize uppercases the first rune and lowercases the rest, the
// normalization the crop table keys were written with.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// SeasonCrops lists crops typically grown in each season. Interactive
// surfaces show it as a hint alongside model output.
var SeasonCrops = map[season.Season][]string{
	season.Summer:  {"Maize", "Mango", "Watermelon", "Muskmelon", "Pomegranate"},
	season.Monsoon: {"Rice", "Pigeonpeas", "Blackgram", "Orange", "Jute", "Cotton"},
	season.Winter:  {"Wheat", "Chickpea", "Lentil", "Kidneybeans", "Apple", "Grapes", "Papaya"},
}
