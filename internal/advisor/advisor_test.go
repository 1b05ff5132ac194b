package advisor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/agrisense/crop-advisor/internal/cropinfo"
	"github.com/agrisense/crop-advisor/internal/district"
	"github.com/agrisense/crop-advisor/internal/meteo"
	"github.com/agrisense/crop-advisor/internal/model"
	"github.com/agrisense/crop-advisor/internal/season"
)

// stubClimate returns canned averages per season; seasons absent from the
// map yield ok=false.
type stubClimate struct {
	bySeason map[season.Season]meteo.Averages
	calls    []season.Season
}

func (s *stubClimate) SeasonalAverages(_ context.Context, _ district.Coordinates, sn season.Season) (meteo.Averages, bool) {
	s.calls = append(s.calls, sn)
	avg, ok := s.bySeason[sn]
	return avg, ok
}

const districtsCSV = `DISTRICT,coord,Mar-May,Jun-Sep,Oct-Dec
PUNE,"{""lat"": 18.5204, ""lon"": 73.8567}",120,560,210
`

const cropYAML = `
Rice:
  soil_type: Clayey
  min_yield: 3
  max_yield: 5.5
  min_price: 1800
  max_price: 2400
  fertilizer: Urea
  description: Kharif staple.
Wheat:
  soil_type: Loamy
  min_yield: 2.5
  max_yield: 4.5
  min_price: 2000
  max_price: 2600
  fertilizer: NPK
  description: Rabi cereal.
`

// testRanker builds a 3-class model whose class margins are constants, so
// the ranking is predictable: wheat > rice > maize.
func testRanker(t *testing.T) *model.Ranker {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, v any) string {
		p := filepath.Join(dir, name)
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, b, 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	leaf := func(v float64) model.Tree {
		return model.Tree{Feature: []int{-1}, Threshold: []float64{0}, Left: []int{0}, Right: []int{0}, Value: []float64{v}}
	}

	sp := write("scaler.json", model.Scaler{
		Features: []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"},
		Mean:     make([]float64, 7),
		Scale:    []float64{1, 1, 1, 1, 1, 1, 1},
	})
	ep := write("label_encoder.json", model.LabelEncoder{Classes: []string{"rice", "wheat", "maize"}})
	mp := write("crop_model.json", model.Ensemble{
		NumClass:  3,
		Trees:     []model.Tree{leaf(2), leaf(3), leaf(1)},
		TreeClass: []int{0, 1, 2},
	})

	r, err := model.Load(sp, ep, mp)
	if err != nil {
		t.Fatalf("model.Load: %v", err)
	}
	return r
}

func newAdvisor(t *testing.T, climate ClimateProvider) *Advisor {
	t.Helper()
	districts, err := district.Parse(strings.NewReader(districtsCSV))
	if err != nil {
		t.Fatalf("district.Parse: %v", err)
	}
	crops, err := cropinfo.ParseBytes([]byte(cropYAML))
	if err != nil {
		t.Fatalf("cropinfo.ParseBytes: %v", err)
	}
	return New(districts, climate, testRanker(t), crops)
}

func allSeasonsClimate() *stubClimate {
	return &stubClimate{bySeason: map[season.Season]meteo.Averages{
		season.Summer:  {TemperatureC: 32, HumidityPct: 55, Samples: 100},
		season.Monsoon: {TemperatureC: 27, HumidityPct: 85, Samples: 100},
		season.Winter:  {TemperatureC: 21, HumidityPct: 60, Samples: 100},
	}}
}

var confidenceRe = regexp.MustCompile(`^\d+\.\d{2}%$`)

func TestRecommend_AllSeasons(t *testing.T) {
	a := newAdvisor(t, allSeasonsClimate())
	res := a.Recommend(context.Background(), RecommendRequest{District: "Pune"})

	if len(res) != 3 {
		t.Fatalf("expected 3 seasons, got %d: %v", len(res), res)
	}
	for _, s := range season.All() {
		recs, ok := res[s]
		if !ok {
			t.Fatalf("season %s missing", s)
		}
		if len(recs) == 0 || len(recs) > 3 {
			t.Fatalf("season %s: expected 1-3 recommendations, got %d", s, len(recs))
		}
		if recs[0].Name != "Wheat" {
			t.Errorf("season %s: top crop = %s, want Wheat", s, recs[0].Name)
		}
		for _, r := range recs {
			if !confidenceRe.MatchString(r.Confidence) {
				t.Errorf("confidence %q does not match NN.NN%%", r.Confidence)
			}
		}
	}
}

func TestRecommend_Enrichment(t *testing.T) {
	a := newAdvisor(t, allSeasonsClimate())
	res := a.Recommend(context.Background(), RecommendRequest{District: "Pune"})

	recs := res[season.Summer]
	byName := map[string]CropRecommendation{}
	for _, r := range recs {
		byName[r.Name] = r
	}

	wheat := byName["Wheat"]
	if wheat.SoilType != "Loamy" || wheat.Fertilizer != "NPK" {
		t.Errorf("wheat enrichment wrong: %+v", wheat)
	}

	// Maize has no crop-info entry; fields fall back to defaults.
	maize := byName["Maize"]
	if maize.SoilType != "Unknown" || maize.Description != "No description available" {
		t.Errorf("maize should carry defaults, got %+v", maize)
	}
	if maize.MinYield != 0 || maize.MaxPrice != 0 {
		t.Errorf("maize numeric defaults wrong: %+v", maize)
	}
}

func TestRecommend_SkipsSeasonWithoutClimate(t *testing.T) {
	climate := allSeasonsClimate()
	delete(climate.bySeason, season.Winter)

	a := newAdvisor(t, climate)
	res := a.Recommend(context.Background(), RecommendRequest{District: "Pune"})

	if _, ok := res[season.Winter]; ok {
		t.Error("WINTER should be absent when climate data is missing")
	}
	if len(res) != 2 {
		t.Errorf("expected the other 2 seasons, got %d", len(res))
	}
	for _, s := range []season.Season{season.Summer, season.Monsoon} {
		if _, ok := res[s]; !ok {
			t.Errorf("season %s should still be computed", s)
		}
	}
}

func TestRecommend_UnknownDistrictIsEmpty(t *testing.T) {
	climate := allSeasonsClimate()
	a := newAdvisor(t, climate)
	res := a.Recommend(context.Background(), RecommendRequest{District: "Atlantis"})
	if len(res) != 0 {
		t.Errorf("expected empty result for unknown district, got %v", res)
	}
	if len(climate.calls) != 0 {
		t.Errorf("climate should not be queried for unknown district, got %d calls", len(climate.calls))
	}
}

func TestSeasonalWeather(t *testing.T) {
	a := newAdvisor(t, allSeasonsClimate())
	w, err := a.SeasonalWeather(context.Background(), "pune")
	if err != nil {
		t.Fatalf("SeasonalWeather: %v", err)
	}

	summer := w[season.Summer]
	if summer.Temperature != "32.00°C" {
		t.Errorf("Temperature = %q, want 32.00°C", summer.Temperature)
	}
	if summer.Humidity != "55.00%" {
		t.Errorf("Humidity = %q, want 55.00%%", summer.Humidity)
	}
	if summer.Rainfall != "120 mm" {
		t.Errorf("Rainfall = %q, want 120 mm", summer.Rainfall)
	}
}

func TestSeasonalWeather_FetchFailure(t *testing.T) {
	climate := allSeasonsClimate()
	delete(climate.bySeason, season.Monsoon)

	a := newAdvisor(t, climate)
	if _, err := a.SeasonalWeather(context.Background(), "Pune"); err == nil {
		t.Error("expected error when a season cannot be fetched")
	}
}

func TestFormatRainfall(t *testing.T) {
	tests := map[float64]string{
		0:      "0 mm",
		120:    "120 mm",
		560.25: "560.25 mm",
	}
	for in, want := range tests {
		if got := FormatRainfall(in); got != want {
			t.Errorf("FormatRainfall(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatConfidence(t *testing.T) {
	if got := FormatConfidence(0.87654); got != "87.65%" {
		t.Errorf("FormatConfidence = %q, want 87.65%%", got)
	}
	if got := FormatConfidence(1); got != "100.00%" {
		t.Errorf("FormatConfidence = %q, want 100.00%%", got)
	}
}

func TestSoilInputDefaults(t *testing.T) {
	n := 12.5
	if got := orDefault(&n, DefaultN); got != 12.5 {
		t.Errorf("orDefault with value = %v, want 12.5", got)
	}
	if got := orDefault(nil, DefaultPH); got != DefaultPH {
		t.Errorf("orDefault nil = %v, want %v", got, DefaultPH)
	}
}
