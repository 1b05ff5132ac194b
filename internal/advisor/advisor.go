// Package advisor implements the per-season recommendation loop shared by
// the HTTP, bot, and CLI surfaces: resolve climate, look up rainfall,
// assemble the feature vector, rank crops, enrich the result.
package advisor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/agrisense/crop-advisor/internal/cropinfo"
	"github.com/agrisense/crop-advisor/internal/district"
	"github.com/agrisense/crop-advisor/internal/meteo"
	"github.com/agrisense/crop-advisor/internal/model"
	"github.com/agrisense/crop-advisor/internal/season"
)

// Soil input defaults applied when the caller omits a value.
const (
	DefaultN  = 50.0
	DefaultP  = 30.0
	DefaultK  = 40.0
	DefaultPH = 6.5
)

// ClimateProvider yields seasonal temperature/humidity averages. ok=false
// means "no data for this season", never an error.
type ClimateProvider interface {
	SeasonalAverages(ctx context.Context, coords district.Coordinates, s season.Season) (meteo.Averages, bool)
}

// Advisor wires the static tables, the climate provider, and the ranking
// engine together. All fields are read-only after construction, so one
// Advisor serves concurrent requests.
type Advisor struct {
	districts *district.Table
	climate   ClimateProvider
	ranker    *model.Ranker
	crops     *cropinfo.Table
}

// New creates an Advisor over already-loaded collaborators.
func New(districts *district.Table, climate ClimateProvider, ranker *model.Ranker, crops *cropinfo.Table) *Advisor {
	return &Advisor{districts: districts, climate: climate, ranker: ranker, crops: crops}
}

// RecommendRequest carries the caller's district and optional soil inputs.
type RecommendRequest struct {
	District string
	N        *float64
	P        *float64
	K        *float64
	PH       *float64
}

// CropRecommendation is one enriched ranked crop.
type CropRecommendation struct {
	Name        string  `json:"name"`
	SoilType    string  `json:"soil_type"`
	MinYield    float64 `json:"min_yield"`
	MaxYield    float64 `json:"max_yield"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	Fertilizer  string  `json:"fertilizer"`
	Description string  `json:"description"`
	Confidence  string  `json:"confidence"`
}

// Recommend runs the per-season loop for all three seasons. A season with
// no climate data is omitted from the result; the others are unaffected.
func (a *Advisor) Recommend(ctx context.Context, req RecommendRequest) map[season.Season][]CropRecommendation {
	out := make(map[season.Season][]CropRecommendation)
	for _, s := range season.All() {
		if recs, ok := a.RecommendSeason(ctx, req, s); ok {
			out[s] = recs
		}
	}
	return out
}

// RecommendSeason runs one season of the loop. ok=false means the season
// had no climate data and was skipped.
func (a *Advisor) RecommendSeason(ctx context.Context, req RecommendRequest, s season.Season) ([]CropRecommendation, bool) {
	coords, ok := a.districts.Resolve(req.District)
	if !ok {
		return nil, false
	}
	avg, ok := a.climate.SeasonalAverages(ctx, coords, s)
	if !ok {
		return nil, false
	}
	rainfall, _ := a.districts.SeasonalRainfall(req.District, s) // miss -> 0

	features := model.FeatureVector{
		N:           orDefault(req.N, DefaultN),
		P:           orDefault(req.P, DefaultP),
		K:           orDefault(req.K, DefaultK),
		Temperature: avg.TemperatureC,
		Humidity:    avg.HumidityPct,
		PH:          orDefault(req.PH, DefaultPH),
		Rainfall:    rainfall,
	}

	preds := a.ranker.Rank(features)
	recs := make([]CropRecommendation, 0, len(preds))
	for _, p := range preds {
		name := cropinfo.Capitalize(p.Crop)
		info := a.crops.Lookup(name)
		recs = append(recs, CropRecommendation{
			Name:        name,
			SoilType:    info.SoilType,
			MinYield:    info.MinYield,
			MaxYield:    info.MaxYield,
			MinPrice:    info.MinPrice,
			MaxPrice:    info.MaxPrice,
			Fertilizer:  info.Fertilizer,
			Description: info.Description,
			Confidence:  FormatConfidence(p.Probability),
		})
	}
	return recs, true
}

// WeatherSummary is one season's formatted climate figures.
type WeatherSummary struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Rainfall    string `json:"rainfall"`
}

// SeasonalWeather returns formatted per-season climate for a district. The
// first season whose data cannot be fetched fails the whole call; the
// weather surface reports fetch problems instead of hiding them.
func (a *Advisor) SeasonalWeather(ctx context.Context, name string) (map[season.Season]WeatherSummary, error) {
	out := make(map[season.Season]WeatherSummary, 3)
	for _, s := range season.All() {
		coords, ok := a.districts.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("could not fetch data for %s in %s", name, s)
		}
		avg, ok := a.climate.SeasonalAverages(ctx, coords, s)
		if !ok {
			return nil, fmt.Errorf("could not fetch data for %s in %s", name, s)
		}
		rainfall, _ := a.districts.SeasonalRainfall(name, s)
		out[s] = WeatherSummary{
			Temperature: fmt.Sprintf("%.2f°C", avg.TemperatureC),
			Humidity:    fmt.Sprintf("%.2f%%", avg.HumidityPct),
			Rainfall:    FormatRainfall(rainfall),
		}
	}
	return out, nil
}

// Rainfall exposes the table lookup for the rainfall surface, which
// distinguishes "no data" from zero.
func (a *Advisor) Rainfall(name string, s season.Season) (float64, bool) {
	return a.districts.SeasonalRainfall(name, s)
}

// FormatConfidence renders a probability as a percentage with two decimals.
func FormatConfidence(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// FormatRainfall renders a rainfall figure as "N mm" without trailing zeros.
func FormatRainfall(mm float64) string {
	return strconv.FormatFloat(mm, 'f', -1, 64) + " mm"
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
