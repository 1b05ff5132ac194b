// Package app performs startup initialization: it loads the static tables
// and model artifacts once and wires the advisor all surfaces share. Any
// missing or incompatible artifact is a startup failure, so a broken
// deployment refuses to start instead of failing at request time.
package app

import (
	"fmt"
	"log"
	"net/http"

	"github.com/agrisense/crop-advisor/internal/advisor"
	"github.com/agrisense/crop-advisor/internal/config"
	"github.com/agrisense/crop-advisor/internal/cropinfo"
	"github.com/agrisense/crop-advisor/internal/district"
	"github.com/agrisense/crop-advisor/internal/meteo"
	"github.com/agrisense/crop-advisor/internal/model"
)

// BuildAdvisor loads everything the advisor needs and returns it ready to
// serve. The result is immutable and safe to share across goroutines.
func BuildAdvisor(cfg *config.Config) (*advisor.Advisor, error) {
	districts, err := district.Load(cfg.DistrictsPath)
	if err != nil {
		return nil, fmt.Errorf("district table: %w", err)
	}
	log.Printf("[app] loaded %d districts from %s", districts.Len(), cfg.DistrictsPath)

	crops, err := cropinfo.Load(cfg.CropInfoPath)
	if err != nil {
		return nil, fmt.Errorf("crop info: %w", err)
	}
	log.Printf("[app] loaded %d crops from %s", crops.Len(), cfg.CropInfoPath)

	ranker, err := model.Load(cfg.ScalerPath, cfg.EncoderPath, cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("model artifacts: %w", err)
	}
	log.Printf("[app] loaded classifier with %d classes", ranker.Classes())

	climate := meteo.NewClientWith(
		cfg.WeatherBaseURL,
		&http.Client{Timeout: cfg.WeatherTimeout},
		cfg.WeatherRetries,
		cfg.WeatherCacheTTL,
	)

	return advisor.New(districts, climate, ranker, crops), nil
}
