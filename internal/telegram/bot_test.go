package telegram

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agrisense/crop-advisor/internal/advisor"
	"github.com/agrisense/crop-advisor/internal/cropinfo"
	"github.com/agrisense/crop-advisor/internal/district"
	"github.com/agrisense/crop-advisor/internal/meteo"
	"github.com/agrisense/crop-advisor/internal/model"
	"github.com/agrisense/crop-advisor/internal/season"
)

type stubClimate struct {
	bySeason map[season.Season]meteo.Averages
}

func (s *stubClimate) SeasonalAverages(_ context.Context, _ district.Coordinates, sn season.Season) (meteo.Averages, bool) {
	avg, ok := s.bySeason[sn]
	return avg, ok
}

func testAdvisor(t *testing.T, climate advisor.ClimateProvider) *advisor.Advisor {
	t.Helper()
	districts, err := district.Parse(strings.NewReader(
		"DISTRICT,coord,Mar-May,Jun-Sep,Oct-Dec\nPUNE,\"{\"\"lat\"\": 18.52, \"\"lon\"\": 73.86}\",120,560,210\n"))
	if err != nil {
		t.Fatalf("district.Parse: %v", err)
	}
	crops, err := cropinfo.ParseBytes([]byte("Rice:\n  soil_type: Clayey\nWheat:\n  soil_type: Loamy\n"))
	if err != nil {
		t.Fatalf("cropinfo.ParseBytes: %v", err)
	}

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
	ranker, err := model.Load(
		write("scaler.json", model.Scaler{
			Features: []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"},
			Mean:     make([]float64, 7),
			Scale:    []float64{1, 1, 1, 1, 1, 1, 1},
		}),
		write("label_encoder.json", model.LabelEncoder{Classes: []string{"rice", "wheat"}}),
		write("crop_model.json", model.Ensemble{
			NumClass:  2,
			Trees:     []model.Tree{leaf(1), leaf(2)},
			TreeClass: []int{0, 1},
		}),
	)
	if err != nil {
		t.Fatalf("model.Load: %v", err)
	}
	return advisor.New(districts, climate, ranker, crops)
}

func allSeasons() *stubClimate {
	return &stubClimate{bySeason: map[season.Season]meteo.Averages{
		season.Summer:  {TemperatureC: 32, HumidityPct: 55},
		season.Monsoon: {TemperatureC: 27, HumidityPct: 85},
		season.Winter:  {TemperatureC: 21, HumidityPct: 60},
	}}
}

func TestNewBot_EmptyToken(t *testing.T) {
	bot, err := NewBot("", testAdvisor(t, allSeasons()))
	if err != nil {
		t.Fatalf("expected no error for empty token, got: %v", err)
	}
	if !bot.disabled {
		t.Error("expected bot to be disabled when token is empty")
	}
}

func TestHandle_Help(t *testing.T) {
	bot := &Bot{advisor: testAdvisor(t, allSeasons()), disabled: true}
	for _, text := range []string{"/start", "/help", "hello", ""} {
		reply := bot.Handle(context.Background(), text)
		if !strings.Contains(reply, "/crops") {
			t.Errorf("Handle(%q): expected help text, got %q", text, reply)
		}
	}
}

func TestHandle_Crops(t *testing.T) {
	bot := &Bot{advisor: testAdvisor(t, allSeasons()), disabled: true}
	reply := bot.Handle(context.Background(), "/crops Pune 40 30 15 6.5")

	for _, want := range []string{"PUNE", "SUMMER", "MONSOON", "WINTER", "Wheat"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
}

func TestHandle_Crops_SkippedSeasonWarning(t *testing.T) {
	climate := allSeasons()
	delete(climate.bySeason, season.Winter)
	bot := &Bot{advisor: testAdvisor(t, climate), disabled: true}

	reply := bot.Handle(context.Background(), "/crops Pune")
	if !strings.Contains(reply, "WINTER: WARNING") {
		t.Errorf("expected WINTER warning line, got:\n%s", reply)
	}
	if !strings.Contains(reply, "SUMMER") {
		t.Errorf("other seasons should still appear:\n%s", reply)
	}
}

func TestHandle_Crops_BadSoilValue(t *testing.T) {
	bot := &Bot{advisor: testAdvisor(t, allSeasons()), disabled: true}
	reply := bot.Handle(context.Background(), "/crops Pune forty")
	if !strings.Contains(reply, "Bad soil value") {
		t.Errorf("expected soil value error, got %q", reply)
	}
}

func TestHandle_Crops_UnknownDistrict(t *testing.T) {
	bot := &Bot{advisor: testAdvisor(t, allSeasons()), disabled: true}
	reply := bot.Handle(context.Background(), "/crops Atlantis")
	if !strings.Contains(reply, "No recommendations") {
		t.Errorf("expected no-recommendations message, got %q", reply)
	}
}

func TestHandle_Weather(t *testing.T) {
	bot := &Bot{advisor: testAdvisor(t, allSeasons()), disabled: true}
	reply := bot.Handle(context.Background(), "/weather Pune")

	for _, want := range []string{"32.00°C", "85.00%", "210 mm"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
}

func TestHandle_MissingArgs(t *testing.T) {
	bot := &Bot{advisor: testAdvisor(t, allSeasons()), disabled: true}
	if reply := bot.Handle(context.Background(), "/crops"); !strings.Contains(reply, "Usage") {
		t.Errorf("expected usage message, got %q", reply)
	}
	if reply := bot.Handle(context.Background(), "/weather"); !strings.Contains(reply, "Usage") {
		t.Errorf("expected usage message, got %q", reply)
	}
}

func TestRun_DisabledFails(t *testing.T) {
	bot := &Bot{disabled: true}
	if err := bot.Run(context.Background()); err == nil {
		t.Error("expected Run to fail for a disabled bot")
	}
}
