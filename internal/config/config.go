package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	Port string

	// Static data and model artifacts
	DistrictsPath string
	CropInfoPath  string
	ScalerPath    string
	EncoderPath   string
	ModelPath     string

	// Weather archive client
	WeatherBaseURL  string
	WeatherTimeout  time.Duration
	WeatherRetries  int
	WeatherCacheTTL time.Duration

	// Telegram bot (optional for the server, required for cmd/bot)
	TelegramBotToken string
}

// Load reads configuration from the environment, with .env support.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional if env vars are set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		Port:            getEnvString("PORT", "5001"),
		DistrictsPath:   getEnvString("DISTRICTS_PATH", "data/districts.csv"),
		CropInfoPath:    getEnvString("CROP_INFO_PATH", "data/crop_info.yaml"),
		ScalerPath:      getEnvString("SCALER_PATH", "models/scaler.json"),
		EncoderPath:     getEnvString("LABEL_ENCODER_PATH", "models/label_encoder.json"),
		ModelPath:       getEnvString("CROP_MODEL_PATH", "models/crop_model.json"),
		WeatherBaseURL:  getEnvString("WEATHER_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		WeatherTimeout:  getEnvDuration("WEATHER_TIMEOUT", 30*time.Second),
		WeatherRetries:  getEnvInt("WEATHER_RETRIES", 5),
		WeatherCacheTTL: getEnvDuration("WEATHER_CACHE_TTL", time.Hour),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	return cfg, nil
}

// HasTelegram returns true if the Telegram bot is configured.
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != ""
}

// Validate performs runtime validation of config values.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.WeatherTimeout <= 0 {
		return errors.New("WEATHER_TIMEOUT must be positive")
	}
	if c.WeatherRetries < 0 {
		return errors.New("WEATHER_RETRIES must be non-negative")
	}
	if c.WeatherCacheTTL <= 0 {
		return errors.New("WEATHER_CACHE_TTL must be positive")
	}
	return nil
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvString(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
