// Package config loads service settings from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port     string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"6s" validate:"gt=0"`

	// CloudFetchInterval controls how often configured sites are refreshed.
	CloudFetchInterval time.Duration `envconfig:"CLOUD_FETCH_INTERVAL" default:"30m" validate:"gte=1m"`
	// CloudCacheTTL is how long a stored series answers /api/plan lookups.
	CloudCacheTTL time.Duration `envconfig:"CLOUD_CACHE_TTL" default:"1h" validate:"gte=0"`

	// In-memory store retention.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"48" validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"24h" validate:"gte=0"`    // 0 = unlimited

	SitesFile      string `envconfig:"SITES_FILE"`
	GeocoderAPIKey string `envconfig:"GEOCODER_API_KEY"`
	OpenMeteoURL   string `envconfig:"OPEN_METEO_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"url"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:3005,http://localhost:5173" validate:"dive,url"`

	// SearchWorkers bounds concurrent days in a window search; 0 = GOMAXPROCS.
	SearchWorkers int `envconfig:"SEARCH_WORKERS" default:"0" validate:"gte=0,lte=256"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// Absent .env is not an error.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
