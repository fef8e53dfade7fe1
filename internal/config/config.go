package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	PlacesAPIKey  string `env:"PLACES_API_KEY,notEmpty"`
	PlacesBaseURL string `env:"PLACES_BASE_URL" envDefault:"https://places.googleapis.com"`

	SearchURL        string `env:"SEARCH_URL" envDefault:"http://localhost:8108"`
	SearchAPIKey     string `env:"SEARCH_API_KEY,notEmpty"`
	SearchCollection string `env:"SEARCH_COLLECTION" envDefault:"businesses"`

	Workers      int           `env:"INGEST_WORKERS" envDefault:"2"`
	PollInterval time.Duration `env:"INGEST_POLL_INTERVAL" envDefault:"2s"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
