package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config is the process-level configuration, read from the environment.
type Config struct {
	DatabaseURL string
	Port        string
	LogLevel    string
}

// Load reads the environment, first merging .env.local if present.
func Load() *Config {
	_ = godotenv.Load(".env.local")

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        getEnv("PORT", "5050"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Sources describes one ingestion run: where the two CSV extracts live and
// which country the hierarchy belongs to.
type Sources struct {
	Gazetteer string `yaml:"gazetteer"`
	Mapper    string `yaml:"mapper"`
	Country   struct {
		Name    string `yaml:"name"`
		ISOCode string `yaml:"iso_code"`
	} `yaml:"country"`
	BatchSize int `yaml:"batch_size"`
}

// LoadSources parses a sources YAML file.
func LoadSources(path string) (*Sources, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var s Sources
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if s.Gazetteer == "" || s.Mapper == "" {
		return nil, fmt.Errorf("sources file must set gazetteer and mapper paths")
	}
	if s.Country.Name == "" {
		s.Country.Name = "INDIA"
		s.Country.ISOCode = "IN"
	}
	return &s, nil
}
