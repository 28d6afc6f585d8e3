package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fertiplan/dataset"
	"fertiplan/nutrient"
)

type Config struct {
	MongoURI      string         `yaml:"mongo_uri"`
	MongoDB       string         `yaml:"mongo_db"`
	TrainerURI    string         `yaml:"trainer_url"`
	JWTSecret     string         `yaml:"jwt_secret"`
	Port          string         `yaml:"port"`
	CORSOrigins   []string       `yaml:"cors_origins"`
	MaxSampleRows int            `yaml:"max_sample_rows"`
	Sampling      dataset.Bounds `yaml:"sampling"`
}

func defaultConfig() Config {
	return Config{
		MongoURI:      "mongodb://localhost:27017",
		MongoDB:       "fertiplan",
		TrainerURI:    "http://127.0.0.1:8000",
		JWTSecret:     "change_me",
		Port:          "8080",
		CORSOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"},
		MaxSampleRows: 50000,
		Sampling:      dataset.DefaultBounds,
	}
}

// loadConfig layers defaults, an optional YAML file and the environment
// (including a .env file), later layers winning.
func loadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path == "" {
		path = os.Getenv("FERTIPLAN_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.MongoURI = getenv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getenv("MONGO_DB", cfg.MongoDB)
	cfg.TrainerURI = getenv("TRAINER_URL", cfg.TrainerURI)
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.Port = getenv("PORT", cfg.Port)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" || c.MongoDB == "" {
		errs = append(errs, errors.New("mongo uri and database are required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}
	if c.MaxSampleRows <= 0 {
		errs = append(errs, errors.New("max_sample_rows must be positive"))
	}
	if _, err := dataset.NewSampler(nutrient.Wheat, c.Sampling); err != nil {
		errs = append(errs, fmt.Errorf("sampling: %w", err))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
