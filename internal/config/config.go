package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port         string
	ModelPath    string
	MetadataPath string
	LibraryPath  string
	LogLevel     log.Level
	GinMode      string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getenv("PORT", "8080"),
		ModelPath:    getenv("MODEL_PATH", "models/mnist-8.onnx"),
		MetadataPath: os.Getenv("METADATA_PATH"),
		LibraryPath:  os.Getenv("ORT_LIBRARY_PATH"),
		GinMode:      getenv("GIN_MODE", "debug"),
	}

	level, err := log.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid LOG_LEVEL")
	}
	cfg.LogLevel = level

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
