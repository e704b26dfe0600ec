package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urbanflux/complaints-etl/internal/models"
)

type Config struct {
	DatabaseURL    string
	ChunkSize      int
	Mode           models.RunMode
	InputPath      string
	SourceEncoding string
	HTTPAddr       string
	DryRun         bool
}

func New() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL:    databaseURL,
		ChunkSize:      100000,
		Mode:           models.ModeFull,
		InputPath:      os.Getenv("ETL_INPUT_PATH"),
		SourceEncoding: os.Getenv("ETL_SOURCE_ENCODING"),
		HTTPAddr:       ":8080",
	}

	var err error
	cfg.ChunkSize, err = getEnvAsInt("ETL_CHUNK_SIZE", cfg.ChunkSize)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("ETL_CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}

	if modeStr := os.Getenv("ETL_MODE"); modeStr != "" {
		cfg.Mode, err = models.ParseRunMode(modeStr)
		if err != nil {
			return nil, err
		}
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	cfg.DryRun, err = getEnvAsBool("ETL_DRY_RUN", false)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}

	return value, nil
}
