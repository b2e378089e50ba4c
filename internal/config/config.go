package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting of the service.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Retention RetentionConfig
	Ledger    LedgerConfig
	Names     NamesConfig
	Log       LogConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// StorageConfig locates templates and generated documents on disk.
type StorageConfig struct {
	TemplateDir string
	OutputDir   string
}

// RetentionConfig controls how long generated documents stay available.
type RetentionConfig struct {
	IndexPath     string
	Window        time.Duration
	SweepInterval time.Duration
}

// LedgerConfig points at the submission ledger file.
type LedgerConfig struct {
	Path string
}

// NamesConfig points at the optional field-name dictionary file.
type NamesConfig struct {
	File string
}

// LogConfig selects the logger's level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	retentionDays := 7
	if override, err := parseOptionalIntEnv("RETENTION_DAYS"); err != nil {
		return nil, err
	} else if override != nil {
		if *override < 1 {
			return nil, fmt.Errorf("RETENTION_DAYS must be at least 1, got %d", *override)
		}
		retentionDays = *override
	}

	sweepMinutes := 60
	if override, err := parseOptionalIntEnv("SWEEP_INTERVAL_MINUTES"); err != nil {
		return nil, err
	} else if override != nil {
		if *override < 1 {
			return nil, fmt.Errorf("SWEEP_INTERVAL_MINUTES must be at least 1, got %d", *override)
		}
		sweepMinutes = *override
	}

	outputDir := getEnvOrDefault("OUTPUT_DIR", "generated")

	return &Config{
		Server: server,
		Storage: StorageConfig{
			TemplateDir: getEnvOrDefault("TEMPLATE_DIR", "templates"),
			OutputDir:   outputDir,
		},
		Retention: RetentionConfig{
			IndexPath:     getEnvOrDefault("RETENTION_INDEX", outputDir+"/retention.json"),
			Window:        time.Duration(retentionDays) * 24 * time.Hour,
			SweepInterval: time.Duration(sweepMinutes) * time.Minute,
		},
		Ledger: LedgerConfig{
			Path: getEnvOrDefault("LEDGER_PATH", outputDir+"/submissions.json"),
		},
		Names: NamesConfig{
			File: strings.TrimSpace(os.Getenv("FIELD_NAMES_FILE")),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}
	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	return ServerConfig{Addr: ":" + port}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
