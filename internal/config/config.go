package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"

	"eswed/internal/storage/wasabi"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// LogDir, when set, mirrors logs into timestamped files there.
	LogDir string

	Wasabi wasabi.Config

	// PresignTTL bounds download/upload URLs handed to clients.
	PresignTTL time.Duration
	// UploadIdleWindow is how long an upload session may sit idle before the
	// sweeper reaps it.
	UploadIdleWindow time.Duration
	// UploadSweepInterval is how often the sweeper runs.
	UploadSweepInterval time.Duration
}

// Load reads configuration from the environment. An optional YAML file named
// by ESWED_CONFIG_FILE overrides the storage section, for deployments that
// keep bucket credentials out of the process environment.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		LogDir:      getEnv("LOG_DIR", ""),
		Wasabi: wasabi.Config{
			Endpoint:  getEnv("WASABI_ENDPOINT", ""),
			Region:    getEnv("WASABI_REGION", ""),
			Bucket:    getEnv("WASABI_BUCKET", ""),
			AccessKey: getEnv("WASABI_ACCESS_KEY", ""),
			SecretKey: getEnv("WASABI_SECRET_KEY", ""),
		},
		PresignTTL:          getDuration("PRESIGN_TTL_SECONDS", 15*time.Minute),
		UploadIdleWindow:    getDuration("UPLOAD_IDLE_SECONDS", 15*time.Minute),
		UploadSweepInterval: getDuration("UPLOAD_SWEEP_SECONDS", time.Minute),
	}

	if file := os.Getenv("ESWED_CONFIG_FILE"); file != "" {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// fileConfig is the YAML override file shape.
type fileConfig struct {
	Wasabi wasabi.Config `yaml:"wasabi"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Wasabi.Endpoint != "" {
		c.Wasabi.Endpoint = fc.Wasabi.Endpoint
	}
	if fc.Wasabi.Region != "" {
		c.Wasabi.Region = fc.Wasabi.Region
	}
	if fc.Wasabi.Bucket != "" {
		c.Wasabi.Bucket = fc.Wasabi.Bucket
	}
	if fc.Wasabi.AccessKey != "" {
		c.Wasabi.AccessKey = fc.Wasabi.AccessKey
	}
	if fc.Wasabi.SecretKey != "" {
		c.Wasabi.SecretKey = fc.Wasabi.SecretKey
	}

	return nil
}

// getTablePrefix returns the table prefix based on environment.
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}
