package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	Admin         string
	Treasury      string
	TrustedTokens []string

	RelayerURL       string
	RelayerAuthToken string

	ArchiveBucket   string
	ArchivePrefix   string
	AWSRegion       string
	S3Endpoint      string
	AWSAccessKeyID  string
	AWSSecretKey    string
	ArchiveInterval time.Duration

	PollInterval   time.Duration
	RelayBatchSize int

	EnableTransferRelay bool
	EnableEventRelay    bool
	EnableEventArchiver bool
}

func Load() (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "nearshield"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	pollInterval, err := envDuration("WORKER_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	archiveInterval, err := envDuration("ARCHIVE_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := envInt("RELAY_BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		Admin:         strings.TrimSpace(os.Getenv("NEARSHIELD_ADMIN")),
		Treasury:      strings.TrimSpace(os.Getenv("NEARSHIELD_TREASURY")),
		TrustedTokens: envList("TRUSTED_TOKENS"),

		RelayerURL:       strings.TrimSpace(os.Getenv("RELAYER_URL")),
		RelayerAuthToken: os.Getenv("RELAYER_AUTH_TOKEN"),

		ArchiveBucket:   strings.TrimSpace(os.Getenv("EVENT_ARCHIVE_BUCKET")),
		ArchivePrefix:   strings.TrimSpace(os.Getenv("EVENT_ARCHIVE_PREFIX")),
		AWSRegion:       strings.TrimSpace(os.Getenv("AWS_REGION")),
		S3Endpoint:      strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		AWSAccessKeyID:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		ArchiveInterval: archiveInterval,

		PollInterval:   pollInterval,
		RelayBatchSize: batchSize,

		EnableTransferRelay: envBool("ENABLE_TRANSFER_RELAY", true),
		EnableEventRelay:    envBool("ENABLE_EVENT_RELAY", true),
		EnableEventArchiver: envBool("ENABLE_EVENT_ARCHIVER", true),
	}
	if cfg.Admin == "" {
		return Config{}, fmt.Errorf("NEARSHIELD_ADMIN is required")
	}
	if cfg.Treasury == "" {
		cfg.Treasury = cfg.Admin
	}
	return cfg, nil
}

// loadEnvFiles applies .env then .env.local; real environment wins over .env,
// .env.local wins over both.
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}
	return nil
}

func envList(name string) []string {
	var items []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return value, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
