package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	JWTSecret  string
	ServerPort string

	// JWTSecretSet is false when JWT_SECRET came from the built-in default.
	JWTSecretSet bool

	AllowOrigins string
	PublicURL    string
	SiteURL      string

	StoragePath       string
	StorageSigningKey string

	LogFormat string
	LogLevel  string

	AnalyticsConfigPath string
	Analytics           AnalyticsConfig
}

// AnalyticsConfig is read from the YAML file at ANALYTICS_CONFIG.
type AnalyticsConfig struct {
	TestUserIDs []string       `yaml:"test_user_ids"`
	Palette     []string       `yaml:"palette"`
	WindowDays  int            `yaml:"window_days"`
	UseRPC      bool           `yaml:"use_rpc"`
	Snapshot    SnapshotConfig `yaml:"snapshot"`
}

type SnapshotConfig struct {
	Enabled  bool   `yaml:"enabled"`
	At       string `yaml:"at"`
	Timezone string `yaml:"timezone"`
	Limit    int    `yaml:"limit"`
}

// DefaultPalette is the series colour order used by the dashboard charts.
var DefaultPalette = []string{
	"#3b82f6",
	"#ef4444",
	"#10b981",
	"#f59e0b",
	"#8b5cf6",
	"#ec4899",
	"#14b8a6",
	"#f97316",
}

func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		Palette:    append([]string(nil), DefaultPalette...),
		WindowDays: 30,
		Snapshot: SnapshotConfig{
			Enabled:  true,
			At:       "00:05",
			Timezone: "UTC",
			Limit:    10,
		},
	}
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	jwtSecret, jwtSecretSet := os.LookupEnv("JWT_SECRET")
	jwtSecretSet = jwtSecretSet && jwtSecret != ""
	if !jwtSecretSet {
		jwtSecret = "secret"
	}
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "shelfcontrol"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		JWTSecret:  jwtSecret,
		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecretSet: jwtSecretSet,

		AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8080"),
		SiteURL:      getEnv("SITE_URL", "https://shelfcontrol.app"),

		StoragePath:       getEnv("STORAGE_PATH", "./data/avatars"),
		StorageSigningKey: getEnv("STORAGE_SIGNING_KEY", jwtSecret),

		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AnalyticsConfigPath: getEnv("ANALYTICS_CONFIG", "analytics.yaml"),
	}

	analytics, err := LoadAnalytics(cfg.AnalyticsConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Analytics = analytics

	if v, ok := os.LookupEnv("ANALYTICS_USE_RPC"); ok {
		useRPC, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ANALYTICS_USE_RPC %q: %w", v, err)
		}
		cfg.Analytics.UseRPC = useRPC
	}

	return cfg, nil
}

var ErrJWTSecretUnset = errors.New("JWT_SECRET is not set")

// RequireJWTSecret fails when tokens would be verified with the default secret.
func (c *Config) RequireJWTSecret() error {
	if !c.JWTSecretSet {
		return ErrJWTSecretUnset
	}
	return nil
}

// LoadAnalytics reads the analytics YAML file. A missing file yields the defaults.
func LoadAnalytics(path string) (AnalyticsConfig, error) {
	analytics := DefaultAnalytics()
	if path == "" {
		return analytics, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return analytics, nil
	}
	if err != nil {
		return analytics, fmt.Errorf("read analytics config: %w", err)
	}

	if err := yaml.Unmarshal(data, &analytics); err != nil {
		return analytics, fmt.Errorf("parse analytics config %s: %w", path, err)
	}

	if len(analytics.Palette) == 0 {
		analytics.Palette = append([]string(nil), DefaultPalette...)
	}
	if analytics.WindowDays <= 0 {
		analytics.WindowDays = 30
	}
	if analytics.Snapshot.At == "" {
		analytics.Snapshot.At = "00:05"
	}
	if analytics.Snapshot.Timezone == "" {
		analytics.Snapshot.Timezone = "UTC"
	}
	if analytics.Snapshot.Limit <= 0 {
		analytics.Snapshot.Limit = 10
	}
	if _, err := time.LoadLocation(analytics.Snapshot.Timezone); err != nil {
		return analytics, fmt.Errorf("invalid snapshot timezone %q: %w", analytics.Snapshot.Timezone, err)
	}
	for _, id := range analytics.TestUserIDs {
		if _, err := uuid.Parse(id); err != nil {
			return analytics, fmt.Errorf("invalid test user id %q: %w", id, err)
		}
	}

	return analytics, nil
}

// DSN builds the Postgres connection string for gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
