package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/log"
	"finanzas/internal/services/storage"
)

const DefaultPlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr string
	Debug      bool

	// Directories
	DataDirectory      string
	TemplatesDirectory string
	StaticDirectory    string

	// Storage
	StorageBackend string
	SQLitePath     string

	// Advisor and confirmation timings
	AdvisorDelay  time.Duration
	AdvisorTTL    time.Duration
	ConfirmWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Encryption password for non-interactive unlock
	EncryptPassword string

	// Where plotly.min.js is fetched from before it is cached under DataDirectory
	PlotlyURL string
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:         ":8080",
		DataDirectory:      filepath.Join(wd, "data"),
		TemplatesDirectory: filepath.Join(wd, "web", "templates"),
		StaticDirectory:    filepath.Join(wd, "web", "static"),
		StorageBackend:     storage.BackendFile,
		SQLitePath:         filepath.Join(wd, "data", "finanzas.db"),
		PlotlyURL:          DefaultPlotlyURL,
		AdvisorDelay:       1500 * time.Millisecond,
		AdvisorTTL:         120 * time.Second,
		ConfirmWindow:      3 * time.Second,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// LoadEnvFile loads a .env file for local development. A missing file is not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads configuration from the environment on top of the defaults
func Load() *Config {
	cfg := DefaultConfig()

	cfg.ListenAddr = getEnv("FINANZAS_LISTEN_ADDR", cfg.ListenAddr)
	cfg.Debug = getEnvBool("FINANZAS_DEBUG", cfg.Debug)

	if dataDir := os.Getenv("FINANZAS_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
		cfg.SQLitePath = filepath.Join(dataDir, "finanzas.db")
	}
	cfg.TemplatesDirectory = getEnv("FINANZAS_TEMPLATES_DIR", cfg.TemplatesDirectory)
	cfg.StaticDirectory = getEnv("FINANZAS_STATIC_DIR", cfg.StaticDirectory)

	cfg.StorageBackend = getEnv("FINANZAS_STORAGE", cfg.StorageBackend)
	cfg.SQLitePath = getEnv("FINANZAS_SQLITE_PATH", cfg.SQLitePath)

	cfg.AdvisorDelay = getEnvDuration("FINANZAS_ADVISOR_DELAY", cfg.AdvisorDelay)
	cfg.AdvisorTTL = getEnvDuration("FINANZAS_ADVISOR_TTL", cfg.AdvisorTTL)
	cfg.ConfirmWindow = getEnvDuration("FINANZAS_CONFIRM_WINDOW", cfg.ConfirmWindow)

	cfg.LogLevel = getEnv("FINANZAS_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("FINANZAS_LOG_FORMAT", cfg.LogFormat)
	if cfg.Debug && os.Getenv("FINANZAS_LOG_LEVEL") == "" {
		cfg.LogLevel = "debug"
	}

	cfg.EncryptPassword = os.Getenv("FINANZAS_ENCRYPT_PASSWORD")
	cfg.PlotlyURL = getEnv("FINANZAS_PLOTLY_URL", cfg.PlotlyURL)

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.ListenAddr == "" {
		errors = append(errors, "listen address cannot be empty")
	} else if i := strings.LastIndex(c.ListenAddr, ":"); i < 0 {
		errors = append(errors, fmt.Sprintf("invalid listen address '%s': missing port", c.ListenAddr))
	} else if port, err := strconv.Atoi(c.ListenAddr[i+1:]); err != nil {
		errors = append(errors, fmt.Sprintf("invalid listen address '%s': port must be a number", c.ListenAddr))
	} else if port < 0 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 0 and 65535", port))
	}

	if c.DataDirectory == "" {
		errors = append(errors, "data directory cannot be empty")
	}

	validBackends := []string{storage.BackendFile, storage.BackendSQLite}
	if !slices.Contains(validBackends, c.StorageBackend) {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}
	if c.StorageBackend == storage.BackendSQLite && c.SQLitePath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.AdvisorDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid advisor delay %v: must not be negative", c.AdvisorDelay))
	}
	if c.AdvisorTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid advisor lifetime %v: must be at least 1 second", c.AdvisorTTL))
	}
	if c.ConfirmWindow < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid confirm window %v: must be at least 100ms", c.ConfirmWindow))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// StorageOptions maps the configuration onto storage.Open
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:    c.StorageBackend,
		Dir:        c.DataDirectory,
		SQLitePath: c.SQLitePath,
	}
}

// LogConfig maps the configuration onto log.New
func (c *Config) LogConfig(component string) log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(c.LogLevel)
	cfg.Format = c.LogFormat
	cfg.Component = component
	return cfg
}

// EnsureDirectories creates the data directory if it doesn't exist
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.DataDirectory, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", c.DataDirectory, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
