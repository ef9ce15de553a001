package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		DataDirectory:  "./data",
		StorageBackend: "file",
		AdvisorDelay:   1500 * time.Millisecond,
		AdvisorTTL:     120 * time.Second,
		ConfirmWindow:  3 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid file backend config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid sqlite backend config",
			modify: func(c *Config) {
				c.StorageBackend = "sqlite"
				c.SQLitePath = "./data/finanzas.db"
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.ListenAddr = ":abc" },
			wantErr:     true,
			errorString: "port must be a number",
		},
		{
			name:        "invalid port - out of range",
			modify:      func(c *Config) { c.ListenAddr = ":70000" },
			wantErr:     true,
			errorString: "invalid port 70000",
		},
		{
			name:        "missing port",
			modify:      func(c *Config) { c.ListenAddr = "localhost" },
			wantErr:     true,
			errorString: "missing port",
		},
		{
			name:        "invalid storage backend",
			modify:      func(c *Config) { c.StorageBackend = "postgres" },
			wantErr:     true,
			errorString: "invalid storage backend 'postgres'",
		},
		{
			name: "sqlite without path",
			modify: func(c *Config) {
				c.StorageBackend = "sqlite"
				c.SQLitePath = ""
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "advisor lifetime too short",
			modify:      func(c *Config) { c.AdvisorTTL = 10 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid advisor lifetime",
		},
		{
			name:        "negative advisor delay",
			modify:      func(c *Config) { c.AdvisorDelay = -time.Second },
			wantErr:     true,
			errorString: "invalid advisor delay",
		},
		{
			name:        "confirm window too short",
			modify:      func(c *Config) { c.ConfirmWindow = time.Millisecond },
			wantErr:     true,
			errorString: "invalid confirm window",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "invalid log format",
			modify:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() expected error but got none")
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Validate() error = %v, want containing %q", err, tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.StorageBackend = "nope"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n- "); n != 2 {
		t.Errorf("expected 2 aggregated errors, got %d: %v", n, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"FINANZAS_LISTEN_ADDR", "FINANZAS_DEBUG", "FINANZAS_DATA_DIR", "FINANZAS_STORAGE",
		"FINANZAS_SQLITE_PATH", "FINANZAS_ADVISOR_TTL", "FINANZAS_LOG_LEVEL", "FINANZAS_PLOTLY_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StorageBackend != "file" {
		t.Errorf("StorageBackend = %q", cfg.StorageBackend)
	}
	if cfg.AdvisorTTL != 120*time.Second || cfg.ConfirmWindow != 3*time.Second {
		t.Errorf("timings = %v, %v", cfg.AdvisorTTL, cfg.ConfirmWindow)
	}
	if cfg.PlotlyURL != DefaultPlotlyURL {
		t.Errorf("PlotlyURL = %q", cfg.PlotlyURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FINANZAS_LISTEN_ADDR", ":9090")
	t.Setenv("FINANZAS_DATA_DIR", dir)
	t.Setenv("FINANZAS_STORAGE", "sqlite")
	t.Setenv("FINANZAS_SQLITE_PATH", "")
	t.Setenv("FINANZAS_ADVISOR_TTL", "30s")
	t.Setenv("FINANZAS_ADVISOR_DELAY", "not-a-duration")
	t.Setenv("FINANZAS_DEBUG", "true")
	t.Setenv("FINANZAS_LOG_LEVEL", "")

	cfg := Load()
	if cfg.ListenAddr != ":9090" || cfg.DataDirectory != dir {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SQLitePath != filepath.Join(dir, "finanzas.db") {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.AdvisorTTL != 30*time.Second {
		t.Errorf("AdvisorTTL = %v", cfg.AdvisorTTL)
	}
	if cfg.AdvisorDelay != 1500*time.Millisecond {
		t.Errorf("bad duration should keep default, got %v", cfg.AdvisorDelay)
	}
	if !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("debug = %v, level = %q", cfg.Debug, cfg.LogLevel)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINANZAS_CONFIRM_WINDOW=5s\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINANZAS_CONFIRM_WINDOW", "")
	os.Unsetenv("FINANZAS_CONFIRM_WINDOW")

	LoadEnvFile(path)
	if got := Load().ConfirmWindow; got != 5*time.Second {
		t.Errorf("ConfirmWindow = %v", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := validConfig()
	cfg.DataDirectory = filepath.Join(t.TempDir(), "nested", "data")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(cfg.DataDirectory); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
}
