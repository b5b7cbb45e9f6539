// Package config loads console configuration from defaults, an optional TOML
// file, and environment variables, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the console settings.
type Config struct {
	// PanelURL is the base URL of the panel API, e.g. "https://panel.example.com/api".
	PanelURL string `toml:"panel_url"`
	// TokenFile is where the session credential is persisted between runs.
	TokenFile string `toml:"token_file"`
	// RequestTimeout bounds every remote call. Zero disables the timeout.
	RequestTimeout time.Duration `toml:"request_timeout"`
	// StatusInterval is the node liveness poll period in watch mode.
	StatusInterval time.Duration `toml:"status_interval"`
	// LogLevel is one of debug, info, warning, error.
	LogLevel string `toml:"log_level"`
}

const (
	defaultPanelURL       = "http://127.0.0.1:8080/api"
	defaultRequestTimeout = 15 * time.Second
	defaultStatusInterval = 30 * time.Second
	defaultLogLevel       = "info"
)

func defaultConfig() Config {
	return Config{
		PanelURL:       defaultPanelURL,
		TokenFile:      filepath.Join(configDir(), "token"),
		RequestTimeout: defaultRequestTimeout,
		StatusInterval: defaultStatusInterval,
		LogLevel:       defaultLogLevel,
	}
}

func configDir() string {
	if dir := os.Getenv("ZEN_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zenctl"
	}
	return filepath.Join(home, ".config", "zenctl")
}

// DefaultFile returns the default config file path.
func DefaultFile() string {
	return filepath.Join(configDir(), "config.toml")
}

// Load reads configuration from file (if present) and the environment.
// A missing file is not an error; a malformed one is.
func Load(file string) (Config, error) {
	// .env beside the binary, same as the panel does. Missing is fine.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if file == "" {
		file = DefaultFile()
	}
	data, err := os.ReadFile(file)
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ZEN_PANEL_URL"); v != "" {
		cfg.PanelURL = v
	}
	if v := os.Getenv("ZEN_TOKEN_FILE"); v != "" {
		cfg.TokenFile = v
	}
	if v := os.Getenv("ZEN_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("ZEN_STATUS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StatusInterval = d
		}
	}
	if v := os.Getenv("ZEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
