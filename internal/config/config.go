// =============================================================================
// Labor Ledger - Configuration Module
// =============================================================================
//
// This module loads the process-level configuration (config.yaml plus
// environment overrides) and defines the admin configuration that the
// console persists in its own store.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (path from --config)
//   3. Environment variables (a .env file is loaded first if present)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the --config default. A missing file at this path is
// not an error; defaults apply.
const DefaultConfigPath = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// STORAGE SETTINGS
	// =========================================================================

	// Store selects and configures the durable key-value backend.
	Store StoreConfig `yaml:"store"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where exports and error logs are written.
	// Default: "./exports"
	OutputDir string `yaml:"output_dir"`

	// ArchiveByDate files archived uploads under archive/YYYY/MM/DD.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	// LogFile, when set, receives log output instead of stderr.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// HTTP CONSOLE SETTINGS
	// =========================================================================

	Server ServerConfig `yaml:"server"`

	// =========================================================================
	// SPREADSHEET SETTINGS
	// =========================================================================

	// CSV configures the delimited-text reader.
	CSV CSVSettings `yaml:"csv"`

	// Mappings override header synonyms per record kind. Each entry maps a
	// logical field (date, site, worker, ...) to candidate headers.
	Mappings MappingConfig `yaml:"mappings"`
}

// StoreConfig configures the durable key-value backend.
type StoreConfig struct {
	// Backend is file, sqlite, redis or memory.
	// Default: "file"
	Backend string `yaml:"backend" validate:"oneof=file sqlite redis memory"`

	// Path is the data directory (file) or database file (sqlite).
	// Default: "./data"
	Path string `yaml:"path"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`

	// KeyPrefix namespaces redis keys.
	// Default: "ledger:"
	KeyPrefix string `yaml:"key_prefix"`
}

// ServerConfig configures `ledger serve`.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// MaxUploadMB bounds multipart uploads.
	// Default: 10
	MaxUploadMB int64 `yaml:"max_upload_mb" validate:"gte=0"`
}

// CSVSettings configures the delimited-text reader.
type CSVSettings struct {
	// Delimiter is "," (default), ";", "tab" or "|".
	Delimiter string `yaml:"delimiter"`
}

// MappingConfig holds per-kind header synonym overrides.
type MappingConfig struct {
	Work    map[string][]string `yaml:"work"`
	Expense map[string][]string `yaml:"expense"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and environment overrides, then validates the result.
//
// PARAMETERS:
//   - configPath: The path to the main config.yaml file.
//
// RETURNS:
//   - A pointer to the loaded MainConfig.
//   - An error if the file cannot be read, parsed or validated. A missing
//     file at DefaultConfigPath is tolerated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigPath:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	applyEnvOverrides(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Store.Backend == "" {
		config.Store.Backend = "file"
	}
	if config.Store.Path == "" {
		config.Store.Path = "./data"
	}
	if config.Store.RedisAddr == "" {
		config.Store.RedisAddr = "localhost:6379"
	}
	if config.Store.KeyPrefix == "" {
		config.Store.KeyPrefix = "ledger:"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./exports"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 10
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
}

// applyEnvOverrides lets the environment win over the file.
func applyEnvOverrides(config *MainConfig) {
	if v := strings.TrimSpace(os.Getenv("LEDGER_STORE_BACKEND")); v != "" {
		config.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_STORE_PATH")); v != "" {
		config.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_REDIS_ADDR")); v != "" {
		config.Store.RedisAddr = v
	}
	if v := os.Getenv("LEDGER_REDIS_PASSWORD"); v != "" {
		config.Store.RedisPassword = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_REDIS_DB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Store.RedisDB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_OUTPUT_DIR")); v != "" {
		config.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_LOG_LEVEL")); v != "" {
		config.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_SERVER_ADDR")); v != "" {
		config.Server.Addr = v
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if err := validate.Struct(config); err != nil {
		return err
	}
	switch config.CSV.Delimiter {
	case ",", ";", "|", "tab", "\t":
	default:
		return fmt.Errorf("unsupported csv delimiter %q", config.CSV.Delimiter)
	}
	return nil
}

// validate is shared by every struct check in this package.
var validate = validator.New()
