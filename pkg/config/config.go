package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for breedmirror
type Config struct {
	// Catalog holds settings for the dog breed catalog API
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Storage holds settings for the cloud storage API
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Mirror holds settings for the mirroring run itself
	Mirror MirrorConfig `yaml:"mirror" json:"mirror"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APILimitConfig describes one request rate budget for an API
type APILimitConfig struct {
	Period      time.Duration `yaml:"period" json:"period"`
	MaxRequests int           `yaml:"max_requests" json:"max_requests"`
}

// CatalogConfig holds settings for the breed catalog API
type CatalogConfig struct {
	APIRoot        string           `yaml:"api_root" json:"api_root"`
	Limits         []APILimitConfig `yaml:"limits" json:"limits"`
	ConnectTimeout time.Duration    `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout    time.Duration    `yaml:"read_timeout" json:"read_timeout"`
}

// StorageConfig holds settings for the cloud storage API
type StorageConfig struct {
	APIRoot        string           `yaml:"api_root" json:"api_root"`
	OAuthToken     string           `yaml:"oauth_token" json:"oauth_token"`
	Limits         []APILimitConfig `yaml:"limits" json:"limits"`
	ConnectTimeout time.Duration    `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout    time.Duration    `yaml:"read_timeout" json:"read_timeout"`

	// Bounded retry for 423 Locked responses after mutations
	UnlockAttempts int           `yaml:"unlock_attempts" json:"unlock_attempts"`
	UnlockDelay    time.Duration `yaml:"unlock_delay" json:"unlock_delay"`

	// Polling for asynchronous (202 Accepted) operations. A zero
	// OperationMaxWait keeps polling without bound.
	OperationPollInterval time.Duration `yaml:"operation_poll_interval" json:"operation_poll_interval"`
	OperationMaxWait      time.Duration `yaml:"operation_max_wait" json:"operation_max_wait"`
}

// MirrorConfig holds settings for the mirroring run
type MirrorConfig struct {
	RemoteBaseDir string `yaml:"remote_base_dir" json:"remote_base_dir"`
	ReportPath    string `yaml:"report_path" json:"report_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			APIRoot: "https://dog.ceo/api",
			Limits: []APILimitConfig{
				{Period: time.Second, MaxRequests: 10},
			},
			// The catalog API sometimes takes a long time to respond
			ConnectTimeout: 21050 * time.Millisecond,
			ReadTimeout:    40 * time.Second,
		},
		Storage: StorageConfig{
			APIRoot: "https://cloud-api.yandex.net/v1",
			Limits: []APILimitConfig{
				// Clause 2.2 of the Yandex.Disk API terms of use
				{Period: time.Second, MaxRequests: 40},
			},
			ConnectTimeout:        3050 * time.Millisecond,
			ReadTimeout:           27 * time.Second,
			UnlockAttempts:        20,
			UnlockDelay:           200 * time.Millisecond,
			OperationPollInterval: 200 * time.Millisecond,
			OperationMaxWait:      0,
		},
		Mirror: MirrorConfig{
			RemoteBaseDir: "/dog_breeds",
			ReportPath:    "result.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("BREEDMIRROR_OAUTH_TOKEN"); token != "" {
		c.Storage.OAuthToken = token
	}
	if root := os.Getenv("BREEDMIRROR_CATALOG_API_ROOT"); root != "" {
		c.Catalog.APIRoot = root
	}
	if root := os.Getenv("BREEDMIRROR_STORAGE_API_ROOT"); root != "" {
		c.Storage.APIRoot = root
	}
	if rps := os.Getenv("BREEDMIRROR_STORAGE_REQUESTS_PER_SECOND"); rps != "" {
		val, err := strconv.Atoi(rps)
		if err != nil || val <= 0 {
			return fmt.Errorf("BREEDMIRROR_STORAGE_REQUESTS_PER_SECOND must be a positive integer, got %q", rps)
		}
		c.Storage.Limits = []APILimitConfig{{Period: time.Second, MaxRequests: val}}
	}
	if dir := os.Getenv("BREEDMIRROR_REMOTE_BASE_DIR"); dir != "" {
		c.Mirror.RemoteBaseDir = dir
	}
	if path := os.Getenv("BREEDMIRROR_REPORT_PATH"); path != "" {
		c.Mirror.ReportPath = path
	}
	if level := os.Getenv("BREEDMIRROR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".breedmirror.yaml",
		".breedmirror.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "breedmirror", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "breedmirror", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".breedmirror.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Catalog.APIRoot == "" {
		errs = append(errs, errors.New("catalog API root is required"))
	}
	if c.Storage.APIRoot == "" {
		errs = append(errs, errors.New("storage API root is required"))
	}
	for _, l := range c.Catalog.Limits {
		if err := validateLimit("catalog", l); err != nil {
			errs = append(errs, err)
		}
	}
	for _, l := range c.Storage.Limits {
		if err := validateLimit("storage", l); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Storage.UnlockAttempts < 1 {
		errs = append(errs, errors.New("storage unlock attempts must be at least 1"))
	}
	if c.Storage.UnlockDelay < 0 {
		errs = append(errs, errors.New("storage unlock delay cannot be negative"))
	}
	if c.Storage.OperationPollInterval <= 0 {
		errs = append(errs, errors.New("storage operation poll interval must be positive"))
	}
	if c.Storage.OperationMaxWait < 0 {
		errs = append(errs, errors.New("storage operation max wait cannot be negative"))
	}

	if c.Mirror.RemoteBaseDir == "" {
		errs = append(errs, errors.New("remote base directory is required"))
	}
	if c.Mirror.ReportPath == "" {
		errs = append(errs, errors.New("report path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateLimit(api string, l APILimitConfig) error {
	if l.Period <= 0 {
		return fmt.Errorf("%s rate limit period must be positive", api)
	}
	if l.MaxRequests < 1 {
		return fmt.Errorf("%s rate limit max requests must be at least 1", api)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Config may carry the OAuth token, keep it private
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flag values into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["oauth-token"].(string); ok && token != "" {
		c.Storage.OAuthToken = token
	}
	if dir, ok := flags["remote-dir"].(string); ok && dir != "" {
		c.Mirror.RemoteBaseDir = dir
	}
	if path, ok := flags["report"].(string); ok && path != "" {
		c.Mirror.ReportPath = path
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Load .env files if present (missing files are fine)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".breedmirror.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
