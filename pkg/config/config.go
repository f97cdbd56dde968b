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

// Config holds all configuration options for linkharvest
type Config struct {
	// Search engine settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Result harvesting settings
	Harvest HarvestConfig `yaml:"harvest" json:"harvest"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig describes the search engine the harvester drives
type SearchConfig struct {
	BaseURL           string `yaml:"base_url" json:"base_url"`
	InterfaceLanguage string `yaml:"interface_language" json:"interface_language"`
	EngineKeyword     string `yaml:"engine_keyword" json:"engine_keyword"`
	NextLabel         string `yaml:"next_label" json:"next_label"`
	LanguageTable     string `yaml:"language_table" json:"language_table"`
	UserAgent         string `yaml:"user_agent" json:"user_agent"`
	UnwrapRedirects   bool   `yaml:"unwrap_redirects" json:"unwrap_redirects"`
}

// HarvestConfig holds result harvesting configuration
type HarvestConfig struct {
	MaxResults         int           `yaml:"max_results" json:"max_results"`
	PacingDelay        time.Duration `yaml:"pacing_delay" json:"pacing_delay"`
	UnproductiveBudget int           `yaml:"unproductive_budget" json:"unproductive_budget"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	RequestsPerMinute  int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	// BurstSize result pages may load per BurstPeriod; it replaces
	// RequestsPerMinute when positive
	BurstSize   int           `yaml:"burst_size" json:"burst_size"`
	BurstPeriod time.Duration `yaml:"burst_period" json:"burst_period"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDirectory     string        `yaml:"output_directory" json:"output_directory"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	QueryPrefix         string        `yaml:"query_prefix" json:"query_prefix"`
	Extension           string        `yaml:"extension" json:"extension"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	WriteManifest       bool          `yaml:"write_manifest" json:"write_manifest"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:           "https://www.google.com/search",
			InterfaceLanguage: "en",
			EngineKeyword:     "google",
			NextLabel:         "Next",
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			UnwrapRedirects:   true,
		},
		Harvest: HarvestConfig{
			MaxResults:         200,
			PacingDelay:        time.Second,
			UnproductiveBudget: 5,
			NavigationTimeout:  30 * time.Second,
			RequestsPerMinute:  0,
			BurstSize:          0,
			BurstPeriod:        30 * time.Second,
		},
		Download: DownloadConfig{
			OutputDirectory:     ".",
			ConcurrentDownloads: 64,
			DownloadTimeout:     2 * time.Minute,
			RetryAttempts:       1,
			QueryPrefix:         "filetype:pdf",
			Extension:           ".pdf",
			RequestsPerMinute:   0, // 0 means no limit
			WriteManifest:       false,
		},
		Notifications: NotificationConfig{
			Enabled:          false,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("LINKHARVEST_SEARCH_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := os.Getenv("LINKHARVEST_USER_AGENT"); v != "" {
		c.Search.UserAgent = v
	}
	if v := os.Getenv("LINKHARVEST_LANGUAGE_TABLE"); v != "" {
		c.Search.LanguageTable = v
	}

	if v := os.Getenv("LINKHARVEST_MAX_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LINKHARVEST_MAX_RESULTS: %w", err))
		} else {
			c.Harvest.MaxResults = n
		}
	}

	if v := os.Getenv("LINKHARVEST_OUTPUT_DIR"); v != "" {
		c.Download.OutputDirectory = v
	}

	if v := os.Getenv("LINKHARVEST_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LINKHARVEST_CONCURRENT_DOWNLOADS: %w", err))
		} else {
			c.Download.ConcurrentDownloads = n
		}
	}

	if v := os.Getenv("LINKHARVEST_DOWNLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LINKHARVEST_DOWNLOAD_TIMEOUT: %w", err))
		} else {
			c.Download.DownloadTimeout = d
		}
	}

	if v := os.Getenv("LINKHARVEST_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	if v := os.Getenv("LINKHARVEST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LINKHARVEST_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
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
	home, _ := os.UserHomeDir()
	locations := []string{
		".linkharvest.yaml",
		".linkharvest.yml",
		filepath.Join(home, ".config", "linkharvest", "config.yaml"),
		filepath.Join(home, ".config", "linkharvest", "config.yml"),
		filepath.Join(home, ".linkharvest.yaml"),
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

	if c.Search.BaseURL == "" {
		errs = append(errs, errors.New("search base URL is required"))
	}
	if c.Search.NextLabel == "" {
		errs = append(errs, errors.New("search next label is required"))
	}

	if c.Harvest.MaxResults <= 0 {
		errs = append(errs, errors.New("max results must be positive"))
	}
	if c.Harvest.PacingDelay < 0 {
		errs = append(errs, errors.New("pacing delay cannot be negative"))
	}
	if c.Harvest.UnproductiveBudget < 0 {
		errs = append(errs, errors.New("unproductive budget cannot be negative"))
	}
	if c.Harvest.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("harvest requests per minute cannot be negative"))
	}
	if c.Harvest.BurstSize < 0 {
		errs = append(errs, errors.New("burst size cannot be negative"))
	}
	if c.Harvest.BurstSize > 0 && c.Harvest.BurstPeriod <= 0 {
		errs = append(errs, errors.New("burst period must be positive when a burst size is set"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 256 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 256"))
	}
	if c.Download.DownloadTimeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}
	if c.Download.RetryAttempts < 1 {
		errs = append(errs, errors.New("retry attempts must be at least 1"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("download requests per minute cannot be negative"))
	}
	if c.Download.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if !strings.HasPrefix(c.Download.Extension, ".") {
		errs = append(errs, errors.New("download extension must start with a dot"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if max, ok := flags["max"].(int); ok {
		c.Harvest.MaxResults = max
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok {
		c.Download.ConcurrentDownloads = concurrent
	}
	if timeout, ok := flags["download-timeout"].(time.Duration); ok {
		c.Download.DownloadTimeout = timeout
	}
	if prefix, ok := flags["query-prefix"].(string); ok {
		c.Download.QueryPrefix = prefix
	}
	if manifest, ok := flags["manifest"].(bool); ok {
		c.Download.WriteManifest = manifest
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	home, _ := os.UserHomeDir()
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(home, ".linkharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
