package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultDatabaseFilename is the note backup database filename assumed when
// the configured path points at a directory.
const DefaultDatabaseFilename = "en_backup.db"

// Config holds all configuration options for photonotes
type Config struct {
	// Flickr API credentials and endpoint
	Flickr FlickrConfig `yaml:"flickr" json:"flickr"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Photo stream walking configuration
	Walker WalkerConfig `yaml:"walker" json:"walker"`

	// Note backup database settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Output directory settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Database refresh settings
	Update UpdateConfig `yaml:"update" json:"update"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FlickrConfig holds Flickr API configuration
type FlickrConfig struct {
	APIKey    string        `yaml:"api_key" json:"api_key"`
	APISecret string        `yaml:"api_secret" json:"api_secret"`
	Endpoint  string        `yaml:"endpoint" json:"endpoint"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	CallsPerWindow int           `yaml:"calls_per_window" json:"calls_per_window"`
	Window         time.Duration `yaml:"window" json:"window"`
}

// WalkerConfig holds photo stream traversal configuration
type WalkerConfig struct {
	PageSize    int `yaml:"page_size" json:"page_size"`
	MaxPosition int `yaml:"max_position" json:"max_position"`
}

// DatabaseConfig holds note backup database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// OutputConfig holds output directory configuration. BaseDir and ImportDir
// default relative to the note database directory, see applyDerivedDefaults.
type OutputConfig struct {
	ImportDir   string `yaml:"import_dir" json:"import_dir"`
	BaseDir     string `yaml:"base_dir" json:"base_dir"`
	ArchiveDir  string `yaml:"archive_dir" json:"archive_dir"`
	TemplateDir string `yaml:"template_dir" json:"template_dir"`
	WriteXML    bool   `yaml:"write_xml" json:"write_xml"`
}

// UpdateConfig holds database refresh configuration
type UpdateConfig struct {
	NoUpdateAgeDays int `yaml:"no_update_age_days" json:"no_update_age_days"`
	Limit           int `yaml:"limit" json:"limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Flickr: FlickrConfig{
			Endpoint:  "https://api.flickr.com/services/rest/",
			UserAgent: "photonotes/1.0",
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			CallsPerWindow: 3600,
			Window:         time.Hour,
		},
		Walker: WalkerConfig{
			PageSize:    500,
			MaxPosition: 5000,
		},
		Update: UpdateConfig{
			NoUpdateAgeDays: 90,
			Limit:           10000,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. The short
// names (API_KEY, DB_PATH, ...) are the historical ones; the PHOTONOTES_
// prefixed forms take precedence.
func (c *Config) LoadFromEnv() error {
	if apiKey := envValue("PHOTONOTES_API_KEY", "API_KEY"); apiKey != "" {
		c.Flickr.APIKey = apiKey
	}
	if apiSecret := envValue("PHOTONOTES_API_SECRET", "API_SECRET"); apiSecret != "" {
		c.Flickr.APISecret = apiSecret
	}
	if dbPath := envValue("PHOTONOTES_DB_PATH", "DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if importDir := envValue("PHOTONOTES_IMPORT_DIR", "IMPORT_PATH"); importDir != "" {
		c.Output.ImportDir = importDir
	}
	if archiveDir := envValue("PHOTONOTES_ARCHIVE_DIR", "PHOTO_ARCHIVE"); archiveDir != "" {
		c.Output.ArchiveDir = archiveDir
	}
	if baseDir := os.Getenv("PHOTONOTES_BASE_DIR"); baseDir != "" {
		c.Output.BaseDir = baseDir
	}

	if calls := os.Getenv("PHOTONOTES_CALLS_PER_HOUR"); calls != "" {
		var val int
		fmt.Sscanf(calls, "%d", &val)
		if val > 0 {
			c.RateLimit.CallsPerWindow = val
		}
	}
	if maxPos := os.Getenv("PHOTONOTES_MAX_POSITION"); maxPos != "" {
		var val int
		fmt.Sscanf(maxPos, "%d", &val)
		if val > 0 {
			c.Walker.MaxPosition = val
		}
	}

	if logLevel := envValue("PHOTONOTES_LOG_LEVEL", "LOGLEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("PHOTONOTES_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	if debug := os.Getenv("DEBUG"); debug == "1" || strings.EqualFold(debug, "true") {
		c.Logging.Level = "debug"
	}

	return nil
}

// envValue returns the first non-empty value among the named variables
func envValue(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
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
	// Check in order of precedence
	locations := []string{
		".photonotes.yaml",
		".photonotes.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "photonotes", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "photonotes", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".photonotes.yaml"),
		filepath.Join(os.Getenv("HOME"), ".photonotes.yml"),
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

	// Validate Flickr credentials
	if c.Flickr.APIKey == "" {
		errs = append(errs, errors.New("Flickr API key is required (set API_KEY)"))
	}
	if c.Flickr.APISecret == "" {
		errs = append(errs, errors.New("Flickr API secret is required (set API_SECRET)"))
	}
	if c.Flickr.Endpoint == "" {
		errs = append(errs, errors.New("Flickr endpoint is required"))
	}

	// Validate rate limiting
	if c.RateLimit.CallsPerWindow <= 0 {
		errs = append(errs, errors.New("calls per window must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	// Validate walker settings
	if c.Walker.PageSize <= 0 || c.Walker.PageSize > 500 {
		errs = append(errs, errors.New("page size must be between 1 and 500"))
	}
	if c.Walker.MaxPosition <= 0 {
		errs = append(errs, errors.New("max position must be positive"))
	}

	// Validate database settings. The output directories derive from the
	// database path when unset, so they need no checks of their own.
	if c.Database.Path == "" {
		errs = append(errs, errors.New("note database path is required (set DB_PATH)"))
	}

	// Validate update settings
	if c.Update.NoUpdateAgeDays < 0 {
		errs = append(errs, errors.New("no-update age cannot be negative"))
	}
	if c.Update.Limit <= 0 {
		errs = append(errs, errors.New("update limit must be positive"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// applyDerivedDefaults fills the output directories left unset by every
// source. They live next to the note backup: <db dir>/update_photonotes
// with an import/ subdirectory for the generated .enex files.
func (c *Config) applyDerivedDefaults() {
	if c.Output.BaseDir == "" && c.Database.Path != "" {
		dbDir := filepath.Dir(c.Database.Path)
		if info, err := os.Stat(c.Database.Path); err == nil && info.IsDir() {
			dbDir = c.Database.Path
		}
		c.Output.BaseDir = filepath.Join(dbDir, "update_photonotes")
	}
	if c.Output.ImportDir == "" && c.Output.BaseDir != "" {
		c.Output.ImportDir = filepath.Join(c.Output.BaseDir, "import")
	}
}

// ResolveDatabasePath expands the configured database path to the backup
// file itself. A directory gets the default backup filename appended. The
// file must already exist since photonotes never creates the note database.
func (c *Config) ResolveDatabasePath() (string, error) {
	path := c.Database.Path
	if path == "" {
		return "", errors.New("note database path is not configured (set DB_PATH)")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("note database not found at %s: %w", path, err)
	}

	if info.IsDir() {
		path = filepath.Join(path, DefaultDatabaseFilename)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("note database not found at %s: %w", path, err)
		}
	}

	return path, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.Flickr.APIKey = apiKey
	}
	if apiSecret, ok := flags["api-secret"].(string); ok && apiSecret != "" {
		c.Flickr.APISecret = apiSecret
	}
	if dbPath, ok := flags["db-path"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if importDir, ok := flags["import-dir"].(string); ok && importDir != "" {
		c.Output.ImportDir = importDir
	}
	if archiveDir, ok := flags["archive-dir"].(string); ok && archiveDir != "" {
		c.Output.ArchiveDir = archiveDir
	}
	if maxPos, ok := flags["max-pos"].(int); ok && maxPos > 0 {
		c.Walker.MaxPosition = maxPos
	}
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Update.Limit = limit
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// LoadWithoutValidation loads configuration from all sources but skips the
// final validation, for commands that only inspect the configuration or
// need just a part of it.
func LoadWithoutValidation(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".photonotes.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	config.applyDerivedDefaults()

	return config, nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := LoadWithoutValidation(configPath, flags)
	if err != nil {
		return nil, err
	}

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
