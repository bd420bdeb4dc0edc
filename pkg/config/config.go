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

// Config holds all configuration options for the comment collector
type Config struct {
	// Instagram session and client settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Post to collect comments from
	Target TargetConfig `yaml:"target" json:"target"`

	// Collection loop settings
	Collect CollectConfig `yaml:"collect" json:"collect"`

	// Where the collection is persisted
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for failed fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Export sinks
	Export ExportConfig `yaml:"export" json:"export"`

	// Recurring collection for the watch command
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	SessionID string        `yaml:"session_id" json:"session_id"`
	CSRFToken string        `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	AppID     string        `yaml:"app_id" json:"app_id"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// TargetConfig identifies the post being collected
type TargetConfig struct {
	PostURL   string `yaml:"post_url" json:"post_url"`
	Shortcode string `yaml:"shortcode" json:"shortcode"`
}

// CollectConfig controls the pass loop
type CollectConfig struct {
	Source        string        `yaml:"source" json:"source"`
	MaxPasses     int           `yaml:"max_passes" json:"max_passes"`
	PageSize      int           `yaml:"page_size" json:"page_size"`
	PassDelayMin  time.Duration `yaml:"pass_delay_min" json:"pass_delay_min"`
	PassDelayMax  time.Duration `yaml:"pass_delay_max" json:"pass_delay_max"`
	SaveEveryPass bool          `yaml:"save_every_pass" json:"save_every_pass"`
	ResponseFiles []string      `yaml:"response_files" json:"response_files"`
	HTML          HTMLConfig    `yaml:"html" json:"html"`
}

// HTMLConfig holds the selectors used by the HTML page source
type HTMLConfig struct {
	CommentSelector  string `yaml:"comment_selector" json:"comment_selector"`
	UsernameSelector string `yaml:"username_selector" json:"username_selector"`
	TextSelector     string `yaml:"text_selector" json:"text_selector"`
}

// StorageConfig selects and configures the collection store
type StorageConfig struct {
	Backend     string        `yaml:"backend" json:"backend"`
	Path        string        `yaml:"path" json:"path"`
	MongoURI    string        `yaml:"mongo_uri" json:"mongo_uri"`
	Database    string        `yaml:"database" json:"database"`
	Collection  string        `yaml:"collection" json:"collection"`
	Lock        bool          `yaml:"lock" json:"lock"`
	LockTimeout time.Duration `yaml:"lock_timeout" json:"lock_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds the backoff policy for source fetches
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
}

// ExportConfig holds settings for the CSV and Google Sheets sinks
type ExportConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" json:"spreadsheet_id"`
	Range           string `yaml:"range" json:"range"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	Timezone        string `yaml:"timezone" json:"timezone"`
	CSVPath         string `yaml:"csv_path" json:"csv_path"`
}

// ScheduleConfig holds the cron expression for the watch command
type ScheduleConfig struct {
	Cron     string `yaml:"cron" json:"cron"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AppID:     "936619743392459",
			BaseURL:   "https://www.instagram.com",
			Timeout:   30 * time.Second,
		},
		Collect: CollectConfig{
			Source:       "graphql",
			MaxPasses:    10,
			PageSize:     50,
			PassDelayMin: 3 * time.Second,
			PassDelayMax: 20 * time.Second,
			HTML: HTMLConfig{
				CommentSelector:  "div._a9zs",
				UsernameSelector: "a._a9za",
				TextSelector:     "span",
			},
		},
		Storage: StorageConfig{
			Backend:     "json",
			Path:        "comments.json",
			Database:    "igcomments",
			Collection:  "comments",
			LockTimeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 20,
			BurstSize:         1,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     60 * time.Second,
			Multiplier:     2.0,
		},
		Export: ExportConfig{
			Range:           "Sheet1!A1",
			CredentialsFile: "credentials.json",
			Timezone:        "Local",
			CSVPath:         "comments.csv",
		},
		Schedule: ScheduleConfig{
			Cron:     "@hourly",
			Timezone: "Local",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from IGCOMMENTS_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				errs = append(errs, fmt.Errorf("%s must be a positive integer, got %q", key, v))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	setString("IGCOMMENTS_SESSION_ID", &c.Instagram.SessionID)
	setString("IGCOMMENTS_CSRF_TOKEN", &c.Instagram.CSRFToken)
	setString("IGCOMMENTS_USER_AGENT", &c.Instagram.UserAgent)

	setString("IGCOMMENTS_POST_URL", &c.Target.PostURL)
	setString("IGCOMMENTS_SOURCE", &c.Collect.Source)
	setInt("IGCOMMENTS_MAX_PASSES", &c.Collect.MaxPasses)
	setDuration("IGCOMMENTS_PASS_DELAY_MIN", &c.Collect.PassDelayMin)
	setDuration("IGCOMMENTS_PASS_DELAY_MAX", &c.Collect.PassDelayMax)

	setString("IGCOMMENTS_STORAGE_BACKEND", &c.Storage.Backend)
	setString("IGCOMMENTS_STORAGE_PATH", &c.Storage.Path)
	setString("IGCOMMENTS_MONGO_URI", &c.Storage.MongoURI)
	setBool("IGCOMMENTS_STORAGE_LOCK", &c.Storage.Lock)

	setInt("IGCOMMENTS_REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	setString("IGCOMMENTS_SPREADSHEET_ID", &c.Export.SpreadsheetID)
	setString("IGCOMMENTS_SHEET_RANGE", &c.Export.Range)
	setString("IGCOMMENTS_CREDENTIALS_FILE", &c.Export.CredentialsFile)
	setString("IGCOMMENTS_TIMEZONE", &c.Export.Timezone)

	setString("IGCOMMENTS_SCHEDULE", &c.Schedule.Cron)
	setString("IGCOMMENTS_LOG_LEVEL", &c.Logging.Level)
	setString("IGCOMMENTS_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
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
	home := os.Getenv("HOME")
	locations := []string{
		".igcomments.yaml",
		".igcomments.yml",
		filepath.Join(home, ".config", "igcomments", "config.yaml"),
		filepath.Join(home, ".config", "igcomments", "config.yml"),
		filepath.Join(home, ".igcomments.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultPath is where config init writes a new file
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "igcomments", "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Collect.Source {
	case "graphql", "html", "file":
	default:
		errs = append(errs, fmt.Errorf("unknown collect source %q (want graphql, html or file)", c.Collect.Source))
	}
	if c.Collect.MaxPasses <= 0 {
		errs = append(errs, errors.New("max passes must be positive"))
	}
	if c.Collect.PageSize <= 0 || c.Collect.PageSize > 50 {
		errs = append(errs, errors.New("page size must be between 1 and 50"))
	}
	if c.Collect.PassDelayMin < 0 || c.Collect.PassDelayMax < c.Collect.PassDelayMin {
		errs = append(errs, errors.New("pass delay range is invalid"))
	}

	switch c.Storage.Backend {
	case "json", "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage path is required"))
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("mongo uri is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q (want json, sqlite or mongo)", c.Storage.Backend))
	}
	if c.Storage.Lock && c.Storage.LockTimeout <= 0 {
		errs = append(errs, errors.New("lock timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	if _, err := LoadLocation(c.Export.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid export timezone: %w", err))
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

// ValidateCredentials checks that an Instagram session is configured
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Instagram.SessionID == "" {
		errs = append(errs, errors.New("Instagram session ID is required"))
	}
	if c.Instagram.CSRFToken == "" {
		errs = append(errs, errors.New("Instagram CSRF token is required"))
	}
	return errors.Join(errs...)
}

// LoadLocation resolves a timezone name, treating "" and "Local" as the
// machine's local zone
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Zero values are ignored so unset flags never clobber lower layers.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Instagram.SessionID = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Instagram.CSRFToken = v
	}
	if v, ok := flags["post"].(string); ok && v != "" {
		c.Target.PostURL = v
	}
	if v, ok := flags["source"].(string); ok && v != "" {
		c.Collect.Source = v
	}
	if v, ok := flags["max-passes"].(int); ok && v > 0 {
		c.Collect.MaxPasses = v
	}
	if v, ok := flags["save-every-pass"].(bool); ok && v {
		c.Collect.SaveEveryPass = true
	}
	if v, ok := flags["response-files"].([]string); ok && len(v) > 0 {
		c.Collect.ResponseFiles = v
	}
	if v, ok := flags["backend"].(string); ok && v != "" {
		c.Storage.Backend = v
	}
	if v, ok := flags["store"].(string); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := flags["lock"].(bool); ok && v {
		c.Storage.Lock = true
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igcomments.env"))

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
