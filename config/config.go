/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/suparena/docrepo"
	"github.com/suparena/docrepo/errors"
)

// Store backends
const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config is the docrepo runtime configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Retry RetryConfig `yaml:"retry"`
	Save  SaveConfig  `yaml:"save"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig selects and addresses the document store.
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	Region     string `yaml:"region,omitempty"`
	AccessKey  string `yaml:"access_key,omitempty"`
	SecretKey  string `yaml:"secret_key,omitempty"`
	Table      string `yaml:"table,omitempty"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RetryConfig is the store client's own tolerance for throttled requests
// during itemized saves.
type RetryConfig struct {
	MaxWaitSeconds int `yaml:"max_wait_seconds"`
	MaxAttempts    int `yaml:"max_attempts"`
}

// SaveConfig tunes the repository save paths.
type SaveConfig struct {
	BulkThreshold        int      `yaml:"bulk_threshold"`
	MaxRetries           *int     `yaml:"max_retries,omitempty"`
	RetryInterval        Duration `yaml:"retry_interval"`
	ThrottleFallbackWait Duration `yaml:"throttle_fallback_wait"`
	MaxBulkRounds        int      `yaml:"max_bulk_rounds,omitempty"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Duration is a time.Duration written as a Go duration string in YAML
type Duration time.Duration

// UnmarshalYAML parses "2s", "500ms" and the like
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads the .env file if present, then the config file found by
// FindConfigPath (or defaults when there is none), then DOCREPO_*
// environment overrides.
func Load() (*Config, string, error) {
	_ = godotenv.Load()

	path := FindConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.applyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path and applies environment overrides
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes YAML config and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// WriteFile writes config to path as YAML
func (c *Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns an in-memory store with the default save tuning
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	defaults := docrepo.DefaultOptions()

	if c.Store.Backend == "" {
		c.Store.Backend = BackendMemory
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "./docrepo.db"
	}
	if c.Store.Database == "" {
		c.Store.Database = "docrepo"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "members"
	}

	if c.Retry.MaxWaitSeconds == 0 && c.Retry.MaxAttempts == 0 {
		c.Retry.MaxWaitSeconds = int(defaults.ThrottleRetry.MaxWait / time.Second)
		c.Retry.MaxAttempts = defaults.ThrottleRetry.MaxAttempts
	}

	if c.Save.BulkThreshold == 0 {
		c.Save.BulkThreshold = defaults.BulkThreshold
	}
	if c.Save.MaxRetries == nil {
		n := defaults.MaxRetries
		c.Save.MaxRetries = &n
	}
	if c.Save.RetryInterval == 0 {
		c.Save.RetryInterval = Duration(defaults.RetryInterval)
	}
	if c.Save.ThrottleFallbackWait == 0 {
		c.Save.ThrottleFallbackWait = Duration(defaults.ThrottleFallbackWait)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// applyEnv overrides fields from DOCREPO_* variables.
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"DOCREPO_STORE_BACKEND":    &c.Store.Backend,
		"DOCREPO_STORE_ENDPOINT":   &c.Store.Endpoint,
		"DOCREPO_STORE_REGION":     &c.Store.Region,
		"DOCREPO_STORE_ACCESS_KEY": &c.Store.AccessKey,
		"DOCREPO_STORE_SECRET_KEY": &c.Store.SecretKey,
		"DOCREPO_STORE_TABLE":      &c.Store.Table,
		"DOCREPO_STORE_SQLITE":     &c.Store.SQLitePath,
		"DOCREPO_STORE_DATABASE":   &c.Store.Database,
		"DOCREPO_STORE_COLLECTION": &c.Store.Collection,
		"DOCREPO_LOG_LEVEL":        &c.Log.Level,
		"DOCREPO_LOG_FORMAT":       &c.Log.Format,
	}
	for key, field := range str {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}

	ints := map[string]*int{
		"DOCREPO_RETRY_MAX_WAIT_SECONDS": &c.Retry.MaxWaitSeconds,
		"DOCREPO_RETRY_MAX_ATTEMPTS":     &c.Retry.MaxAttempts,
		"DOCREPO_SAVE_BULK_THRESHOLD":    &c.Save.BulkThreshold,
		"DOCREPO_SAVE_MAX_BULK_ROUNDS":   &c.Save.MaxBulkRounds,
	}
	for key, field := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(key, fmt.Sprintf("not an integer: %q", v))
		}
		*field = n
	}

	if v, ok := os.LookupEnv("DOCREPO_SAVE_MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError("DOCREPO_SAVE_MAX_RETRIES", fmt.Sprintf("not an integer: %q", v))
		}
		c.Save.MaxRetries = &n
	}

	durations := map[string]*Duration{
		"DOCREPO_SAVE_RETRY_INTERVAL":         &c.Save.RetryInterval,
		"DOCREPO_SAVE_THROTTLE_FALLBACK_WAIT": &c.Save.ThrottleFallbackWait,
	}
	for key, field := range durations {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.NewValidationError(key, fmt.Sprintf("not a duration: %q", v))
		}
		*field = Duration(d)
	}

	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "./docrepo.db"
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, msg string) {
		errs = append(errs, errors.NewValidationError(field, msg))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			invalid("store.sqlite_path", "required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.Store.Table == "" {
			invalid("store.table", "required for the dynamodb backend")
		}
		if c.Store.Region == "" {
			invalid("store.region", "required for the dynamodb backend")
		}
		if (c.Store.AccessKey == "") != (c.Store.SecretKey == "") {
			invalid("store.access_key", "access key and secret key must be set together")
		}
	default:
		invalid("store.backend", fmt.Sprintf("unknown backend %q", c.Store.Backend))
	}
	if c.Store.Database == "" {
		invalid("store.database", "must not be empty")
	}
	if c.Store.Collection == "" {
		invalid("store.collection", "must not be empty")
	}

	if c.Retry.MaxWaitSeconds < 0 {
		invalid("retry.max_wait_seconds", "must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		invalid("retry.max_attempts", "must not be negative")
	}

	if c.Save.BulkThreshold < 1 {
		invalid("save.bulk_threshold", "must be at least 1")
	}
	if c.Save.MaxRetries != nil && *c.Save.MaxRetries < 0 {
		invalid("save.max_retries", "must not be negative")
	}
	if c.Save.RetryInterval < 0 {
		invalid("save.retry_interval", "must not be negative")
	}
	if c.Save.ThrottleFallbackWait < 0 {
		invalid("save.throttle_fallback_wait", "must not be negative")
	}
	if c.Save.MaxBulkRounds < 0 {
		invalid("save.max_bulk_rounds", "must not be negative")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		invalid("log.level", err.Error())
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		invalid("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}

	return stderrors.Join(errs...)
}

// RepositoryOptions converts the save and retry sections to repository options.
func (c *Config) RepositoryOptions() []docrepo.Option {
	maxRetries := docrepo.DefaultOptions().MaxRetries
	if c.Save.MaxRetries != nil {
		maxRetries = *c.Save.MaxRetries
	}
	return []docrepo.Option{
		docrepo.WithBulkThreshold(c.Save.BulkThreshold),
		docrepo.WithRetryPolicy(maxRetries, c.Save.RetryInterval.Duration()),
		docrepo.WithThrottleFallbackWait(c.Save.ThrottleFallbackWait.Duration()),
		docrepo.WithThrottleRetry(time.Duration(c.Retry.MaxWaitSeconds)*time.Second, c.Retry.MaxAttempts),
		docrepo.WithMaxBulkRounds(c.Save.MaxBulkRounds),
	}
}

// NewLogger builds the logger described by the log section, writing to w.
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Log.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
