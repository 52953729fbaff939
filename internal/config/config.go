package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
)

// Config holds all application configuration.
type Config struct {
	Estimator EstimatorConfig `toml:"estimator"`
	Server    ServerConfig    `toml:"server"`
	Feeds     FeedsConfig     `toml:"feeds"`
}

// EstimatorConfig holds the default reading time settings.
type EstimatorConfig struct {
	WordsPerMinute float64 `toml:"words_per_minute"`
	IncludeImages  bool    `toml:"include_images"`
	StrictWords    bool    `toml:"strict_words"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// FeedsConfig holds RSS feed settings.
type FeedsConfig struct {
	MaxArticlesPerFeed int  `toml:"max_articles_per_feed"`
	LookbackDays       int  `toml:"lookback_days"`
	ExtractFullText    bool `toml:"extract_full_text"`
}

const defaultConfigContent = `[estimator]
words_per_minute = 275            # Average adult reading speed
include_images = true             # Add 12s for the first image, down to 3s
strict_words = false              # Only count tokens containing a letter or digit

[server]
port = 8080

[feeds]
max_articles_per_feed = 20
lookback_days = 7
extract_full_text = false         # Fetch each article page instead of the feed body
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// "words_per_minute = 0" is an error rather than silently becoming 275.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg, toml.MetaData{})
	return &cfg
}

// EstimatorOptions converts the estimator section into reading time options.
func (c *Config) EstimatorOptions() []readingtime.Option {
	return c.Estimator.Options()
}

// Options converts the settings into reading time options.
func (e EstimatorConfig) Options() []readingtime.Option {
	opts := []readingtime.Option{
		readingtime.WithWordsPerMinute(e.WordsPerMinute),
		readingtime.WithImages(e.IncludeImages),
	}
	if e.StrictWords {
		opts = append(opts, readingtime.WithStrictWords())
	}
	return opts
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("estimator", "words_per_minute") && !validSpeed(cfg.Estimator.WordsPerMinute) {
		return fmt.Errorf("invalid estimator.words_per_minute %v: must be finite and > 0", cfg.Estimator.WordsPerMinute)
	}
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("feeds", "lookback_days") && cfg.Feeds.LookbackDays < 1 {
		return fmt.Errorf("invalid feeds.lookback_days %d: must be >= 1", cfg.Feeds.LookbackDays)
	}
	if md.IsDefined("feeds", "max_articles_per_feed") && cfg.Feeds.MaxArticlesPerFeed < 1 {
		return fmt.Errorf("invalid feeds.max_articles_per_feed %d: must be >= 1", cfg.Feeds.MaxArticlesPerFeed)
	}
	return nil
}

// validSpeed reports whether wpm is a finite positive reading speed.
func validSpeed(wpm float64) bool {
	return wpm > 0 && !math.IsInf(wpm, 1)
}

// applyDefaults sets default values for any fields missing from the file.
// include_images defaults to true, so it is only left alone when the file
// sets it, which keeps an explicit false.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.Estimator.WordsPerMinute == 0 {
		cfg.Estimator.WordsPerMinute = readingtime.DefaultWordsPerMinute
	}
	if !md.IsDefined("estimator", "include_images") {
		cfg.Estimator.IncludeImages = true
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Feeds.MaxArticlesPerFeed == 0 {
		cfg.Feeds.MaxArticlesPerFeed = 20
	}
	if cfg.Feeds.LookbackDays == 0 {
		cfg.Feeds.LookbackDays = 7
	}
}

// applyEnvOverrides applies environment variable overrides:
//
//	MDREADTIME_WPM   estimator.words_per_minute
//	MDREADTIME_PORT  server.port
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MDREADTIME_WPM"); v != "" {
		wpm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing MDREADTIME_WPM %q: %w", v, err)
		}
		cfg.Estimator.WordsPerMinute = wpm
	}
	if v := os.Getenv("MDREADTIME_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MDREADTIME_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if !validSpeed(cfg.Estimator.WordsPerMinute) {
		return fmt.Errorf("invalid estimator.words_per_minute %v: must be finite and > 0", cfg.Estimator.WordsPerMinute)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Feeds.LookbackDays < 1 {
		return fmt.Errorf("invalid feeds.lookback_days %d: must be >= 1", cfg.Feeds.LookbackDays)
	}

	if cfg.Estimator.WordsPerMinute > 2000 {
		slog.Warn("estimator.words_per_minute is unusually high", "words_per_minute", cfg.Estimator.WordsPerMinute)
	}

	return nil
}
