package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Catalog Settings
	AssetDirectories       []string `yaml:"asset_directories" env:"ASSET_DIRECTORIES" envSeparator:","`
	CatalogBatchSize       int      `yaml:"catalog_batch_size" env:"CATALOG_BATCH_SIZE"`
	CatalogCooldownMinutes int      `yaml:"catalog_cooldown_minutes" env:"CATALOG_COOLDOWN_MINUTES"`
	MaxWorkers             int      `yaml:"max_workers" env:"MAX_WORKERS"`

	// Backup Settings
	BackupsToKeep int `yaml:"backups_to_keep" env:"BACKUPS_TO_KEEP"`

	// Thumbnail Settings
	ThumbnailMaxWidth  int `yaml:"thumbnail_max_width" env:"THUMBNAIL_MAX_WIDTH"`
	ThumbnailMaxHeight int `yaml:"thumbnail_max_height" env:"THUMBNAIL_MAX_HEIGHT"`
	ThumbnailQuality   int `yaml:"thumbnail_quality" env:"THUMBNAIL_QUALITY"`

	// Video Settings
	AnalyseVideos bool   `yaml:"analyse_videos" env:"ANALYSE_VIDEOS"`
	FFmpegPath    string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`

	// Duplicates
	SimilarityThreshold int `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`

	// Watch / Serve
	WatchDebounceMS int    `yaml:"watch_debounce_ms" env:"WATCH_DEBOUNCE_MS"`
	ServeAddr       string `yaml:"serve_addr" env:"SERVE_ADDR"`

	// Logging
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb" env:"LOG_MAX_SIZE_MB"`
	LogMaxFiles  int    `yaml:"log_max_files" env:"LOG_MAX_FILES"`

	// UI Settings
	ColorTheme string `yaml:"color_theme" env:"COLOR_THEME"`
}

// EnvPrefix is prepended to every environment override
const EnvPrefix = "PX_"

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		AssetDirectories:       []string{},
		CatalogBatchSize:       10000,
		CatalogCooldownMinutes: 2,
		MaxWorkers:             4,
		BackupsToKeep:          2,
		ThumbnailMaxWidth:      200,
		ThumbnailMaxHeight:     150,
		ThumbnailQuality:       85,
		AnalyseVideos:          false,
		FFmpegPath:             "ffmpeg",
		SimilarityThreshold:    5,
		WatchDebounceMS:        500,
		ServeAddr:              "127.0.0.1:8765",
		LogLevel:               "info",
		LogMaxSizeMB:           10,
		LogMaxFiles:            5,
		ColorTheme:             "auto",
	}
}

// Load reads configuration from the specified file path and applies
// PX_* environment overrides on top of it
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, keep defaults (not an error)
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in essential values that are missing or invalid
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.AssetDirectories == nil {
		c.AssetDirectories = []string{}
	}
	if c.CatalogBatchSize <= 0 {
		c.CatalogBatchSize = defaults.CatalogBatchSize
	}
	if c.CatalogCooldownMinutes < 0 {
		c.CatalogCooldownMinutes = defaults.CatalogCooldownMinutes
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = defaults.MaxWorkers
	}
	if c.BackupsToKeep <= 0 {
		c.BackupsToKeep = defaults.BackupsToKeep
	}
	if c.ThumbnailMaxWidth <= 0 {
		c.ThumbnailMaxWidth = defaults.ThumbnailMaxWidth
	}
	if c.ThumbnailMaxHeight <= 0 {
		c.ThumbnailMaxHeight = defaults.ThumbnailMaxHeight
	}
	if c.ThumbnailQuality <= 0 || c.ThumbnailQuality > 100 {
		c.ThumbnailQuality = defaults.ThumbnailQuality
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = defaults.FFmpegPath
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 64 {
		c.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if c.WatchDebounceMS <= 0 {
		c.WatchDebounceMS = defaults.WatchDebounceMS
	}
	if c.ServeAddr == "" {
		c.ServeAddr = defaults.ServeAddr
	}
	if !isValidLogLevel(c.LogLevel) {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = defaults.LogMaxSizeMB
	}
	if c.LogMaxFiles <= 0 {
		c.LogMaxFiles = defaults.LogMaxFiles
	}
	if c.ColorTheme == "" {
		c.ColorTheme = defaults.ColorTheme
	}

	c.AssetDirectories = normalizeDirectories(c.AssetDirectories)
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AddAssetDirectory appends a root directory if it is not already configured.
// It returns false when the directory was already present.
func (c *Config) AddAssetDirectory(dir string) bool {
	dir = filepath.Clean(dir)
	for _, existing := range c.AssetDirectories {
		if existing == dir {
			return false
		}
	}
	c.AssetDirectories = append(c.AssetDirectories, dir)
	return true
}

// RemoveAssetDirectory drops a root directory; returns false when absent
func (c *Config) RemoveAssetDirectory(dir string) bool {
	dir = filepath.Clean(dir)
	for i, existing := range c.AssetDirectories {
		if existing == dir {
			c.AssetDirectories = append(c.AssetDirectories[:i], c.AssetDirectories[i+1:]...)
			return true
		}
	}
	return false
}

// normalizeDirectories cleans paths, expands ~ and removes duplicates
func normalizeDirectories(dirs []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.HasPrefix(d, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				d = filepath.Join(home, d[2:])
			}
		}
		d = filepath.Clean(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		result = append(result, d)
	}
	return result
}

// isValidLogLevel checks if the log level is understood by the logger
func isValidLogLevel(level string) bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return true
		}
	}
	return false
}
