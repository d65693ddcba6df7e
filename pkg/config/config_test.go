package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.CatalogBatchSize != 10000 {
		t.Errorf("expected default CatalogBatchSize=10000, got %d", cfg.CatalogBatchSize)
	}

	if cfg.BackupsToKeep != 2 {
		t.Errorf("expected default BackupsToKeep=2, got %d", cfg.BackupsToKeep)
	}

	if cfg.ThumbnailMaxWidth != 200 || cfg.ThumbnailMaxHeight != 150 {
		t.Errorf("expected default thumbnail 200x150, got %dx%d", cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight)
	}

	if cfg.MaxWorkers != 4 {
		t.Errorf("expected default MaxWorkers=4, got %d", cfg.MaxWorkers)
	}

	if len(cfg.AssetDirectories) != 0 {
		t.Errorf("expected no asset directories, got %v", cfg.AssetDirectories)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	// Loading a non-existent file should return default config
	cfg, err := Load("/nonexistent/path/config.yaml")

	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.CatalogBatchSize != 10000 {
		t.Errorf("expected default CatalogBatchSize=10000, got %d", cfg.CatalogBatchSize)
	}
}

func TestSave_And_Load(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.AssetDirectories = []string{"/photos", "/videos"}
	cfg.CatalogBatchSize = 50
	cfg.BackupsToKeep = 7
	cfg.AnalyseVideos = true

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(loaded.AssetDirectories) != 2 || loaded.AssetDirectories[0] != "/photos" {
		t.Errorf("AssetDirectories: expected %v, got %v", cfg.AssetDirectories, loaded.AssetDirectories)
	}
	if loaded.CatalogBatchSize != 50 {
		t.Errorf("CatalogBatchSize: expected 50, got %d", loaded.CatalogBatchSize)
	}
	if loaded.BackupsToKeep != 7 {
		t.Errorf("BackupsToKeep: expected 7, got %d", loaded.BackupsToKeep)
	}
	if !loaded.AnalyseVideos {
		t.Error("AnalyseVideos: expected true")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	yamlContent := `asset_directories:
  - /photos
  - /photos
catalog_batch_size: 0
thumbnail_quality: 250
log_level: verbose
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.CatalogBatchSize != 10000 {
		t.Errorf("expected CatalogBatchSize default, got %d", cfg.CatalogBatchSize)
	}
	if cfg.ThumbnailQuality != 85 {
		t.Errorf("expected ThumbnailQuality default, got %d", cfg.ThumbnailQuality)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel default, got %q", cfg.LogLevel)
	}
	if len(cfg.AssetDirectories) != 1 {
		t.Errorf("expected duplicate directories to collapse, got %v", cfg.AssetDirectories)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("asset_directories: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("backups_to_keep: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	t.Setenv("PX_BACKUPS_TO_KEEP", "9")
	t.Setenv("PX_ASSET_DIRECTORIES", "/a,/b")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.BackupsToKeep != 9 {
		t.Errorf("expected env override BackupsToKeep=9, got %d", cfg.BackupsToKeep)
	}
	if len(cfg.AssetDirectories) != 2 || cfg.AssetDirectories[1] != "/b" {
		t.Errorf("expected env override directories, got %v", cfg.AssetDirectories)
	}
}

func TestAddRemoveAssetDirectory(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.AddAssetDirectory("/photos/") {
		t.Fatal("expected first add to succeed")
	}
	if cfg.AddAssetDirectory("/photos") {
		t.Error("expected duplicate add to be rejected")
	}
	if !cfg.RemoveAssetDirectory("/photos") {
		t.Error("expected remove to succeed")
	}
	if cfg.RemoveAssetDirectory("/photos") {
		t.Error("expected second remove to report absence")
	}
}
