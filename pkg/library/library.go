package library

import (
	"fmt"
	"os"
	"path/filepath"
)

// Library represents the managed data directory for px
type Library struct {
	RootPath    string
	BlobsPath   string
	BackupsPath string
	CachePath   string
	LogsPath    string
	ConfigPath  string
}

// New creates a new Library instance with XDG-compliant paths
func New() (*Library, error) {
	rootPath, rootErr := getLibraryRoot()
	configPath, configErr := getConfigPath()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine library root: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	lib := NewAt(rootPath)
	lib.ConfigPath = configPath
	return lib, nil
}

// NewAt creates a Library rooted at an explicit directory.
// The config file lives inside the root.
func NewAt(rootPath string) *Library {
	return &Library{
		RootPath:    rootPath,
		BlobsPath:   filepath.Join(rootPath, "blobs"),
		BackupsPath: filepath.Join(rootPath, "backups"),
		CachePath:   filepath.Join(rootPath, "cache"),
		LogsPath:    filepath.Join(rootPath, "logs"),
		ConfigPath:  filepath.Join(rootPath, "config.yaml"),
	}
}

// getLibraryRoot returns the library root directory path
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func getLibraryRoot() (string, error) {
	if dir := os.Getenv("PX_HOME"); dir != "" {
		return dir, nil
	}

	// Check XDG_DATA_HOME first (Unix-like systems)
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "px"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// Check if we're on Windows by looking for APPDATA
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "px"), nil
	}

	return filepath.Join(homeDir, ".local", "share", "px"), nil
}

func getConfigPath() (string, error) {
	if dir := os.Getenv("PX_HOME"); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}

	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "px", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "px-config", "config.yaml"), nil
	}

	return filepath.Join(homeDir, ".config", "px", "config.yaml"), nil
}

// Initialize creates the library directory structure if it doesn't exist
func (l *Library) Initialize() error {
	directories := []string{
		l.RootPath,
		l.BlobsPath,
		l.BackupsPath,
		l.CachePath,
		l.LogsPath,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if the library has been initialized
func (l *Library) Exists() bool {
	info, err := os.Stat(l.RootPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// DatabasePath returns the path of the catalog database
func (l *Library) DatabasePath() string {
	return filepath.Join(l.RootPath, "catalog.db")
}

// LogFilePath returns the path of the rotating log file
func (l *Library) LogFilePath() string {
	return filepath.Join(l.LogsPath, "px.log")
}

// GetCachePath returns the full path for a cached file
func (l *Library) GetCachePath(filename string) string {
	return filepath.Join(l.CachePath, filename)
}

// GetBackupPath returns the full path for a backup archive
func (l *Library) GetBackupPath(filename string) string {
	return filepath.Join(l.BackupsPath, filename)
}

// Contains reports whether path lives inside the library directory.
// Scans skip it so thumbnails and caches are never cataloged.
func (l *Library) Contains(path string) bool {
	rel, err := filepath.Rel(l.RootPath, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

// CleanCache removes all files in the cache directory
func (l *Library) CleanCache() error {
	entries, err := os.ReadDir(l.CachePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(l.CachePath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}
