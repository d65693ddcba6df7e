package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder represents a directory node in the catalog tree
type Folder struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFolder creates a folder record for a directory path
func NewFolder(path string) Folder {
	return Folder{
		ID:        uuid.NewString(),
		Path:      filepath.Clean(path),
		CreatedAt: time.Now(),
	}
}

// Name returns the directory's base name
func (f Folder) Name() string {
	return filepath.Base(f.Path)
}

// Depth returns the number of path separators in the folder path
func (f Folder) Depth() int {
	return strings.Count(filepath.ToSlash(f.Path), "/")
}

// IsSubPath reports whether child is strictly nested under parent
func IsSubPath(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if parent == child {
		return false
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsSameOrSubPath reports whether child equals parent or is nested under it
func IsSameOrSubPath(parent, child string) bool {
	return filepath.Clean(parent) == filepath.Clean(child) || IsSubPath(parent, child)
}
