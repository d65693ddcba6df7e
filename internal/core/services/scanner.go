package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
)

// FolderScanner walks asset directories
type FolderScanner struct {
	excluded []string
}

// NewFolderScanner creates a scanner that never descends into the excluded paths
func NewFolderScanner(excluded ...string) *FolderScanner {
	cleaned := make([]string, 0, len(excluded))
	for _, e := range excluded {
		if e != "" {
			cleaned = append(cleaned, filepath.Clean(e))
		}
	}
	return &FolderScanner{excluded: cleaned}
}

// ScanResult lists the directories found under a set of roots
type ScanResult struct {
	Directories []string // breadth-first, parents before children
	Missing     []string // roots that do not exist or are not directories
	Unreadable  []string // directories whose entries could not be listed
}

// MediaFile is a media entry of a directory
type MediaFile struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

func (s *FolderScanner) isExcluded(path string) bool {
	for _, e := range s.excluded {
		if domain.IsSameOrSubPath(e, path) {
			return true
		}
	}
	return false
}

// Scan walks every root breadth-first. Siblings are visited in path order.
func (s *FolderScanner) Scan(ctx context.Context, roots []string) (*ScanResult, error) {
	result := &ScanResult{}
	seen := make(map[string]bool)
	var queue []string

	for _, root := range roots {
		root = filepath.Clean(root)
		if seen[root] {
			continue
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			result.Missing = append(result.Missing, root)
			continue
		}
		if s.isExcluded(root) {
			continue
		}
		seen[root] = true
		queue = append(queue, root)
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := queue[0]
		queue = queue[1:]
		result.Directories = append(result.Directories, dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			result.Unreadable = append(result.Unreadable, dir)
			continue
		}

		var children []string
		for _, entry := range entries {
			if !entry.IsDir() || domain.IsHidden(entry.Name()) {
				continue
			}
			child := filepath.Join(dir, entry.Name())
			if seen[child] || s.isExcluded(child) {
				continue
			}
			seen[child] = true
			children = append(children, child)
		}
		sort.Strings(children)
		queue = append(queue, children...)
	}

	return result, nil
}

// ListMediaFiles returns the media files directly inside dir, sorted by name
func (s *FolderScanner) ListMediaFiles(dir string) ([]MediaFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []MediaFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || domain.IsHidden(name) || !domain.IsMedia(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, MediaFile{
			Name:       name,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}
