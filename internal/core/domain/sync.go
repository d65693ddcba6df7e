package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SyncDefinition describes one source → destination directory mirror
type SyncDefinition struct {
	ID                      int64  `json:"id"`
	SourceDirectory         string `json:"source_directory"`
	DestinationDirectory    string `json:"destination_directory"`
	IncludeSubFolders       bool   `json:"include_sub_folders"`
	DeleteAssetsNotInSource bool   `json:"delete_assets_not_in_source"`
}

// Validate checks that the definition can be executed safely
func (d SyncDefinition) Validate() error {
	src := strings.TrimSpace(d.SourceDirectory)
	dst := strings.TrimSpace(d.DestinationDirectory)

	if src == "" || dst == "" {
		return fmt.Errorf("%w: source and destination are required", ErrInvalidSyncDefinition)
	}
	if !filepath.IsAbs(src) || !filepath.IsAbs(dst) {
		return fmt.Errorf("%w: paths must be absolute", ErrInvalidSyncDefinition)
	}
	if filepath.Clean(src) == filepath.Clean(dst) {
		return fmt.Errorf("%w: source and destination are the same directory", ErrInvalidSyncDefinition)
	}
	if d.IncludeSubFolders && IsSubPath(src, dst) {
		return fmt.Errorf("%w: destination is inside the source tree", ErrInvalidSyncDefinition)
	}
	// A recursive destination scan would list the source's own files as
	// absent from the source
	if d.IncludeSubFolders && IsSubPath(dst, src) {
		return fmt.Errorf("%w: source is inside the destination tree", ErrInvalidSyncDefinition)
	}
	return nil
}

// Normalize returns a copy with cleaned paths
func (d SyncDefinition) Normalize() SyncDefinition {
	d.SourceDirectory = filepath.Clean(strings.TrimSpace(d.SourceDirectory))
	d.DestinationDirectory = filepath.Clean(strings.TrimSpace(d.DestinationDirectory))
	return d
}

// SyncResult summarises the execution of one definition
type SyncResult struct {
	Definition SyncDefinition
	Copied     int
	Deleted    int
	Skipped    int
	Message    string
	Err        error
}
