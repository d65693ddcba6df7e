package domain

import (
	"strings"
	"time"
)

// BackupDateLayout names backup archives by calendar day
const BackupDateLayout = "20060102"

// BackupInfo describes one backup archive on disk
type BackupInfo struct {
	Name string
	Date time.Time
	Path string
	Size int64
}

// BackupName returns the archive file name for the given day
func BackupName(t time.Time) string {
	return t.Format(BackupDateLayout) + ".zip"
}

// ParseBackupName extracts the date from an archive file name
func ParseBackupName(name string) (time.Time, bool) {
	if !strings.HasSuffix(name, ".zip") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(BackupDateLayout, strings.TrimSuffix(name, ".zip"), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BackupManifest lists the files stored in an archive
type BackupManifest struct {
	Version   int                           `json:"version"`
	CreatedAt string                        `json:"created_at"`
	Files     map[string]BackupManifestFile `json:"files"`
}

// BackupManifestFile records the checksum of one archived file
type BackupManifestFile struct {
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
}
