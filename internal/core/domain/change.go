package domain

import "time"

// ChangeReason describes what happened to the catalog
type ChangeReason string

const (
	FolderInspectionStarted   ChangeReason = "folder.inspection.started"
	FolderCreated             ChangeReason = "folder.created"
	FolderDeleted             ChangeReason = "folder.deleted"
	AssetCreated              ChangeReason = "asset.created"
	AssetUpdated              ChangeReason = "asset.updated"
	AssetDeleted              ChangeReason = "asset.deleted"
	FolderInspectionCompleted ChangeReason = "folder.inspection.completed"
	BackupCreationStarted     ChangeReason = "backup.creation.started"
	BackupUpdateStarted       ChangeReason = "backup.update.started"
	BackupCompleted           ChangeReason = "backup.completed"
	NoBackupChangesDetected   ChangeReason = "backup.unchanged"
	CatalogProcessCancelled   ChangeReason = "catalog.cancelled"
	CatalogProcessFailed      ChangeReason = "catalog.failed"
	CatalogProcessEnded       ChangeReason = "catalog.ended"
)

// IsAssetChange reports whether the reason mutates an asset record
func (r ChangeReason) IsAssetChange() bool {
	return r == AssetCreated || r == AssetUpdated || r == AssetDeleted
}

// IsTerminal reports whether the reason ends a catalog run
func (r ChangeReason) IsTerminal() bool {
	return r == CatalogProcessEnded || r == CatalogProcessCancelled || r == CatalogProcessFailed
}

// CatalogChange is one entry of the change-notification stream
type CatalogChange struct {
	Seq       uint64       `json:"seq"`
	Time      time.Time    `json:"time"`
	Reason    ChangeReason `json:"reason"`
	Folder    *Folder      `json:"folder,omitempty"`
	Asset     *Asset       `json:"asset,omitempty"`
	Message   string       `json:"message,omitempty"`
	Processed int          `json:"processed,omitempty"`
	Total     int          `json:"total,omitempty"`
}
