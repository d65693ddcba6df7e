package ports

import (
	"context"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
)

// FolderRepository defines the port for folder persistence
type FolderRepository interface {
	// ListFolders returns every cataloged folder ordered by path
	ListFolders(ctx context.Context) ([]domain.Folder, error)

	// GetFolder retrieves a folder by id
	GetFolder(ctx context.Context, id string) (*domain.Folder, error)

	// GetFolderByPath retrieves a folder by its directory path
	GetFolderByPath(ctx context.Context, path string) (*domain.Folder, error)

	// AddFolder registers a new folder
	AddFolder(ctx context.Context, folder domain.Folder) error

	// DeleteFolder removes a folder and all of its asset rows
	DeleteFolder(ctx context.Context, id string) error
}

// AssetRepository defines the port for asset persistence
type AssetRepository interface {
	// ListAssets returns the assets of one folder ordered by file name
	ListAssets(ctx context.Context, folderID string) ([]domain.Asset, error)

	// ListAllAssets returns every asset paired with its folder
	ListAllAssets(ctx context.Context) ([]domain.CatalogedAsset, error)

	// GetAsset retrieves one asset
	GetAsset(ctx context.Context, folderID, fileName string) (*domain.Asset, error)

	// SaveAsset inserts or replaces an asset record
	SaveAsset(ctx context.Context, asset domain.Asset) error

	// DeleteAsset removes an asset record
	DeleteAsset(ctx context.Context, folderID, fileName string) error

	// FindByHash returns every asset whose content hash matches
	FindByHash(ctx context.Context, hash string) ([]domain.CatalogedAsset, error)

	// CountAssets returns the number of cataloged assets
	CountAssets(ctx context.Context) (int, error)
}

// SyncDefinitionRepository persists the directory sync configuration
type SyncDefinitionRepository interface {
	ListSyncDefinitions(ctx context.Context) ([]domain.SyncDefinition, error)
	ReplaceSyncDefinitions(ctx context.Context, defs []domain.SyncDefinition) error
}

// RecentPathRepository remembers recently used move destinations
type RecentPathRepository interface {
	ListRecentTargetPaths(ctx context.Context) ([]string, error)
	TouchRecentTargetPath(ctx context.Context, path string, at time.Time) error
}

// CatalogSnapshotter produces a consistent copy of the catalog database
type CatalogSnapshotter interface {
	Snapshot(ctx context.Context, destPath string) error
}

// CatalogRepository is the full persistence surface of the catalog database
type CatalogRepository interface {
	FolderRepository
	AssetRepository
	SyncDefinitionRepository
	RecentPathRepository
	CatalogSnapshotter
}

// ThumbnailStore defines the port for thumbnail blob storage
type ThumbnailStore interface {
	// Get returns the thumbnail bytes of an asset
	Get(folderID, fileName string) ([]byte, bool, error)

	// Put stores a thumbnail; it becomes durable on Flush
	Put(folderID, fileName string, data []byte) error

	// Delete removes a thumbnail; it becomes durable on Flush
	Delete(folderID, fileName string) error

	// DeleteFolder removes the whole blob of a folder immediately
	DeleteFolder(folderID string) error

	// Flush persists pending changes of one folder
	Flush(folderID string) error

	// FlushAll persists pending changes of every loaded folder
	FlushAll() error

	// Dir returns the directory holding the blob files
	Dir() string
}

// BackupArchive defines the port for backup archive storage
type BackupArchive interface {
	// Exists reports whether an archive for the given day exists
	Exists(day time.Time) bool

	// Write creates or replaces the archive for the given day.
	// files maps archive entry names to absolute source paths.
	Write(day time.Time, files map[string]string) (*domain.BackupInfo, error)

	// List returns archives ordered from newest to oldest
	List() ([]domain.BackupInfo, error)

	// Delete removes an archive by name
	Delete(name string) error

	// Extract unpacks an archive into dest and returns the extracted entry paths
	Extract(name string, dest string) (map[string]string, error)
}

// MediaAnalysis is the result of inspecting a media file
type MediaAnalysis struct {
	Dimensions      domain.Dimensions
	Rotation        domain.Rotation
	DHash           uint64
	Thumbnail       []byte
	ThumbnailSize   domain.Dimensions
	CorruptedReason string
}

// MediaAnalyzer defines the port for decoding media and producing thumbnails
type MediaAnalyzer interface {
	Analyze(ctx context.Context, path string) (*MediaAnalysis, error)
}

// FrameExtractor defines the port for grabbing a still frame from a video
type FrameExtractor interface {
	// ExtractFrame returns the first frame of the video encoded as JPEG
	ExtractFrame(ctx context.Context, videoPath string) ([]byte, error)
}

// ChangePublisher defines the port for emitting catalog changes
type ChangePublisher interface {
	Publish(change domain.CatalogChange)
}
