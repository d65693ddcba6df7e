package domain

import (
	"path/filepath"
	"time"
)

// Rotation is the clockwise rotation needed to display an image upright
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Dimensions is a width/height pair in pixels
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Pixel holds the original and thumbnail dimensions of an asset
type Pixel struct {
	Asset     Dimensions `json:"asset"`
	Thumbnail Dimensions `json:"thumbnail"`
}

// FileProperties is the on-disk state of the file at catalog time
type FileProperties struct {
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Flag is a boolean marker with an explanation
type Flag struct {
	IsTrue  bool   `json:"is_true"`
	Message string `json:"message,omitempty"`
}

// AssetMetadata carries the corruption and rotation markers of an asset
type AssetMetadata struct {
	Corrupted Flag `json:"corrupted"`
	Rotated   Flag `json:"rotated"`
}

// Asset represents a cataloged image or video file
type Asset struct {
	FolderID           string         `json:"folder_id"`
	FileName           string         `json:"file_name"`
	Hash               string         `json:"hash"`  // SHA-256 of file content
	DHash              uint64         `json:"dhash"` // Difference hash, 0 when unavailable
	Pixel              Pixel          `json:"pixel"`
	FileProperties     FileProperties `json:"file_properties"`
	Rotation           Rotation       `json:"rotation"`
	Metadata           AssetMetadata  `json:"metadata"`
	IsVideo            bool           `json:"is_video"`
	ThumbnailCreatedAt time.Time      `json:"thumbnail_created_at"`
	CatalogedAt        time.Time      `json:"cataloged_at"`
}

// AssetKey identifies an asset inside the catalog
type AssetKey struct {
	FolderID string
	FileName string
}

// Key returns the composite identity of the asset
func (a Asset) Key() AssetKey {
	return AssetKey{FolderID: a.FolderID, FileName: a.FileName}
}

// FullPath joins the asset's file name with its folder path
func (a Asset) FullPath(folder Folder) string {
	return filepath.Join(folder.Path, a.FileName)
}

// HasChanged reports whether the file on disk no longer matches the cataloged state.
// Modification times are compared at second precision because some filesystems
// and the catalog database truncate sub-second values.
func (a Asset) HasChanged(size int64, modTime time.Time) bool {
	if a.FileProperties.Size != size {
		return true
	}
	return a.FileProperties.ModifiedAt.Unix() != modTime.Unix()
}

// AspectRatio returns width/height of the original, or 0 when unknown
func (a Asset) AspectRatio() float64 {
	if a.Pixel.Asset.Height == 0 {
		return 0
	}
	return float64(a.Pixel.Asset.Width) / float64(a.Pixel.Asset.Height)
}

// HasThumbnail reports whether a thumbnail blob was produced for the asset
func (a Asset) HasThumbnail() bool {
	return !a.ThumbnailCreatedAt.IsZero()
}
