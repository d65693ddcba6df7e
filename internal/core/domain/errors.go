package domain

import "errors"

var (
	ErrAssetNotFound         = errors.New("asset not found")
	ErrFolderNotFound        = errors.New("folder not found")
	ErrAssetExists           = errors.New("asset already exists at destination")
	ErrInvalidSyncDefinition = errors.New("invalid sync definition")
	ErrSameFolder            = errors.New("destination is the source folder")
	ErrBackupNotFound        = errors.New("backup not found")
	ErrBackupCorrupt         = errors.New("backup archive is corrupt")
)
