package services

import (
	"context"
	"fmt"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// StatsService summarises the catalog
type StatsService struct {
	folders ports.FolderRepository
	assets  ports.AssetRepository
}

// NewStatsService creates a new stats service
func NewStatsService(folders ports.FolderRepository, assets ports.AssetRepository) *StatsService {
	return &StatsService{folders: folders, assets: assets}
}

// FolderStats holds the counts of a single folder
type FolderStats struct {
	Folder    domain.Folder
	Assets    int
	Images    int
	Videos    int
	Corrupted int
	Bytes     int64
}

// CatalogStats holds catalog-wide totals
type CatalogStats struct {
	Folders       int
	Assets        int
	Images        int
	Videos        int
	Corrupted     int
	Rotated       int
	TotalBytes    int64
	DuplicateSets int
	WastedBytes   int64
	PerFolder     []FolderStats // ordered by folder path
}

// Execute computes the catalog statistics
func (s *StatsService) Execute(ctx context.Context) (*CatalogStats, error) {
	folders, err := s.folders.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	all, err := s.assets.ListAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	stats := &CatalogStats{
		Folders:   len(folders),
		PerFolder: make([]FolderStats, len(folders)),
	}
	index := make(map[string]int, len(folders))
	for i, f := range folders {
		index[f.ID] = i
		stats.PerFolder[i].Folder = f
	}

	for _, ca := range all {
		a := ca.Asset
		stats.Assets++
		stats.TotalBytes += a.FileProperties.Size
		if a.IsVideo {
			stats.Videos++
		} else {
			stats.Images++
		}
		if a.Metadata.Corrupted.IsTrue {
			stats.Corrupted++
		}
		if a.Metadata.Rotated.IsTrue {
			stats.Rotated++
		}

		i, ok := index[a.FolderID]
		if !ok {
			continue
		}
		fs := &stats.PerFolder[i]
		fs.Assets++
		fs.Bytes += a.FileProperties.Size
		if a.IsVideo {
			fs.Videos++
		} else {
			fs.Images++
		}
		if a.Metadata.Corrupted.IsTrue {
			fs.Corrupted++
		}
	}

	for _, set := range groupByHash(all) {
		stats.DuplicateSets++
		stats.WastedBytes += set.WastedBytes()
	}
	return stats, nil
}
