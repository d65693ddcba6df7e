package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// SyncService mirrors media files between directory pairs
type SyncService struct {
	repo    ports.SyncDefinitionRepository
	scanner *FolderScanner
	logger  *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(repo ports.SyncDefinitionRepository, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		repo:    repo,
		scanner: NewFolderScanner(),
		logger:  logger,
	}
}

// Definitions returns the stored sync definitions in execution order
func (s *SyncService) Definitions(ctx context.Context) ([]domain.SyncDefinition, error) {
	return s.repo.ListSyncDefinitions(ctx)
}

// SaveDefinitions validates and replaces the stored definitions
func (s *SyncService) SaveDefinitions(ctx context.Context, defs []domain.SyncDefinition) error {
	normalized := make([]domain.SyncDefinition, 0, len(defs))
	for i, d := range defs {
		d = d.Normalize()
		if err := d.Validate(); err != nil {
			return fmt.Errorf("definition %d: %w", i+1, err)
		}
		normalized = append(normalized, d)
	}
	return s.repo.ReplaceSyncDefinitions(ctx, normalized)
}

// Execute runs every stored definition in order
func (s *SyncService) Execute(ctx context.Context) ([]domain.SyncResult, error) {
	defs, err := s.repo.ListSyncDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sync definitions: %w", err)
	}

	results := make([]domain.SyncResult, 0, len(defs))
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := s.run(ctx, def)
		if result.Err != nil {
			if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
				return append(results, result), result.Err
			}
			s.logger.Warn("sync definition failed",
				zap.String("source", def.SourceDirectory),
				zap.String("destination", def.DestinationDirectory),
				zap.Error(result.Err))
		} else {
			s.logger.Info("sync definition completed",
				zap.String("source", def.SourceDirectory),
				zap.String("destination", def.DestinationDirectory),
				zap.Int("copied", result.Copied),
				zap.Int("deleted", result.Deleted))
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *SyncService) run(ctx context.Context, def domain.SyncDefinition) domain.SyncResult {
	result := domain.SyncResult{Definition: def}

	if err := def.Validate(); err != nil {
		result.Err = err
		result.Message = err.Error()
		return result
	}

	source, err := s.mediaTree(ctx, def.SourceDirectory, def.IncludeSubFolders)
	if err != nil {
		result.Err = fmt.Errorf("read source: %w", err)
		result.Message = result.Err.Error()
		return result
	}
	if err := os.MkdirAll(def.DestinationDirectory, 0755); err != nil {
		result.Err = fmt.Errorf("create destination: %w", err)
		result.Message = result.Err.Error()
		return result
	}
	dest, err := s.mediaTree(ctx, def.DestinationDirectory, def.IncludeSubFolders)
	if err != nil {
		result.Err = fmt.Errorf("read destination: %w", err)
		result.Message = result.Err.Error()
		return result
	}

	for _, rel := range sortedKeys(source) {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}
		if dest[rel] {
			result.Skipped++
			continue
		}
		src := filepath.Join(def.SourceDirectory, rel)
		dst := filepath.Join(def.DestinationDirectory, rel)
		if err := copyFile(src, dst); err != nil {
			result.Err = err
			result.Message = err.Error()
			return result
		}
		result.Copied++
	}

	if def.DeleteAssetsNotInSource {
		for _, rel := range sortedKeys(dest) {
			if err := ctx.Err(); err != nil {
				result.Err = err
				return result
			}
			if source[rel] {
				continue
			}
			path := filepath.Join(def.DestinationDirectory, rel)
			if domain.IsSubPath(def.SourceDirectory, path) {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				result.Err = fmt.Errorf("remove %s: %w", path, err)
				result.Message = result.Err.Error()
				return result
			}
			result.Deleted++
		}
	}

	result.Message = fmt.Sprintf("%d copied, %d deleted", result.Copied, result.Deleted)
	return result
}

// mediaTree returns the relative paths of media files under root
func (s *SyncService) mediaTree(ctx context.Context, root string, recursive bool) (map[string]bool, error) {
	dirs := []string{filepath.Clean(root)}
	if recursive {
		scan, err := s.scanner.Scan(ctx, []string{root})
		if err != nil {
			return nil, err
		}
		if len(scan.Missing) > 0 {
			return nil, fmt.Errorf("%s: %w", root, os.ErrNotExist)
		}
		dirs = scan.Directories
	}

	tree := make(map[string]bool)
	for _, dir := range dirs {
		files, err := s.scanner.ListMediaFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			rel, err := filepath.Rel(root, filepath.Join(dir, f.Name))
			if err != nil {
				return nil, err
			}
			tree[rel] = true
		}
	}
	return tree, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
