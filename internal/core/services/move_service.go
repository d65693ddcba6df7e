package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// MoveAssetsService copies, moves and deletes cataloged assets
type MoveAssetsService struct {
	repo      ports.CatalogRepository
	thumbs    ports.ThumbnailStore
	publisher ports.ChangePublisher
	remover   assetRemover
	logger    *zap.Logger
	now       func() time.Time
}

// NewMoveAssetsService creates a new move service
func NewMoveAssetsService(repo ports.CatalogRepository, thumbs ports.ThumbnailStore, publisher ports.ChangePublisher, logger *zap.Logger) *MoveAssetsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoveAssetsService{
		repo:      repo,
		thumbs:    thumbs,
		publisher: publisher,
		remover:   assetRemover{repo: repo, thumbs: thumbs, publisher: publisher},
		logger:    logger,
		now:       time.Now,
	}
}

// MoveRequest represents a request to move or copy assets into a directory
type MoveRequest struct {
	Assets           []domain.CatalogedAsset
	Destination      string
	PreserveOriginal bool // copy instead of move
}

// MoveResponse reports what a move did
type MoveResponse struct {
	Destination domain.Folder
	Moved       int
}

// Move copies every asset into the destination and, unless PreserveOriginal
// is set, removes the sources. Nothing is touched when any asset would
// overwrite an existing file.
func (s *MoveAssetsService) Move(ctx context.Context, req MoveRequest) (*MoveResponse, error) {
	if len(req.Assets) == 0 {
		return nil, fmt.Errorf("no assets to move")
	}
	dest, err := filepath.Abs(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("destination %s: %w", dest, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("destination %s is not a directory", dest)
	}

	seen := make(map[string]bool)
	for _, a := range req.Assets {
		if filepath.Clean(a.Folder.Path) == dest {
			return nil, fmt.Errorf("%s: %w", a.Path(), domain.ErrSameFolder)
		}
		target := filepath.Join(dest, a.Asset.FileName)
		if seen[target] || fileExists(target) {
			return nil, fmt.Errorf("%s: %w", target, domain.ErrAssetExists)
		}
		seen[target] = true
	}

	folder, err := s.ensureFolder(ctx, dest)
	if err != nil {
		return nil, err
	}

	resp := &MoveResponse{Destination: folder}
	touched := map[string]bool{folder.ID: true}
	defer func() {
		if ferr := s.remover.flush(touched); ferr != nil {
			s.logger.Warn("failed to flush thumbnails", zap.Error(ferr))
		}
	}()

	for _, a := range req.Assets {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if err := s.copyAsset(ctx, a, folder); err != nil {
			return resp, err
		}
		if !req.PreserveOriginal {
			if err := s.remover.remove(ctx, a); err != nil {
				return resp, err
			}
			touched[a.Folder.ID] = true
		}
		resp.Moved++
		s.logger.Info("asset moved",
			zap.String("from", a.Path()),
			zap.String("to", folder.Path),
			zap.Bool("preserve_original", req.PreserveOriginal))
	}

	if err := s.repo.TouchRecentTargetPath(ctx, dest, s.now()); err != nil {
		s.logger.Warn("failed to record recent target path", zap.String("path", dest), zap.Error(err))
	}
	return resp, nil
}

func (s *MoveAssetsService) ensureFolder(ctx context.Context, path string) (domain.Folder, error) {
	existing, err := s.repo.GetFolderByPath(ctx, path)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, domain.ErrFolderNotFound) {
		return domain.Folder{}, fmt.Errorf("get folder %s: %w", path, err)
	}

	folder := domain.NewFolder(path)
	if err := s.repo.AddFolder(ctx, folder); err != nil {
		return domain.Folder{}, fmt.Errorf("add folder %s: %w", path, err)
	}
	created := folder
	s.publisher.Publish(domain.CatalogChange{
		Reason:  domain.FolderCreated,
		Folder:  &created,
		Message: path,
	})
	return folder, nil
}

func (s *MoveAssetsService) copyAsset(ctx context.Context, src domain.CatalogedAsset, dest domain.Folder) error {
	target := src.Asset.FullPath(dest)
	if err := copyFile(src.Path(), target); err != nil {
		return err
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	asset := src.Asset
	asset.FolderID = dest.ID
	asset.FileProperties = domain.FileProperties{
		Size:       info.Size(),
		CreatedAt:  s.now(),
		ModifiedAt: info.ModTime(),
	}
	asset.CatalogedAt = s.now()

	if err := s.repo.SaveAsset(ctx, asset); err != nil {
		_ = os.Remove(target)
		return fmt.Errorf("save asset %s: %w", target, err)
	}

	thumb, ok, err := s.thumbs.Get(src.Folder.ID, src.Asset.FileName)
	if err != nil {
		return fmt.Errorf("read thumbnail %s: %w", src.Path(), err)
	}
	if ok {
		if err := s.thumbs.Put(dest.ID, asset.FileName, thumb); err != nil {
			return fmt.Errorf("write thumbnail %s: %w", target, err)
		}
	}

	folder := dest
	s.publisher.Publish(domain.CatalogChange{
		Reason:  domain.AssetCreated,
		Folder:  &folder,
		Asset:   &asset,
		Message: target,
	})
	return nil
}

// Delete removes the files, rows and thumbnails of assets
func (s *MoveAssetsService) Delete(ctx context.Context, assets []domain.CatalogedAsset) (int, error) {
	touched := make(map[string]bool)
	deleted := 0
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return deleted, errors.Join(err, s.remover.flush(touched))
		}
		if err := s.remover.remove(ctx, a); err != nil {
			return deleted, errors.Join(err, s.remover.flush(touched))
		}
		touched[a.Folder.ID] = true
		deleted++
	}
	return deleted, s.remover.flush(touched)
}

// RecentTargetPaths returns recently used destinations, most recent first
func (s *MoveAssetsService) RecentTargetPaths(ctx context.Context) ([]string, error) {
	return s.repo.ListRecentTargetPaths(ctx)
}
