package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

const (
	defaultCatalogBatchSize = 10000
	defaultCatalogWorkers   = 4
)

// CatalogService keeps the catalog in step with the asset directories
type CatalogService struct {
	repo      ports.CatalogRepository
	thumbs    ports.ThumbnailStore
	analyzer  ports.MediaAnalyzer
	publisher ports.ChangePublisher
	scanner   *FolderScanner
	hasher    *AssetHasher
	backup    *BackupService
	logger    *zap.Logger
	now       func() time.Time
}

// NewCatalogService creates a new catalog service. backup may be nil to
// skip archiving after a run.
func NewCatalogService(
	repo ports.CatalogRepository,
	thumbs ports.ThumbnailStore,
	analyzer ports.MediaAnalyzer,
	publisher ports.ChangePublisher,
	scanner *FolderScanner,
	backup *BackupService,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanner == nil {
		scanner = NewFolderScanner()
	}
	return &CatalogService{
		repo:      repo,
		thumbs:    thumbs,
		analyzer:  analyzer,
		publisher: publisher,
		scanner:   scanner,
		hasher:    NewAssetHasher(),
		backup:    backup,
		logger:    logger,
		now:       time.Now,
	}
}

// CatalogRequest represents a request to catalog the asset directories
type CatalogRequest struct {
	Roots      []string // configured asset directories
	BatchSize  int      // created+updated assets per run
	MaxWorkers int      // concurrent analyses per folder
}

// CatalogResponse summarises one catalog run
type CatalogResponse struct {
	FoldersInspected  int
	FoldersCreated    int
	FoldersDeleted    int
	Created           int
	Updated           int
	Deleted           int
	Corrupted         int
	Skipped           int
	BatchLimitReached bool
	Missing           []string
	Backup            *domain.BackupInfo
	Duration          time.Duration
}

// Changed reports whether the run modified the catalog
func (r *CatalogResponse) Changed() bool {
	return r.FoldersCreated+r.FoldersDeleted+r.Created+r.Updated+r.Deleted > 0
}

type catalogRun struct {
	req      CatalogRequest
	resp     *CatalogResponse
	byPath   map[string]domain.Folder
	budget   int
	dirIndex int
	dirTotal int
}

func (r *catalogRun) remaining() int {
	return r.budget - (r.resp.Created + r.resp.Updated)
}

// Execute performs one incremental catalog pass
func (s *CatalogService) Execute(ctx context.Context, req CatalogRequest) (*CatalogResponse, error) {
	start := s.now()
	if req.BatchSize <= 0 {
		req.BatchSize = defaultCatalogBatchSize
	}
	if req.MaxWorkers <= 0 {
		req.MaxWorkers = defaultCatalogWorkers
	}

	resp, err := s.execute(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			s.publisher.Publish(domain.CatalogChange{Reason: domain.CatalogProcessCancelled})
			s.logger.Info("catalog cancelled")
			return resp, ctx.Err()
		}
		s.publisher.Publish(domain.CatalogChange{Reason: domain.CatalogProcessFailed, Message: err.Error()})
		s.logger.Error("catalog failed", zap.Error(err))
		return resp, err
	}

	resp.Duration = s.now().Sub(start)
	s.publisher.Publish(domain.CatalogChange{
		Reason: domain.CatalogProcessEnded,
		Message: fmt.Sprintf("%d created, %d updated, %d deleted",
			resp.Created, resp.Updated, resp.Deleted),
	})
	s.logger.Info("catalog finished",
		zap.Int("folders", resp.FoldersInspected),
		zap.Int("created", resp.Created),
		zap.Int("updated", resp.Updated),
		zap.Int("deleted", resp.Deleted),
		zap.Int("corrupted", resp.Corrupted),
		zap.Bool("batch_limit_reached", resp.BatchLimitReached),
		zap.Duration("duration", resp.Duration),
	)
	return resp, nil
}

func (s *CatalogService) execute(ctx context.Context, req CatalogRequest) (*CatalogResponse, error) {
	resp := &CatalogResponse{}

	roots, err := s.collectRoots(ctx, req.Roots)
	if err != nil {
		return resp, err
	}

	scan, err := s.scanner.Scan(ctx, roots)
	if err != nil {
		return resp, fmt.Errorf("scan directories: %w", err)
	}
	resp.Missing = scan.Missing
	for _, dir := range scan.Unreadable {
		s.logger.Warn("directory could not be read", zap.String("path", dir))
	}

	folders, err := s.repo.ListFolders(ctx)
	if err != nil {
		return resp, fmt.Errorf("list folders: %w", err)
	}
	run := &catalogRun{
		req:      req,
		resp:     resp,
		byPath:   make(map[string]domain.Folder, len(folders)),
		budget:   req.BatchSize,
		dirTotal: len(scan.Directories),
	}
	for _, f := range folders {
		run.byPath[f.Path] = f
	}

	for i, dir := range scan.Directories {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if run.remaining() <= 0 {
			resp.BatchLimitReached = true
			break
		}
		run.dirIndex = i + 1
		if err := s.catalogFolder(ctx, run, dir); err != nil {
			return resp, err
		}
	}

	if err := s.removeVanishedFolders(ctx, run, roots, scan.Missing); err != nil {
		return resp, err
	}

	if !resp.Changed() {
		s.publisher.Publish(domain.CatalogChange{Reason: domain.NoBackupChangesDetected})
		return resp, nil
	}
	if s.backup != nil {
		info, err := s.backup.Backup(ctx, s.now())
		if err != nil {
			return resp, fmt.Errorf("backup catalog: %w", err)
		}
		resp.Backup = info
	}
	return resp, nil
}

// collectRoots merges the configured directories with sync destinations
func (s *CatalogService) collectRoots(ctx context.Context, configured []string) ([]string, error) {
	seen := make(map[string]bool)
	var roots []string
	add := func(p string) {
		if p == "" {
			return
		}
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			roots = append(roots, p)
		}
	}
	for _, r := range configured {
		add(r)
	}

	defs, err := s.repo.ListSyncDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sync definitions: %w", err)
	}
	for _, d := range defs {
		add(d.DestinationDirectory)
	}
	return roots, nil
}

type catalogJob struct {
	file     MediaFile
	existing *domain.Asset
}

type catalogResult struct {
	hash     string
	analysis *ports.MediaAnalysis
	err      error
}

func (s *CatalogService) catalogFolder(ctx context.Context, run *catalogRun, dir string) (err error) {
	resp := run.resp
	resp.FoldersInspected++
	s.publisher.Publish(domain.CatalogChange{
		Reason:    domain.FolderInspectionStarted,
		Message:   dir,
		Processed: run.dirIndex,
		Total:     run.dirTotal,
	})

	folder, ok := run.byPath[dir]
	if !ok {
		folder = domain.NewFolder(dir)
		folder.CreatedAt = s.now()
		if err := s.repo.AddFolder(ctx, folder); err != nil {
			return fmt.Errorf("add folder %s: %w", dir, err)
		}
		run.byPath[dir] = folder
		resp.FoldersCreated++
		created := folder
		s.publisher.Publish(domain.CatalogChange{Reason: domain.FolderCreated, Folder: &created, Message: dir})
	}

	// Rows and blobs must agree once the folder is done, whatever happens
	flushed := false
	defer func() {
		if flushed {
			return
		}
		if flushErr := s.thumbs.Flush(folder.ID); flushErr != nil && err == nil {
			err = fmt.Errorf("flush thumbnails of %s: %w", dir, flushErr)
		}
	}()

	files, err := s.scanner.ListMediaFiles(dir)
	if err != nil {
		s.logger.Warn("skipping unreadable folder", zap.String("path", dir), zap.Error(err))
		return nil
	}

	existing, err := s.repo.ListAssets(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("list assets of %s: %w", dir, err)
	}
	byName := make(map[string]domain.Asset, len(existing))
	for _, a := range existing {
		byName[a.FileName] = a
	}

	onDisk := make(map[string]bool, len(files))
	var jobs []catalogJob
	for _, f := range files {
		onDisk[f.Name] = true
		a, ok := byName[f.Name]
		switch {
		case !ok:
			jobs = append(jobs, catalogJob{file: f})
		case a.HasChanged(f.Size, f.ModifiedAt):
			prev := a
			jobs = append(jobs, catalogJob{file: f, existing: &prev})
		}
	}
	if remaining := run.remaining(); len(jobs) > remaining {
		jobs = jobs[:remaining]
		resp.BatchLimitReached = true
	}

	results, err := s.analyzeAll(ctx, dir, jobs, run.req.MaxWorkers)
	if err != nil {
		return err
	}

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := results[i]
		path := filepath.Join(dir, job.file.Name)
		if res.err != nil {
			resp.Skipped++
			s.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(res.err))
			continue
		}
		if err := s.applyResult(ctx, run, folder, job, res, i+1, len(jobs)); err != nil {
			return err
		}
	}

	var vanished []string
	for name := range byName {
		if !onDisk[name] {
			vanished = append(vanished, name)
		}
	}
	sort.Strings(vanished)
	for _, name := range vanished {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.deleteAsset(ctx, folder, byName[name]); err != nil {
			return err
		}
		resp.Deleted++
	}

	flushed = true
	if err := s.thumbs.Flush(folder.ID); err != nil {
		return fmt.Errorf("flush thumbnails of %s: %w", dir, err)
	}

	s.publisher.Publish(domain.CatalogChange{
		Reason:    domain.FolderInspectionCompleted,
		Folder:    &folder,
		Message:   dir,
		Processed: run.dirIndex,
		Total:     run.dirTotal,
	})
	return nil
}

// analyzeAll hashes and analyzes jobs on a bounded pool; results keep job order
func (s *CatalogService) analyzeAll(ctx context.Context, dir string, jobs []catalogJob, workers int) ([]catalogResult, error) {
	results := make([]catalogResult, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			path := filepath.Join(dir, job.file.Name)
			hash, err := s.hasher.Hash(gctx, path)
			if err == nil {
				var analysis *ports.MediaAnalysis
				analysis, err = s.analyzer.Analyze(gctx, path)
				results[i] = catalogResult{hash: hash, analysis: analysis, err: err}
			} else {
				results[i] = catalogResult{err: err}
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *CatalogService) applyResult(ctx context.Context, run *catalogRun, folder domain.Folder, job catalogJob, res catalogResult, processed, total int) error {
	now := s.now()
	an := res.analysis
	asset := domain.Asset{
		FolderID: folder.ID,
		FileName: job.file.Name,
		Hash:     res.hash,
		DHash:    an.DHash,
		Pixel: domain.Pixel{
			Asset:     an.Dimensions,
			Thumbnail: an.ThumbnailSize,
		},
		FileProperties: domain.FileProperties{
			Size:       job.file.Size,
			CreatedAt:  job.file.ModifiedAt,
			ModifiedAt: job.file.ModifiedAt,
		},
		Rotation:    an.Rotation,
		IsVideo:     domain.IsVideo(job.file.Name),
		CatalogedAt: now,
	}
	if job.existing != nil && !job.existing.FileProperties.CreatedAt.IsZero() {
		asset.FileProperties.CreatedAt = job.existing.FileProperties.CreatedAt
	}
	if an.CorruptedReason != "" {
		asset.Metadata.Corrupted = domain.Flag{IsTrue: true, Message: an.CorruptedReason}
		run.resp.Corrupted++
	}
	if an.Rotation != domain.Rotate0 {
		asset.Metadata.Rotated = domain.Flag{
			IsTrue:  true,
			Message: fmt.Sprintf("displayed rotated by %d degrees", int(an.Rotation)),
		}
	}
	if len(an.Thumbnail) > 0 {
		asset.ThumbnailCreatedAt = now
	}

	if err := s.repo.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("save asset %s: %w", asset.FileName, err)
	}
	if len(an.Thumbnail) > 0 {
		if err := s.thumbs.Put(folder.ID, asset.FileName, an.Thumbnail); err != nil {
			return fmt.Errorf("store thumbnail %s: %w", asset.FileName, err)
		}
	} else if err := s.thumbs.Delete(folder.ID, asset.FileName); err != nil {
		return fmt.Errorf("drop thumbnail %s: %w", asset.FileName, err)
	}

	reason := domain.AssetCreated
	if job.existing != nil {
		reason = domain.AssetUpdated
		run.resp.Updated++
	} else {
		run.resp.Created++
	}
	f := folder
	s.publisher.Publish(domain.CatalogChange{
		Reason:    reason,
		Folder:    &f,
		Asset:     &asset,
		Message:   filepath.Join(folder.Path, asset.FileName),
		Processed: processed,
		Total:     total,
	})
	return nil
}

func (s *CatalogService) deleteAsset(ctx context.Context, folder domain.Folder, asset domain.Asset) error {
	if err := s.repo.DeleteAsset(ctx, folder.ID, asset.FileName); err != nil && !errors.Is(err, domain.ErrAssetNotFound) {
		return fmt.Errorf("delete asset %s: %w", asset.FileName, err)
	}
	if err := s.thumbs.Delete(folder.ID, asset.FileName); err != nil {
		return fmt.Errorf("drop thumbnail %s: %w", asset.FileName, err)
	}
	f := folder
	a := asset
	s.publisher.Publish(domain.CatalogChange{
		Reason:  domain.AssetDeleted,
		Folder:  &f,
		Asset:   &a,
		Message: filepath.Join(folder.Path, asset.FileName),
	})
	return nil
}

// removeVanishedFolders drops folders whose directory is gone. Folders under a
// missing root are kept so an unmounted drive does not empty the catalog.
func (s *CatalogService) removeVanishedFolders(ctx context.Context, run *catalogRun, roots, missing []string) error {
	missingRoot := make(map[string]bool, len(missing))
	for _, m := range missing {
		missingRoot[m] = true
	}

	var candidates []domain.Folder
	for _, folder := range run.byPath {
		if folderExists(folder.Path) {
			continue
		}
		underRoot := false
		for _, root := range roots {
			if domain.IsSameOrSubPath(root, folder.Path) {
				if missingRoot[root] {
					underRoot = false
					break
				}
				underRoot = true
			}
		}
		if underRoot {
			candidates = append(candidates, folder)
		}
	}
	// Children before parents keeps the event stream readable
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Depth() != candidates[j].Depth() {
			return candidates[i].Depth() > candidates[j].Depth()
		}
		return candidates[i].Path < candidates[j].Path
	})

	for _, folder := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		assets, err := s.repo.ListAssets(ctx, folder.ID)
		if err != nil {
			return fmt.Errorf("list assets of %s: %w", folder.Path, err)
		}
		for _, a := range assets {
			if err := s.deleteAsset(ctx, folder, a); err != nil {
				return err
			}
			run.resp.Deleted++
		}
		if err := s.thumbs.DeleteFolder(folder.ID); err != nil {
			return fmt.Errorf("delete blob of %s: %w", folder.Path, err)
		}
		if err := s.repo.DeleteFolder(ctx, folder.ID); err != nil && !errors.Is(err, domain.ErrFolderNotFound) {
			return fmt.Errorf("delete folder %s: %w", folder.Path, err)
		}
		delete(run.byPath, folder.Path)
		run.resp.FoldersDeleted++
		f := folder
		s.publisher.Publish(domain.CatalogChange{Reason: domain.FolderDeleted, Folder: &f, Message: folder.Path})
	}
	return nil
}

func folderExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
