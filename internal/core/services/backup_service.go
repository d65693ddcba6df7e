package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

const (
	backupFormatVersion   = 1
	backupDatabaseEntry   = "catalog.db"
	backupManifestEntry   = "manifest.json"
	backupBlobsEntryDir   = "blobs"
	blobFileExtension     = ".bin"
	defaultBackupsToKeep  = 2
	stagingDirectoryLabel = "backup-*"
)

// BackupPaths locates the library files a backup reads and restores
type BackupPaths struct {
	DatabasePath string
	BlobsDir     string
	WorkDir      string // scratch space for snapshots and extraction
}

// BackupService snapshots the catalog database and thumbnail blobs into
// dated zip archives
type BackupService struct {
	snapshotter ports.CatalogSnapshotter
	thumbs      ports.ThumbnailStore
	archive     ports.BackupArchive
	publisher   ports.ChangePublisher
	hasher      *AssetHasher
	paths       BackupPaths
	keep        int
	logger      *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(
	snapshotter ports.CatalogSnapshotter,
	thumbs ports.ThumbnailStore,
	archive ports.BackupArchive,
	publisher ports.ChangePublisher,
	paths BackupPaths,
	keep int,
	logger *zap.Logger,
) *BackupService {
	if keep <= 0 {
		keep = defaultBackupsToKeep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		snapshotter: snapshotter,
		thumbs:      thumbs,
		archive:     archive,
		publisher:   publisher,
		hasher:      NewAssetHasher(),
		paths:       paths,
		keep:        keep,
		logger:      logger,
	}
}

// Backup writes (or rewrites) today's archive and prunes old ones
func (s *BackupService) Backup(ctx context.Context, now time.Time) (*domain.BackupInfo, error) {
	reason := domain.BackupCreationStarted
	if s.archive.Exists(now) {
		reason = domain.BackupUpdateStarted
	}
	s.publisher.Publish(domain.CatalogChange{Reason: reason, Message: domain.BackupName(now)})

	if err := s.thumbs.FlushAll(); err != nil {
		return nil, fmt.Errorf("flush thumbnails: %w", err)
	}

	staging, err := s.stagingDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	snapshot := filepath.Join(staging, backupDatabaseEntry)
	if err := s.snapshotter.Snapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("snapshot catalog: %w", err)
	}

	files := map[string]string{backupDatabaseEntry: snapshot}
	blobs, err := filepath.Glob(filepath.Join(s.paths.BlobsDir, "*"+blobFileExtension))
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	for _, blob := range blobs {
		files[backupBlobsEntryDir+"/"+filepath.Base(blob)] = blob
	}

	manifestPath, err := s.writeManifest(ctx, staging, files, now)
	if err != nil {
		return nil, err
	}
	files[backupManifestEntry] = manifestPath

	info, err := s.archive.Write(now, files)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	s.logger.Info("backup written",
		zap.String("name", info.Name),
		zap.Int64("size", info.Size),
		zap.Int("blobs", len(blobs)),
	)
	s.publisher.Publish(domain.CatalogChange{Reason: domain.BackupCompleted, Message: info.Name})

	if _, err := s.Prune(); err != nil {
		s.logger.Warn("failed to prune backups", zap.Error(err))
	}
	return info, nil
}

func (s *BackupService) stagingDir() (string, error) {
	if err := os.MkdirAll(s.paths.WorkDir, 0755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	dir, err := os.MkdirTemp(s.paths.WorkDir, stagingDirectoryLabel)
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	return dir, nil
}

func (s *BackupService) writeManifest(ctx context.Context, staging string, files map[string]string, now time.Time) (string, error) {
	manifest := domain.BackupManifest{
		Version:   backupFormatVersion,
		CreatedAt: now.UTC().Format(time.RFC3339),
		Files:     make(map[string]domain.BackupManifestFile, len(files)),
	}
	for entry, path := range files {
		hash, size, err := s.hasher.HashWithSize(ctx, path)
		if err != nil {
			return "", fmt.Errorf("hash %s: %w", entry, err)
		}
		manifest.Files[entry] = domain.BackupManifestFile{SHA256: hash, SizeBytes: size}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(staging, backupManifestEntry)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// List returns the archives from newest to oldest
func (s *BackupService) List() ([]domain.BackupInfo, error) {
	return s.archive.List()
}

// Prune deletes every archive beyond the newest keep and returns them
func (s *BackupService) Prune() ([]domain.BackupInfo, error) {
	backups, err := s.archive.List()
	if err != nil {
		return nil, err
	}
	if len(backups) <= s.keep {
		return nil, nil
	}

	var removed []domain.BackupInfo
	var errs []error
	for _, b := range backups[s.keep:] {
		if err := s.archive.Delete(b.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, b)
	}
	return removed, errors.Join(errs...)
}

// Restore verifies an archive and replaces the catalog database and blobs
// with its content. The catalog database must not be open while restoring.
func (s *BackupService) Restore(ctx context.Context, name string) (*domain.BackupManifest, error) {
	staging, err := s.stagingDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	extracted, err := s.archive.Extract(name, staging)
	if err != nil {
		return nil, err
	}

	manifest, err := s.verify(ctx, extracted)
	if err != nil {
		return nil, err
	}

	if err := s.replaceDatabase(extracted[backupDatabaseEntry]); err != nil {
		return nil, err
	}
	if err := s.replaceBlobs(manifest, extracted); err != nil {
		return nil, err
	}

	s.logger.Info("backup restored", zap.String("name", name), zap.Int("files", len(manifest.Files)))
	return manifest, nil
}

func (s *BackupService) verify(ctx context.Context, extracted map[string]string) (*domain.BackupManifest, error) {
	manifestPath, ok := extracted[backupManifestEntry]
	if !ok {
		return nil, fmt.Errorf("%w: manifest missing", domain.ErrBackupCorrupt)
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest domain.BackupManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %v", domain.ErrBackupCorrupt, err)
	}
	if manifest.Version != backupFormatVersion {
		return nil, fmt.Errorf("%w: unsupported backup version %d", domain.ErrBackupCorrupt, manifest.Version)
	}
	if _, ok := manifest.Files[backupDatabaseEntry]; !ok {
		return nil, fmt.Errorf("%w: database missing from manifest", domain.ErrBackupCorrupt)
	}

	for entry := range extracted {
		if _, ok := manifest.Files[entry]; !ok && entry != backupManifestEntry {
			return nil, fmt.Errorf("%w: %s not listed in manifest", domain.ErrBackupCorrupt, entry)
		}
	}

	for entry, meta := range manifest.Files {
		path, ok := extracted[entry]
		if !ok {
			return nil, fmt.Errorf("%w: %s missing", domain.ErrBackupCorrupt, entry)
		}
		hash, size, err := s.hasher.HashWithSize(ctx, path)
		if err != nil {
			return nil, err
		}
		if size != meta.SizeBytes || !strings.EqualFold(hash, meta.SHA256) {
			return nil, fmt.Errorf("%w: checksum mismatch for %s", domain.ErrBackupCorrupt, entry)
		}
	}
	return &manifest, nil
}

func (s *BackupService) replaceDatabase(src string) error {
	if err := os.MkdirAll(filepath.Dir(s.paths.DatabasePath), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	if err := copyFile(src, s.paths.DatabasePath); err != nil {
		return fmt.Errorf("restore database: %w", err)
	}
	// Stale WAL files would be replayed over the restored database
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(s.paths.DatabasePath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", s.paths.DatabasePath+suffix, err)
		}
	}
	return nil
}

func (s *BackupService) replaceBlobs(manifest *domain.BackupManifest, extracted map[string]string) error {
	existing, err := filepath.Glob(filepath.Join(s.paths.BlobsDir, "*"+blobFileExtension))
	if err != nil {
		return fmt.Errorf("list blobs: %w", err)
	}
	for _, blob := range existing {
		if err := os.Remove(blob); err != nil {
			return fmt.Errorf("remove blob %s: %w", blob, err)
		}
	}

	prefix := backupBlobsEntryDir + "/"
	for entry := range manifest.Files {
		if !strings.HasPrefix(entry, prefix) || !strings.HasSuffix(entry, blobFileExtension) {
			continue
		}
		path := extracted[entry]
		dst := filepath.Join(s.paths.BlobsDir, filepath.Base(entry))
		if err := copyFile(path, dst); err != nil {
			return fmt.Errorf("restore blob %s: %w", entry, err)
		}
	}
	return nil
}
