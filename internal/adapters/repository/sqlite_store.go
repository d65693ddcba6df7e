package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kamal-hamza/px-cli/internal/adapters/repository/migrations"
	"github.com/kamal-hamza/px-cli/internal/adapters/repository/sqlitemigrate"
	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// maxRecentTargetPaths bounds the recent move destinations list
const maxRecentTargetPaths = 20

// SQLiteStore persists the catalog in a SQLite database
type SQLiteStore struct {
	sqlDB *sql.DB
	path  string
}

// Ensure it implements the interface
var _ ports.CatalogRepository = (*SQLiteStore)(nil)

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// OpenSQLiteStore opens the catalog database and applies embedded migrations
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, path: cleanPath}, nil
}

// Close closes the SQLite handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// --- Folders ---

func (s *SQLiteStore) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, path, created_at FROM folders ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.Path, &createdAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		f.CreatedAt = fromMillis(createdAt)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *SQLiteStore) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	return s.getFolder(ctx, `SELECT id, path, created_at FROM folders WHERE id = ?`, id)
}

func (s *SQLiteStore) GetFolderByPath(ctx context.Context, path string) (*domain.Folder, error) {
	return s.getFolder(ctx, `SELECT id, path, created_at FROM folders WHERE path = ?`, filepath.Clean(path))
}

func (s *SQLiteStore) getFolder(ctx context.Context, query string, arg string) (*domain.Folder, error) {
	var f domain.Folder
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx, query, arg).Scan(&f.ID, &f.Path, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	f.CreatedAt = fromMillis(createdAt)
	return &f, nil
}

func (s *SQLiteStore) AddFolder(ctx context.Context, folder domain.Folder) error {
	if strings.TrimSpace(folder.ID) == "" {
		return fmt.Errorf("folder id is required")
	}
	if strings.TrimSpace(folder.Path) == "" {
		return fmt.Errorf("folder path is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO folders (id, path, created_at) VALUES (?, ?, ?)`,
		folder.ID, filepath.Clean(folder.Path), toMillis(folder.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("add folder %s: %w", folder.Path, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteFolder(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrFolderNotFound
	}
	return nil
}

// --- Assets ---

const assetColumns = `a.folder_id, a.file_name, a.hash, a.dhash, a.size, a.file_created_at, a.file_modified_at,
	a.width, a.height, a.thumbnail_width, a.thumbnail_height, a.rotation, a.is_video,
	a.corrupted, a.corrupted_message, a.rotated, a.rotated_message,
	a.thumbnail_created_at, a.cataloged_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner, extra ...any) (domain.Asset, error) {
	var (
		a                               domain.Asset
		dhash                           int64
		fileCreated, fileModified       int64
		rotation                        int
		isVideo, corrupted, rotated     int
		thumbnailCreatedAt, catalogedAt int64
	)
	dest := []any{
		&a.FolderID, &a.FileName, &a.Hash, &dhash, &a.FileProperties.Size, &fileCreated, &fileModified,
		&a.Pixel.Asset.Width, &a.Pixel.Asset.Height, &a.Pixel.Thumbnail.Width, &a.Pixel.Thumbnail.Height,
		&rotation, &isVideo,
		&corrupted, &a.Metadata.Corrupted.Message, &rotated, &a.Metadata.Rotated.Message,
		&thumbnailCreatedAt, &catalogedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Asset{}, err
	}
	a.DHash = uint64(dhash)
	a.FileProperties.CreatedAt = fromMillis(fileCreated)
	a.FileProperties.ModifiedAt = fromMillis(fileModified)
	a.Rotation = domain.Rotation(rotation)
	a.IsVideo = isVideo != 0
	a.Metadata.Corrupted.IsTrue = corrupted != 0
	a.Metadata.Rotated.IsTrue = rotated != 0
	a.ThumbnailCreatedAt = fromMillis(thumbnailCreatedAt)
	a.CatalogedAt = fromMillis(catalogedAt)
	return a, nil
}

func (s *SQLiteStore) ListAssets(ctx context.Context, folderID string) ([]domain.Asset, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets a WHERE a.folder_id = ? ORDER BY a.file_name`, folderID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (s *SQLiteStore) ListAllAssets(ctx context.Context) ([]domain.CatalogedAsset, error) {
	return s.listCataloged(ctx, `SELECT `+assetColumns+`, f.id, f.path, f.created_at
		FROM assets a JOIN folders f ON f.id = a.folder_id
		ORDER BY f.path, a.file_name`)
}

func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) ([]domain.CatalogedAsset, error) {
	return s.listCataloged(ctx, `SELECT `+assetColumns+`, f.id, f.path, f.created_at
		FROM assets a JOIN folders f ON f.id = a.folder_id
		WHERE a.hash = ?
		ORDER BY f.path, a.file_name`, hash)
}

func (s *SQLiteStore) listCataloged(ctx context.Context, query string, args ...any) ([]domain.CatalogedAsset, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var result []domain.CatalogedAsset
	for rows.Next() {
		var f domain.Folder
		var folderCreated int64
		a, err := scanAsset(rows, &f.ID, &f.Path, &folderCreated)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		f.CreatedAt = fromMillis(folderCreated)
		result = append(result, domain.CatalogedAsset{Asset: a, Folder: f})
	}
	return result, rows.Err()
}

func (s *SQLiteStore) GetAsset(ctx context.Context, folderID, fileName string) (*domain.Asset, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets a WHERE a.folder_id = ? AND a.file_name = ?`, folderID, fileName)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) SaveAsset(ctx context.Context, a domain.Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.FolderID == "" || a.FileName == "" {
		return fmt.Errorf("asset folder id and file name are required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO assets (
		   folder_id, file_name, hash, dhash, size, file_created_at, file_modified_at,
		   width, height, thumbnail_width, thumbnail_height, rotation, is_video,
		   corrupted, corrupted_message, rotated, rotated_message,
		   thumbnail_created_at, cataloged_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(folder_id, file_name) DO UPDATE SET
		   hash = excluded.hash,
		   dhash = excluded.dhash,
		   size = excluded.size,
		   file_created_at = excluded.file_created_at,
		   file_modified_at = excluded.file_modified_at,
		   width = excluded.width,
		   height = excluded.height,
		   thumbnail_width = excluded.thumbnail_width,
		   thumbnail_height = excluded.thumbnail_height,
		   rotation = excluded.rotation,
		   is_video = excluded.is_video,
		   corrupted = excluded.corrupted,
		   corrupted_message = excluded.corrupted_message,
		   rotated = excluded.rotated,
		   rotated_message = excluded.rotated_message,
		   thumbnail_created_at = excluded.thumbnail_created_at,
		   cataloged_at = excluded.cataloged_at`,
		a.FolderID, a.FileName, a.Hash, int64(a.DHash), a.FileProperties.Size,
		toMillis(a.FileProperties.CreatedAt), toMillis(a.FileProperties.ModifiedAt),
		a.Pixel.Asset.Width, a.Pixel.Asset.Height, a.Pixel.Thumbnail.Width, a.Pixel.Thumbnail.Height,
		int(a.Rotation), boolToInt(a.IsVideo),
		boolToInt(a.Metadata.Corrupted.IsTrue), a.Metadata.Corrupted.Message,
		boolToInt(a.Metadata.Rotated.IsTrue), a.Metadata.Rotated.Message,
		toMillis(a.ThumbnailCreatedAt), toMillis(a.CatalogedAt),
	)
	if err != nil {
		return fmt.Errorf("save asset %s: %w", a.FileName, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAsset(ctx context.Context, folderID, fileName string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM assets WHERE folder_id = ? AND file_name = ?`, folderID, fileName)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (s *SQLiteStore) CountAssets(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return n, nil
}

// --- Sync definitions ---

func (s *SQLiteStore) ListSyncDefinitions(ctx context.Context) ([]domain.SyncDefinition, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, source_directory, destination_directory,
		include_sub_folders, delete_assets_not_in_source
		FROM sync_definitions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list sync definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.SyncDefinition
	for rows.Next() {
		var d domain.SyncDefinition
		var includeSub, deleteMissing int
		if err := rows.Scan(&d.ID, &d.SourceDirectory, &d.DestinationDirectory, &includeSub, &deleteMissing); err != nil {
			return nil, fmt.Errorf("scan sync definition: %w", err)
		}
		d.IncludeSubFolders = includeSub != 0
		d.DeleteAssetsNotInSource = deleteMissing != 0
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *SQLiteStore) ReplaceSyncDefinitions(ctx context.Context, defs []domain.SyncDefinition) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_definitions`); err != nil {
		return fmt.Errorf("clear sync definitions: %w", err)
	}
	for i, d := range defs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sync_definitions (position, source_directory, destination_directory,
			   include_sub_folders, delete_assets_not_in_source) VALUES (?, ?, ?, ?, ?)`,
			i, d.SourceDirectory, d.DestinationDirectory,
			boolToInt(d.IncludeSubFolders), boolToInt(d.DeleteAssetsNotInSource),
		); err != nil {
			return fmt.Errorf("insert sync definition: %w", err)
		}
	}
	return tx.Commit()
}

// --- Recent target paths ---

func (s *SQLiteStore) ListRecentTargetPaths(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT path FROM recent_target_paths ORDER BY used_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("list recent paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan recent path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) TouchRecentTargetPath(ctx context.Context, path string, at time.Time) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recent_target_paths (path, used_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET used_at = excluded.used_at`,
		filepath.Clean(path), toMillis(at),
	); err != nil {
		return fmt.Errorf("touch recent path: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recent_target_paths WHERE path NOT IN (
		   SELECT path FROM recent_target_paths ORDER BY used_at DESC, path LIMIT ?
		 )`, maxRecentTargetPaths,
	); err != nil {
		return fmt.Errorf("trim recent paths: %w", err)
	}
	return tx.Commit()
}

// --- Snapshot ---

// Snapshot writes a consistent copy of the database to destPath using VACUUM INTO
func (s *SQLiteStore) Snapshot(ctx context.Context, destPath string) error {
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}
	return nil
}
