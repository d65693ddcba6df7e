package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleAsset(folderID, name string) domain.Asset {
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.Asset{
		FolderID: folderID,
		FileName: name,
		Hash:     "hash-" + name,
		DHash:    0xF0F0F0F0F0F0F0F0,
		Pixel: domain.Pixel{
			Asset:     domain.Dimensions{Width: 4000, Height: 3000},
			Thumbnail: domain.Dimensions{Width: 200, Height: 150},
		},
		FileProperties: domain.FileProperties{Size: 2048, CreatedAt: mod, ModifiedAt: mod},
		Rotation:       domain.Rotate90,
		Metadata: domain.AssetMetadata{
			Rotated: domain.Flag{IsTrue: true, Message: "rotated 90°"},
		},
		ThumbnailCreatedAt: mod,
		CatalogedAt:        mod,
	}
}

func TestSQLiteStore_Folders(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	folder := domain.NewFolder("/photos/2024")
	if err := store.AddFolder(ctx, folder); err != nil {
		t.Fatalf("AddFolder() error: %v", err)
	}
	if err := store.AddFolder(ctx, domain.NewFolder("/photos/2024")); err == nil {
		t.Error("expected unique path violation")
	}

	byID, err := store.GetFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("GetFolder() error: %v", err)
	}
	if byID.Path != folder.Path {
		t.Errorf("GetFolder().Path = %q", byID.Path)
	}

	byPath, err := store.GetFolderByPath(ctx, "/photos/2024/")
	if err != nil {
		t.Fatalf("GetFolderByPath() error: %v", err)
	}
	if byPath.ID != folder.ID {
		t.Errorf("GetFolderByPath().ID = %q", byPath.ID)
	}

	if _, err := store.GetFolder(ctx, "missing"); !errors.Is(err, domain.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}

	if err := store.AddFolder(ctx, domain.NewFolder("/photos")); err != nil {
		t.Fatalf("AddFolder() error: %v", err)
	}
	folders, err := store.ListFolders(ctx)
	if err != nil {
		t.Fatalf("ListFolders() error: %v", err)
	}
	if len(folders) != 2 || folders[0].Path != "/photos" {
		t.Errorf("ListFolders() = %v", folders)
	}
}

func TestSQLiteStore_AssetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	folder := domain.NewFolder("/photos")
	if err := store.AddFolder(ctx, folder); err != nil {
		t.Fatalf("AddFolder() error: %v", err)
	}

	want := sampleAsset(folder.ID, "IMG_0001.jpg")
	if err := store.SaveAsset(ctx, want); err != nil {
		t.Fatalf("SaveAsset() error: %v", err)
	}

	got, err := store.GetAsset(ctx, folder.ID, "IMG_0001.jpg")
	if err != nil {
		t.Fatalf("GetAsset() error: %v", err)
	}

	if got.Hash != want.Hash || got.DHash != want.DHash {
		t.Errorf("hash mismatch: got %q/%x", got.Hash, got.DHash)
	}
	if got.Pixel != want.Pixel {
		t.Errorf("Pixel = %+v, want %+v", got.Pixel, want.Pixel)
	}
	if got.Rotation != domain.Rotate90 || !got.Metadata.Rotated.IsTrue {
		t.Errorf("rotation not persisted: %+v", got)
	}
	if !got.FileProperties.ModifiedAt.Equal(want.FileProperties.ModifiedAt) {
		t.Errorf("ModifiedAt = %v", got.FileProperties.ModifiedAt)
	}
	if got.Metadata.Corrupted.IsTrue {
		t.Error("asset should not be corrupted")
	}
}

func TestSQLiteStore_SaveAssetUpserts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	folder := domain.NewFolder("/photos")
	_ = store.AddFolder(ctx, folder)

	a := sampleAsset(folder.ID, "a.jpg")
	_ = store.SaveAsset(ctx, a)

	a.Hash = "changed"
	a.Metadata.Corrupted = domain.Flag{IsTrue: true, Message: "truncated"}
	if err := store.SaveAsset(ctx, a); err != nil {
		t.Fatalf("second SaveAsset() error: %v", err)
	}

	count, _ := store.CountAssets(ctx)
	if count != 1 {
		t.Fatalf("expected upsert, got %d rows", count)
	}
	got, _ := store.GetAsset(ctx, folder.ID, "a.jpg")
	if got.Hash != "changed" || !got.Metadata.Corrupted.IsTrue || got.Metadata.Corrupted.Message != "truncated" {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestSQLiteStore_SaveAssetRequiresFolder(t *testing.T) {
	store := openTestStore(t)
	err := store.SaveAsset(context.Background(), sampleAsset("no-such-folder", "a.jpg"))
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestSQLiteStore_DeleteFolderCascades(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	folder := domain.NewFolder("/photos")
	_ = store.AddFolder(ctx, folder)
	_ = store.SaveAsset(ctx, sampleAsset(folder.ID, "a.jpg"))
	_ = store.SaveAsset(ctx, sampleAsset(folder.ID, "b.jpg"))

	if err := store.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder() error: %v", err)
	}
	if count, _ := store.CountAssets(ctx); count != 0 {
		t.Errorf("expected cascade delete, %d assets remain", count)
	}
	if err := store.DeleteFolder(ctx, folder.ID); !errors.Is(err, domain.ErrFolderNotFound) {
		t.Errorf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestSQLiteStore_DeleteAsset(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	folder := domain.NewFolder("/photos")
	_ = store.AddFolder(ctx, folder)
	_ = store.SaveAsset(ctx, sampleAsset(folder.ID, "a.jpg"))

	if err := store.DeleteAsset(ctx, folder.ID, "a.jpg"); err != nil {
		t.Fatalf("DeleteAsset() error: %v", err)
	}
	if err := store.DeleteAsset(ctx, folder.ID, "a.jpg"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
	if _, err := store.GetAsset(ctx, folder.ID, "a.jpg"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListAllAndFindByHash(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	b := domain.NewFolder("/photos/b")
	a := domain.NewFolder("/photos/a")
	_ = store.AddFolder(ctx, b)
	_ = store.AddFolder(ctx, a)

	dup1 := sampleAsset(b.ID, "x.jpg")
	dup1.Hash = "same"
	dup2 := sampleAsset(a.ID, "y.jpg")
	dup2.Hash = "same"
	_ = store.SaveAsset(ctx, dup1)
	_ = store.SaveAsset(ctx, dup2)
	_ = store.SaveAsset(ctx, sampleAsset(a.ID, "z.jpg"))

	all, err := store.ListAllAssets(ctx)
	if err != nil {
		t.Fatalf("ListAllAssets() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(all))
	}
	if all[0].Folder.Path != "/photos/a" || all[0].Asset.FileName != "y.jpg" {
		t.Errorf("unexpected order: %s/%s first", all[0].Folder.Path, all[0].Asset.FileName)
	}

	matches, err := store.FindByHash(ctx, "same")
	if err != nil {
		t.Fatalf("FindByHash() error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("FindByHash() returned %d assets, want 2", len(matches))
	}
}

func TestSQLiteStore_SyncDefinitions(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	defs := []domain.SyncDefinition{
		{SourceDirectory: "/camera", DestinationDirectory: "/photos/camera", IncludeSubFolders: true},
		{SourceDirectory: "/phone", DestinationDirectory: "/photos/phone", DeleteAssetsNotInSource: true},
	}
	if err := store.ReplaceSyncDefinitions(ctx, defs); err != nil {
		t.Fatalf("ReplaceSyncDefinitions() error: %v", err)
	}

	got, err := store.ListSyncDefinitions(ctx)
	if err != nil {
		t.Fatalf("ListSyncDefinitions() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(got))
	}
	if got[0].SourceDirectory != "/camera" || !got[0].IncludeSubFolders {
		t.Errorf("first definition = %+v", got[0])
	}
	if !got[1].DeleteAssetsNotInSource {
		t.Errorf("second definition = %+v", got[1])
	}

	if err := store.ReplaceSyncDefinitions(ctx, defs[:1]); err != nil {
		t.Fatalf("ReplaceSyncDefinitions() error: %v", err)
	}
	got, _ = store.ListSyncDefinitions(ctx)
	if len(got) != 1 {
		t.Errorf("expected replacement, got %d definitions", len(got))
	}
}

func TestSQLiteStore_RecentTargetPaths(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxRecentTargetPaths+5; i++ {
		path := fmt.Sprintf("/target/%02d", i)
		if err := store.TouchRecentTargetPath(ctx, path, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("TouchRecentTargetPath() error: %v", err)
		}
	}

	paths, err := store.ListRecentTargetPaths(ctx)
	if err != nil {
		t.Fatalf("ListRecentTargetPaths() error: %v", err)
	}
	if len(paths) != maxRecentTargetPaths {
		t.Fatalf("expected %d paths, got %d", maxRecentTargetPaths, len(paths))
	}
	if paths[0] != fmt.Sprintf("/target/%02d", maxRecentTargetPaths+4) {
		t.Errorf("most recent path first, got %q", paths[0])
	}
}

func TestSQLiteStore_Snapshot(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	folder := domain.NewFolder("/photos")
	_ = store.AddFolder(ctx, folder)
	_ = store.SaveAsset(ctx, sampleAsset(folder.ID, "a.jpg"))

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	if err := store.Snapshot(ctx, dest); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	// A second snapshot to the same path replaces the first
	if err := store.Snapshot(ctx, dest); err != nil {
		t.Fatalf("second Snapshot() error: %v", err)
	}

	db, err := sql.Open("sqlite", dest)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM assets`).Scan(&count); err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshot holds %d assets, want 1", count)
	}
}
