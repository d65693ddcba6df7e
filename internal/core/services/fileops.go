package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// copyFile copies src to dst through a temp file in the destination
// directory and keeps the source modification time
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".px-copy-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("set times on %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}

// fileExists reports whether path exists, whatever its type
func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// assetRemover deletes an asset's file, row and thumbnail together
type assetRemover struct {
	repo      ports.AssetRepository
	thumbs    ports.ThumbnailStore
	publisher ports.ChangePublisher
}

// remove deletes one asset. A file that is already gone is not an error.
func (r assetRemover) remove(ctx context.Context, ca domain.CatalogedAsset) error {
	if err := os.Remove(ca.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", ca.Path(), err)
	}
	if err := r.repo.DeleteAsset(ctx, ca.Folder.ID, ca.Asset.FileName); err != nil && !errors.Is(err, domain.ErrAssetNotFound) {
		return fmt.Errorf("delete asset %s: %w", ca.Path(), err)
	}
	if err := r.thumbs.Delete(ca.Folder.ID, ca.Asset.FileName); err != nil {
		return fmt.Errorf("delete thumbnail %s: %w", ca.Path(), err)
	}

	folder := ca.Folder
	asset := ca.Asset
	r.publisher.Publish(domain.CatalogChange{
		Reason:  domain.AssetDeleted,
		Folder:  &folder,
		Asset:   &asset,
		Message: ca.Path(),
	})
	return nil
}

// flush persists thumbnail changes of every folder in ids
func (r assetRemover) flush(ids map[string]bool) error {
	var errs []error
	for id := range ids {
		if err := r.thumbs.Flush(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
