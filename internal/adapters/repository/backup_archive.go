package repository

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// ZipBackupArchive stores one zip archive per day in the backups directory
type ZipBackupArchive struct {
	dir string
}

// Ensure it implements the interface
var _ ports.BackupArchive = (*ZipBackupArchive)(nil)

func NewZipBackupArchive(dir string) *ZipBackupArchive {
	return &ZipBackupArchive{dir: dir}
}

func (a *ZipBackupArchive) pathFor(name string) string {
	return filepath.Join(a.dir, name)
}

func (a *ZipBackupArchive) Exists(day time.Time) bool {
	_, err := os.Stat(a.pathFor(domain.BackupName(day)))
	return err == nil
}

func (a *ZipBackupArchive) Write(day time.Time, files map[string]string) (*domain.BackupInfo, error) {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	name := domain.BackupName(day)
	finalPath := a.pathFor(name)

	tmp, err := os.CreateTemp(a.dir, name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	entries := make([]string, 0, len(files))
	for entry := range files {
		entries = append(entries, entry)
	}
	sort.Strings(entries)

	zw := zip.NewWriter(tmp)
	for _, entry := range entries {
		if err := addZipEntry(zw, entry, files[entry]); err != nil {
			_ = zw.Close()
			cleanup()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("close temp archive: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("replace archive %s: %w", name, err)
	}

	return a.info(name)
}

func addZipEntry(zw *zip.Writer, entry, source string) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     path.Clean(filepath.ToSlash(entry)),
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("write header %q: %w", entry, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write entry %q: %w", entry, err)
	}
	return nil
}

func (a *ZipBackupArchive) info(name string) (*domain.BackupInfo, error) {
	date, ok := domain.ParseBackupName(name)
	if !ok {
		return nil, fmt.Errorf("invalid backup name %q", name)
	}
	fi, err := os.Stat(a.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrBackupNotFound
		}
		return nil, err
	}
	return &domain.BackupInfo{
		Name: name,
		Date: date,
		Path: a.pathFor(name),
		Size: fi.Size(),
	}, nil
}

func (a *ZipBackupArchive) List() ([]domain.BackupInfo, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.BackupInfo{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	backups := make([]domain.BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := domain.ParseBackupName(entry.Name()); !ok {
			continue
		}
		info, err := a.info(entry.Name())
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Date.After(backups[j].Date)
	})
	return backups, nil
}

func (a *ZipBackupArchive) Delete(name string) error {
	if _, ok := domain.ParseBackupName(name); !ok {
		return fmt.Errorf("invalid backup name %q", name)
	}
	if err := os.Remove(a.pathFor(name)); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrBackupNotFound
		}
		return fmt.Errorf("delete backup %s: %w", name, err)
	}
	return nil
}

func (a *ZipBackupArchive) Extract(name string, dest string) (map[string]string, error) {
	if _, ok := domain.ParseBackupName(name); !ok {
		return nil, fmt.Errorf("invalid backup name %q", name)
	}

	zr, err := zip.OpenReader(a.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrBackupNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrBackupCorrupt, err)
	}
	defer zr.Close()

	extracted := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return nil, err
		}
		if err := extractZipEntry(f, target); err != nil {
			return nil, err
		}
		extracted[f.Name] = target
	}
	return extracted, nil
}

// safeJoin rejects entries that would escape dest
func safeJoin(dest, entry string) (string, error) {
	cleaned := path.Clean("/" + entry)
	if cleaned == "/" || strings.Contains(entry, "..") {
		return "", fmt.Errorf("%w: illegal entry %q", domain.ErrBackupCorrupt, entry)
	}
	return filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

func extractZipEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %q: %v", domain.ErrBackupCorrupt, f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: read entry %q: %v", domain.ErrBackupCorrupt, f.Name, err)
	}
	return out.Close()
}
