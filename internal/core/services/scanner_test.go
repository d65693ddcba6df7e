package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFolderScanner_BreadthFirst(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "b/deep", "a/x", "a/y", ".hidden/inner", "library/blobs")

	scanner := NewFolderScanner(filepath.Join(root, "library"))
	result, err := scanner.Scan(context.Background(), []string{root, filepath.Join(root, "missing")})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "b"),
		filepath.Join(root, "a", "x"),
		filepath.Join(root, "a", "y"),
		filepath.Join(root, "b", "deep"),
	}
	if !reflect.DeepEqual(result.Directories, want) {
		t.Errorf("Directories = %v\nwant %v", result.Directories, want)
	}
	if len(result.Missing) != 1 || result.Missing[0] != filepath.Join(root, "missing") {
		t.Errorf("Missing = %v", result.Missing)
	}
}

func TestFolderScanner_OverlappingRoots(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/b")

	result, err := NewFolderScanner().Scan(context.Background(), []string{root, filepath.Join(root, "a"), root})
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(result.Directories) != 3 {
		t.Errorf("expected each directory once, got %v", result.Directories)
	}
}

func TestFolderScanner_Cancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFolderScanner().Scan(ctx, []string{root}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFolderScanner_ListMediaFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.JPG"), "bb")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	writeFile(t, filepath.Join(dir, "clip.mp4"), "video")
	writeFile(t, filepath.Join(dir, "notes.txt"), "text")
	writeFile(t, filepath.Join(dir, ".hidden.jpg"), "x")
	mkdirs(t, dir, "sub.jpg")

	files, err := NewFolderScanner().ListMediaFiles(dir)
	if err != nil {
		t.Fatalf("ListMediaFiles() error: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"a.png", "b.JPG", "clip.mp4"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if files[1].Size != 2 {
		t.Errorf("Size = %d, want 2", files[1].Size)
	}
}

func TestAssetHasher_Hash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	content := "some image bytes"
	writeFile(t, path, content)

	sum := sha256.Sum256([]byte(content))
	want := hex.EncodeToString(sum[:])

	got, err := NewAssetHasher().Hash(context.Background(), path)
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if got != want {
		t.Errorf("Hash() = %s, want %s", got, want)
	}

	hash, size, err := NewAssetHasher().HashWithSize(context.Background(), path)
	if err != nil || hash != want || size != int64(len(content)) {
		t.Errorf("HashWithSize() = %s, %d, %v", hash, size, err)
	}
}

func TestAssetHasher_Errors(t *testing.T) {
	if _, err := NewAssetHasher().Hash(context.Background(), "/nonexistent/file"); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "a.jpg")
	writeFile(t, path, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAssetHasher().Hash(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
