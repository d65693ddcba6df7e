package domain

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestIsMedia(t *testing.T) {
	tests := []struct {
		name  string
		image bool
		video bool
	}{
		{"photo.jpg", true, false},
		{"PHOTO.JPEG", true, false},
		{"scan.tiff", true, false},
		{"clip.MP4", false, true},
		{"movie.mkv", false, true},
		{"notes.txt", false, false},
		{"noext", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImage(tt.name); got != tt.image {
				t.Errorf("IsImage(%q) = %v, want %v", tt.name, got, tt.image)
			}
			if got := IsVideo(tt.name); got != tt.video {
				t.Errorf("IsVideo(%q) = %v, want %v", tt.name, got, tt.video)
			}
			if got := IsMedia(tt.name); got != (tt.image || tt.video) {
				t.Errorf("IsMedia(%q) = %v", tt.name, got)
			}
		})
	}
}

func TestAsset_HasChanged(t *testing.T) {
	mod := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	asset := Asset{FileProperties: FileProperties{Size: 100, ModifiedAt: mod}}

	if asset.HasChanged(100, mod.Add(300*time.Millisecond)) {
		t.Error("sub-second drift should not count as a change")
	}
	if !asset.HasChanged(101, mod) {
		t.Error("size change not detected")
	}
	if !asset.HasChanged(100, mod.Add(2*time.Second)) {
		t.Error("modification time change not detected")
	}
}

func TestAsset_AspectRatio(t *testing.T) {
	a := Asset{Pixel: Pixel{Asset: Dimensions{Width: 400, Height: 200}}}
	if got := a.AspectRatio(); got != 2 {
		t.Errorf("AspectRatio() = %v, want 2", got)
	}
	if got := (Asset{}).AspectRatio(); got != 0 {
		t.Errorf("AspectRatio() of empty asset = %v, want 0", got)
	}
}

func TestIsSubPath(t *testing.T) {
	root := filepath.FromSlash("/photos")
	tests := []struct {
		child string
		want  bool
	}{
		{"/photos/2024", true},
		{"/photos/2024/summer", true},
		{"/photos", false},
		{"/photosets", false},
		{"/other", false},
	}

	for _, tt := range tests {
		t.Run(tt.child, func(t *testing.T) {
			if got := IsSubPath(root, filepath.FromSlash(tt.child)); got != tt.want {
				t.Errorf("IsSubPath(%q, %q) = %v, want %v", root, tt.child, got, tt.want)
			}
		})
	}
}

func TestSyncDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     SyncDefinition
		wantErr bool
	}{
		{"valid", SyncDefinition{SourceDirectory: "/a", DestinationDirectory: "/b"}, false},
		{"empty source", SyncDefinition{DestinationDirectory: "/b"}, true},
		{"relative", SyncDefinition{SourceDirectory: "a", DestinationDirectory: "/b"}, true},
		{"same", SyncDefinition{SourceDirectory: "/a", DestinationDirectory: "/a/"}, true},
		{"nested with subfolders", SyncDefinition{SourceDirectory: "/a", DestinationDirectory: "/a/b", IncludeSubFolders: true}, true},
		{"nested without subfolders", SyncDefinition{SourceDirectory: "/a", DestinationDirectory: "/a/b"}, false},
		{"source inside destination", SyncDefinition{SourceDirectory: "/a/camera", DestinationDirectory: "/a", IncludeSubFolders: true}, true},
		{"source inside destination without subfolders", SyncDefinition{SourceDirectory: "/a/camera", DestinationDirectory: "/a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if filepath.Separator != '/' {
				t.Skip("unix paths")
			}
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSyncDefinition) {
				t.Errorf("expected ErrInvalidSyncDefinition, got %v", err)
			}
		})
	}
}

func TestBackupName_RoundTrip(t *testing.T) {
	day := time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)
	name := BackupName(day)
	if name != "20241231.zip" {
		t.Fatalf("BackupName() = %q", name)
	}

	parsed, ok := ParseBackupName(name)
	if !ok {
		t.Fatal("ParseBackupName() failed")
	}
	if parsed.Year() != 2024 || parsed.Month() != 12 || parsed.Day() != 31 {
		t.Errorf("ParseBackupName() = %v", parsed)
	}

	if _, ok := ParseBackupName("catalog.db"); ok {
		t.Error("non-archive name should not parse")
	}
	if _, ok := ParseBackupName("notadate.zip"); ok {
		t.Error("invalid date should not parse")
	}
}

func TestDuplicateSet_WastedBytes(t *testing.T) {
	set := DuplicateSet{Assets: []CatalogedAsset{
		{Asset: Asset{FileProperties: FileProperties{Size: 10}}},
		{Asset: Asset{FileProperties: FileProperties{Size: 10}}},
		{Asset: Asset{FileProperties: FileProperties{Size: 10}}},
	}}
	if got := set.WastedBytes(); got != 20 {
		t.Errorf("WastedBytes() = %d, want 20", got)
	}
}
