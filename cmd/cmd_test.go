package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports/mocks"
	"github.com/kamal-hamza/px-cli/internal/core/services"
)

// TestCommandStructure verifies that all commands are properly registered
func TestCommandStructure(t *testing.T) {
	commands := []string{
		"init", "catalog", "watch", "serve", "duplicates", "backup",
		"sync", "move", "delete", "find", "stats", "dirs", "config", "version",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{cmdName})
			if err != nil {
				t.Fatalf("Command '%s' not found: %v", cmdName, err)
			}
			if cmd == nil {
				t.Fatalf("Command '%s' is nil", cmdName)
			}
			if cmd.Use == "" {
				t.Errorf("Command '%s' has no Use field", cmdName)
			}
		})
	}
}

// TestRootCommandExists verifies the root command is properly configured
func TestRootCommandExists(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("Root command is nil")
	}

	if rootCmd.Use != "px" {
		t.Errorf("Expected root command Use to be 'px', got '%s'", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Root command Short description is empty")
	}
}

// TestCommandsHaveHelp verifies all commands have help text
func TestCommandsHaveHelp(t *testing.T) {
	commands := rootCmd.Commands()

	if len(commands) == 0 {
		t.Fatal("No commands registered")
	}

	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			if cmd.Short == "" {
				t.Errorf("Command '%s' has no Short description", cmd.Name())
			}
			for _, sub := range cmd.Commands() {
				if sub.Short == "" {
					t.Errorf("Subcommand '%s %s' has no Short description", cmd.Name(), sub.Name())
				}
			}
		})
	}
}

// TestServiceInitialization verifies services can be initialized with mocks
func TestServiceInitialization(t *testing.T) {
	repo := mocks.NewMockCatalogRepository()
	thumbs := mocks.NewMockThumbnailStore(t.TempDir())
	publisher := mocks.NewMockPublisher()
	archive := mocks.NewMockBackupArchive()

	backup := services.NewBackupService(repo, thumbs, archive, publisher, services.BackupPaths{
		DatabasePath: filepath.Join(t.TempDir(), "catalog.db"),
		BlobsDir:     thumbs.Dir(),
		WorkDir:      t.TempDir(),
	}, 2, nil)
	if backup == nil {
		t.Error("BackupService is nil")
	}

	catalog := services.NewCatalogService(repo, thumbs, mocks.NewMockMediaAnalyzer(), publisher, nil, backup, nil)
	if catalog == nil {
		t.Error("CatalogService is nil")
	}

	if s := services.NewDuplicatesService(repo, thumbs, publisher, nil); s == nil {
		t.Error("DuplicatesService is nil")
	}
	if s := services.NewSyncService(repo, nil); s == nil {
		t.Error("SyncService is nil")
	}
	if s := services.NewMoveAssetsService(repo, thumbs, publisher, nil); s == nil {
		t.Error("MoveAssetsService is nil")
	}
	if s := services.NewStatsService(repo, repo); s == nil {
		t.Error("StatsService is nil")
	}
}

// TestSubcommands verifies specific subcommands exist
func TestSubcommands(t *testing.T) {
	tests := []struct {
		parent     string
		subcommand string
	}{
		{"backup", "create"},
		{"backup", "list"},
		{"backup", "prune"},
		{"backup", "restore"},
		{"sync", "run"},
		{"sync", "list"},
		{"sync", "add"},
		{"sync", "remove"},
		{"dirs", "list"},
		{"dirs", "add"},
		{"dirs", "remove"},
	}

	for _, tt := range tests {
		t.Run(tt.parent+"_"+tt.subcommand, func(t *testing.T) {
			parentCmd, _, err := rootCmd.Find([]string{tt.parent})
			if err != nil {
				t.Fatalf("Parent command '%s' not found: %v", tt.parent, err)
			}

			found := false
			for _, cmd := range parentCmd.Commands() {
				if cmd.Name() == tt.subcommand {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("Subcommand '%s' not found under '%s'", tt.subcommand, tt.parent)
			}
		})
	}
}

// TestFlagsExist verifies important flags are registered
func TestFlagsExist(t *testing.T) {
	tests := []struct {
		command  []string
		flagName string
	}{
		{[]string{"catalog"}, "progress"},
		{[]string{"catalog"}, "quiet"},
		{[]string{"watch"}, "quiet"},
		{[]string{"serve"}, "addr"},
		{[]string{"serve"}, "no-watch"},
		{[]string{"duplicates"}, "similar"},
		{[]string{"duplicates"}, "interactive"},
		{[]string{"duplicates"}, "threshold"},
		{[]string{"move"}, "copy"},
		{[]string{"move"}, "to"},
		{[]string{"delete"}, "yes"},
		{[]string{"find"}, "corrupted"},
		{[]string{"stats"}, "chart"},
		{[]string{"sync", "add"}, "subfolders"},
		{[]string{"sync", "add"}, "delete"},
		{[]string{"backup", "restore"}, "yes"},
		{[]string{"config"}, "show"},
	}

	for _, tt := range tests {
		name := strings.Join(tt.command, "_") + "_" + tt.flagName
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find(tt.command)
			if err != nil {
				t.Fatalf("Command '%v' not found: %v", tt.command, err)
			}

			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Errorf("Flag '--%s' not found on command '%v'", tt.flagName, tt.command)
			}
		})
	}
}

// TestCommandAliases verifies command aliases work
func TestCommandAliases(t *testing.T) {
	tests := []struct {
		alias   string
		command string
	}{
		{"scan", "catalog"},
		{"daemon", "watch"},
		{"dups", "duplicates"},
		{"mv", "move"},
		{"rm", "delete"},
		{"search", "find"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.alias})
			if err != nil {
				t.Fatalf("Alias '%s' not found: %v", tt.alias, err)
			}
			if cmd.Name() != tt.command {
				t.Errorf("Alias '%s' resolved to '%s', want '%s'", tt.alias, cmd.Name(), tt.command)
			}
		})
	}
}

// TestVersionCommand verifies version command exists
func TestVersionCommand(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"version"})
	if err != nil {
		t.Fatalf("Version command not found: %v", err)
	}

	if !skipsInitialization(cmd) {
		t.Error("Version command should not open the catalog")
	}
}

// TestInitCommand verifies init command exists
func TestInitCommand(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"init"})
	if err != nil {
		t.Fatalf("Init command not found: %v", err)
	}

	if cmd == nil {
		t.Fatal("Init command is nil")
	}

	// Init must run before a library exists
	if cmd.PersistentPreRunE != nil {
		t.Error("Init command should not have PersistentPreRunE")
	}
	if !skipsInitialization(cmd) {
		t.Error("Init command should skip initialization")
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cancelled", fmt.Errorf("catalog: %w", context.Canceled), "Operation cancelled"},
		{"same folder", fmt.Errorf("a.jpg: %w", domain.ErrSameFolder), "Destination is the folder the asset already lives in"},
		{"backup missing", domain.ErrBackupNotFound, "Backup not found (see 'px backup list')"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := friendlyError(tt.err); got != tt.want {
				t.Errorf("friendlyError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWatchLoop_FollowUp(t *testing.T) {
	tests := []struct {
		name    string
		pending bool
		out     catalogOutcome
		want    bool
	}{
		{"idle", false, catalogOutcome{resp: &services.CatalogResponse{}}, false},
		{"pending changes", true, catalogOutcome{resp: &services.CatalogResponse{}}, true},
		{"batch limit reached", false, catalogOutcome{resp: &services.CatalogResponse{BatchLimitReached: true}}, true},
		{"failed run", false, catalogOutcome{err: errors.New("boom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &watchLoop{pending: tt.pending}
			if got := w.followUp(tt.out); got != tt.want {
				t.Errorf("followUp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"image created", fsnotify.Event{Name: filepath.Join(dir, "a.jpg"), Op: fsnotify.Create}, true},
		{"video removed", fsnotify.Event{Name: filepath.Join(dir, "clip.mp4"), Op: fsnotify.Remove}, true},
		{"hidden file", fsnotify.Event{Name: filepath.Join(dir, ".a.jpg"), Op: fsnotify.Create}, false},
		{"chmod only", fsnotify.Event{Name: filepath.Join(dir, "a.jpg"), Op: fsnotify.Chmod}, false},
		{"text file", fsnotify.Event{Name: notes, Op: fsnotify.Write}, false},
		{"directory created", fsnotify.Event{Name: sub, Op: fsnotify.Create}, true},
		{"directory removed", fsnotify.Event{Name: filepath.Join(dir, "gone"), Op: fsnotify.Remove}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestLargestFolders(t *testing.T) {
	folders := []services.FolderStats{
		{Folder: domain.Folder{Path: "/a"}, Assets: 2},
		{Folder: domain.Folder{Path: "/b"}, Assets: 0},
		{Folder: domain.Folder{Path: "/c"}, Assets: 9},
		{Folder: domain.Folder{Path: "/d"}, Assets: 5},
	}

	top := largestFolders(folders, 2)
	if len(top) != 2 {
		t.Fatalf("Expected 2 folders, got %d", len(top))
	}
	if top[0].Folder.Path != "/c" || top[1].Folder.Path != "/d" {
		t.Errorf("Unexpected order: %s, %s", top[0].Folder.Path, top[1].Folder.Path)
	}

	if all := largestFolders(folders, 0); len(all) != 3 {
		t.Errorf("Expected empty folders to be dropped, got %d", len(all))
	}
}

func TestFilterAssets(t *testing.T) {
	folder := domain.Folder{ID: "f", Path: "/photos/2024"}
	all := []domain.CatalogedAsset{
		{Folder: folder, Asset: domain.Asset{FileName: "Beach.jpg"}},
		{Folder: folder, Asset: domain.Asset{FileName: "clip.mp4", IsVideo: true}},
		{Folder: folder, Asset: domain.Asset{FileName: "broken.png", Metadata: domain.AssetMetadata{
			Corrupted: domain.Flag{IsTrue: true, Message: "truncated"},
		}}},
	}

	if got := filterAssets(all, "beach"); len(got) != 1 {
		t.Errorf("Expected case-insensitive match, got %d", len(got))
	}
	if got := filterAssets(all, "2024"); len(got) != 3 {
		t.Errorf("Expected folder path to match, got %d", len(got))
	}

	findCorrupted = true
	defer func() { findCorrupted = false }()
	got := filterAssets(all, "")
	if len(got) != 1 || got[0].Asset.FileName != "broken.png" {
		t.Errorf("Expected only the corrupted asset, got %v", got)
	}
}

func TestDescribeAsset(t *testing.T) {
	a := domain.CatalogedAsset{
		Folder: domain.Folder{Path: "/photos"},
		Asset: domain.Asset{
			FileName: "a.jpg",
			Hash:     "0123456789abcdef",
			Pixel:    domain.Pixel{Asset: domain.Dimensions{Width: 4000, Height: 3000}},
			Metadata: domain.AssetMetadata{Corrupted: domain.Flag{IsTrue: true, Message: "bad header"}},
		},
	}

	preview := describeAsset(a)
	for _, want := range []string{"a.jpg", "/photos", "4000x3000", "0123456789ab", "bad header"} {
		if !strings.Contains(preview, want) {
			t.Errorf("Preview missing %q:\n%s", want, preview)
		}
	}
}
