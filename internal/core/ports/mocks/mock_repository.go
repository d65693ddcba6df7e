package mocks

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// MockCatalogRepository is an in-memory implementation of ports.CatalogRepository for testing
type MockCatalogRepository struct {
	mu          sync.RWMutex
	folders     map[string]domain.Folder
	assets      map[domain.AssetKey]domain.Asset
	syncDefs    []domain.SyncDefinition
	recentPaths map[string]time.Time
	snapshots   []string
	failSave    error
}

var _ ports.CatalogRepository = (*MockCatalogRepository)(nil)

// NewMockCatalogRepository creates a new mock catalog repository
func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		folders:     make(map[string]domain.Folder),
		assets:      make(map[domain.AssetKey]domain.Asset),
		recentPaths: make(map[string]time.Time),
	}
}

func (m *MockCatalogRepository) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	folders := make([]domain.Folder, 0, len(m.folders))
	for _, f := range m.folders {
		folders = append(folders, f)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Path < folders[j].Path })
	return folders, nil
}

func (m *MockCatalogRepository) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.folders[id]
	if !ok {
		return nil, domain.ErrFolderNotFound
	}
	return &f, nil
}

func (m *MockCatalogRepository) GetFolderByPath(ctx context.Context, path string) (*domain.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.folders {
		if f.Path == path {
			folder := f
			return &folder, nil
		}
	}
	return nil, domain.ErrFolderNotFound
}

func (m *MockCatalogRepository) AddFolder(ctx context.Context, folder domain.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.folders {
		if f.Path == folder.Path {
			return fmt.Errorf("folder already exists: %s", folder.Path)
		}
	}
	m.folders[folder.ID] = folder
	return nil
}

func (m *MockCatalogRepository) DeleteFolder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[id]; !ok {
		return domain.ErrFolderNotFound
	}
	delete(m.folders, id)
	for key := range m.assets {
		if key.FolderID == id {
			delete(m.assets, key)
		}
	}
	return nil
}

func (m *MockCatalogRepository) ListAssets(ctx context.Context, folderID string) ([]domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var assets []domain.Asset
	for key, a := range m.assets {
		if key.FolderID == folderID {
			assets = append(assets, a)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].FileName < assets[j].FileName })
	return assets, nil
}

func (m *MockCatalogRepository) ListAllAssets(ctx context.Context) ([]domain.CatalogedAsset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []domain.CatalogedAsset
	for _, a := range m.assets {
		all = append(all, domain.CatalogedAsset{Asset: a, Folder: m.folders[a.FolderID]})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Folder.Path != all[j].Folder.Path {
			return all[i].Folder.Path < all[j].Folder.Path
		}
		return all[i].Asset.FileName < all[j].Asset.FileName
	})
	return all, nil
}

func (m *MockCatalogRepository) GetAsset(ctx context.Context, folderID, fileName string) (*domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assets[domain.AssetKey{FolderID: folderID, FileName: fileName}]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

func (m *MockCatalogRepository) SaveAsset(ctx context.Context, asset domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave != nil {
		return m.failSave
	}
	if _, ok := m.folders[asset.FolderID]; !ok {
		return domain.ErrFolderNotFound
	}
	m.assets[asset.Key()] = asset
	return nil
}

func (m *MockCatalogRepository) DeleteAsset(ctx context.Context, folderID, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := domain.AssetKey{FolderID: folderID, FileName: fileName}
	if _, ok := m.assets[key]; !ok {
		return domain.ErrAssetNotFound
	}
	delete(m.assets, key)
	return nil
}

func (m *MockCatalogRepository) FindByHash(ctx context.Context, hash string) ([]domain.CatalogedAsset, error) {
	all, _ := m.ListAllAssets(ctx)
	var matches []domain.CatalogedAsset
	for _, a := range all {
		if a.Asset.Hash == hash {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

func (m *MockCatalogRepository) CountAssets(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets), nil
}

func (m *MockCatalogRepository) ListSyncDefinitions(ctx context.Context) ([]domain.SyncDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	defs := make([]domain.SyncDefinition, len(m.syncDefs))
	copy(defs, m.syncDefs)
	return defs, nil
}

func (m *MockCatalogRepository) ReplaceSyncDefinitions(ctx context.Context, defs []domain.SyncDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncDefs = make([]domain.SyncDefinition, len(defs))
	for i, d := range defs {
		d.ID = int64(i + 1)
		m.syncDefs[i] = d
	}
	return nil
}

func (m *MockCatalogRepository) ListRecentTargetPaths(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.recentPaths))
	for p := range m.recentPaths {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return m.recentPaths[paths[i]].After(m.recentPaths[paths[j]]) })
	return paths, nil
}

func (m *MockCatalogRepository) TouchRecentTargetPath(ctx context.Context, path string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recentPaths[path] = at
	return nil
}

// Snapshot writes a placeholder database file
func (m *MockCatalogRepository) Snapshot(ctx context.Context, destPath string) error {
	m.mu.Lock()
	m.snapshots = append(m.snapshots, destPath)
	count := len(m.assets)
	m.mu.Unlock()
	return os.WriteFile(destPath, []byte(fmt.Sprintf("snapshot of %d assets", count)), 0644)
}

// SetSaveError makes every SaveAsset call fail with err
func (m *MockCatalogRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = err
}

// SnapshotCount returns how many snapshots were taken
func (m *MockCatalogRepository) SnapshotCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

// --- MockThumbnailStore ---

// MockThumbnailStore keeps thumbnails in memory and records flushes
type MockThumbnailStore struct {
	mu      sync.Mutex
	blobs   map[domain.AssetKey][]byte
	flushed map[string]int
	dir     string
}

var _ ports.ThumbnailStore = (*MockThumbnailStore)(nil)

// NewMockThumbnailStore creates a new mock thumbnail store rooted at dir
func NewMockThumbnailStore(dir string) *MockThumbnailStore {
	return &MockThumbnailStore{
		blobs:   make(map[domain.AssetKey][]byte),
		flushed: make(map[string]int),
		dir:     dir,
	}
}

func (m *MockThumbnailStore) Get(folderID, fileName string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[domain.AssetKey{FolderID: folderID, FileName: fileName}]
	return data, ok, nil
}

func (m *MockThumbnailStore) Put(folderID, fileName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[domain.AssetKey{FolderID: folderID, FileName: fileName}] = data
	return nil
}

func (m *MockThumbnailStore) Delete(folderID, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, domain.AssetKey{FolderID: folderID, FileName: fileName})
	return nil
}

func (m *MockThumbnailStore) DeleteFolder(folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.blobs {
		if key.FolderID == folderID {
			delete(m.blobs, key)
		}
	}
	return nil
}

func (m *MockThumbnailStore) Flush(folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushed[folderID]++
	return nil
}

func (m *MockThumbnailStore) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushed["*"]++
	return nil
}

func (m *MockThumbnailStore) Dir() string {
	return m.dir
}

// Count returns the number of stored thumbnails
func (m *MockThumbnailStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// FlushCount returns how many times a folder was flushed
func (m *MockThumbnailStore) FlushCount(folderID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushed[folderID]
}

// --- MockMediaAnalyzer ---

// MockMediaAnalyzer returns canned analyses without decoding files
type MockMediaAnalyzer struct {
	mu        sync.Mutex
	calls     []string
	corrupted map[string]string
	failures  map[string]error
}

var _ ports.MediaAnalyzer = (*MockMediaAnalyzer)(nil)

// NewMockMediaAnalyzer creates a new mock analyzer
func NewMockMediaAnalyzer() *MockMediaAnalyzer {
	return &MockMediaAnalyzer{
		corrupted: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (m *MockMediaAnalyzer) Analyze(ctx context.Context, path string) (*ports.MediaAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)

	if err, ok := m.failures[path]; ok {
		return nil, err
	}
	if reason, ok := m.corrupted[path]; ok {
		return &ports.MediaAnalysis{CorruptedReason: reason}, nil
	}
	return &ports.MediaAnalysis{
		Dimensions:    domain.Dimensions{Width: 640, Height: 480},
		Rotation:      domain.Rotate0,
		DHash:         uint64(len(path)),
		Thumbnail:     []byte("thumb:" + path),
		ThumbnailSize: domain.Dimensions{Width: 200, Height: 150},
	}, nil
}

// SetCorrupted makes Analyze report the path as undecodable
func (m *MockMediaAnalyzer) SetCorrupted(path, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrupted[path] = reason
}

// SetFailure makes Analyze return err for the path
func (m *MockMediaAnalyzer) SetFailure(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = err
}

// GetCalls returns the analyzed paths
func (m *MockMediaAnalyzer) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Reset clears recorded calls
func (m *MockMediaAnalyzer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// --- MockPublisher ---

// MockPublisher records every published change in order
type MockPublisher struct {
	mu      sync.Mutex
	changes []domain.CatalogChange
}

var _ ports.ChangePublisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new recording publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(change domain.CatalogChange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	change.Seq = uint64(len(m.changes) + 1)
	m.changes = append(m.changes, change)
}

// Changes returns a copy of the recorded changes
func (m *MockPublisher) Changes() []domain.CatalogChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	changes := make([]domain.CatalogChange, len(m.changes))
	copy(changes, m.changes)
	return changes
}

// Reasons returns the recorded change reasons in order
func (m *MockPublisher) Reasons() []domain.ChangeReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	reasons := make([]domain.ChangeReason, len(m.changes))
	for i, c := range m.changes {
		reasons[i] = c.Reason
	}
	return reasons
}

// Count returns how many changes with the given reason were recorded
func (m *MockPublisher) Count(reason domain.ChangeReason) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.changes {
		if c.Reason == reason {
			n++
		}
	}
	return n
}

// Reset clears recorded changes
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = nil
}

// --- MockFrameExtractor ---

// MockFrameExtractor returns a fixed frame for every video
type MockFrameExtractor struct {
	mu    sync.Mutex
	calls []string
	frame []byte
	err   error
}

var _ ports.FrameExtractor = (*MockFrameExtractor)(nil)

// NewMockFrameExtractor creates a mock that returns frame
func NewMockFrameExtractor(frame []byte) *MockFrameExtractor {
	return &MockFrameExtractor{frame: frame}
}

func (m *MockFrameExtractor) ExtractFrame(ctx context.Context, videoPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, videoPath)
	if m.err != nil {
		return nil, m.err
	}
	return m.frame, nil
}

// SetShouldFail makes ExtractFrame fail with err
func (m *MockFrameExtractor) SetShouldFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetCalls returns the video paths passed to ExtractFrame
func (m *MockFrameExtractor) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}
