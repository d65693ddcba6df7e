package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

const blobExtension = ".bin"

type folderBlob struct {
	thumbnails map[string][]byte
	dirty      bool
}

// BlobStore keeps thumbnails in one CBOR-encoded blob file per folder
type BlobStore struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*folderBlob
}

// Ensure it implements the interface
var _ ports.ThumbnailStore = (*BlobStore)(nil)

func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{
		dir:   dir,
		cache: make(map[string]*folderBlob),
	}
}

// Dir returns the directory holding the blob files
func (s *BlobStore) Dir() string {
	return s.dir
}

func (s *BlobStore) blobPath(folderID string) string {
	return filepath.Join(s.dir, folderID+blobExtension)
}

// load returns the cached blob of a folder, reading it from disk on first use.
// Callers must hold s.mu.
func (s *BlobStore) load(folderID string) (*folderBlob, error) {
	if blob, ok := s.cache[folderID]; ok {
		return blob, nil
	}

	blob := &folderBlob{thumbnails: make(map[string][]byte)}
	data, err := os.ReadFile(s.blobPath(folderID))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read blob %s: %w", folderID, err)
	}
	if len(data) > 0 {
		if err := cbor.Unmarshal(data, &blob.thumbnails); err != nil {
			return nil, fmt.Errorf("decode blob %s: %w", folderID, err)
		}
	}

	s.cache[folderID] = blob
	return blob, nil
}

func (s *BlobStore) Get(folderID, fileName string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load(folderID)
	if err != nil {
		return nil, false, err
	}
	data, ok := blob.thumbnails[fileName]
	return data, ok, nil
}

func (s *BlobStore) Put(folderID, fileName string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load(folderID)
	if err != nil {
		return err
	}
	blob.thumbnails[fileName] = append([]byte(nil), data...)
	blob.dirty = true
	return nil
}

func (s *BlobStore) Delete(folderID, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load(folderID)
	if err != nil {
		return err
	}
	if _, ok := blob.thumbnails[fileName]; ok {
		delete(blob.thumbnails, fileName)
		blob.dirty = true
	}
	return nil
}

func (s *BlobStore) DeleteFolder(folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, folderID)
	if err := os.Remove(s.blobPath(folderID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", folderID, err)
	}
	return nil
}

func (s *BlobStore) Flush(folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.cache[folderID]
	if !ok {
		return nil
	}
	return s.flush(folderID, blob)
}

func (s *BlobStore) FlushAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for folderID, blob := range s.cache {
		if err := s.flush(folderID, blob); err != nil {
			return err
		}
	}
	return nil
}

// flush writes a dirty blob via a temp file and rename. Callers must hold s.mu.
func (s *BlobStore) flush(folderID string, blob *folderBlob) error {
	if !blob.dirty {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	path := s.blobPath(folderID)
	if len(blob.thumbnails) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove empty blob %s: %w", folderID, err)
		}
		blob.dirty = false
		return nil
	}

	data, err := cbor.Marshal(blob.thumbnails)
	if err != nil {
		return fmt.Errorf("encode blob %s: %w", folderID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write blob %s: %w", folderID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace blob %s: %w", folderID, err)
	}

	blob.dirty = false
	return nil
}

// BlobFiles returns the blob files currently on disk
func (s *BlobStore) BlobFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+blobExtension))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Reset drops every cached blob so the next access re-reads from disk
func (s *BlobStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*folderBlob)
}
