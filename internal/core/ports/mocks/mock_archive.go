package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// MockBackupArchive keeps archive contents in memory
type MockBackupArchive struct {
	mu       sync.Mutex
	archives map[string]map[string][]byte
	dates    map[string]time.Time
	writes   int
}

var _ ports.BackupArchive = (*MockBackupArchive)(nil)

// NewMockBackupArchive creates an empty archive store
func NewMockBackupArchive() *MockBackupArchive {
	return &MockBackupArchive{
		archives: make(map[string]map[string][]byte),
		dates:    make(map[string]time.Time),
	}
}

func (m *MockBackupArchive) Exists(day time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.archives[domain.BackupName(day)]
	return ok
}

func (m *MockBackupArchive) Write(day time.Time, files map[string]string) (*domain.BackupInfo, error) {
	entries := make(map[string][]byte, len(files))
	var size int64
	for entry, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		entries[entry] = data
		size += int64(len(data))
	}

	name := domain.BackupName(day)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives[name] = entries
	m.dates[name] = day
	m.writes++
	return &domain.BackupInfo{Name: name, Date: day, Path: name, Size: size}, nil
}

func (m *MockBackupArchive) List() ([]domain.BackupInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	backups := make([]domain.BackupInfo, 0, len(m.archives))
	for name := range m.archives {
		backups = append(backups, domain.BackupInfo{Name: name, Date: m.dates[name], Path: name})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Date.After(backups[j].Date)
	})
	return backups, nil
}

func (m *MockBackupArchive) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.archives[name]; !ok {
		return domain.ErrBackupNotFound
	}
	delete(m.archives, name)
	delete(m.dates, name)
	return nil
}

func (m *MockBackupArchive) Extract(name string, dest string) (map[string]string, error) {
	m.mu.Lock()
	entries, ok := m.archives[name]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrBackupNotFound
	}

	extracted := make(map[string]string, len(entries))
	for entry, data := range entries {
		target := filepath.Join(dest, filepath.FromSlash(entry))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return nil, err
		}
		extracted[entry] = target
	}
	return extracted, nil
}

// Entries returns the entry names stored in an archive
func (m *MockBackupArchive) Entries(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for entry := range m.archives[name] {
		names = append(names, entry)
	}
	sort.Strings(names)
	return names
}

// Tamper replaces the content of one entry to simulate corruption
func (m *MockBackupArchive) Tamper(name, entry string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	archive, ok := m.archives[name]
	if !ok {
		return fmt.Errorf("no archive %s", name)
	}
	archive[entry] = data
	return nil
}

// WriteCount returns how many times Write was called
func (m *MockBackupArchive) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
