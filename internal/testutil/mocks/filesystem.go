package mocks

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/socforge/socforge/internal/ports"
)

// FileSystem is an in-memory test double for ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	infos map[string]ports.FileInfo
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		infos: make(map[string]ports.FileInfo),
	}
}

// AddFile registers a file and its contents.
func (m *FileSystem) AddFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	m.infos[path] = ports.FileInfo{Size: int64(len(data)), Mode: 0o644, ModTime: time.Now()}
}

// AddDir registers a directory with the given modification time.
func (m *FileSystem) AddDir(path string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	m.infos[path] = ports.FileInfo{Mode: os.ModeDir | 0o755, ModTime: modTime, IsDir: true}
}

// ReadFile returns the registered contents.
func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

// Exists returns true if the path is registered.
func (m *FileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, file := m.files[path]
	return file || m.dirs[path]
}

// IsDir returns true if the path is a registered directory.
func (m *FileSystem) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[path]
}

// GetFileInfo returns metadata for a registered path.
func (m *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if info, ok := m.infos[path]; ok {
		return info, nil
	}
	return ports.FileInfo{}, fmt.Errorf("stat %s: %w", path, os.ErrNotExist)
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
