// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filesystem

import (
	"context"
	"os"
	"sync"
	"time"
)

// MockFileSystem is an in-memory Service for tests. Every operation can be
// overridden with a WithXFunc hook; unhooked operations act on the internal
// file map.
type MockFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	ensureDirectoryFunc func(ctx context.Context, path string) error
	readFileFunc        func(ctx context.Context, path string) ([]byte, error)
	writeFileFunc       func(ctx context.Context, path string, data []byte, perm os.FileMode) error
	pathExistsFunc      func(ctx context.Context, path string) (bool, error)
	removeFunc          func(ctx context.Context, path string) error
	removeAllFunc       func(ctx context.Context, path string) error
	statFunc            func(ctx context.Context, path string) (os.FileInfo, error)
	readDirFunc         func(ctx context.Context, path string) ([]os.DirEntry, error)
	renameFunc          func(ctx context.Context, oldPath, newPath string) error
}

// NewMockFileSystem creates an empty mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// EnsureDirectory creates a directory if it doesn't exist.
func (m *MockFileSystem) EnsureDirectory(ctx context.Context, path string) error {
	if m.ensureDirectoryFunc != nil {
		return m.ensureDirectoryFunc(ctx, path)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true

	return nil
}

// ReadFile reads a file's contents.
func (m *MockFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if m.readFileFunc != nil {
		return m.readFileFunc(ctx, path)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

// WriteFile writes data to a file.
func (m *MockFileSystem) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if m.writeFileFunc != nil {
		return m.writeFileFunc(ctx, path, data, perm)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[path] = stored

	return nil
}

// PathExists checks if a file or directory exists.
func (m *MockFileSystem) PathExists(ctx context.Context, path string) (bool, error) {
	if m.pathExistsFunc != nil {
		return m.pathExistsFunc(ctx, path)
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[path]; ok {
		return true, nil
	}

	return m.dirs[path], nil
}

// FileExists checks if a file exists
// Deprecated: use PathExists instead.
func (m *MockFileSystem) FileExists(ctx context.Context, path string) (bool, error) {
	return m.PathExists(ctx, path)
}

// Remove removes a file or directory.
func (m *MockFileSystem) Remove(ctx context.Context, path string) error {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, path)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	delete(m.dirs, path)

	return nil
}

// RemoveAll removes a directory and all its contents.
func (m *MockFileSystem) RemoveAll(ctx context.Context, path string) error {
	if m.removeAllFunc != nil {
		return m.removeAllFunc(ctx, path)
	}

	return m.Remove(ctx, path)
}

// Stat returns file info.
func (m *MockFileSystem) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	if m.statFunc != nil {
		return m.statFunc(ctx, path)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if data, ok := m.files[path]; ok {
		return mockFileInfo{name: path, size: int64(len(data)), modTime: time.Now()}, nil
	}

	if m.dirs[path] {
		return mockFileInfo{name: path, isDir: true, modTime: time.Now()}, nil
	}

	return nil, os.ErrNotExist
}

// ReadDir reads a directory, returning all its directory entries.
func (m *MockFileSystem) ReadDir(ctx context.Context, path string) ([]os.DirEntry, error) {
	if m.readDirFunc != nil {
		return m.readDirFunc(ctx, path)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}

// Rename renames (moves) a file or directory from oldPath to newPath.
func (m *MockFileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	if m.renameFunc != nil {
		return m.renameFunc(ctx, oldPath, newPath)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if data, ok := m.files[oldPath]; ok {
		m.files[newPath] = data
		delete(m.files, oldPath)
	}

	return nil
}

// WithEnsureDirectoryFunc overrides EnsureDirectory.
func (m *MockFileSystem) WithEnsureDirectoryFunc(fn func(ctx context.Context, path string) error) *MockFileSystem {
	m.ensureDirectoryFunc = fn

	return m
}

// WithReadFileFunc overrides ReadFile.
func (m *MockFileSystem) WithReadFileFunc(fn func(ctx context.Context, path string) ([]byte, error)) *MockFileSystem {
	m.readFileFunc = fn

	return m
}

// WithWriteFileFunc overrides WriteFile.
func (m *MockFileSystem) WithWriteFileFunc(fn func(ctx context.Context, path string, data []byte, perm os.FileMode) error) *MockFileSystem {
	m.writeFileFunc = fn

	return m
}

// WithPathExistsFunc overrides PathExists (and FileExists).
func (m *MockFileSystem) WithPathExistsFunc(fn func(ctx context.Context, path string) (bool, error)) *MockFileSystem {
	m.pathExistsFunc = fn

	return m
}

// WithRemoveFunc overrides Remove.
func (m *MockFileSystem) WithRemoveFunc(fn func(ctx context.Context, path string) error) *MockFileSystem {
	m.removeFunc = fn

	return m
}

// WithRemoveAllFunc overrides RemoveAll.
func (m *MockFileSystem) WithRemoveAllFunc(fn func(ctx context.Context, path string) error) *MockFileSystem {
	m.removeAllFunc = fn

	return m
}

// WithStatFunc overrides Stat.
func (m *MockFileSystem) WithStatFunc(fn func(ctx context.Context, path string) (os.FileInfo, error)) *MockFileSystem {
	m.statFunc = fn

	return m
}

// WithReadDirFunc overrides ReadDir.
func (m *MockFileSystem) WithReadDirFunc(fn func(ctx context.Context, path string) ([]os.DirEntry, error)) *MockFileSystem {
	m.readDirFunc = fn

	return m
}

// WithRenameFunc overrides Rename.
func (m *MockFileSystem) WithRenameFunc(fn func(ctx context.Context, oldPath, newPath string) error) *MockFileSystem {
	m.renameFunc = fn

	return m
}

// mockFileInfo implements os.FileInfo for the mock filesystem.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (fi mockFileInfo) Name() string       { return fi.name }
func (fi mockFileInfo) Size() int64        { return fi.size }
func (fi mockFileInfo) Mode() os.FileMode  { return 0644 }
func (fi mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi mockFileInfo) Sys() interface{}   { return nil }
