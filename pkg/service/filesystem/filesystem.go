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
	"fmt"
	"os"
	"time"

	"github.com/workspacehub/workspace-core/pkg/metrics"
)

// DefaultService is the default implementation of Service. Every operation
// runs in its own goroutine so a cancelled context returns immediately even
// when the underlying syscall blocks.
type DefaultService struct{}

// NewDefaultService creates a new DefaultService.
func NewDefaultService() *DefaultService {
	return &DefaultService{}
}

// checkContext checks if the context is done before proceeding with an operation.
func (s *DefaultService) checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// runWithContext runs op in a goroutine and waits for either completion or
// context cancellation, recording the operation metric either way.
func (s *DefaultService) runWithContext(ctx context.Context, name string, op func() error) error {
	start := time.Now()
	if err := s.checkContext(ctx); err != nil {
		return fmt.Errorf("failed to check context: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- op()
	}()

	select {
	case err := <-errCh:
		metrics.RecordFilesystemOp(name, err, time.Since(start))
		return err
	case <-ctx.Done():
		err := ctx.Err()
		metrics.RecordFilesystemOp(name, err, time.Since(start))
		return err
	}
}

// EnsureDirectory creates a directory if it doesn't exist.
func (s *DefaultService) EnsureDirectory(ctx context.Context, path string) error {
	err := s.runWithContext(ctx, "EnsureDirectory", func() error {
		return os.MkdirAll(path, 0755)
	})
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// ReadFile reads a file's contents respecting the context.
func (s *DefaultService) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var data []byte

	err := s.runWithContext(ctx, "ReadFile", func() error {
		var readErr error
		data, readErr = os.ReadFile(path)

		return readErr
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// WriteFile writes data to a file respecting the context.
func (s *DefaultService) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	err := s.runWithContext(ctx, "WriteFile", func() error {
		return os.WriteFile(path, data, perm)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// PathExists checks if a path (file or directory) exists.
func (s *DefaultService) PathExists(ctx context.Context, path string) (bool, error) {
	var exists bool

	err := s.runWithContext(ctx, "PathExists", func() error {
		// Lstat so symlinks count as existing without being followed.
		_, statErr := os.Lstat(path)
		if os.IsNotExist(statErr) {
			exists = false

			return nil
		}

		if statErr != nil {
			return fmt.Errorf("failed to check if path exists: %w", statErr)
		}

		exists = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}

// FileExists checks if a file exists
// Deprecated: use PathExists instead.
func (s *DefaultService) FileExists(ctx context.Context, path string) (bool, error) {
	return s.PathExists(ctx, path)
}

// Remove removes a file or directory.
func (s *DefaultService) Remove(ctx context.Context, path string) error {
	return s.runWithContext(ctx, "Remove", func() error {
		return os.Remove(path)
	})
}

// RemoveAll removes a directory and all its contents.
func (s *DefaultService) RemoveAll(ctx context.Context, path string) error {
	err := s.runWithContext(ctx, "RemoveAll", func() error {
		return os.RemoveAll(path)
	})
	if err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", path, err)
	}

	return nil
}

// Stat returns file info.
func (s *DefaultService) Stat(ctx context.Context, path string) (os.FileInfo, error) {
	var info os.FileInfo

	err := s.runWithContext(ctx, "Stat", func() error {
		var statErr error
		info, statErr = os.Stat(path)

		return statErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return info, nil
}

// ReadDir reads a directory, returning all its directory entries.
func (s *DefaultService) ReadDir(ctx context.Context, path string) ([]os.DirEntry, error) {
	var entries []os.DirEntry

	err := s.runWithContext(ctx, "ReadDir", func() error {
		var readErr error
		entries, readErr = os.ReadDir(path)

		return readErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	return entries, nil
}

// Rename renames (moves) a file or directory from oldPath to newPath.
// This operation is atomic on the same filesystem mount.
func (s *DefaultService) Rename(ctx context.Context, oldPath, newPath string) error {
	err := s.runWithContext(ctx, "Rename", func() error {
		return os.Rename(oldPath, newPath)
	})
	if err != nil {
		return fmt.Errorf("failed to rename file %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}
