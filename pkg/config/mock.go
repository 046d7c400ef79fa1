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

package config

import (
	"context"
	"sync"
)

// MockConfigManager is an in-memory ConfigManager for tests.
type MockConfigManager struct {
	mu     sync.Mutex
	config FullConfig

	// GetConfigError, when set, is returned by every GetConfig call.
	GetConfigError error

	GetConfigCalls uint64
}

// NewMockConfigManager creates a mock holding the given config.
func NewMockConfigManager(config FullConfig) *MockConfigManager {
	return &MockConfigManager{config: config}
}

// GetConfig returns the held config.
func (m *MockConfigManager) GetConfig(ctx context.Context, tick uint64) (FullConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetConfigCalls++

	if m.GetConfigError != nil {
		return FullConfig{}, m.GetConfigError
	}

	return m.config.Clone(), nil
}

// AtomicSetReconcileConfig replaces the reconcile block.
func (m *MockConfigManager) AtomicSetReconcileConfig(ctx context.Context, reconcile ReconcileConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.Reconcile = reconcile

	return nil
}

// AtomicSetLicense replaces the license block.
func (m *MockConfigManager) AtomicSetLicense(ctx context.Context, license LicenseConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.License = license

	return nil
}
