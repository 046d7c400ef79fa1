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

// Package backoff provides tick-based retry suppression for operations that
// are polled repeatedly, such as reading the config file. After an error the
// operation is skipped for an exponentially growing number of ticks; too many
// consecutive errors escalate to a permanent failure that requires an
// explicit Reset.
package backoff

import (
	"fmt"
	"sync"
	"time"

	cenkalti "github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/constants"
)

const (
	// TemporaryBackoffError marks errors returned while an operation is
	// suppressed but will be retried.
	TemporaryBackoffError = "temporary backoff error"

	// PermanentFailureError marks errors returned after the retry budget is
	// exhausted.
	PermanentFailureError = "permanent failure error"
)

// Config holds the settings for a BackoffManager.
type Config struct {
	// Name identifies the guarded operation in logs.
	Name string

	// Logger receives state transitions.
	Logger *zap.SugaredLogger

	// InitialInterval is the suppression window after the first error.
	InitialInterval time.Duration

	// MaxInterval caps the suppression window.
	MaxInterval time.Duration

	// MaxRetries is the number of consecutive errors tolerated before the
	// manager escalates to a permanent failure.
	MaxRetries int
}

// DefaultConfig returns the settings used by most callers.
func DefaultConfig(name string, log *zap.SugaredLogger) Config {
	return Config{
		Name:            name,
		Logger:          log,
		InitialInterval: constants.BackoffTickInterval,
		MaxInterval:     10 * time.Second,
		MaxRetries:      10,
	}
}

// BackoffManager tracks consecutive failures of one operation and decides,
// per tick, whether the operation should run or be skipped.
type BackoffManager struct {
	mu sync.Mutex

	config Config

	// exp produces the growing suppression windows.
	exp *cenkalti.ExponentialBackOff

	retries       int
	lastError     error
	skipUntilTick uint64
	permanent     bool
}

// NewBackoffManager creates a manager with the given config.
func NewBackoffManager(config Config) *BackoffManager {
	exp := cenkalti.NewExponentialBackOff()
	exp.InitialInterval = config.InitialInterval
	exp.MaxInterval = config.MaxInterval
	// MaxElapsedTime would silently stop retries; the retry budget is
	// enforced via MaxRetries instead.
	exp.MaxElapsedTime = 0
	exp.Reset()

	return &BackoffManager{
		config: config,
		exp:    exp,
	}
}

// SetError records a failed attempt at the given tick and extends the
// suppression window.
func (m *BackoffManager) SetError(err error, tick uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastError = err
	m.retries++

	if m.config.MaxRetries > 0 && m.retries > m.config.MaxRetries {
		m.permanent = true
		if m.config.Logger != nil {
			m.config.Logger.Errorf("%s permanently failed after %d retries: %v", m.config.Name, m.retries, err)
		}

		return
	}

	wait := m.exp.NextBackOff()
	m.skipUntilTick = tick + durationToTicks(wait)

	if m.config.Logger != nil {
		m.config.Logger.Warnf("%s failed (retry %d), backing off until tick %d: %v", m.config.Name, m.retries, m.skipUntilTick, err)
	}
}

// ShouldSkipOperation reports whether the operation should be skipped at the
// given tick.
func (m *BackoffManager) ShouldSkipOperation(tick uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.permanent {
		return true
	}

	return tick < m.skipUntilTick
}

// GetBackoffError returns the error callers should surface while the
// operation is suppressed.
func (m *BackoffManager) GetBackoffError(tick uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.permanent {
		return fmt.Errorf("%s: %s: %w", PermanentFailureError, m.config.Name, m.lastError)
	}

	return fmt.Errorf("%s: %s suppressed until tick %d (now %d): %w", TemporaryBackoffError, m.config.Name, m.skipUntilTick, tick, m.lastError)
}

// Reset clears all failure state, including a permanent failure.
func (m *BackoffManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retries = 0
	m.lastError = nil
	m.skipUntilTick = 0
	m.permanent = false
	m.exp.Reset()
}

// IsPermanentlyFailed reports whether the retry budget is exhausted.
func (m *BackoffManager) IsPermanentlyFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.permanent
}

// GetLastError returns the most recent recorded error.
func (m *BackoffManager) GetLastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastError
}

// durationToTicks rounds a duration up to whole ticks so a non-zero wait
// always suppresses at least one tick.
func durationToTicks(d time.Duration) uint64 {
	if d <= 0 {
		return 1
	}

	ticks := (d + constants.BackoffTickInterval - 1) / constants.BackoffTickInterval

	return uint64(ticks)
}
