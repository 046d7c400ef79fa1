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
	"time"

	"github.com/tiendc/go-deepcopy"

	"github.com/workspacehub/workspace-core/pkg/constants"
	"github.com/workspacehub/workspace-core/pkg/workspaces/reconcile"
)

// DatabaseBackend selects the persistence implementation.
type DatabaseBackend string

const (
	DatabaseBackendSQLite DatabaseBackend = "sqlite"
	DatabaseBackendMemory DatabaseBackend = "memory"
)

type FullConfig struct {
	Server    ServerConfig    `yaml:"server"`              // HTTP surface, requires restart to take effect
	Database  DatabaseConfig  `yaml:"database"`            // Persistence backend, requires restart to take effect
	Reconcile ReconcileConfig `yaml:"reconcile,omitempty"` // Reconciliation tuning, can be updated while running
	License   LicenseConfig   `yaml:"license,omitempty"`   // Feature licensing
}

type ServerConfig struct {
	ListenAddress  string `yaml:"listenAddress"`            // Address the API server binds to
	MetricsAddress string `yaml:"metricsAddress,omitempty"` // Address the metrics endpoint binds to
	AgentAuthToken string `yaml:"agentAuthToken,omitempty"` // Shared bearer token required on agent endpoints; empty disables the check
}

type DatabaseConfig struct {
	Backend DatabaseBackend `yaml:"backend"`        // sqlite or memory
	Path    string          `yaml:"path,omitempty"` // SQLite database file path
}

// ReconcileConfig tunes the reconcile loop contract between server and agents.
type ReconcileConfig struct {
	FullReconciliationIntervalSeconds    int32  `yaml:"fullReconciliationIntervalSeconds,omitempty"`
	PartialReconciliationIntervalSeconds int32  `yaml:"partialReconciliationIntervalSeconds,omitempty"`
	DNSZone                              string `yaml:"dnsZone,omitempty"`
	OrphanGraceThresholdSeconds          int    `yaml:"orphanGraceThresholdSeconds,omitempty"`
	MaxConcurrentUpdates                 int    `yaml:"maxConcurrentUpdates,omitempty"`
}

type LicenseConfig struct {
	RemoteDevelopment bool `yaml:"remoteDevelopment,omitempty"`
}

// Settings renders the agent-facing settings block from the reconcile config.
func (c ReconcileConfig) Settings() reconcile.Settings {
	return reconcile.Settings{
		FullReconciliationIntervalSeconds:    int(c.FullReconciliationIntervalSeconds),
		PartialReconciliationIntervalSeconds: int(c.PartialReconciliationIntervalSeconds),
		DNSZone:                              c.DNSZone,
	}
}

// OrphanGraceThreshold returns the orphan detection threshold as a duration.
func (c ReconcileConfig) OrphanGraceThreshold() time.Duration {
	if c.OrphanGraceThresholdSeconds <= 0 {
		return constants.DefaultOrphanGraceThreshold
	}

	return time.Duration(c.OrphanGraceThresholdSeconds) * time.Second
}

// Clone creates a deep copy of FullConfig
func (c FullConfig) Clone() FullConfig {
	var clone FullConfig
	deepcopy.Copy(&clone, &c)
	return clone
}
