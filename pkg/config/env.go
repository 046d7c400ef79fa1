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
	"fmt"

	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/env"
	"github.com/workspacehub/workspace-core/pkg/sentry"
)

// LoadConfigWithEnvOverrides loads the config file and applies environment variable overrides.
// This function is used during initial application startup to handle configuration from both
// persistent config files and runtime environment variables passed via docker -e flags.
//
// Order of precedence (highest to lowest):
// 1. Environment variables (LISTEN_ADDRESS, DATABASE_PATH, DNS_ZONE, ...)
// 2. Existing config file values
// 3. Default values
//
// The resulting configuration (with applied overrides) is written back to the
// config file, so environment variables cause PERMANENT changes to the config
// file: on subsequent runs these values become the baseline unless overridden
// again.
func LoadConfigWithEnvOverrides(ctx context.Context, configManager *FileConfigManagerWithBackoff, log *zap.SugaredLogger) (FullConfig, error) {
	// Collect environment variables that can override config values
	listenAddress, err := env.GetAsString("LISTEN_ADDRESS", false, "")
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get LISTEN_ADDRESS: %v", err)
	}

	metricsAddress, err := env.GetAsString("METRICS_ADDRESS", false, "")
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get METRICS_ADDRESS: %v", err)
	}

	agentAuthToken, err := env.GetAsString("AGENT_AUTH_TOKEN", false, "")
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get AGENT_AUTH_TOKEN: %v", err)
	}

	databaseBackend, err := env.GetAsString("DATABASE_BACKEND", false, "")
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get DATABASE_BACKEND: %v", err)
	}

	databasePath, err := env.GetAsString("DATABASE_PATH", false, "")
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get DATABASE_PATH: %v", err)
	}

	dnsZone, err := env.GetAsString("DNS_ZONE", false, "")
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get DNS_ZONE: %v", err)
	}

	fullInterval, err := env.GetAsInt("FULL_RECONCILIATION_INTERVAL_SECONDS", false, 0)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get FULL_RECONCILIATION_INTERVAL_SECONDS: %v", err)
	}

	partialInterval, err := env.GetAsInt("PARTIAL_RECONCILIATION_INTERVAL_SECONDS", false, 0)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get PARTIAL_RECONCILIATION_INTERVAL_SECONDS: %v", err)
	}

	orphanGrace, err := env.GetAsInt("ORPHAN_GRACE_THRESHOLD_SECONDS", false, 0)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get ORPHAN_GRACE_THRESHOLD_SECONDS: %v", err)
	}

	maxConcurrent, err := env.GetAsInt("MAX_CONCURRENT_UPDATES", false, 0)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get MAX_CONCURRENT_UPDATES: %v", err)
	}

	licensed, err := env.GetAsBool("REMOTE_DEVELOPMENT_LICENSED", false, false)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get REMOTE_DEVELOPMENT_LICENSED: %v", err)
	}

	// Build the config override structure from environment variables
	configOverride := FullConfig{
		Server: ServerConfig{
			ListenAddress:  listenAddress,
			MetricsAddress: metricsAddress,
			AgentAuthToken: agentAuthToken,
		},
		Database: DatabaseConfig{
			Backend: DatabaseBackend(databaseBackend),
			Path:    databasePath,
		},
		Reconcile: ReconcileConfig{
			FullReconciliationIntervalSeconds:    int32(fullInterval),
			PartialReconciliationIntervalSeconds: int32(partialInterval),
			DNSZone:                              dnsZone,
			OrphanGraceThresholdSeconds:          orphanGrace,
			MaxConcurrentUpdates:                 maxConcurrent,
		},
		License: LicenseConfig{
			RemoteDevelopment: licensed,
		},
	}

	// Apply the environment overrides to the config
	configData, err := configManager.GetConfigWithOverwritesOrCreateNew(ctx, configOverride)
	if err != nil {
		return FullConfig{}, fmt.Errorf("failed to load config with environment overrides: %w", err)
	}

	return configData, nil
}
