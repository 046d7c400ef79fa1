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

// Package agentconfig implements the agent config update pipeline. The agent
// posts its raw config file content over the already-authenticated agent
// channel; licensing is deliberately the only gate. A config file without a
// remote development section is a successful no-op, not an error.
package agentconfig

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/workspacehub/workspace-core/pkg/logger"
	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
)

// Outcome distinguishes the two success shapes of an update.
type Outcome string

const (
	OutcomeSuccessful Outcome = "agent_config_update_successful"
	OutcomeSkipped    Outcome = "agent_config_update_skipped_because_no_config_file_entry_found"
)

// UpdateResult is the success payload of the pipeline.
type UpdateResult struct {
	Outcome Outcome             `json:"outcome"`
	Config  *models.AgentConfig `json:"config,omitempty"`
}

// fileContent is the agent config file shape; only the remote development
// section is of interest here.
type fileContent struct {
	RemoteDevelopment *remoteDevelopmentSection `yaml:"remote_development"`
}

type remoteDevelopmentSection struct {
	Enabled bool   `yaml:"enabled"`
	DNSZone string `yaml:"dns_zone"`
}

// LicenseGate reports whether the remote development feature is licensed for
// this instance.
type LicenseGate interface {
	RemoteDevelopmentLicensed(ctx context.Context) (bool, error)
}

// StaticLicense is a config-driven gate.
type StaticLicense bool

func (s StaticLicense) RemoteDevelopmentLicensed(ctx context.Context) (bool, error) {
	return bool(s), nil
}

// Context is the value threaded through the pipeline.
type Context struct {
	ReqCtx context.Context

	AgentID     string
	FileContent string

	// Result is set by the updater.
	Result *UpdateResult
}

// LicenseChecker fails with a forbidden error when the feature is not
// licensed. The gate's own error is never surfaced to the client.
type LicenseChecker struct {
	Gate LicenseGate
	Log  *zap.SugaredLogger
}

func (c LicenseChecker) CheckLicense(pc Context) result.Result[Context] {
	licensed, err := c.Gate.RemoteDevelopmentLicensed(pc.ReqCtx)
	if err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentAgentConfigPipeline, pc.AgentID, err, c.Log)

		licensed = false
	}

	if !licensed {
		return result.Err[Context](result.NewError(
			result.CodeLicenseCheckFailed,
			result.KindForbidden,
			"remote development is not licensed for this instance",
		))
	}

	return result.Ok(pc)
}

// Updater parses the config file and stores the remote development section.
// Workspaces bound to the agent get their config timestamp bumped so the next
// reconcile pushes the new settings.
type Updater struct {
	Repo *repo.Repo
	Log  *zap.SugaredLogger
	Now  func() time.Time
}

func (u Updater) Update(pc Context) result.Result[Context] {
	var content fileContent
	if err := yaml.Unmarshal([]byte(pc.FileContent), &content); err != nil {
		return result.Err[Context](result.NewErrorf(
			result.CodeAgentConfigUpdateFailed,
			result.KindBadRequest,
			"malformed agent config file: %v", err,
		))
	}

	if content.RemoteDevelopment == nil {
		pc.Result = &UpdateResult{Outcome: OutcomeSkipped}

		return result.Ok(pc)
	}

	config := &models.AgentConfig{
		AgentID:   pc.AgentID,
		Enabled:   content.RemoteDevelopment.Enabled,
		DNSZone:   content.RemoteDevelopment.DNSZone,
		UpdatedAt: u.Now(),
	}

	if err := u.Repo.PutAgentConfig(pc.ReqCtx, config); err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentAgentConfigPipeline, pc.AgentID, err, u.Log)

		return result.Err[Context](result.NewError(
			result.CodeAgentConfigUpdateFailed,
			result.KindBadRequest,
			"failed to store agent config",
		))
	}

	u.touchWorkspaces(pc, config.UpdatedAt)

	pc.Result = &UpdateResult{Outcome: OutcomeSuccessful, Config: config}

	return result.Ok(pc)
}

// touchWorkspaces bumps the config timestamp on the agent's workspaces.
// Failures are logged and skipped; the config itself is already stored.
func (u Updater) touchWorkspaces(pc Context, at time.Time) {
	workspaces, err := u.Repo.ListWorkspacesForAgent(pc.ReqCtx, pc.AgentID)
	if err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentAgentConfigPipeline, pc.AgentID, err, u.Log)

		return
	}

	for _, w := range workspaces {
		w.ConfigUpdatedAt = at
		w.UpdatedAt = at

		if err := u.Repo.UpdateWorkspace(pc.ReqCtx, w); err != nil {
			metrics.IncErrorCountAndLog(metrics.ComponentAgentConfigPipeline, pc.AgentID, err, u.Log)
		}
	}
}

// Main is the pipeline entry point.
type Main struct {
	checker LicenseChecker
	updater Updater
}

// NewMain assembles the pipeline.
func NewMain(r *repo.Repo, gate LicenseGate, log *zap.SugaredLogger, now func() time.Time) *Main {
	if log == nil {
		log = logger.For(logger.ComponentAgentConfig)
	}

	if now == nil {
		now = time.Now
	}

	return &Main{
		checker: LicenseChecker{Gate: gate, Log: log},
		updater: Updater{Repo: r, Log: log, Now: now},
	}
}

// Update checks licensing and applies the posted config file content.
func (m *Main) Update(ctx context.Context, agentID, fileContent string) result.Result[*UpdateResult] {
	pc := Context{
		ReqCtx:      ctx,
		AgentID:     agentID,
		FileContent: fileContent,
	}

	res := m.checker.CheckLicense(pc).AndThen(m.updater.Update)

	return result.MapTo(res, func(pc Context) *UpdateResult {
		return pc.Result
	})
}
