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

package reconcile

import (
	"errors"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/persistence"
	"github.com/workspacehub/workspace-core/pkg/repo"
)

// WorkspacesFromAgentInfosUpdater persists the agent-reported actual state.
// Every load is scoped to (workspace_id, agent_id): a report naming a
// workspace owned by another agent is indistinguishable from an unknown ID
// and is skipped.
//
// Individual failures (unknown workspace, storage error) are logged and
// skipped, never escalated: a partial failure must not withhold
// reconciliation data for the rest of the report.
type WorkspacesFromAgentInfosUpdater struct {
	Repo *repo.Repo
	Log  *zap.SugaredLogger

	// MaxConcurrency bounds the per-workspace update goroutines.
	MaxConcurrency int
}

func (u WorkspacesFromAgentInfosUpdater) Update(pc Context) Context {
	limit := u.MaxConcurrency
	if limit <= 0 {
		limit = 8
	}

	g := errgroup.Group{}
	g.SetLimit(limit)

	for _, info := range pc.Infos {
		g.Go(func() error {
			u.applyInfo(pc, info)

			return nil
		})
	}

	// Goroutines never return errors; failures are handled in applyInfo.
	_ = g.Wait()

	return pc
}

func (u WorkspacesFromAgentInfosUpdater) applyInfo(pc Context, info AgentInfo) {
	w, err := u.Repo.GetWorkspaceForAgent(pc.ReqCtx, info.WorkspaceID, pc.AgentID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			if u.Log != nil {
				u.Log.Warnw("agent reported unknown or foreign workspace, skipping",
					"agent_id", pc.AgentID,
					"workspace_id", info.WorkspaceID)
			}
		} else {
			metrics.IncErrorCountAndLog(metrics.ComponentReconcilePipeline, pc.AgentID, err, u.Log)
		}

		return
	}

	w.LastSeenByAgentAt = pc.ReceivedAt

	// A stale or reordered report must not regress stored state. Writes of
	// actual state only go through when the reported deployment resource
	// version is not older than the stored one.
	if resourceVersionCurrent(info.DeploymentResourceVersion, w.DeploymentResourceVersion) {
		w.ActualState = info.ActualState
		if info.DeploymentResourceVersion != "" {
			w.DeploymentResourceVersion = info.DeploymentResourceVersion
		}
	} else if u.Log != nil {
		u.Log.Debugw("ignoring stale agent report for workspace",
			"agent_id", pc.AgentID,
			"workspace_id", w.ID,
			"reported_version", info.DeploymentResourceVersion,
			"stored_version", w.DeploymentResourceVersion)
	}

	w.UpdatedAt = pc.ReceivedAt

	if err := u.Repo.UpdateWorkspace(pc.ReqCtx, w); err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentReconcilePipeline, pc.AgentID, err, u.Log)

		return
	}

	metrics.UpdateWorkspaceState(pc.AgentID, w.ID, w.ActualState, w.DesiredState)
}

// resourceVersionCurrent reports whether a reported resource version may be
// applied over the stored one. Kubernetes resource versions are opaque but
// numeric in practice; when both sides parse as integers the reported one
// must not be older. Non-numeric or missing versions are always accepted.
func resourceVersionCurrent(reported, stored string) bool {
	if stored == "" || reported == "" {
		return true
	}

	reportedN, err1 := strconv.ParseUint(reported, 10, 64)
	storedN, err2 := strconv.ParseUint(stored, 10, 64)

	if err1 != nil || err2 != nil {
		return true
	}

	return reportedN >= storedN
}
