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
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/models"
)

// WorkspacesToBeReturnedFinder computes the response set. A workspace is
// returned when the agent asked for a full update, when it is newly assigned
// (the agent has never reported it), or when its desired state or config
// changed since the last response to the agent.
type WorkspacesToBeReturnedFinder struct {
	Repo repoLister
	Log  *zap.SugaredLogger
}

func (f WorkspacesToBeReturnedFinder) Find(pc Context) Context {
	workspaces, err := f.Repo.ListWorkspacesForAgent(pc.ReqCtx, pc.AgentID)
	if err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentReconcilePipeline, pc.AgentID, err, f.Log)

		return pc
	}

	full := pc.Params.UpdateType == UpdateTypeFull

	toReturn := make([]*models.Workspace, 0, len(workspaces))

	for _, w := range workspaces {
		if full || shouldReturn(w) {
			toReturn = append(toReturn, w)
		}
	}

	pc.ToReturn = toReturn

	return pc
}

func shouldReturn(w *models.Workspace) bool {
	// Newly assigned: the agent has never reported this workspace.
	if w.LastSeenByAgentAt.IsZero() {
		return true
	}

	if w.DesiredStateUpdatedAt.After(w.RespondedToAgentAt) {
		return true
	}

	return w.ConfigUpdatedAt.After(w.RespondedToAgentAt)
}
