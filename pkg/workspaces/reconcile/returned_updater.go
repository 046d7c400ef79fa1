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
	"github.com/workspacehub/workspace-core/pkg/repo"
)

// WorkspacesToBeReturnedUpdater persists the responded-to-agent bookkeeping
// on every returned workspace. This is what keeps desired-state pushes from
// being resent forever: once a change was included in a response, it is only
// resent when the desired state or config changes again.
type WorkspacesToBeReturnedUpdater struct {
	Repo *repo.Repo
	Log  *zap.SugaredLogger
}

func (u WorkspacesToBeReturnedUpdater) Update(pc Context) Context {
	for _, w := range pc.ToReturn {
		w.RespondedToAgentAt = pc.ReceivedAt

		if err := u.Repo.UpdateWorkspace(pc.ReqCtx, w); err != nil {
			metrics.IncErrorCountAndLog(metrics.ComponentReconcilePipeline, pc.AgentID, err, u.Log)
		}
	}

	return pc
}
