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
	"context"
	"sort"
	"time"

	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/sentry"
)

// repoLister is the slice of the repository the orphan observer needs.
type repoLister interface {
	ListWorkspacesForAgent(ctx context.Context, agentID string) ([]*models.Workspace, error)
}

// OrphanedWorkspacesObserver flags workspaces the agent owns but has stopped
// reporting. A workspace last seen at time T with grace threshold G is an
// orphan exactly when the reconciliation time is after T+G. The stage only
// observes: it raises alerts and sets the gauge, it never mutates workspaces.
type OrphanedWorkspacesObserver struct {
	Repo repoLister
	Log  *zap.SugaredLogger

	// GraceThreshold is how long a workspace may go unreported before it is
	// flagged.
	GraceThreshold time.Duration

	// alerted debounces per-workspace alerts; entries expire so a
	// still-missing workspace re-alerts eventually.
	alerted *expiremap.ExpireMap[string, bool]
}

// NewOrphanedWorkspacesObserver creates the observer with alert debouncing.
func NewOrphanedWorkspacesObserver(r repoLister, log *zap.SugaredLogger, grace time.Duration) *OrphanedWorkspacesObserver {
	alertTTL := grace
	if alertTTL <= 0 {
		alertTTL = 5 * time.Minute
	}

	return &OrphanedWorkspacesObserver{
		Repo:           r,
		Log:            log,
		GraceThreshold: grace,
		alerted:        expiremap.NewEx[string, bool](alertTTL, alertTTL),
	}
}

func (o *OrphanedWorkspacesObserver) Observe(pc Context) Context {
	workspaces, err := o.Repo.ListWorkspacesForAgent(pc.ReqCtx, pc.AgentID)
	if err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentReconcilePipeline, pc.AgentID, err, o.Log)

		return pc
	}

	reported := pc.reportedSet()

	var orphaned []string

	for _, w := range workspaces {
		if reported[w.ID] {
			continue
		}

		// A terminated workspace legitimately drops out of agent reports.
		if w.ActualState == models.StateTerminated {
			continue
		}

		lastSeen := w.LastSeenByAgentAt
		if lastSeen.IsZero() {
			// Never reported; measure the grace period from creation.
			lastSeen = w.CreatedAt
		}

		if !pc.ReceivedAt.After(lastSeen.Add(o.GraceThreshold)) {
			continue
		}

		orphaned = append(orphaned, w.ID)
		o.alert(pc.AgentID, w.ID, lastSeen)
	}

	sort.Strings(orphaned)
	pc.OrphanedIDs = orphaned

	metrics.SetOrphanedWorkspaces(pc.AgentID, len(orphaned))

	return pc
}

func (o *OrphanedWorkspacesObserver) alert(agentID, workspaceID string, lastSeen time.Time) {
	key := agentID + ":" + workspaceID
	if _, found := o.alerted.Load(key); found {
		return
	}

	o.alerted.Set(key, true)
	sentry.ReportIssuefWithContext(sentry.IssueTypeWarning, o.Log,
		map[string]interface{}{
			"pipeline":     "reconcile",
			"stage":        "orphan_observer",
			"agent_id":     agentID,
			"workspace_id": workspaceID,
		},
		"workspace %s missing from agent %s reports since %s", workspaceID, agentID, lastSeen.Format(time.RFC3339))
}
