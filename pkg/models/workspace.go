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

package models

import "time"

// Workspace is a remotely provisioned development environment tracked by the
// server with a desired state (written by user-facing flows) and an actual
// state (written exclusively by the reconciliation pipeline from agent
// reports). Workspaces are never hard-deleted by reconciliation; deletion is
// a desired-state transition to Terminated, physical removal happens in a
// separate reaper.
type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`

	// AgentID scopes every reconciliation write. An agent can only ever
	// observe or mutate workspaces bound to its own ID.
	AgentID string `json:"agentId"`
	OwnerID string `json:"ownerId"`

	DesiredState State `json:"desiredState"`
	ActualState  State `json:"actualState"`

	// DeploymentResourceVersion is the last resource version the agent
	// reported for the workspace deployment. Writes of actual state are
	// guarded by a monotonic comparison on this value so that stale or
	// reordered agent reports cannot regress stored state.
	DeploymentResourceVersion string `json:"deploymentResourceVersion"`

	// Config is the desired runtime configuration rendered into
	// config_to_apply when the agent must converge the workspace.
	Config map[string]interface{} `json:"config"`

	DesiredStateUpdatedAt time.Time `json:"desiredStateUpdatedAt"`
	ConfigUpdatedAt       time.Time `json:"configUpdatedAt"`

	// RespondedToAgentAt marks the last time this workspace was included in
	// a reconciliation response. Bookkeeping only, never serialized to the
	// agent; it is what keeps repeated desired-state pushes idempotent.
	RespondedToAgentAt time.Time `json:"respondedToAgentAt"`

	// LastSeenByAgentAt is the last time the agent included this workspace
	// in a report. Zero means the agent has never reported it, i.e. the
	// workspace is newly assigned. Orphan detection compares this against
	// the grace threshold.
	LastSeenByAgentAt time.Time `json:"lastSeenByAgentAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NeedsConvergence reports whether the agent still has work to do to bring
// the workspace to its desired state.
func (w *Workspace) NeedsConvergence() bool {
	switch w.DesiredState {
	case StateRunning:
		return w.ActualState != StateRunning
	case StateStopped:
		return w.ActualState != StateStopped
	case StateTerminated:
		return w.ActualState != StateTerminated
	case StateRestartRequested:
		return true
	default:
		return false
	}
}
