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

// Package reconcile implements the agent reconciliation pipeline. A cluster
// agent periodically posts the observed state of its workspaces; the pipeline
// persists actual-state updates, flags orphans, and computes the set of
// workspaces (plus agent-wide settings) the agent must act on next.
//
// The pipeline is a linear railway over a context value: the only failable
// stage is parameter validation, every later stage is a pure-looking Map that
// handles partial failures internally (skip and log) so that one bad entry
// never withholds reconciliation data for the rest of the report.
package reconcile

import (
	"context"
	"time"

	"github.com/workspacehub/workspace-core/pkg/models"
)

// UpdateType selects how much of the workspace set the agent wants back.
type UpdateType string

const (
	// UpdateTypePartial returns only workspaces with pending changes.
	UpdateTypePartial UpdateType = "partial"
	// UpdateTypeFull returns every workspace bound to the agent. Agents
	// request this after a restart, when their local cache is empty.
	UpdateTypeFull UpdateType = "full"
)

// TerminationProgress values an agent may report for a workspace that is
// being torn down.
const (
	TerminationProgressTerminating = "Terminating"
	TerminationProgressTerminated  = "Terminated"
)

// ReconcileParams is the raw request payload posted by the agent.
type ReconcileParams struct {
	UpdateType          UpdateType     `json:"update_type"`
	WorkspaceAgentInfos []RawAgentInfo `json:"workspace_agent_infos"`
}

// RawAgentInfo is one agent-observed workspace entry, exactly as it arrives
// on the wire. Individual entries may be malformed; the converter drops or
// defaults them instead of failing the pipeline.
type RawAgentInfo struct {
	WorkspaceID               string `json:"workspace_id"`
	ActualState               string `json:"actual_state,omitempty"`
	DeploymentPhase           string `json:"deployment_phase,omitempty"`
	TerminationProgress       string `json:"termination_progress,omitempty"`
	DeploymentResourceVersion string `json:"deployment_resource_version,omitempty"`
}

// AgentInfo is the typed form of a reported workspace entry.
type AgentInfo struct {
	WorkspaceID               string
	ActualState               models.State
	DeploymentResourceVersion string
}

// WorkspaceRailsInfo is the per-workspace slice of the response payload.
// ConfigToApply is only set when the agent must converge the workspace.
type WorkspaceRailsInfo struct {
	ID                        string       `json:"id"`
	Name                      string       `json:"name"`
	Namespace                 string       `json:"namespace"`
	DesiredState              models.State `json:"desired_state"`
	ActualState               models.State `json:"actual_state"`
	DeploymentResourceVersion string       `json:"deployment_resource_version,omitempty"`
	ConfigToApply             string       `json:"config_to_apply,omitempty"`
}

// Settings is the agent-wide configuration block returned with every
// reconcile response.
type Settings struct {
	FullReconciliationIntervalSeconds    int    `json:"full_reconciliation_interval_seconds"`
	PartialReconciliationIntervalSeconds int    `json:"partial_reconciliation_interval_seconds"`
	DNSZone                              string `json:"dns_zone,omitempty"`
}

// ResponsePayload is the success payload of a reconcile call.
type ResponsePayload struct {
	WorkspaceRailsInfos []WorkspaceRailsInfo `json:"workspace_rails_infos"`
	Settings            Settings             `json:"settings"`
}

// Context is the value threaded through the pipeline stages. Each stage
// receives it by value and returns an extended copy; stages communicate only
// through it.
type Context struct {
	// ReqCtx bounds the storage calls made by the stages.
	ReqCtx context.Context

	AgentID    string
	Params     ReconcileParams
	ReceivedAt time.Time

	// RawInfos is set by the extractor, Infos by the converter.
	RawInfos []RawAgentInfo
	Infos    []AgentInfo

	// OrphanedIDs is set by the orphan observer, sorted, for telemetry.
	OrphanedIDs []string

	// ToReturn is set by the finder, ordered by workspace ID.
	ToReturn []*models.Workspace

	Payload *ResponsePayload
}

// reportedSet returns the workspace IDs present in the agent's report.
func (pc Context) reportedSet() map[string]bool {
	set := make(map[string]bool, len(pc.Infos))
	for _, info := range pc.Infos {
		set[info.WorkspaceID] = true
	}

	return set
}
