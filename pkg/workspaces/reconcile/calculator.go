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

import "github.com/workspacehub/workspace-core/pkg/models"

// CalculateActualState derives the workspace actual state from a raw agent
// report entry. Termination progress wins over everything else; an explicit
// valid actual_state wins over the deployment phase; an unrecognized entry
// degrades to Unknown rather than being rejected.
func CalculateActualState(raw RawAgentInfo) models.State {
	switch raw.TerminationProgress {
	case TerminationProgressTerminated:
		return models.StateTerminated
	case TerminationProgressTerminating:
		return models.StateTerminating
	}

	if state := models.State(raw.ActualState); models.IsValidActualState(state) {
		return state
	}

	return phaseToState(raw.DeploymentPhase)
}

// phaseToState maps the agent-reported deployment phase to a workspace state.
func phaseToState(phase string) models.State {
	switch phase {
	case "Pending", "Progressing":
		return models.StateStarting
	case "Available", "Running":
		return models.StateRunning
	case "ScalingDown":
		return models.StateStopping
	case "Stopped":
		return models.StateStopped
	case "Failed", "CrashLoopBackOff":
		return models.StateFailed
	case "Error":
		return models.StateError
	default:
		return models.StateUnknown
	}
}
