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

// Package workspaces holds the desired-state lifecycle machine shared by the
// user-facing update pipeline.
package workspaces

import (
	"github.com/looplab/fsm"

	"github.com/workspacehub/workspace-core/pkg/models"
)

// Desired-state transition events.
const (
	EventStart     = "start"
	EventStop      = "stop"
	EventRestart   = "restart"
	EventTerminate = "terminate"
)

// NewDesiredStateMachine builds the desired-state lifecycle machine rooted at
// the given state. Terminated is terminal: no event leaves it.
func NewDesiredStateMachine(current models.State) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{
				Name: EventStart,
				Src:  []string{string(models.StateStopped), string(models.StateRestartRequested), string(models.StateCreationRequested)},
				Dst:  string(models.StateRunning),
			},
			{
				Name: EventStop,
				Src:  []string{string(models.StateRunning), string(models.StateRestartRequested)},
				Dst:  string(models.StateStopped),
			},
			{
				Name: EventRestart,
				Src:  []string{string(models.StateRunning)},
				Dst:  string(models.StateRestartRequested),
			},
			{
				Name: EventTerminate,
				Src: []string{
					string(models.StateCreationRequested),
					string(models.StateRunning),
					string(models.StateStopped),
					string(models.StateRestartRequested),
				},
				Dst: string(models.StateTerminated),
			},
		},
		fsm.Callbacks{},
	)
}

// eventForTarget maps a requested desired state to its transition event.
func eventForTarget(target models.State) (string, bool) {
	switch target {
	case models.StateRunning:
		return EventStart, true
	case models.StateStopped:
		return EventStop, true
	case models.StateRestartRequested:
		return EventRestart, true
	case models.StateTerminated:
		return EventTerminate, true
	default:
		return "", false
	}
}

// CanTransitionDesiredState reports whether the desired state may move from
// one value to another. Re-requesting the current state is a valid no-op.
func CanTransitionDesiredState(from, to models.State) bool {
	if from == to {
		return true
	}

	event, ok := eventForTarget(to)
	if !ok {
		return false
	}

	return NewDesiredStateMachine(from).Can(event)
}
