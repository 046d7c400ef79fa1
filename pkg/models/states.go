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

// State represents a workspace lifecycle state. Desired state is set by
// user-facing flows, actual state is only ever written by the reconciliation
// pipeline based on agent reports.
type State string

const (
	StateCreationRequested State = "CreationRequested"
	StateStarting          State = "Starting"
	StateRunning           State = "Running"
	StateStopping          State = "Stopping"
	StateStopped           State = "Stopped"
	StateRestartRequested  State = "RestartRequested"
	StateTerminating       State = "Terminating"
	StateTerminated        State = "Terminated"
	StateFailed            State = "Failed"
	StateError             State = "Error"
	StateUnknown           State = "Unknown"
)

// ValidActualStates are the states an agent may report for a workspace.
var ValidActualStates = map[State]bool{
	StateCreationRequested: true,
	StateStarting:          true,
	StateRunning:           true,
	StateStopping:          true,
	StateStopped:           true,
	StateTerminating:       true,
	StateTerminated:        true,
	StateFailed:            true,
	StateError:             true,
	StateUnknown:           true,
}

// ValidDesiredStates are the states a user may request for a workspace.
// CreationRequested is set once by the creation flow and never again.
var ValidDesiredStates = map[State]bool{
	StateRunning:          true,
	StateStopped:          true,
	StateRestartRequested: true,
	StateTerminated:       true,
}

// IsValidActualState reports whether s may be stored as a workspace actual state.
func IsValidActualState(s State) bool {
	return ValidActualStates[s]
}

// IsValidDesiredState reports whether s may be requested as a workspace desired state.
func IsValidDesiredState(s State) bool {
	return ValidDesiredStates[s]
}

// StateToGaugeValue maps a workspace state to a numeric value for the
// prometheus state gauges. Unknown states map to -1.
func StateToGaugeValue(s State) float64 {
	switch s {
	case StateCreationRequested:
		return 0
	case StateStarting:
		return 1
	case StateRunning:
		return 2
	case StateStopping:
		return 3
	case StateStopped:
		return 4
	case StateRestartRequested:
		return 5
	case StateTerminating:
		return 6
	case StateTerminated:
		return 7
	case StateFailed:
		return 8
	case StateError:
		return 9
	default:
		return -1
	}
}
