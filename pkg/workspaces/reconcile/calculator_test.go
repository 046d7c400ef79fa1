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

package reconcile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/workspaces/reconcile"
)

var _ = Describe("CalculateActualState", func() {
	DescribeTable("derives the actual state from a raw report entry",
		func(raw reconcile.RawAgentInfo, expected models.State) {
			Expect(reconcile.CalculateActualState(raw)).To(Equal(expected))
		},

		Entry("termination progress Terminated wins over everything",
			reconcile.RawAgentInfo{TerminationProgress: "Terminated", ActualState: "Running", DeploymentPhase: "Available"},
			models.StateTerminated),
		Entry("termination progress Terminating wins over everything",
			reconcile.RawAgentInfo{TerminationProgress: "Terminating", ActualState: "Running"},
			models.StateTerminating),

		Entry("explicit valid actual state wins over the phase",
			reconcile.RawAgentInfo{ActualState: "Stopped", DeploymentPhase: "Available"},
			models.StateStopped),
		Entry("invalid actual state falls through to the phase",
			reconcile.RawAgentInfo{ActualState: "Sideways", DeploymentPhase: "Available"},
			models.StateRunning),

		Entry("phase Pending", reconcile.RawAgentInfo{DeploymentPhase: "Pending"}, models.StateStarting),
		Entry("phase Progressing", reconcile.RawAgentInfo{DeploymentPhase: "Progressing"}, models.StateStarting),
		Entry("phase Available", reconcile.RawAgentInfo{DeploymentPhase: "Available"}, models.StateRunning),
		Entry("phase Running", reconcile.RawAgentInfo{DeploymentPhase: "Running"}, models.StateRunning),
		Entry("phase ScalingDown", reconcile.RawAgentInfo{DeploymentPhase: "ScalingDown"}, models.StateStopping),
		Entry("phase Stopped", reconcile.RawAgentInfo{DeploymentPhase: "Stopped"}, models.StateStopped),
		Entry("phase Failed", reconcile.RawAgentInfo{DeploymentPhase: "Failed"}, models.StateFailed),
		Entry("phase CrashLoopBackOff", reconcile.RawAgentInfo{DeploymentPhase: "CrashLoopBackOff"}, models.StateFailed),
		Entry("phase Error", reconcile.RawAgentInfo{DeploymentPhase: "Error"}, models.StateError),

		Entry("empty entry degrades to Unknown", reconcile.RawAgentInfo{}, models.StateUnknown),
		Entry("unrecognized phase degrades to Unknown",
			reconcile.RawAgentInfo{DeploymentPhase: "Mystery"}, models.StateUnknown),
	)
})
