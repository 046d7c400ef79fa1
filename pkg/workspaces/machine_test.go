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

package workspaces_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/workspaces"
)

var _ = Describe("DesiredStateMachine", func() {
	DescribeTable("CanTransitionDesiredState",
		func(from, to models.State, expected bool) {
			Expect(workspaces.CanTransitionDesiredState(from, to)).To(Equal(expected))
		},
		Entry("running to stopped", models.StateRunning, models.StateStopped, true),
		Entry("running to restart requested", models.StateRunning, models.StateRestartRequested, true),
		Entry("running to terminated", models.StateRunning, models.StateTerminated, true),
		Entry("stopped to running", models.StateStopped, models.StateRunning, true),
		Entry("stopped to terminated", models.StateStopped, models.StateTerminated, true),
		Entry("restart requested to running", models.StateRestartRequested, models.StateRunning, true),
		Entry("restart requested to stopped", models.StateRestartRequested, models.StateStopped, true),
		Entry("creation requested to running", models.StateCreationRequested, models.StateRunning, true),
		Entry("creation requested to terminated", models.StateCreationRequested, models.StateTerminated, true),

		Entry("stopped to restart requested", models.StateStopped, models.StateRestartRequested, false),
		Entry("terminated to running", models.StateTerminated, models.StateRunning, false),
		Entry("terminated to stopped", models.StateTerminated, models.StateStopped, false),
		Entry("terminated to restart requested", models.StateTerminated, models.StateRestartRequested, false),
		Entry("running to creation requested", models.StateRunning, models.StateCreationRequested, false),

		Entry("re-requesting the current state is a no-op", models.StateRunning, models.StateRunning, true),
		Entry("re-requesting terminated is a no-op", models.StateTerminated, models.StateTerminated, true),
	)

	It("builds a machine rooted at the given state", func() {
		m := workspaces.NewDesiredStateMachine(models.StateStopped)
		Expect(m.Current()).To(Equal(string(models.StateStopped)))
		Expect(m.Can(workspaces.EventStart)).To(BeTrue())
		Expect(m.Can(workspaces.EventRestart)).To(BeFalse())
	})
})
