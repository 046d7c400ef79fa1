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
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/workspaces/reconcile"
)

// staticLister serves a fixed workspace list without a store.
type staticLister struct {
	workspaces []*models.Workspace
	err        error
}

func (l staticLister) ListWorkspacesForAgent(ctx context.Context, agentID string) ([]*models.Workspace, error) {
	return l.workspaces, l.err
}

var _ = Describe("OrphanedWorkspacesObserver", func() {
	grace := 30 * time.Minute
	receivedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	observe := func(lister staticLister, reported ...string) reconcile.Context {
		infos := make([]reconcile.AgentInfo, 0, len(reported))
		for _, id := range reported {
			infos = append(infos, reconcile.AgentInfo{WorkspaceID: id, ActualState: models.StateRunning})
		}

		observer := reconcile.NewOrphanedWorkspacesObserver(lister, zap.NewNop().Sugar(), grace)

		return observer.Observe(reconcile.Context{
			ReqCtx:     context.Background(),
			AgentID:    "agent-1",
			ReceivedAt: receivedAt,
			Infos:      infos,
		})
	}

	ws := func(id string, lastSeen time.Time) *models.Workspace {
		return &models.Workspace{
			ID:                id,
			AgentID:           "agent-1",
			DesiredState:      models.StateRunning,
			ActualState:       models.StateRunning,
			LastSeenByAgentAt: lastSeen,
		}
	}

	It("flags workspaces missing beyond the grace threshold, sorted by ID", func() {
		lister := staticLister{workspaces: []*models.Workspace{
			ws("ws-b", receivedAt.Add(-grace-time.Second)),
			ws("ws-a", receivedAt.Add(-grace-time.Minute)),
		}}

		pc := observe(lister)
		Expect(pc.OrphanedIDs).To(Equal([]string{"ws-a", "ws-b"}))
	})

	It("does not flag a workspace exactly at the boundary", func() {
		lister := staticLister{workspaces: []*models.Workspace{
			ws("ws-1", receivedAt.Add(-grace)),
		}}

		pc := observe(lister)
		Expect(pc.OrphanedIDs).To(BeEmpty())
	})

	It("never flags a workspace present in the report", func() {
		lister := staticLister{workspaces: []*models.Workspace{
			ws("ws-1", receivedAt.Add(-24*time.Hour)),
		}}

		pc := observe(lister, "ws-1")
		Expect(pc.OrphanedIDs).To(BeEmpty())
	})

	It("skips terminated workspaces", func() {
		terminated := ws("ws-done", receivedAt.Add(-24*time.Hour))
		terminated.ActualState = models.StateTerminated

		pc := observe(staticLister{workspaces: []*models.Workspace{terminated}})
		Expect(pc.OrphanedIDs).To(BeEmpty())
	})

	It("measures never-reported workspaces from creation", func() {
		fresh := ws("ws-fresh", time.Time{})
		fresh.CreatedAt = receivedAt.Add(-time.Minute)

		stale := ws("ws-stale", time.Time{})
		stale.CreatedAt = receivedAt.Add(-grace - time.Minute)

		pc := observe(staticLister{workspaces: []*models.Workspace{fresh, stale}})
		Expect(pc.OrphanedIDs).To(Equal([]string{"ws-stale"}))
	})

	It("keeps flagging an orphan on repeated observations while the alert is debounced", func() {
		lister := staticLister{workspaces: []*models.Workspace{
			ws("ws-gone", receivedAt.Add(-grace - time.Minute)),
		}}

		observer := reconcile.NewOrphanedWorkspacesObserver(lister, zap.NewNop().Sugar(), grace)
		pc := reconcile.Context{
			ReqCtx:     context.Background(),
			AgentID:    "agent-1",
			ReceivedAt: receivedAt,
		}

		first := observer.Observe(pc)
		second := observer.Observe(pc)

		Expect(first.OrphanedIDs).To(Equal([]string{"ws-gone"}))
		Expect(second.OrphanedIDs).To(Equal([]string{"ws-gone"}))
	})

	It("leaves the context untouched when listing fails", func() {
		pc := observe(staticLister{err: context.DeadlineExceeded})
		Expect(pc.OrphanedIDs).To(BeNil())
	})
})
