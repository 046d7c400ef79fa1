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

package repo_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence"
	"github.com/workspacehub/workspace-core/pkg/persistence/memory"
	"github.com/workspacehub/workspace-core/pkg/repo"
)

var _ = Describe("Repo", func() {
	var (
		ctx context.Context
		r   *repo.Repo
	)

	BeforeEach(func() {
		ctx = context.Background()
		r = repo.New(memory.NewInMemoryStore())
		Expect(r.EnsureCollections(ctx)).To(Succeed())
	})

	Describe("workspaces", func() {
		newWorkspace := func(id, agentID string) *models.Workspace {
			return &models.Workspace{
				ID:           id,
				Name:         "ws-" + id,
				Namespace:    "ns",
				AgentID:      agentID,
				OwnerID:      "user-1",
				DesiredState: models.StateRunning,
				ActualState:  models.StateCreationRequested,
				Config:       map[string]interface{}{"image": "golang"},
				CreatedAt:    time.Now().UTC().Truncate(time.Second),
			}
		}

		It("round-trips a workspace", func() {
			w := newWorkspace("ws-1", "agent-1")
			Expect(r.CreateWorkspace(ctx, w)).To(Succeed())

			got, err := r.GetWorkspace(ctx, "ws-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("ws-ws-1"))
			Expect(got.AgentID).To(Equal("agent-1"))
			Expect(got.DesiredState).To(Equal(models.StateRunning))
			Expect(got.Config).To(HaveKeyWithValue("image", "golang"))
		})

		It("rejects a duplicate workspace ID", func() {
			Expect(r.CreateWorkspace(ctx, newWorkspace("ws-1", "agent-1"))).To(Succeed())

			err := r.CreateWorkspace(ctx, newWorkspace("ws-1", "agent-2"))
			Expect(errors.Is(err, persistence.ErrConflict)).To(BeTrue())
		})

		It("scopes GetWorkspaceForAgent to the owning agent", func() {
			Expect(r.CreateWorkspace(ctx, newWorkspace("ws-1", "agent-1"))).To(Succeed())

			_, err := r.GetWorkspaceForAgent(ctx, "ws-1", "agent-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = r.GetWorkspaceForAgent(ctx, "ws-1", "agent-2")
			Expect(errors.Is(err, persistence.ErrNotFound)).To(BeTrue())
		})

		It("lists only the agent's workspaces, ordered by ID", func() {
			Expect(r.CreateWorkspace(ctx, newWorkspace("ws-b", "agent-1"))).To(Succeed())
			Expect(r.CreateWorkspace(ctx, newWorkspace("ws-a", "agent-1"))).To(Succeed())
			Expect(r.CreateWorkspace(ctx, newWorkspace("ws-c", "agent-2"))).To(Succeed())

			list, err := r.ListWorkspacesForAgent(ctx, "agent-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal("ws-a"))
			Expect(list[1].ID).To(Equal("ws-b"))
		})

		It("updates a stored workspace", func() {
			w := newWorkspace("ws-1", "agent-1")
			Expect(r.CreateWorkspace(ctx, w)).To(Succeed())

			w.ActualState = models.StateRunning
			Expect(r.UpdateWorkspace(ctx, w)).To(Succeed())

			got, err := r.GetWorkspace(ctx, "ws-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ActualState).To(Equal(models.StateRunning))
		})

		It("refuses to update a workspace that was never created", func() {
			err := r.UpdateWorkspace(ctx, newWorkspace("ghost", "agent-1"))
			Expect(errors.Is(err, persistence.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("cluster agents and namespaces", func() {
		It("upserts an agent row", func() {
			agent := &models.ClusterAgent{ID: "agent-1", Name: "first"}
			Expect(r.PutClusterAgent(ctx, agent)).To(Succeed())

			agent.Name = "renamed"
			Expect(r.PutClusterAgent(ctx, agent)).To(Succeed())

			got, err := r.GetClusterAgent(ctx, "agent-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("renamed"))
		})

		It("round-trips a namespace", func() {
			Expect(r.PutNamespace(ctx, &models.Namespace{ID: "ns-1", Path: "group/ns-1"})).To(Succeed())

			got, err := r.GetNamespace(ctx, "ns-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Path).To(Equal("group/ns-1"))
		})

		It("round-trips an agent config", func() {
			Expect(r.PutAgentConfig(ctx, &models.AgentConfig{
				AgentID: "agent-1",
				Enabled: true,
				DNSZone: "dev.example.com",
			})).To(Succeed())

			got, err := r.GetAgentConfig(ctx, "agent-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Enabled).To(BeTrue())
			Expect(got.DNSZone).To(Equal("dev.example.com"))
		})
	})

	Describe("mappings", func() {
		mapping := func() *models.NamespaceClusterAgentMapping {
			return &models.NamespaceClusterAgentMapping{
				NamespaceID:    "ns-1",
				ClusterAgentID: "agent-1",
				CreatedByID:    "user-1",
			}
		}

		It("creates and retrieves a mapping by composite key", func() {
			Expect(r.CreateMapping(ctx, mapping())).To(Succeed())

			got, err := r.GetMapping(ctx, "ns-1", "agent-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CreatedByID).To(Equal("user-1"))
		})

		It("surfaces a duplicate create as a conflict", func() {
			Expect(r.CreateMapping(ctx, mapping())).To(Succeed())

			err := r.CreateMapping(ctx, mapping())
			Expect(errors.Is(err, persistence.ErrConflict)).To(BeTrue())
		})

		It("deletes a mapping and reports a missing one as not found", func() {
			Expect(r.CreateMapping(ctx, mapping())).To(Succeed())
			Expect(r.DeleteMapping(ctx, "ns-1", "agent-1")).To(Succeed())

			err := r.DeleteMapping(ctx, "ns-1", "agent-1")
			Expect(errors.Is(err, persistence.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("WithTx", func() {
		It("commits all writes when the function succeeds", func() {
			err := r.WithTx(ctx, func(txRepo *repo.Repo) error {
				if err := txRepo.PutNamespace(ctx, &models.Namespace{ID: "ns-1"}); err != nil {
					return err
				}

				return txRepo.CreateMapping(ctx, &models.NamespaceClusterAgentMapping{
					NamespaceID:    "ns-1",
					ClusterAgentID: "agent-1",
				})
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = r.GetMapping(ctx, "ns-1", "agent-1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rolls everything back when the function fails", func() {
			failure := errors.New("abort")

			err := r.WithTx(ctx, func(txRepo *repo.Repo) error {
				if err := txRepo.PutNamespace(ctx, &models.Namespace{ID: "ns-1"}); err != nil {
					return err
				}

				return failure
			})
			Expect(err).To(MatchError(failure))

			_, err = r.GetNamespace(ctx, "ns-1")
			Expect(errors.Is(err, persistence.ErrNotFound)).To(BeTrue())
		})
	})
})
