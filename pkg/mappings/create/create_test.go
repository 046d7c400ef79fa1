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

package create_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/mappings/create"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence/memory"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
)

var _ = Describe("Create", func() {
	var (
		ctx      context.Context
		r        *repo.Repo
		pipeline *create.Main
		now      time.Time
	)

	namespace := &models.Namespace{ID: "ns-1", Path: "group/ns-1"}

	agentIn := func(traversalIDs ...string) *models.ClusterAgent {
		return &models.ClusterAgent{
			ID:                           "agent-1",
			ProjectID:                    "project-1",
			ProjectNamespaceTraversalIDs: traversalIDs,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		r = repo.New(memory.NewInMemoryStore())
		Expect(r.EnsureCollections(ctx)).To(Succeed())

		now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		pipeline = create.NewMain(r, zap.NewNop().Sugar(), func() time.Time { return now })
	})

	It("creates a mapping for an agent nested under the namespace", func() {
		res := pipeline.Create(ctx, namespace, agentIn("ns-root", "ns-1"), "user-1")

		mapping, err := res.Unwrap()
		Expect(err).To(BeNil())
		Expect(mapping.NamespaceID).To(Equal("ns-1"))
		Expect(mapping.ClusterAgentID).To(Equal("agent-1"))
		Expect(mapping.CreatedByID).To(Equal("user-1"))
		Expect(mapping.CreatedAt).To(BeTemporally("==", now))

		stored, err2 := r.GetMapping(ctx, "ns-1", "agent-1")
		Expect(err2).NotTo(HaveOccurred())
		Expect(stored.CreatedByID).To(Equal("user-1"))
	})

	It("rejects an agent whose project is outside the namespace tree", func() {
		res := pipeline.Create(ctx, namespace, agentIn("ns-elsewhere"), "user-1")

		_, err := res.Unwrap()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(result.CodeMappingCreateValidationFailed))
		Expect(err.Kind).To(Equal(result.KindBadRequest))

		// Validation short-circuits: nothing was inserted.
		_, err2 := r.GetMapping(ctx, "ns-1", "agent-1")
		Expect(err2).To(HaveOccurred())
	})

	It("surfaces a duplicate create as already-exists", func() {
		first := pipeline.Create(ctx, namespace, agentIn("ns-1"), "user-1")
		Expect(first.IsOk()).To(BeTrue())

		second := pipeline.Create(ctx, namespace, agentIn("ns-1"), "user-2")

		_, err := second.Unwrap()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(result.CodeMappingAlreadyExists))
		Expect(err.Kind).To(Equal(result.KindBadRequest))

		// The original row wins the race.
		stored, err2 := r.GetMapping(ctx, "ns-1", "agent-1")
		Expect(err2).NotTo(HaveOccurred())
		Expect(stored.CreatedByID).To(Equal("user-1"))
	})
})
