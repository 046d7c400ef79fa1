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

package delete_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	mappingdelete "github.com/workspacehub/workspace-core/pkg/mappings/delete"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence/memory"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
)

var _ = Describe("Delete", func() {
	var (
		ctx      context.Context
		r        *repo.Repo
		pipeline *mappingdelete.Main
	)

	namespace := &models.Namespace{ID: "ns-1"}
	agent := &models.ClusterAgent{ID: "agent-1"}

	BeforeEach(func() {
		ctx = context.Background()
		r = repo.New(memory.NewInMemoryStore())
		Expect(r.EnsureCollections(ctx)).To(Succeed())

		pipeline = mappingdelete.NewMain(r, zap.NewNop().Sugar())
	})

	It("deletes an existing mapping", func() {
		Expect(r.CreateMapping(ctx, &models.NamespaceClusterAgentMapping{
			NamespaceID:    "ns-1",
			ClusterAgentID: "agent-1",
		})).To(Succeed())

		res := pipeline.Delete(ctx, namespace, agent)
		Expect(res.IsOk()).To(BeTrue())

		_, err := r.GetMapping(ctx, "ns-1", "agent-1")
		Expect(err).To(HaveOccurred())
	})

	It("reports a missing mapping as not found", func() {
		res := pipeline.Delete(ctx, namespace, agent)

		_, err := res.Unwrap()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(result.CodeMappingNotFound))
		Expect(err.Kind).To(Equal(result.KindBadRequest))
	})

	It("is not idempotent: a second delete is a not-found outcome", func() {
		Expect(r.CreateMapping(ctx, &models.NamespaceClusterAgentMapping{
			NamespaceID:    "ns-1",
			ClusterAgentID: "agent-1",
		})).To(Succeed())

		Expect(pipeline.Delete(ctx, namespace, agent).IsOk()).To(BeTrue())

		second := pipeline.Delete(ctx, namespace, agent)

		_, err := second.Unwrap()
		Expect(err).NotTo(BeNil())
		Expect(err.Code).To(Equal(result.CodeMappingNotFound))
	})
})
