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

package update_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence/memory"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
	"github.com/workspacehub/workspace-core/pkg/workspaces/update"
)

// denyingAuthorizer simulates a failing external ability check.
type denyingAuthorizer struct {
	err error
}

func (a denyingAuthorizer) CanUpdateWorkspace(ctx context.Context, userID string, w *models.Workspace) (bool, error) {
	return false, a.err
}

var _ = Describe("Update", func() {
	var (
		ctx      context.Context
		r        *repo.Repo
		now      time.Time
		pipeline *update.Main
	)

	seed := func() *models.Workspace {
		w := &models.Workspace{
			ID:           "ws-1",
			AgentID:      "agent-1",
			OwnerID:      "user-1",
			DesiredState: models.StateRunning,
			ActualState:  models.StateRunning,
			Config:       map[string]interface{}{"image": "golang"},
		}
		Expect(r.CreateWorkspace(ctx, w)).To(Succeed())

		return w
	}

	BeforeEach(func() {
		ctx = context.Background()
		r = repo.New(memory.NewInMemoryStore())
		Expect(r.EnsureCollections(ctx)).To(Succeed())

		now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		pipeline = update.NewMain(r, nil, zap.NewNop().Sugar(), func() time.Time { return now })
	})

	Describe("authorization", func() {
		It("lets the owner update", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-1", w, update.Params{DesiredState: models.StateStopped})
			Expect(res.IsOk()).To(BeTrue())
		})

		It("refuses a non-owner", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-2", w, update.Params{DesiredState: models.StateStopped})

			_, err := res.Unwrap()
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(result.CodeUnauthorized))
			Expect(err.Kind).To(Equal(result.KindUnauthorized))
		})

		It("refuses an empty user identity", func() {
			w := seed()

			res := pipeline.Update(ctx, "", w, update.Params{DesiredState: models.StateStopped})
			Expect(res.IsErr()).To(BeTrue())
		})

		It("treats an authorizer error as a denial without leaking it", func() {
			w := seed()

			failing := update.NewMain(r, denyingAuthorizer{err: errors.New("ability service down")},
				zap.NewNop().Sugar(), func() time.Time { return now })

			res := failing.Update(ctx, "user-1", w, update.Params{DesiredState: models.StateStopped})

			_, err := res.Unwrap()
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(result.CodeUnauthorized))
			Expect(err.Message).NotTo(ContainSubstring("ability service down"))
		})
	})

	Describe("desired state changes", func() {
		It("applies a valid transition and stamps the change time", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-1", w, update.Params{DesiredState: models.StateStopped})

			updated, err := res.Unwrap()
			Expect(err).To(BeNil())
			Expect(updated.DesiredState).To(Equal(models.StateStopped))
			Expect(updated.DesiredStateUpdatedAt).To(BeTemporally("==", now))

			stored, err2 := r.GetWorkspace(ctx, "ws-1")
			Expect(err2).NotTo(HaveOccurred())
			Expect(stored.DesiredState).To(Equal(models.StateStopped))
		})

		It("rejects a state outside the desired set", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-1", w, update.Params{DesiredState: models.StateStarting})

			_, err := res.Unwrap()
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(result.CodeWorkspaceUpdateFailed))
			Expect(err.Message).To(ContainSubstring("not a valid desired state"))
		})

		It("rejects an invalid lifecycle transition", func() {
			w := seed()
			w.DesiredState = models.StateTerminated
			Expect(r.UpdateWorkspace(ctx, w)).To(Succeed())

			res := pipeline.Update(ctx, "user-1", w, update.Params{DesiredState: models.StateRunning})

			_, err := res.Unwrap()
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(result.CodeWorkspaceUpdateFailed))
			Expect(err.Message).To(ContainSubstring("cannot change desired state"))
		})

		It("treats re-requesting the current state as a no-op", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-1", w, update.Params{DesiredState: models.StateRunning})

			updated, err := res.Unwrap()
			Expect(err).To(BeNil())
			Expect(updated.DesiredState).To(Equal(models.StateRunning))
			Expect(updated.DesiredStateUpdatedAt).To(BeZero())
		})
	})

	Describe("config changes", func() {
		It("replaces the config and stamps the change time", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-1", w, update.Params{
				Config: map[string]interface{}{"image": "rust", "cpu": "2"},
			})

			updated, err := res.Unwrap()
			Expect(err).To(BeNil())
			Expect(updated.Config).To(HaveKeyWithValue("image", "rust"))
			Expect(updated.ConfigUpdatedAt).To(BeTemporally("==", now))
		})

		It("copies the config so later caller mutations do not leak in", func() {
			w := seed()
			config := map[string]interface{}{"image": "rust"}

			res := pipeline.Update(ctx, "user-1", w, update.Params{Config: config})
			Expect(res.IsOk()).To(BeTrue())

			config["image"] = "zig"

			stored, err := r.GetWorkspace(ctx, "ws-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Config).To(HaveKeyWithValue("image", "rust"))
		})

		It("leaves both untouched when no change is requested", func() {
			w := seed()

			res := pipeline.Update(ctx, "user-1", w, update.Params{})

			updated, err := res.Unwrap()
			Expect(err).To(BeNil())
			Expect(updated.DesiredState).To(Equal(models.StateRunning))
			Expect(updated.Config).To(HaveKeyWithValue("image", "golang"))
			Expect(updated.DesiredStateUpdatedAt).To(BeZero())
			Expect(updated.ConfigUpdatedAt).To(BeZero())
			Expect(updated.UpdatedAt).To(BeTemporally("==", now))
		})
	})
})
