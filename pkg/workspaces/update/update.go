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

// Package update implements the user-facing workspace update pipeline:
// authorization followed by the persistence update. Desired-state changes are
// validated against the workspace lifecycle machine before being stored.
package update

import (
	"context"
	"time"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/logger"
	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
	"github.com/workspacehub/workspace-core/pkg/workspaces"
)

// Authorizer is the external ability-check collaborator: it decides whether a
// user may update a workspace. Implementations must not be assumed
// side-effect free; the pipeline calls it exactly once per update.
type Authorizer interface {
	CanUpdateWorkspace(ctx context.Context, userID string, w *models.Workspace) (bool, error)
}

// OwnerAuthorizer is the default policy: only the workspace owner may update.
type OwnerAuthorizer struct{}

func (OwnerAuthorizer) CanUpdateWorkspace(ctx context.Context, userID string, w *models.Workspace) (bool, error) {
	return userID != "" && userID == w.OwnerID, nil
}

// Params carries the requested changes. Zero values mean "leave unchanged".
type Params struct {
	DesiredState models.State
	Config       map[string]interface{}
}

// Context is the value threaded through the pipeline.
type Context struct {
	ReqCtx context.Context

	CurrentUserID string
	Workspace     *models.Workspace
	Params        Params
}

// AuthorizerStage wraps the external authorizer in pipeline form. The
// collaborator's own error is never surfaced to the client.
type AuthorizerStage struct {
	Auth Authorizer
	Log  *zap.SugaredLogger
}

func (s AuthorizerStage) Authorize(pc Context) result.Result[Context] {
	ok, err := s.Auth.CanUpdateWorkspace(pc.ReqCtx, pc.CurrentUserID, pc.Workspace)
	if err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentWorkspaceUpdate, pc.Workspace.ID, err, s.Log)

		ok = false
	}

	if !ok {
		return result.Err[Context](result.NewError(
			result.CodeUnauthorized,
			result.KindUnauthorized,
			"not authorized to update this workspace",
		))
	}

	return result.Ok(pc)
}

// Updater applies the requested changes and persists the workspace.
type Updater struct {
	Repo *repo.Repo
	Log  *zap.SugaredLogger
	Now  func() time.Time
}

func (u Updater) Update(pc Context) result.Result[Context] {
	w := pc.Workspace
	now := u.Now()

	if target := pc.Params.DesiredState; target != "" {
		if !models.IsValidDesiredState(target) {
			return result.Err[Context](result.NewErrorf(
				result.CodeWorkspaceUpdateFailed,
				result.KindBadRequest,
				"%q is not a valid desired state", target,
			))
		}

		if !workspaces.CanTransitionDesiredState(w.DesiredState, target) {
			return result.Err[Context](result.NewErrorf(
				result.CodeWorkspaceUpdateFailed,
				result.KindBadRequest,
				"cannot change desired state from %q to %q", w.DesiredState, target,
			))
		}

		if target != w.DesiredState {
			w.DesiredState = target
			w.DesiredStateUpdatedAt = now
		}
	}

	if pc.Params.Config != nil {
		var config map[string]interface{}
		if err := deepcopy.Copy(&config, pc.Params.Config); err != nil {
			metrics.IncErrorCountAndLog(metrics.ComponentWorkspaceUpdate, w.ID, err, u.Log)

			return result.Err[Context](result.NewError(
				result.CodeWorkspaceUpdateFailed,
				result.KindBadRequest,
				"failed to apply workspace config",
			))
		}

		w.Config = config
		w.ConfigUpdatedAt = now
	}

	w.UpdatedAt = now

	if err := u.Repo.UpdateWorkspace(pc.ReqCtx, w); err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentWorkspaceUpdate, w.ID, err, u.Log)

		return result.Err[Context](result.NewError(
			result.CodeWorkspaceUpdateFailed,
			result.KindBadRequest,
			"failed to persist workspace update",
		))
	}

	return result.Ok(pc)
}

// Main is the pipeline entry point.
type Main struct {
	authorizer AuthorizerStage
	updater    Updater
}

// NewMain assembles the pipeline. A nil authorizer defaults to the owner-only
// policy.
func NewMain(r *repo.Repo, auth Authorizer, log *zap.SugaredLogger, now func() time.Time) *Main {
	if log == nil {
		log = logger.For(logger.ComponentWorkspaces)
	}

	if now == nil {
		now = time.Now
	}

	if auth == nil {
		auth = OwnerAuthorizer{}
	}

	return &Main{
		authorizer: AuthorizerStage{Auth: auth, Log: log},
		updater:    Updater{Repo: r, Log: log, Now: now},
	}
}

// Update authorizes and applies a workspace update.
func (m *Main) Update(ctx context.Context, currentUserID string, w *models.Workspace, params Params) result.Result[*models.Workspace] {
	pc := Context{
		ReqCtx:        ctx,
		CurrentUserID: currentUserID,
		Workspace:     w,
		Params:        params,
	}

	res := m.authorizer.Authorize(pc).AndThen(m.updater.Update)

	return result.MapTo(res, func(pc Context) *models.Workspace {
		return pc.Workspace
	})
}
