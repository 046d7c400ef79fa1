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

// Package create implements the namespace/cluster-agent mapping creation
// pipeline: a structural validation followed by the insert. The storage-level
// uniqueness constraint is the only guard against duplicate-create races, so
// a conflict from the store is a first-class outcome, not an anomaly.
package create

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/logger"
	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
)

// Context is the value threaded through the pipeline.
type Context struct {
	ReqCtx context.Context

	Namespace     *models.Namespace
	ClusterAgent  *models.ClusterAgent
	CurrentUserID string

	// Mapping is set by the creator on success.
	Mapping *models.NamespaceClusterAgentMapping
}

// ClusterAgentValidator checks the structural invariant: the agent's owning
// project must be nested under the namespace being granted access. This is
// not a permissions check; permissions are enforced by the caller's
// authorizer before the pipeline runs.
type ClusterAgentValidator struct{}

func (v ClusterAgentValidator) Validate(pc Context) result.Result[Context] {
	for _, id := range pc.ClusterAgent.ProjectNamespaceTraversalIDs {
		if id == pc.Namespace.ID {
			return result.Ok(pc)
		}
	}

	return result.Err[Context](result.NewErrorf(
		result.CodeMappingCreateValidationFailed,
		result.KindBadRequest,
		"cluster agent %s does not belong to a project nested under namespace %s",
		pc.ClusterAgent.ID, pc.Namespace.ID,
	))
}

// MappingCreator inserts the mapping row.
type MappingCreator struct {
	Repo *repo.Repo
	Log  *zap.SugaredLogger
	Now  func() time.Time
}

func (c MappingCreator) Create(pc Context) result.Result[Context] {
	m := &models.NamespaceClusterAgentMapping{
		NamespaceID:    pc.Namespace.ID,
		ClusterAgentID: pc.ClusterAgent.ID,
		CreatedByID:    pc.CurrentUserID,
		CreatedAt:      c.Now(),
	}

	err := c.Repo.CreateMapping(pc.ReqCtx, m)
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return result.Err[Context](result.NewErrorf(
				result.CodeMappingAlreadyExists,
				result.KindBadRequest,
				"mapping of namespace %s to cluster agent %s already exists",
				pc.Namespace.ID, pc.ClusterAgent.ID,
			))
		}

		metrics.IncErrorCountAndLog(metrics.ComponentMappingCreate, pc.ClusterAgent.ID, err, c.Log)

		return result.Err[Context](result.NewErrorf(
			result.CodeMappingCreateFailed,
			result.KindBadRequest,
			"failed to create mapping of namespace %s to cluster agent %s",
			pc.Namespace.ID, pc.ClusterAgent.ID,
		))
	}

	pc.Mapping = m

	return result.Ok(pc)
}

// Main is the pipeline entry point.
type Main struct {
	validator ClusterAgentValidator
	creator   MappingCreator
}

// NewMain assembles the pipeline.
func NewMain(r *repo.Repo, log *zap.SugaredLogger, now func() time.Time) *Main {
	if log == nil {
		log = logger.For(logger.ComponentMappings)
	}

	if now == nil {
		now = time.Now
	}

	return &Main{
		validator: ClusterAgentValidator{},
		creator:   MappingCreator{Repo: r, Log: log, Now: now},
	}
}

// Create validates and inserts a mapping. Validation failure short-circuits:
// the creator never runs for an agent outside the namespace tree.
func (m *Main) Create(ctx context.Context, namespace *models.Namespace, agent *models.ClusterAgent, currentUserID string) result.Result[*models.NamespaceClusterAgentMapping] {
	pc := Context{
		ReqCtx:        ctx,
		Namespace:     namespace,
		ClusterAgent:  agent,
		CurrentUserID: currentUserID,
	}

	res := m.validator.Validate(pc).AndThen(m.creator.Create)

	return result.MapTo(res, func(pc Context) *models.NamespaceClusterAgentMapping {
		return pc.Mapping
	})
}
