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

// Package delete implements the namespace/cluster-agent mapping deletion
// pipeline. Deleting an absent mapping reports not-found instead of silent
// success so callers can tell "deleted" from "nothing to delete".
package delete

import (
	"context"
	"errors"

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

	Namespace    *models.Namespace
	ClusterAgent *models.ClusterAgent
}

// MappingDeleter removes the mapping row by its composite key.
type MappingDeleter struct {
	Repo *repo.Repo
	Log  *zap.SugaredLogger
}

func (d MappingDeleter) Delete(pc Context) result.Result[Context] {
	err := d.Repo.DeleteMapping(pc.ReqCtx, pc.Namespace.ID, pc.ClusterAgent.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return result.Err[Context](result.NewErrorf(
				result.CodeMappingNotFound,
				result.KindBadRequest,
				"mapping of namespace %s to cluster agent %s does not exist",
				pc.Namespace.ID, pc.ClusterAgent.ID,
			))
		}

		metrics.IncErrorCountAndLog(metrics.ComponentMappingDelete, pc.ClusterAgent.ID, err, d.Log)

		return result.Err[Context](result.NewErrorf(
			result.CodeInternal,
			result.KindInternal,
			"failed to delete mapping of namespace %s to cluster agent %s",
			pc.Namespace.ID, pc.ClusterAgent.ID,
		))
	}

	return result.Ok(pc)
}

// Main is the pipeline entry point.
type Main struct {
	deleter MappingDeleter
}

// NewMain assembles the pipeline.
func NewMain(r *repo.Repo, log *zap.SugaredLogger) *Main {
	if log == nil {
		log = logger.For(logger.ComponentMappings)
	}

	return &Main{deleter: MappingDeleter{Repo: r, Log: log}}
}

// Delete removes a mapping by (namespace, cluster agent).
func (m *Main) Delete(ctx context.Context, namespace *models.Namespace, agent *models.ClusterAgent) result.Result[struct{}] {
	pc := Context{
		ReqCtx:       ctx,
		Namespace:    namespace,
		ClusterAgent: agent,
	}

	res := m.deleter.Delete(pc)

	return result.MapTo(res, func(Context) struct{} {
		return struct{}{}
	})
}
