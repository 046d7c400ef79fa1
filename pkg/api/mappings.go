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

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence"
	"github.com/workspacehub/workspace-core/pkg/result"
)

// resolveMappingTarget loads the namespace and cluster agent a mapping
// request names. A missing record is a client error: the caller references
// something that does not exist.
func (s *Server) resolveMappingTarget(c *gin.Context) (*models.Namespace, *models.ClusterAgent, bool) {
	namespaceID := c.Param("namespace_id")
	agentID := c.Param("agent_id")

	namespace, err := s.cfg.Repo.GetNamespace(c.Request.Context(), namespaceID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			renderError(c, result.NewErrorf(
				result.CodeBadRequest,
				result.KindBadRequest,
				"namespace %s does not exist", namespaceID,
			))
		} else {
			s.log.Errorf("failed to load namespace %s: %v", namespaceID, err)
			renderError(c, result.NewError(result.CodeInternal, result.KindInternal, "failed to load namespace"))
		}

		return nil, nil, false
	}

	agent, err := s.cfg.Repo.GetClusterAgent(c.Request.Context(), agentID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			renderError(c, result.NewErrorf(
				result.CodeBadRequest,
				result.KindBadRequest,
				"cluster agent %s does not exist", agentID,
			))
		} else {
			s.log.Errorf("failed to load cluster agent %s: %v", agentID, err)
			renderError(c, result.NewError(result.CodeInternal, result.KindInternal, "failed to load cluster agent"))
		}

		return nil, nil, false
	}

	return namespace, agent, true
}

// mappingCreateHandler grants a namespace access to a cluster agent.
func (s *Server) mappingCreateHandler(c *gin.Context) {
	namespace, agent, ok := s.resolveMappingTarget(c)
	if !ok {
		return
	}

	res := s.cfg.MappingCreator.Create(c.Request.Context(), namespace, agent, currentUserID(c))

	mapping, rerr := res.Unwrap()
	switch {
	case res.IsOk():
		c.JSON(http.StatusCreated, mapping)
	case res.IsErr():
		renderError(c, rerr)
	default:
		result.MustMatch(res)
	}
}

// mappingDeleteHandler revokes a namespace's access to a cluster agent.
func (s *Server) mappingDeleteHandler(c *gin.Context) {
	namespace, agent, ok := s.resolveMappingTarget(c)
	if !ok {
		return
	}

	res := s.cfg.MappingDeleter.Delete(c.Request.Context(), namespace, agent)

	_, rerr := res.Unwrap()
	switch {
	case res.IsOk():
		c.Status(http.StatusNoContent)
	case res.IsErr():
		renderError(c, rerr)
	default:
		result.MustMatch(res)
	}
}
