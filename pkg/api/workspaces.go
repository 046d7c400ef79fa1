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
	workspaceupdate "github.com/workspacehub/workspace-core/pkg/workspaces/update"
)

type workspaceUpdateRequest struct {
	DesiredState string                 `json:"desired_state"`
	Config       map[string]interface{} `json:"config"`
}

// workspaceUpdateHandler applies a user's desired state or config change.
func (s *Server) workspaceUpdateHandler(c *gin.Context) {
	workspaceID := c.Param("workspace_id")

	var req workspaceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBindError(c, err)

		return
	}

	workspace, err := s.cfg.Repo.GetWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			renderError(c, result.NewErrorf(
				result.CodeBadRequest,
				result.KindBadRequest,
				"workspace %s does not exist", workspaceID,
			))
		} else {
			s.log.Errorf("failed to load workspace %s: %v", workspaceID, err)
			renderError(c, result.NewError(result.CodeInternal, result.KindInternal, "failed to load workspace"))
		}

		return
	}

	params := workspaceupdate.Params{
		DesiredState: models.State(req.DesiredState),
		Config:       req.Config,
	}

	res := s.cfg.WorkspaceUpdater.Update(c.Request.Context(), currentUserID(c), workspace, params)

	updated, rerr := res.Unwrap()
	switch {
	case res.IsOk():
		c.JSON(http.StatusOK, updated)
	case res.IsErr():
		renderError(c, rerr)
	default:
		result.MustMatch(res)
	}
}
