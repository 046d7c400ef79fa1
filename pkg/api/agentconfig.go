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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workspacehub/workspace-core/pkg/result"
)

type agentConfigRequest struct {
	// Content is the raw agent config file, as the agent sees it on disk.
	Content string `json:"content" binding:"required"`
}

// agentConfigHandler accepts the agent's posted config file content.
func (s *Server) agentConfigHandler(c *gin.Context) {
	agentID := c.Param("agent_id")

	var req agentConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBindError(c, err)

		return
	}

	res := s.cfg.AgentConfig.Update(c.Request.Context(), agentID, req.Content)

	updateResult, rerr := res.Unwrap()
	switch {
	case res.IsOk():
		c.JSON(http.StatusOK, updateResult)
	case res.IsErr():
		renderError(c, rerr)
	default:
		result.MustMatch(res)
	}
}
