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
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workspacehub/workspace-core/pkg/constants"
	"github.com/workspacehub/workspace-core/pkg/result"
	"github.com/workspacehub/workspace-core/pkg/workspaces/reconcile"
)

// reconcileHandler is the poll endpoint of the agent loop. The agent posts
// its observed workspace states; the response carries the workspaces it must
// act on plus its polling settings.
func (s *Server) reconcileHandler(c *gin.Context) {
	agentID := c.Param("agent_id")

	var params reconcile.ReconcileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		renderBindError(c, err)

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.ReconcileRequestTimeout)
	defer cancel()

	res := s.cfg.Reconciler.Reconcile(ctx, agentID, params)

	payload, rerr := res.Unwrap()
	switch {
	case res.IsOk():
		c.JSON(http.StatusOK, payload)
	case res.IsErr():
		renderError(c, rerr)
	default:
		result.MustMatch(res)
	}
}
