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
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/workspacehub/workspace-core/pkg/result"
)

// userIDHeader carries the acting user's identity, set by the authenticating
// proxy in front of this service.
const userIDHeader = "X-User-Id"

// agentAuth requires the shared agent bearer token when one is configured.
// Agent identity itself comes from the URL; the token only proves the caller
// is part of the trusted agent fleet.
func (s *Server) agentAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AgentAuthToken == "" {
			c.Next()

			return
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AgentAuthToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Status:  "error",
				Reason:  reasonForKind(result.KindUnauthorized),
				Code:    result.CodeUnauthorized,
				Message: "missing or invalid agent token",
			})

			return
		}

		c.Next()
	}
}

// currentUserID extracts the acting user from the request.
func currentUserID(c *gin.Context) string {
	return c.GetHeader(userIDHeader)
}
