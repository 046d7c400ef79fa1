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

// errorResponse is the wire shape of every failed request. Reason carries the
// coarse error kind the agent dispatches on; Code carries the fine-grained
// pipeline error code for diagnostics.
type errorResponse struct {
	Status  string      `json:"status"`
	Reason  string      `json:"reason"`
	Code    result.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

// statusForKind maps the pipeline error taxonomy onto HTTP status codes.
func statusForKind(kind result.Kind) int {
	switch kind {
	case result.KindBadRequest:
		return http.StatusBadRequest
	case result.KindUnauthorized:
		return http.StatusUnauthorized
	case result.KindForbidden:
		return http.StatusForbidden
	case result.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// reasonForKind maps the pipeline error taxonomy onto the reason symbols
// agents understand.
func reasonForKind(kind result.Kind) string {
	switch kind {
	case result.KindBadRequest:
		return "bad_request"
	case result.KindUnauthorized:
		return "unauthorized"
	case result.KindForbidden:
		return "forbidden"
	case result.KindInternal:
		return "internal_server_error"
	default:
		return "internal_server_error"
	}
}

// renderError writes a pipeline error to the response.
func renderError(c *gin.Context, err *result.Error) {
	c.JSON(statusForKind(err.Kind), errorResponse{
		Status:  "error",
		Reason:  reasonForKind(err.Kind),
		Code:    err.Code,
		Message: err.Message,
	})
}

// renderBindError covers malformed request bodies, before any pipeline runs.
func renderBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Status:  "error",
		Reason:  reasonForKind(result.KindBadRequest),
		Code:    result.CodeBadRequest,
		Message: "malformed request: " + err.Error(),
	})
}
