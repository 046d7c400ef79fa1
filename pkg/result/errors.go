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

package result

import "fmt"

// Kind classifies an error for the transport layer. The HTTP/API layer maps
// kinds to status codes; pipelines never deal in status codes directly.
type Kind int

const (
	// KindBadRequest covers validation failures, not-found targets of
	// delete/update, and uniqueness conflicts. Not-found is deliberately
	// surfaced as bad request rather than 404 so that existence cannot be
	// probed through the status code alone.
	KindBadRequest Kind = iota + 1
	// KindUnauthorized is a per-user, per-resource permission failure.
	KindUnauthorized
	// KindForbidden is an instance-wide entitlement failure (licensing).
	KindForbidden
	// KindInternal is an unexpected collaborator failure (storage errors
	// and the like) converted to a typed error at a stage boundary.
	KindInternal
)

// Code identifies the exact failure so callers and tests can distinguish
// outcomes without parsing message text.
type Code string

const (
	CodeReconcileParamsValidationFailed Code = "workspace_reconcile_params_validation_failed"
	CodeMappingCreateValidationFailed   Code = "namespace_cluster_agent_mapping_create_validation_failed"
	CodeMappingAlreadyExists            Code = "namespace_cluster_agent_mapping_already_exists"
	CodeMappingCreateFailed             Code = "namespace_cluster_agent_mapping_create_failed"
	CodeMappingNotFound                 Code = "namespace_cluster_agent_mapping_not_found"
	CodeUnauthorized                    Code = "unauthorized"
	CodeWorkspaceUpdateFailed           Code = "workspace_update_failed"
	CodeLicenseCheckFailed              Code = "license_check_failed"
	CodeAgentConfigUpdateFailed         Code = "agent_config_update_failed"
	CodeBadRequest                      Code = "bad_request"
	CodeInternal                        Code = "internal"
)

// Error is the typed failure carried by a Result. Message text is safe to
// pass through to clients and logs; collaborator exception details must not
// leak into it for authorization or license failures.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a typed error.
func NewError(code Code, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// NewErrorf builds a typed error with a formatted message.
func NewErrorf(code Code, kind Kind, template string, args ...interface{}) *Error {
	return &Error{Code: code, Kind: kind, Message: fmt.Sprintf(template, args...)}
}

// WithDetails attaches structured context to the error for logging.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}
