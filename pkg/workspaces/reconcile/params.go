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

package reconcile

import (
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/result"
)

// ParamsValidator checks the top-level shape of the request. It is the only
// stage allowed to fail the pipeline; everything downstream handles bad
// entries internally.
type ParamsValidator struct{}

// Validate fails with a bad-request error on a structurally invalid payload.
func (v ParamsValidator) Validate(pc Context) result.Result[Context] {
	if pc.AgentID == "" {
		return result.Err[Context](result.NewError(
			result.CodeReconcileParamsValidationFailed,
			result.KindBadRequest,
			"missing requesting agent identity",
		))
	}

	switch pc.Params.UpdateType {
	case UpdateTypePartial, UpdateTypeFull:
	default:
		return result.Err[Context](result.NewErrorf(
			result.CodeReconcileParamsValidationFailed,
			result.KindBadRequest,
			"invalid update_type %q, must be %q or %q",
			pc.Params.UpdateType, UpdateTypePartial, UpdateTypeFull,
		))
	}

	return result.Ok(pc)
}

// ParamsExtractor pulls the raw agent info list out of the params. Pure.
type ParamsExtractor struct{}

func (e ParamsExtractor) Extract(pc Context) Context {
	pc.RawInfos = pc.Params.WorkspaceAgentInfos

	return pc
}

// ParamsToInfosConverter turns raw entries into typed AgentInfos. Entries
// without a workspace ID are dropped, unrecognized states default to Unknown.
type ParamsToInfosConverter struct {
	Log *zap.SugaredLogger
}

func (c ParamsToInfosConverter) Convert(pc Context) Context {
	infos := make([]AgentInfo, 0, len(pc.RawInfos))

	for _, raw := range pc.RawInfos {
		if raw.WorkspaceID == "" {
			if c.Log != nil {
				c.Log.Warnw("dropping agent info entry without workspace id",
					"agent_id", pc.AgentID)
			}

			continue
		}

		infos = append(infos, AgentInfo{
			WorkspaceID:               raw.WorkspaceID,
			ActualState:               CalculateActualState(raw),
			DeploymentResourceVersion: raw.DeploymentResourceVersion,
		})
	}

	pc.Infos = infos

	return pc
}
