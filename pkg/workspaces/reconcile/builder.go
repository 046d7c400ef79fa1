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
	json "github.com/goccy/go-json"
	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/models"
)

// ResponsePayloadBuilder serializes the found workspaces into the wire
// format. config_to_apply is rendered only for workspaces the agent still has
// to converge; for the rest the agent only needs the state echo.
type ResponsePayloadBuilder struct {
	Log      *zap.SugaredLogger
	Settings Settings
}

func (b ResponsePayloadBuilder) Build(pc Context) Context {
	infos := make([]WorkspaceRailsInfo, 0, len(pc.ToReturn))

	for _, w := range pc.ToReturn {
		info := WorkspaceRailsInfo{
			ID:                        w.ID,
			Name:                      w.Name,
			Namespace:                 w.Namespace,
			DesiredState:              w.DesiredState,
			ActualState:               w.ActualState,
			DeploymentResourceVersion: w.DeploymentResourceVersion,
		}

		if w.NeedsConvergence() {
			configToApply, err := renderConfigToApply(w)
			if err != nil {
				metrics.IncErrorCountAndLog(metrics.ComponentReconcilePipeline, pc.AgentID, err, b.Log)
			} else {
				info.ConfigToApply = configToApply
			}
		}

		infos = append(infos, info)
	}

	pc.Payload = &ResponsePayload{
		WorkspaceRailsInfos: infos,
		Settings:            b.Settings,
	}

	return pc
}

// renderConfigToApply serializes the workspace config plus the started flag
// the agent converges on. The config map is deep-copied first so the payload
// can never alias the stored document.
func renderConfigToApply(w *models.Workspace) (string, error) {
	var config map[string]interface{}
	if err := deepcopy.Copy(&config, w.Config); err != nil {
		return "", err
	}

	if config == nil {
		config = make(map[string]interface{})
	}

	config["started"] = w.DesiredState == models.StateRunning || w.DesiredState == models.StateRestartRequested

	data, err := json.Marshal(config)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
