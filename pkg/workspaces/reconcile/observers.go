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
	"time"

	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/metrics"
)

// AgentInfosObserver is a side-effect-only stage: counts the request and logs
// the converted report. Returns the context unchanged.
type AgentInfosObserver struct {
	Log *zap.SugaredLogger
}

func (o AgentInfosObserver) Observe(pc Context) Context {
	metrics.IncReconcileRequest(pc.AgentID, string(pc.Params.UpdateType))

	if o.Log != nil {
		o.Log.Debugw("received agent report",
			"agent_id", pc.AgentID,
			"update_type", pc.Params.UpdateType,
			"reported", len(pc.Infos),
			"dropped", len(pc.RawInfos)-len(pc.Infos))
	}

	return pc
}

// ResponsePayloadObserver is the final telemetry stage: records pipeline
// duration and logs the response size. Returns the context unchanged.
type ResponsePayloadObserver struct {
	Log *zap.SugaredLogger
	Now func() time.Time
}

func (o ResponsePayloadObserver) Observe(pc Context) Context {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	metrics.ObserveReconcileTime(metrics.ComponentReconcilePipeline, pc.AgentID, now().Sub(pc.ReceivedAt))

	if o.Log != nil && pc.Payload != nil {
		o.Log.Debugw("built reconcile response",
			"agent_id", pc.AgentID,
			"returned", len(pc.Payload.WorkspaceRailsInfos),
			"orphaned", len(pc.OrphanedIDs))
	}

	return pc
}
