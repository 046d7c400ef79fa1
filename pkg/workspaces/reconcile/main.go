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
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/logger"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/result"
)

// Config wires the pipeline's collaborators.
type Config struct {
	Repo     *repo.Repo
	Settings Settings

	// OrphanGraceThreshold is how long a workspace may go unreported before
	// the orphan observer flags it.
	OrphanGraceThreshold time.Duration

	// MaxConcurrentUpdates bounds the per-workspace update goroutines.
	// Defaults to 8.
	MaxConcurrentUpdates int

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time

	Log *zap.SugaredLogger
}

// Main is the reconciliation pipeline entry point. One instance serves all
// agents; it is safe for concurrent use.
type Main struct {
	validator       ParamsValidator
	extractor       ParamsExtractor
	converter       ParamsToInfosConverter
	infosObserver   AgentInfosObserver
	updater         WorkspacesFromAgentInfosUpdater
	orphanObserver  *OrphanedWorkspacesObserver
	finder          WorkspacesToBeReturnedFinder
	builder         ResponsePayloadBuilder
	returnedUpdater WorkspacesToBeReturnedUpdater
	payloadObserver ResponsePayloadObserver
	now             func() time.Time
}

// NewMain assembles the pipeline.
func NewMain(cfg Config) *Main {
	log := cfg.Log
	if log == nil {
		log = logger.For(logger.ComponentReconciler)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Main{
		validator: ParamsValidator{},
		extractor: ParamsExtractor{},
		converter: ParamsToInfosConverter{Log: log},
		infosObserver: AgentInfosObserver{Log: log},
		updater: WorkspacesFromAgentInfosUpdater{
			Repo:           cfg.Repo,
			Log:            log,
			MaxConcurrency: cfg.MaxConcurrentUpdates,
		},
		orphanObserver: NewOrphanedWorkspacesObserver(cfg.Repo, log, cfg.OrphanGraceThreshold),
		finder: WorkspacesToBeReturnedFinder{
			Repo: cfg.Repo,
			Log:  log,
		},
		builder: ResponsePayloadBuilder{
			Log:      log,
			Settings: cfg.Settings,
		},
		returnedUpdater: WorkspacesToBeReturnedUpdater{
			Repo: cfg.Repo,
			Log:  log,
		},
		payloadObserver: ResponsePayloadObserver{Log: log, Now: now},
		now:             now,
	}
}

// Reconcile runs the full pipeline for one agent report. Validation is the
// only failable stage; the returned error result always carries a bad-request
// kind.
func (m *Main) Reconcile(ctx context.Context, agentID string, params ReconcileParams) result.Result[*ResponsePayload] {
	pc := Context{
		ReqCtx:     ctx,
		AgentID:    agentID,
		Params:     params,
		ReceivedAt: m.now(),
	}

	res := m.validator.Validate(pc).
		Map(m.extractor.Extract).
		Map(m.converter.Convert).
		Map(m.infosObserver.Observe).
		Map(m.updater.Update).
		Map(m.orphanObserver.Observe).
		Map(m.finder.Find).
		Map(m.builder.Build).
		Map(m.returnedUpdater.Update).
		Map(m.payloadObserver.Observe)

	return result.MapTo(res, func(pc Context) *ResponsePayload {
		return pc.Payload
	})
}
