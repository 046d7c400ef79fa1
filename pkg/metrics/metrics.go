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

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/logger"
	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/sentry"
)

const (
	// Component Labels.
	ComponentReconcilePipeline   = "reconcile_pipeline"
	ComponentMappingCreate       = "mapping_create"
	ComponentMappingDelete       = "mapping_delete"
	ComponentWorkspaceUpdate     = "workspace_update"
	ComponentAgentConfigPipeline = "agent_config_pipeline"
	ComponentAPI                 = "api"
	ComponentStore               = "store"
	ComponentConfigManager       = "config_manager"
	ComponentFilesystem          = "filesystem"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "workspace"
	subsystem = "core"

	// Error counters.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	// Reconcile timing.
	reconcileTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconcile_duration_milliseconds",
			Help:      "Time taken to reconcile (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01, // 50th percentile with 1% error
				0.9:  0.01, // 90th percentile with 1% error
				0.95: 0.01, // 95th percentile with 1% error
				0.99: 0.01, // 99th percentile with 1% error
			},
		},
		[]string{"component", "instance"},
	)

	// Reconcile request counter, split by update type (partial/full).
	reconcileRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconcile_requests_total",
			Help:      "Total number of reconcile requests by agent and update type",
		},
		[]string{"agent", "update_type"},
	)

	// Workspace state metrics.
	workspaceActualState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workspace_actual_state",
			Help:      "Actual state of the workspace (0=CreationRequested, 1=Starting, 2=Running, 3=Stopping, 4=Stopped, 5=RestartRequested, 6=Terminating, 7=Terminated, 8=Failed, 9=Error, -1=Unknown)",
		},
		[]string{"agent", "workspace"},
	)

	workspaceDesiredState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workspace_desired_state",
			Help:      "Desired state of the workspace (0=CreationRequested, 1=Starting, 2=Running, 3=Stopping, 4=Stopped, 5=RestartRequested, 6=Terminating, 7=Terminated, 8=Failed, 9=Error, -1=Unknown)",
		},
		[]string{"agent", "workspace"},
	)

	// Filesystem operation timing, per operation and outcome.
	filesystemOps = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "filesystem_op_duration_milliseconds",
			Help:      "Time taken by filesystem operations (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.95: 0.01,
				0.99: 0.01,
			},
		},
		[]string{"op", "status"},
	)

	// Orphan gauge, per agent.
	orphanedWorkspaces = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orphaned_workspaces",
			Help:      "Number of workspaces owned by the agent but missing from its reports beyond the grace threshold",
		},
		[]string{"agent"},
	)
)

// SetupMetricsEndpoint starts an HTTP server to expose metrics
// This should be called once at application startup.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssue(err, sentry.IssueTypeFatal, logger.For("metrics"))
		}
	}()

	return server
}

// IncErrorCountAndLog increments the error counter for a component and logs a debug message if a logger is provided.
func IncErrorCountAndLog(component, instance string, err error, logger *zap.SugaredLogger) {
	IncErrorCount(component, instance)

	if logger != nil {
		logger.Debugf("Component %s instance %s failed: %v", component, instance, err)
	}
}

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// InitErrorCounter initializes the error counter for a component.
func InitErrorCounter(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Add(0)
}

// ObserveReconcileTime records the time taken for a reconciliation.
func ObserveReconcileTime(component, instance string, duration time.Duration) {
	reconcileTime.WithLabelValues(component, instance).Observe(float64(duration.Milliseconds()))
}

// IncReconcileRequest counts a reconcile request for an agent.
func IncReconcileRequest(agentID, updateType string) {
	reconcileRequests.WithLabelValues(agentID, updateType).Inc()
}

// UpdateWorkspaceState updates the actual and desired state gauges for a workspace.
func UpdateWorkspaceState(agentID, workspaceID string, actual, desired models.State) {
	workspaceActualState.WithLabelValues(agentID, workspaceID).Set(models.StateToGaugeValue(actual))
	workspaceDesiredState.WithLabelValues(agentID, workspaceID).Set(models.StateToGaugeValue(desired))
}

// RecordFilesystemOp records the duration and outcome of a filesystem operation.
func RecordFilesystemOp(op string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}

	filesystemOps.WithLabelValues(op, status).Observe(float64(duration.Milliseconds()))
}

// SetOrphanedWorkspaces sets the orphan gauge for an agent.
func SetOrphanedWorkspaces(agentID string, count int) {
	orphanedWorkspaces.WithLabelValues(agentID).Set(float64(count))
}
