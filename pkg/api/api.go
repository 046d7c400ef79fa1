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

// Package api exposes the pipelines over HTTP. Agent endpoints carry the
// reconcile loop and agent config updates; user endpoints carry mapping and
// workspace changes. Handlers translate between HTTP and pipeline results,
// nothing more: all domain decisions live in the pipeline packages.
package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/agentconfig"
	"github.com/workspacehub/workspace-core/pkg/constants"
	"github.com/workspacehub/workspace-core/pkg/logger"
	mappingcreate "github.com/workspacehub/workspace-core/pkg/mappings/create"
	mappingdelete "github.com/workspacehub/workspace-core/pkg/mappings/delete"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/workspaces/reconcile"
	workspaceupdate "github.com/workspacehub/workspace-core/pkg/workspaces/update"
)

// Config wires the server to its pipelines.
type Config struct {
	Repo *repo.Repo

	Reconciler       *reconcile.Main
	MappingCreator   *mappingcreate.Main
	MappingDeleter   *mappingdelete.Main
	WorkspaceUpdater *workspaceupdate.Main
	AgentConfig      *agentconfig.Main

	// AgentAuthToken, when non-empty, is required as a bearer token on all
	// agent endpoints.
	AgentAuthToken string

	Log *zap.SugaredLogger
}

// Server holds the HTTP surface.
type Server struct {
	cfg Config
	log *zap.SugaredLogger
}

// NewServer creates a server for the given pipelines.
func NewServer(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.For(logger.ComponentAPI)
	}

	return &Server{cfg: cfg, log: log}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Combined access and error log, RFC3339 with UTC time format, plus
	// panic recovery with stack traces.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// Healthcheck
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})

	v1 := router.Group("/api/v1")
	{
		agents := v1.Group("/agents", s.agentAuth())
		{
			agents.POST("/:agent_id/reconcile", s.reconcileHandler)
			agents.POST("/:agent_id/agent_config", s.agentConfigHandler)
		}

		v1.POST("/namespaces/:namespace_id/cluster_agents/:agent_id/mapping", s.mappingCreateHandler)
		v1.DELETE("/namespaces/:namespace_id/cluster_agents/:agent_id/mapping", s.mappingDeleteHandler)

		v1.PUT("/workspaces/:workspace_id", s.workspaceUpdateHandler)
	}

	return router
}

// HTTPServer wraps the router in an http.Server ready for graceful shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: constants.APIReadHeaderTimeout,
	}
}
