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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/workspacehub/workspace-core/pkg/agentconfig"
	"github.com/workspacehub/workspace-core/pkg/api"
	"github.com/workspacehub/workspace-core/pkg/config"
	"github.com/workspacehub/workspace-core/pkg/constants"
	"github.com/workspacehub/workspace-core/pkg/logger"
	mappingcreate "github.com/workspacehub/workspace-core/pkg/mappings/create"
	mappingdelete "github.com/workspacehub/workspace-core/pkg/mappings/delete"
	"github.com/workspacehub/workspace-core/pkg/metrics"
	"github.com/workspacehub/workspace-core/pkg/persistence"
	"github.com/workspacehub/workspace-core/pkg/persistence/memory"
	"github.com/workspacehub/workspace-core/pkg/persistence/sqlite"
	"github.com/workspacehub/workspace-core/pkg/repo"
	"github.com/workspacehub/workspace-core/pkg/sentry"
	"github.com/workspacehub/workspace-core/pkg/workspaces/reconcile"
	workspaceupdate "github.com/workspacehub/workspace-core/pkg/workspaces/update"
)

// appVersion is set via ldflags at build time.
var appVersion = "0.0.0-dev"

func main() {
	// Initialize the global logger first thing
	logger.Initialize()

	// Initialize Sentry
	sentry.InitSentry(appVersion, true)

	// Get a logger for the main component
	log := logger.For(logger.ComponentCore)

	log.Infof("Starting workspace-core %s...", appVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load the config
	configManager, err := config.NewFileConfigManagerWithBackoff()
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to create config manager: %v", err)
		os.Exit(1)
	}

	// Load or create configuration with environment variable overrides.
	// This loads the config file if it exists, applies any environment
	// variables as overrides, and persists the result back to the config file.
	configData, err := config.LoadConfigWithEnvOverrides(ctx, configManager, log)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to load config: %v", err)
		os.Exit(1)
	}

	// Start the metrics server
	metricsServer := metrics.SetupMetricsEndpoint(configData.Server.MetricsAddress)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown metrics server: %v", err)
		}
	}()

	store, err := openStore(configData.Database, log)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to open store: %v", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			log.Errorf("Failed to close store: %v", err)
		}
	}()

	r := repo.New(store)
	if err := r.EnsureCollections(ctx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to ensure collections: %v", err)
		os.Exit(1)
	}

	reconciler := reconcile.NewMain(reconcile.Config{
		Repo:                 r,
		Settings:             configData.Reconcile.Settings(),
		OrphanGraceThreshold: configData.Reconcile.OrphanGraceThreshold(),
		MaxConcurrentUpdates: configData.Reconcile.MaxConcurrentUpdates,
	})

	server := api.NewServer(api.Config{
		Repo:             r,
		Reconciler:       reconciler,
		MappingCreator:   mappingcreate.NewMain(r, nil, nil),
		MappingDeleter:   mappingdelete.NewMain(r, nil),
		WorkspaceUpdater: workspaceupdate.NewMain(r, nil, nil, nil),
		AgentConfig:      agentconfig.NewMain(r, agentconfig.StaticLicense(configData.License.RemoteDevelopment), nil, nil),
		AgentAuthToken:   configData.Server.AgentAuthToken,
	})

	httpServer := server.HTTPServer(configData.Server.ListenAddress)

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("API server listening on %s", configData.Server.ListenAddress)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssuef(sentry.IssueTypeFatal, log, "API server failed: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.APIShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown API server: %v", err)
	}

	log.Info("workspace-core completed")
}

// openStore builds the persistence backend selected in the config.
func openStore(cfg config.DatabaseConfig, log *zap.SugaredLogger) (persistence.Store, error) {
	switch cfg.Backend {
	case config.DatabaseBackendMemory:
		log.Infof("Using in-memory store")

		return memory.NewInMemoryStore(), nil
	default:
		log.Infof("Using SQLite store at %s", cfg.Path)

		return sqlite.NewStore(cfg.Path)
	}
}
