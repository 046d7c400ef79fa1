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

package config_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workspacehub/workspace-core/pkg/config"
	"github.com/workspacehub/workspace-core/pkg/constants"
	"github.com/workspacehub/workspace-core/pkg/service/filesystem"
)

var _ = Describe("FileConfigManager", func() {
	var (
		ctx     context.Context
		mockFS  *filesystem.MockFileSystem
		manager *config.FileConfigManager
	)

	const configPath = "/data/config.yaml"

	BeforeEach(func() {
		ctx = context.Background()
		mockFS = filesystem.NewMockFileSystem()
		manager = config.NewFileConfigManager().
			WithConfigPath(configPath).
			WithFileSystemService(mockFS)
	})

	Describe("GetConfig", func() {
		It("fails when the config file does not exist", func() {
			_, err := manager.GetConfig(ctx, 0)
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})

		It("parses an existing config file", func() {
			content := []byte(`
server:
  listenAddress: ":9090"
database:
  backend: memory
reconcile:
  dnsZone: workspaces.example.dev
  fullReconciliationIntervalSeconds: 1800
`)
			Expect(mockFS.WriteFile(ctx, configPath, content, 0644)).To(Succeed())

			cfg, err := manager.GetConfig(ctx, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Server.ListenAddress).To(Equal(":9090"))
			Expect(cfg.Database.Backend).To(Equal(config.DatabaseBackendMemory))
			Expect(cfg.Reconcile.DNSZone).To(Equal("workspaces.example.dev"))
			Expect(cfg.Reconcile.FullReconciliationIntervalSeconds).To(Equal(int32(1800)))
		})

		It("rejects an empty config file", func() {
			Expect(mockFS.WriteFile(ctx, configPath, []byte(""), 0644)).To(Succeed())

			_, err := manager.GetConfig(ctx, 0)
			Expect(err).To(MatchError(ContainSubstring("empty")))
		})

		It("rejects malformed yaml", func() {
			Expect(mockFS.WriteFile(ctx, configPath, []byte("server: [not: closed"), 0644)).To(Succeed())

			_, err := manager.GetConfig(ctx, 0)
			Expect(err).To(MatchError(ContainSubstring("failed to parse")))
		})

		It("fails when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := manager.GetConfig(cancelled, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetConfigWithOverwritesOrCreateNew", func() {
		It("creates a config with defaults when no file exists", func() {
			cfg, err := manager.GetConfigWithOverwritesOrCreateNew(ctx, config.FullConfig{})
			Expect(err).ToNot(HaveOccurred())

			Expect(cfg.Server.ListenAddress).To(Equal(":8080"))
			Expect(cfg.Database.Backend).To(Equal(config.DatabaseBackendSQLite))
			Expect(cfg.Reconcile.FullReconciliationIntervalSeconds).To(Equal(int32(constants.DefaultFullReconciliationIntervalSeconds)))
			Expect(cfg.Reconcile.PartialReconciliationIntervalSeconds).To(Equal(int32(constants.DefaultPartialReconciliationIntervalSeconds)))
			Expect(cfg.Reconcile.MaxConcurrentUpdates).To(Equal(constants.DefaultMaxConcurrentUpdates))

			// The file must have been persisted
			exists, err := mockFS.FileExists(ctx, configPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("applies overrides on top of an existing file", func() {
			content := []byte(`
server:
  listenAddress: ":9090"
database:
  backend: sqlite
  path: /data/old.db
`)
			Expect(mockFS.WriteFile(ctx, configPath, content, 0644)).To(Succeed())

			override := config.FullConfig{
				Database: config.DatabaseConfig{Path: "/data/new.db"},
				Reconcile: config.ReconcileConfig{
					DNSZone: "workspaces.example.dev",
				},
			}

			cfg, err := manager.GetConfigWithOverwritesOrCreateNew(ctx, override)
			Expect(err).ToNot(HaveOccurred())

			// overridden
			Expect(cfg.Database.Path).To(Equal("/data/new.db"))
			Expect(cfg.Reconcile.DNSZone).To(Equal("workspaces.example.dev"))
			// kept from the file
			Expect(cfg.Server.ListenAddress).To(Equal(":9090"))
		})

		It("persists the merged result so a later read sees it", func() {
			override := config.FullConfig{
				Server: config.ServerConfig{AgentAuthToken: "secret-token"},
			}

			_, err := manager.GetConfigWithOverwritesOrCreateNew(ctx, override)
			Expect(err).ToNot(HaveOccurred())

			cfg, err := manager.GetConfig(ctx, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Server.AgentAuthToken).To(Equal("secret-token"))
		})
	})

	Describe("atomic updates", func() {
		BeforeEach(func() {
			_, err := manager.GetConfigWithOverwritesOrCreateNew(ctx, config.FullConfig{})
			Expect(err).ToNot(HaveOccurred())
		})

		It("replaces the reconcile block", func() {
			newReconcile := config.ReconcileConfig{
				FullReconciliationIntervalSeconds:    7200,
				PartialReconciliationIntervalSeconds: 30,
				DNSZone:                              "ws.internal",
				MaxConcurrentUpdates:                 4,
			}

			Expect(manager.AtomicSetReconcileConfig(ctx, newReconcile)).To(Succeed())

			cfg, err := manager.GetConfig(ctx, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Reconcile).To(Equal(newReconcile))
		})

		It("replaces the license block", func() {
			Expect(manager.AtomicSetLicense(ctx, config.LicenseConfig{RemoteDevelopment: true})).To(Succeed())

			cfg, err := manager.GetConfig(ctx, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.License.RemoteDevelopment).To(BeTrue())
		})
	})
})

var _ = Describe("ReconcileConfig", func() {
	It("renders the agent-facing settings block", func() {
		rc := config.ReconcileConfig{
			FullReconciliationIntervalSeconds:    3600,
			PartialReconciliationIntervalSeconds: 10,
			DNSZone:                              "workspaces.example.dev",
		}

		settings := rc.Settings()
		Expect(settings.FullReconciliationIntervalSeconds).To(Equal(3600))
		Expect(settings.PartialReconciliationIntervalSeconds).To(Equal(10))
		Expect(settings.DNSZone).To(Equal("workspaces.example.dev"))
	})

	It("falls back to the default orphan grace threshold", func() {
		Expect(config.ReconcileConfig{}.OrphanGraceThreshold()).To(Equal(constants.DefaultOrphanGraceThreshold))
		Expect(config.ReconcileConfig{OrphanGraceThresholdSeconds: 60}.OrphanGraceThreshold().Seconds()).To(Equal(60.0))
	})
})
