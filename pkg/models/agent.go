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

package models

import "time"

// ClusterAgent is a remote, cluster-resident process that manages workspace
// infrastructure and polls the server for desired state.
type ClusterAgent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`

	// ProjectNamespaceTraversalIDs is the namespace ancestry of the agent's
	// owning project, root first. A namespace may only be mapped to this
	// agent if its ID appears in this list.
	ProjectNamespaceTraversalIDs []string `json:"projectNamespaceTraversalIds"`

	CreatedAt time.Time `json:"createdAt"`
}

// Namespace is a group-like container that workspaces and projects live in.
type Namespace struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// NamespaceClusterAgentMapping is an authorization binding: the namespace may
// use the cluster agent for workspaces. Uniquely keyed by
// (namespace_id, cluster_agent_id); the storage-level uniqueness constraint
// is the sole guard against duplicate-create races.
type NamespaceClusterAgentMapping struct {
	NamespaceID    string    `json:"namespaceId"`
	ClusterAgentID string    `json:"clusterAgentId"`
	CreatedByID    string    `json:"createdById"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MappingKey derives the composite storage key for a mapping row.
func MappingKey(namespaceID, clusterAgentID string) string {
	return namespaceID + ":" + clusterAgentID
}

// AgentConfig is the server-side copy of the remote-development section of an
// agent's config file, updated through the agent config pipeline.
type AgentConfig struct {
	AgentID   string    `json:"agentId"`
	Enabled   bool      `json:"enabled"`
	DNSZone   string    `json:"dnsZone"`
	UpdatedAt time.Time `json:"updatedAt"`
}
