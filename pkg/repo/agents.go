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

package repo

import (
	"context"
	"errors"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence"
)

// PutClusterAgent upserts an agent row. Agents are registered out of band
// (cluster bootstrap), so the write path is simple last-write-wins.
func (r *Repo) PutClusterAgent(ctx context.Context, a *models.ClusterAgent) error {
	doc, err := toDocument(a)
	if err != nil {
		return err
	}

	return r.upsert(ctx, CollectionAgents, a.ID, doc)
}

// GetClusterAgent retrieves an agent by ID.
func (r *Repo) GetClusterAgent(ctx context.Context, id string) (*models.ClusterAgent, error) {
	doc, err := r.store.Get(ctx, CollectionAgents, id)
	if err != nil {
		return nil, err
	}

	var a models.ClusterAgent
	if err := fromDocument(doc, &a); err != nil {
		return nil, err
	}

	return &a, nil
}

// PutNamespace upserts a namespace row.
func (r *Repo) PutNamespace(ctx context.Context, n *models.Namespace) error {
	doc, err := toDocument(n)
	if err != nil {
		return err
	}

	return r.upsert(ctx, CollectionNamespaces, n.ID, doc)
}

// GetNamespace retrieves a namespace by ID.
func (r *Repo) GetNamespace(ctx context.Context, id string) (*models.Namespace, error) {
	doc, err := r.store.Get(ctx, CollectionNamespaces, id)
	if err != nil {
		return nil, err
	}

	var n models.Namespace
	if err := fromDocument(doc, &n); err != nil {
		return nil, err
	}

	return &n, nil
}

// PutAgentConfig upserts the server-side copy of an agent's remote
// development config.
func (r *Repo) PutAgentConfig(ctx context.Context, c *models.AgentConfig) error {
	doc, err := toDocument(c)
	if err != nil {
		return err
	}

	return r.upsert(ctx, CollectionAgentConfigs, c.AgentID, doc)
}

// GetAgentConfig retrieves the stored config for an agent.
func (r *Repo) GetAgentConfig(ctx context.Context, agentID string) (*models.AgentConfig, error) {
	doc, err := r.store.Get(ctx, CollectionAgentConfigs, agentID)
	if err != nil {
		return nil, err
	}

	var c models.AgentConfig
	if err := fromDocument(doc, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *Repo) upsert(ctx context.Context, collection, id string, doc persistence.Document) error {
	err := r.store.Update(ctx, collection, id, doc)
	if errors.Is(err, persistence.ErrNotFound) {
		return r.store.InsertWithID(ctx, collection, id, doc)
	}

	return err
}
