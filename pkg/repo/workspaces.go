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
	"fmt"

	"github.com/workspacehub/workspace-core/pkg/models"
	"github.com/workspacehub/workspace-core/pkg/persistence"
)

// CreateWorkspace inserts a workspace under its own ID. Returns
// persistence.ErrConflict if the ID already exists.
func (r *Repo) CreateWorkspace(ctx context.Context, w *models.Workspace) error {
	doc, err := toDocument(w)
	if err != nil {
		return err
	}

	return r.store.InsertWithID(ctx, CollectionWorkspaces, w.ID, doc)
}

// GetWorkspace retrieves a workspace by ID.
func (r *Repo) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	doc, err := r.store.Get(ctx, CollectionWorkspaces, id)
	if err != nil {
		return nil, err
	}

	var w models.Workspace
	if err := fromDocument(doc, &w); err != nil {
		return nil, err
	}

	return &w, nil
}

// GetWorkspaceForAgent retrieves a workspace by ID only if it is bound to the
// given agent. A workspace belonging to another agent is reported as
// persistence.ErrNotFound, so an agent cannot learn about workspaces outside
// its own scope.
func (r *Repo) GetWorkspaceForAgent(ctx context.Context, workspaceID, agentID string) (*models.Workspace, error) {
	w, err := r.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if w.AgentID != agentID {
		return nil, persistence.ErrNotFound
	}

	return w, nil
}

// ListWorkspacesForAgent returns all workspaces bound to the agent, ordered
// by ID for deterministic responses.
func (r *Repo) ListWorkspacesForAgent(ctx context.Context, agentID string) ([]*models.Workspace, error) {
	query := persistence.NewQuery().
		Filter("agentId", persistence.Eq, agentID).
		Sort("id", persistence.Asc)

	docs, err := r.store.Find(ctx, CollectionWorkspaces, *query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces for agent %s: %w", agentID, err)
	}

	workspaces := make([]*models.Workspace, 0, len(docs))

	for _, doc := range docs {
		var w models.Workspace
		if err := fromDocument(doc, &w); err != nil {
			return nil, err
		}

		workspaces = append(workspaces, &w)
	}

	return workspaces, nil
}

// UpdateWorkspace replaces the stored workspace row.
func (r *Repo) UpdateWorkspace(ctx context.Context, w *models.Workspace) error {
	doc, err := toDocument(w)
	if err != nil {
		return err
	}

	return r.store.Update(ctx, CollectionWorkspaces, w.ID, doc)
}
