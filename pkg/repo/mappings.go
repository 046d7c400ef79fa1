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

	"github.com/workspacehub/workspace-core/pkg/models"
)

// CreateMapping inserts a mapping under its composite key. The storage-level
// uniqueness constraint is the only duplicate guard; concurrent creates race
// on the insert and exactly one wins with the other receiving
// persistence.ErrConflict.
func (r *Repo) CreateMapping(ctx context.Context, m *models.NamespaceClusterAgentMapping) error {
	doc, err := toDocument(m)
	if err != nil {
		return err
	}

	key := models.MappingKey(m.NamespaceID, m.ClusterAgentID)

	return r.store.InsertWithID(ctx, CollectionMappings, key, doc)
}

// GetMapping retrieves a mapping by its composite key.
func (r *Repo) GetMapping(ctx context.Context, namespaceID, clusterAgentID string) (*models.NamespaceClusterAgentMapping, error) {
	doc, err := r.store.Get(ctx, CollectionMappings, models.MappingKey(namespaceID, clusterAgentID))
	if err != nil {
		return nil, err
	}

	var m models.NamespaceClusterAgentMapping
	if err := fromDocument(doc, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// DeleteMapping removes a mapping by its composite key. Returns
// persistence.ErrNotFound when no row exists, which the delete pipeline
// surfaces as its not-found outcome.
func (r *Repo) DeleteMapping(ctx context.Context, namespaceID, clusterAgentID string) error {
	return r.store.Delete(ctx, CollectionMappings, models.MappingKey(namespaceID, clusterAgentID))
}
