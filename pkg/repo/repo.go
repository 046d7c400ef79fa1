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

// Package repo is the type-safe layer over the document store. It translates
// between domain models and persistence documents and owns the collection
// names and key schemes; pipeline code never touches raw documents.
package repo

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/workspacehub/workspace-core/pkg/persistence"
)

const (
	CollectionWorkspaces   = "workspaces"
	CollectionAgents       = "cluster_agents"
	CollectionNamespaces   = "namespaces"
	CollectionMappings     = "namespace_cluster_agent_mappings"
	CollectionAgentConfigs = "agent_configs"
)

// Repo provides typed access to all domain collections. Methods that need
// multi-document atomicity run inside a store transaction via WithTx.
type Repo struct {
	store persistence.Store
}

// New wraps a document store. EnsureCollections must be called once before
// first use.
func New(store persistence.Store) *Repo {
	return &Repo{store: store}
}

// EnsureCollections creates all domain collections if missing.
func (r *Repo) EnsureCollections(ctx context.Context) error {
	for _, name := range []string{
		CollectionWorkspaces,
		CollectionAgents,
		CollectionNamespaces,
		CollectionMappings,
		CollectionAgentConfigs,
	} {
		if err := r.store.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
	}

	return nil
}

// WithTx runs fn against a transactional view of the repo. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (r *Repo) WithTx(ctx context.Context, fn func(txRepo *Repo) error) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if err := fn(&Repo{store: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// toDocument converts a model to a persistence document by a JSON round trip.
// All numeric fields come back as float64, which the shared query evaluator
// and the model structs both tolerate.
func toDocument(v interface{}) (persistence.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model: %w", err)
	}

	var doc persistence.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert model to document: %w", err)
	}

	return doc, nil
}

func fromDocument(doc persistence.Document, v interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to convert document to model: %w", err)
	}

	return nil
}
