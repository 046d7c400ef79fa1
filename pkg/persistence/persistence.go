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

// Package persistence provides a database-agnostic collection/document API.
//
// DESIGN DECISION: Two-layer architecture separating concerns
// WHY: The reconciliation pipelines must be testable without a database, and
// the same repository code must run against SQLite in production and the
// in-memory store in specs. Collections map to tables (SQLite) or plain maps
// (memory); documents are JSON-serializable maps either way.
//
// Architecture:
//   - Layer 1 (this package + memory/ + sqlite/): collection/document CRUD
//   - Layer 2 (pkg/repo): type-safe domain models (Workspace, Mapping, ...)
package persistence

import "context"

// Document represents a JSON-serializable document stored in a collection.
type Document map[string]interface{}

// Store provides database-agnostic CRUD operations on collections of
// documents. All methods are safe for concurrent use; implementations handle
// synchronization internally.
//
// Error handling: methods return ErrNotFound when a document does not exist
// and ErrConflict when a key already exists. Both can be checked with
// errors.Is.
type Store interface {
	// CreateCollection creates a collection if it does not exist yet.
	CreateCollection(ctx context.Context, name string) error

	// DropCollection removes a collection and all its documents.
	DropCollection(ctx context.Context, name string) error

	// Insert adds a document under a server-generated unique ID.
	Insert(ctx context.Context, collection string, doc Document) (id string, err error)

	// InsertWithID adds a document under a caller-chosen ID. Returns
	// ErrConflict if the ID is already taken. This is the uniqueness
	// constraint that guards composite-key rows (for example
	// namespace/cluster-agent mappings) against duplicate-create races.
	InsertWithID(ctx context.Context, collection string, id string, doc Document) error

	// Get retrieves a document by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection string, id string) (Document, error)

	// Update replaces a document entirely. Returns ErrNotFound if absent.
	Update(ctx context.Context, collection string, id string, doc Document) error

	// Delete removes a document by ID. Returns ErrNotFound if absent, so
	// callers can distinguish "nothing to delete" from "deleted".
	Delete(ctx context.Context, collection string, id string) error

	// Find queries documents with optional filtering, sorting and
	// pagination. An empty query returns all documents in the collection.
	Find(ctx context.Context, collection string, query Query) ([]Document, error)

	// BeginTx starts a transaction for atomic multi-document operations.
	BeginTx(ctx context.Context) (Tx, error)

	// Close releases resources. The context bounds graceful shutdown.
	Close(ctx context.Context) error
}

// Tx is a transaction handle. It embeds Store so that transactional
// operations use the exact same API; after Commit or Rollback the handle is
// dead and must not be reused.
type Tx interface {
	Store

	// Commit makes all transaction changes permanent.
	Commit() error

	// Rollback discards all transaction changes. Idempotent and safe to
	// defer even when Commit succeeds.
	Rollback() error
}

// ErrNotFound indicates a document or collection was not found.
var ErrNotFound = &storeError{msg: "document not found"}

// ErrConflict indicates an ID collision or uniqueness violation.
var ErrConflict = &storeError{msg: "document conflict"}

type storeError struct {
	msg string
}

func (e *storeError) Error() string {
	return e.msg
}
