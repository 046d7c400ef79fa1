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

package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/workspacehub/workspace-core/pkg/persistence"
)

// inMemoryTx buffers inserts/updates in changes and removals in deletes
// until Commit applies them atomically under the store's write lock.
// Read-your-own-writes: Get and Find consult the buffers first.
type inMemoryTx struct {
	store      *InMemoryStore
	mu         sync.Mutex
	committed  bool
	rolledBack bool
	changes    map[string]map[string]persistence.Document
	deletes    map[string]map[string]bool
}

var errTxCompleted = errors.New("transaction already committed or rolled back")

func (tx *inMemoryTx) completed() bool {
	return tx.committed || tx.rolledBack
}

func (tx *inMemoryTx) CreateCollection(ctx context.Context, name string) error {
	return tx.store.CreateCollection(ctx, name)
}

func (tx *inMemoryTx) DropCollection(ctx context.Context, name string) error {
	// Collection-level DDL inside a transaction is not supported; the SQLite
	// backend has the same restriction.
	return errors.New("drop collection not supported inside a transaction")
}

func (tx *inMemoryTx) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	id := uuid.NewString()
	if err := tx.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}

	return id, nil
}

func (tx *inMemoryTx) InsertWithID(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.completed() {
		return errTxCompleted
	}

	deleted := tx.deletes[collection][id]

	if !deleted {
		if _, buffered := tx.changes[collection][id]; buffered {
			return persistence.ErrConflict
		}

		if _, err := tx.store.Get(ctx, collection, id); err == nil {
			return persistence.ErrConflict
		}
	}

	if tx.changes[collection] == nil {
		tx.changes[collection] = make(map[string]persistence.Document)
	}

	tx.changes[collection][id] = copyDocument(doc)
	delete(tx.deletes[collection], id)

	return nil
}

func (tx *inMemoryTx) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.completed() {
		return nil, errTxCompleted
	}

	if tx.deletes[collection][id] {
		return nil, persistence.ErrNotFound
	}

	if doc, buffered := tx.changes[collection][id]; buffered {
		return copyDocument(doc), nil
	}

	return tx.store.Get(ctx, collection, id)
}

func (tx *inMemoryTx) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.completed() {
		return errTxCompleted
	}

	if tx.deletes[collection][id] {
		return persistence.ErrNotFound
	}

	if _, buffered := tx.changes[collection][id]; !buffered {
		if _, err := tx.store.Get(ctx, collection, id); err != nil {
			return err
		}
	}

	if tx.changes[collection] == nil {
		tx.changes[collection] = make(map[string]persistence.Document)
	}

	tx.changes[collection][id] = copyDocument(doc)

	return nil
}

func (tx *inMemoryTx) Delete(ctx context.Context, collection string, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.completed() {
		return errTxCompleted
	}

	if tx.deletes[collection][id] {
		return persistence.ErrNotFound
	}

	_, buffered := tx.changes[collection][id]
	if !buffered {
		if _, err := tx.store.Get(ctx, collection, id); err != nil {
			return err
		}
	}

	delete(tx.changes[collection], id)

	if tx.deletes[collection] == nil {
		tx.deletes[collection] = make(map[string]bool)
	}

	tx.deletes[collection][id] = true

	return nil
}

func (tx *inMemoryTx) Find(ctx context.Context, collection string, query persistence.Query) ([]persistence.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.completed() {
		return nil, errTxCompleted
	}

	// Merge committed data with this transaction's buffers, then apply the
	// query over the merged view.
	tx.store.mu.RLock()

	merged := make(map[string]persistence.Document)
	for id, doc := range tx.store.collections[collection] {
		merged[id] = doc
	}

	tx.store.mu.RUnlock()

	for id := range tx.deletes[collection] {
		delete(merged, id)
	}

	for id, doc := range tx.changes[collection] {
		merged[id] = doc
	}

	docs := make([]persistence.Document, 0, len(merged))
	for _, doc := range merged {
		if persistence.MatchesFilters(doc, query.Filters) {
			docs = append(docs, copyDocument(doc))
		}
	}

	persistence.SortDocuments(docs, query.SortBy)

	return persistence.Paginate(docs, query), nil
}

func (tx *inMemoryTx) BeginTx(ctx context.Context) (persistence.Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}

func (tx *inMemoryTx) Close(ctx context.Context) error {
	return tx.Rollback()
}

// Commit atomically applies all buffered changes.
func (tx *inMemoryTx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.completed() {
		return errTxCompleted
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	for collection, ids := range tx.deletes {
		coll := tx.store.collections[collection]
		for id := range ids {
			delete(coll, id)
		}
	}

	for collection, docs := range tx.changes {
		coll, exists := tx.store.collections[collection]
		if !exists {
			coll = make(map[string]persistence.Document)
			tx.store.collections[collection] = coll
		}

		for id, doc := range docs {
			coll[id] = doc
		}
	}

	tx.committed = true

	return nil
}

// Rollback discards all buffered changes. No-op after Commit.
func (tx *inMemoryTx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed {
		return nil
	}

	tx.rolledBack = true
	tx.changes = nil
	tx.deletes = nil

	return nil
}
