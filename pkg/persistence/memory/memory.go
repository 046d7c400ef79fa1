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

// Package memory provides an in-memory implementation of persistence.Store.
//
// This implementation is designed for tests and development environments
// where data persistence is not required between restarts. All data lives in
// Go maps; documents are deep-copied on every read and write so external
// mutations never leak into the store.
//
// # Thread Safety
//
// A sync.RWMutex protects the collections map. Reads (Get, Find) take the
// read lock, writes take the exclusive lock.
//
// # Transaction Isolation
//
// Transactions buffer changes until Commit, which applies them atomically
// under a single write lock. Reads within a transaction see its own
// uncommitted changes; other readers see committed data only.
//
// # Single-Node Assumption
//
// Single-process only. Production deployments use the SQLite backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/workspacehub/workspace-core/pkg/persistence"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	return nil
}

func copyDocument(doc persistence.Document) persistence.Document {
	var dst persistence.Document
	if err := deepcopy.Copy(&dst, doc); err != nil {
		// Documents are plain JSON-shaped maps, a copy failure is a bug.
		panic(fmt.Sprintf("memory: failed to deep copy document: %v", err))
	}

	return dst
}

// InMemoryStore is a thread-safe in-memory document store implementing
// persistence.Store. Collections are auto-created on first write; read
// operations on a missing collection behave like reads of an empty table.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]persistence.Document
}

// NewInMemoryStore creates a new empty in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		collections: make(map[string]map[string]persistence.Document),
	}
}

// CreateCollection creates a collection if it does not exist yet.
func (s *InMemoryStore) CreateCollection(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[name]; !exists {
		s.collections[name] = make(map[string]persistence.Document)
	}

	return nil
}

// DropCollection removes a collection and all its documents.
func (s *InMemoryStore) DropCollection(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[name]; !exists {
		return persistence.ErrNotFound
	}

	delete(s.collections, name)

	return nil
}

// Insert adds a document under a generated UUID and returns the ID.
func (s *InMemoryStore) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}

	return id, nil
}

// InsertWithID adds a document under a caller-chosen ID. Returns
// persistence.ErrConflict if the ID already exists; this is the uniqueness
// guard composite-key rows rely on.
func (s *InMemoryStore) InsertWithID(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, exists := s.collections[collection]
	if !exists {
		coll = make(map[string]persistence.Document)
		s.collections[collection] = coll
	}

	if _, taken := coll[id]; taken {
		return persistence.ErrConflict
	}

	coll[id] = copyDocument(doc)

	return nil
}

// Get retrieves a document by ID.
func (s *InMemoryStore) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, exists := s.collections[collection]
	if !exists {
		return nil, persistence.ErrNotFound
	}

	doc, exists := coll[id]
	if !exists {
		return nil, persistence.ErrNotFound
	}

	return copyDocument(doc), nil
}

// Update replaces a document entirely.
func (s *InMemoryStore) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, exists := s.collections[collection]
	if !exists {
		return persistence.ErrNotFound
	}

	if _, exists := coll[id]; !exists {
		return persistence.ErrNotFound
	}

	coll[id] = copyDocument(doc)

	return nil
}

// Delete removes a document by ID. Returns persistence.ErrNotFound if the
// document does not exist, so callers can distinguish "nothing to delete"
// from "deleted".
func (s *InMemoryStore) Delete(ctx context.Context, collection string, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, exists := s.collections[collection]
	if !exists {
		return persistence.ErrNotFound
	}

	if _, exists := coll[id]; !exists {
		return persistence.ErrNotFound
	}

	delete(coll, id)

	return nil
}

// Find queries documents with filtering, sorting and pagination applied
// in-memory. A missing collection yields an empty result, not an error.
func (s *InMemoryStore) Find(ctx context.Context, collection string, query persistence.Query) ([]persistence.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()

	coll := s.collections[collection]

	docs := make([]persistence.Document, 0, len(coll))
	for _, doc := range coll {
		if persistence.MatchesFilters(doc, query.Filters) {
			docs = append(docs, copyDocument(doc))
		}
	}

	s.mu.RUnlock()

	persistence.SortDocuments(docs, query.SortBy)

	return persistence.Paginate(docs, query), nil
}

// BeginTx starts a transaction buffering changes until Commit.
func (s *InMemoryStore) BeginTx(ctx context.Context) (persistence.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return &inMemoryTx{
		store:   s,
		changes: make(map[string]map[string]persistence.Document),
		deletes: make(map[string]map[string]bool),
	}, nil
}

// Close clears all data. The store can be reused afterwards.
func (s *InMemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string]map[string]persistence.Document)

	return nil
}
