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

// Package sqlite provides a SQLite-backed implementation of
// persistence.Store.
//
// Each collection is a table with an id TEXT PRIMARY KEY and the document
// serialized as a JSON BLOB. The single-writer limitation of SQLite is
// handled by capping the pool at one connection; WAL mode keeps readers
// unblocked during writes. Query filtering, sorting and pagination reuse the
// shared evaluator from the persistence package so that sqlite and memory
// backends agree on query semantics.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"runtime"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/workspacehub/workspace-core/pkg/persistence"
)

var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateCollectionName(name string) error {
	if name == "" {
		return errors.New("invalid collection name: cannot be empty")
	}

	if !collectionNamePattern.MatchString(name) {
		return errors.New("invalid collection name: must contain only alphanumeric characters and underscores, and must start with a letter or underscore")
	}

	return nil
}

// isConstraintViolation reports whether err is a primary-key or uniqueness
// violation, which the Store contract surfaces as ErrConflict.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error

	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// Store is a SQLite-backed document store implementing persistence.Store.
type Store struct {
	db     *sql.DB
	closed bool
}

// NewStore opens (or creates) the database file at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", buildConnectionString(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY churn under concurrent reconcile requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func buildConnectionString(dbPath string) string {
	baseParams := "?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_cache_size=-64000"

	if runtime.GOOS == "darwin" {
		baseParams += "&_fullfsync=1"
	}

	return dbPath + baseParams
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if s.closed {
		return errors.New("store is closed")
	}

	if err := validateCollectionName(name); err != nil {
		return err
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`, name)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func (s *Store) DropCollection(ctx context.Context, name string) error {
	if s.closed {
		return errors.New("store is closed")
	}

	if err := validateCollectionName(name); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+name)
	if err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}

	return nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	id := uuid.NewString()
	if err := s.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) InsertWithID(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if s.closed {
		return errors.New("store is closed")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, collection)

	_, err = s.db.ExecContext(ctx, query, id, data)
	if err != nil {
		if isConstraintViolation(err) {
			return persistence.ErrConflict
		}

		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if s.closed {
		return nil, errors.New("store is closed")
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, collection)

	var data []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return unmarshalDocument(data)
}

func (s *Store) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if s.closed {
		return errors.New("store is closed")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = ? WHERE id = ?`, collection)

	res, err := s.db.ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return requireRowAffected(res)
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	if s.closed {
		return errors.New("store is closed")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, collection)

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return requireRowAffected(res)
}

func (s *Store) Find(ctx context.Context, collection string, query persistence.Query) ([]persistence.Document, error) {
	if s.closed {
		return nil, errors.New("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+collection)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	defer func() { _ = rows.Close() }()

	return collectDocuments(rows, query)
}

func (s *Store) BeginTx(ctx context.Context) (persistence.Tx, error) {
	if s.closed {
		return nil, errors.New("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{tx: tx}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.closed {
		return errors.New("store already closed")
	}

	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

func unmarshalDocument(data []byte) (persistence.Document, error) {
	var doc persistence.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return doc, nil
}

func requireRowAffected(res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// collectDocuments scans all rows of a collection and applies the query
// in-process. Documents are JSON blobs, so filters cannot be pushed into SQL
// without a per-field index scheme; collections here are small (one row per
// workspace or mapping) and the shared evaluator keeps backend semantics
// identical.
func collectDocuments(rows *sql.Rows, query persistence.Query) ([]persistence.Document, error) {
	var documents []persistence.Document

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		doc, err := unmarshalDocument(data)
		if err != nil {
			return nil, err
		}

		if persistence.MatchesFilters(doc, query.Filters) {
			documents = append(documents, doc)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	persistence.SortDocuments(documents, query.SortBy)

	return persistence.Paginate(documents, query), nil
}
