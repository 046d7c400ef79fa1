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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/workspacehub/workspace-core/pkg/persistence"
)

// sqliteTx wraps a database/sql transaction behind the Store interface.
// SQLite transactions are fully isolated, so read-your-own-writes comes for
// free; the wrapper only translates errors to the Store sentinels.
type sqliteTx struct {
	tx     *sql.Tx
	closed bool
}

func (t *sqliteTx) CreateCollection(ctx context.Context, name string) error {
	if t.closed {
		return errors.New("transaction is closed")
	}

	if err := validateCollectionName(name); err != nil {
		return err
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`, name)

	_, err := t.tx.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func (t *sqliteTx) DropCollection(ctx context.Context, name string) error {
	return errors.New("drop collection not supported inside a transaction")
}

func (t *sqliteTx) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	id := uuid.NewString()
	if err := t.InsertWithID(ctx, collection, id, doc); err != nil {
		return "", err
	}

	return id, nil
}

func (t *sqliteTx) InsertWithID(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if t.closed {
		return errors.New("transaction is closed")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, collection)

	_, err = t.tx.ExecContext(ctx, query, id, data)
	if err != nil {
		if isConstraintViolation(err) {
			return persistence.ErrConflict
		}

		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

func (t *sqliteTx) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	if t.closed {
		return nil, errors.New("transaction is closed")
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, collection)

	var data []byte

	err := t.tx.QueryRowContext(ctx, query, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return unmarshalDocument(data)
}

func (t *sqliteTx) Update(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if t.closed {
		return errors.New("transaction is closed")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = ? WHERE id = ?`, collection)

	res, err := t.tx.ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return requireRowAffected(res)
}

func (t *sqliteTx) Delete(ctx context.Context, collection string, id string) error {
	if t.closed {
		return errors.New("transaction is closed")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, collection)

	res, err := t.tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return requireRowAffected(res)
}

func (t *sqliteTx) Find(ctx context.Context, collection string, query persistence.Query) ([]persistence.Document, error) {
	if t.closed {
		return nil, errors.New("transaction is closed")
	}

	rows, err := t.tx.QueryContext(ctx, `SELECT data FROM `+collection)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	defer func() { _ = rows.Close() }()

	return collectDocuments(rows, query)
}

func (t *sqliteTx) BeginTx(ctx context.Context) (persistence.Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}

func (t *sqliteTx) Close(ctx context.Context) error {
	return t.Rollback()
}

func (t *sqliteTx) Commit() error {
	if t.closed {
		return errors.New("transaction already committed or rolled back")
	}

	t.closed = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (t *sqliteTx) Rollback() error {
	if t.closed {
		return nil
	}

	t.closed = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}
