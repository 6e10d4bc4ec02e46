package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// DocumentStore persists remote documents, one row per field and timestamp,
// scoped by project and account.
type DocumentStore struct {
	store *Store
}

// Get returns the document, or domain.ErrNotFound if it has no fields.
func (d *DocumentStore) Get(ctx context.Context, projectID, accountID string) (*domain.RemoteDocument, error) {
	return d.get(ctx, d.store.db, projectID, accountID)
}

// Merge applies a partial write atomically and returns the merged document.
// Server timestamps are stamped with nowMs.
func (d *DocumentStore) Merge(
	ctx context.Context,
	projectID, accountID string,
	w domain.DocumentWrite,
	nowMs int64,
) (*domain.RemoteDocument, error) {
	d.store.writeMu.Lock()
	defer d.store.writeMu.Unlock()

	tx, err := d.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for name, value := range w.Fields {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_fields (project_id, account_id, name, value) VALUES (?, ?, ?, ?)
			ON CONFLICT(project_id, account_id, name) DO UPDATE SET value = excluded.value
		`, projectID, accountID, name, value)
		if err != nil {
			return nil, fmt.Errorf("saving field %s: %w", name, err)
		}
	}

	stamps := make(map[string]int64, len(w.Timestamps)+len(w.ServerTimestamps))
	for name, ms := range w.Timestamps {
		stamps[name] = ms
	}
	for _, name := range w.ServerTimestamps {
		stamps[name] = nowMs
	}
	for name, ms := range stamps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_timestamps (project_id, account_id, name, ms) VALUES (?, ?, ?, ?)
			ON CONFLICT(project_id, account_id, name) DO UPDATE SET ms = excluded.ms
		`, projectID, accountID, name, ms)
		if err != nil {
			return nil, fmt.Errorf("saving timestamp %s: %w", name, err)
		}
	}

	doc, err := d.get(ctx, tx, projectID, accountID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return doc, nil
}

// Delete removes every field and timestamp of a document.
func (d *DocumentStore) Delete(ctx context.Context, projectID, accountID string) error {
	d.store.writeMu.Lock()
	defer d.store.writeMu.Unlock()

	for _, table := range []string{"document_fields", "document_timestamps"} {
		_, err := d.store.db.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE project_id = ? AND account_id = ?", projectID, accountID)
		if err != nil {
			return fmt.Errorf("deleting from %s: %w", table, err)
		}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (d *DocumentStore) get(ctx context.Context, q querier, projectID, accountID string) (*domain.RemoteDocument, error) {
	doc := &domain.RemoteDocument{
		AccountID:  accountID,
		Fields:     make(map[string]string),
		Timestamps: make(map[string]int64),
	}

	rows, err := q.QueryContext(ctx,
		"SELECT name, value FROM document_fields WHERE project_id = ? AND account_id = ?", projectID, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		doc.Fields[name] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx,
		"SELECT name, ms FROM document_timestamps WHERE project_id = ? AND account_id = ?", projectID, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying timestamps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var ms int64
		if err := rows.Scan(&name, &ms); err != nil {
			return nil, fmt.Errorf("scanning timestamp: %w", err)
		}
		doc.Timestamps[name] = ms
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(doc.Fields) == 0 && len(doc.Timestamps) == 0 {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}
