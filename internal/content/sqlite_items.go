package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/checksum"
	"github.com/starford/curator/internal/models"
)

func scanItem(r rowScanner) (models.OrderedItem, error) {
	var (
		it      models.OrderedItem
		payload string
	)
	err := r.Scan(&it.ID, &it.Kind, &it.Scope, &it.Position, &it.Label, &payload, &it.Checksum, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return it, err
	}
	it.Payload = []byte(payload)
	return it, nil
}

func collectItems(rows *sql.Rows) ([]models.OrderedItem, error) {
	defer rows.Close()
	var out []models.OrderedItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Filter returns one page of a collection in position order.
func (s *SQLiteStore) Filter(ctx context.Context, p models.FilterParams) (*models.ItemPage, error) {
	page, limit := normalizePaging(p.Page, p.Limit)

	var total int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM items WHERE kind = ? AND scope = ?`, p.Kind, p.Scope,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("content: count: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE kind = ? AND scope = ?
		ORDER BY position
		LIMIT ? OFFSET ?
	`, p.Kind, p.Scope, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("content: filter: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, fmt.Errorf("content: filter scan: %w", err)
	}
	return &models.ItemPage{Nodes: nonNilItems(items), Total: total, Page: page, Limit: limit}, nil
}

// Get returns a single item.
func (s *SQLiteStore) Get(ctx context.Context, kind, id string) (*models.OrderedItem, error) {
	it, err := scanItem(s.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND kind = ?`, id, kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content: get: %w", err)
	}
	return &it, nil
}

// Create appends a new item at the end of its collection.
func (s *SQLiteStore) Create(ctx context.Context, p CreateParams) (*models.OrderedItem, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var last int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM items WHERE kind = ? AND scope = ?`, p.Kind, p.Scope,
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("content: max position: %w", err)
	}

	payload := normalizePayload(p.Payload)
	now := time.Now().UTC()
	it := models.OrderedItem{
		ID:        uuid.NewString(),
		Kind:      p.Kind,
		Scope:     p.Scope,
		Position:  last + 1,
		Label:     p.Label,
		Payload:   payload,
		Checksum:  checksum.Item(p.Label, payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO items (id, kind, scope, position, label, payload, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.Kind, it.Scope, it.Position, it.Label, string(payload), it.Checksum, it.CreatedAt, it.UpdatedAt); err != nil {
		return nil, fmt.Errorf("content: insert: %w", err)
	}
	if err := ftsUpsert(ctx, tx, it.ID, it.Kind, it.Label); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("content: commit: %w", err)
	}
	return &it, nil
}

// Update replaces label and payload, honouring IfMatch.
func (s *SQLiteStore) Update(ctx context.Context, kind, id string, p UpdateParams) (*models.OrderedItem, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current string
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM items WHERE id = ? AND kind = ?`, id, kind).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content: read checksum: %w", err)
	}
	if p.IfMatch != "" && p.IfMatch != current {
		return nil, apperr.ErrConflict
	}

	payload := normalizePayload(p.Payload)
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET label = ?, payload = ?, checksum = ?, updated_at = ?
		WHERE id = ?
	`, p.Label, string(payload), checksum.Item(p.Label, payload), time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("content: update: %w", err)
	}
	if err := ftsUpsert(ctx, tx, id, kind, p.Label); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("content: commit: %w", err)
	}
	return s.Get(ctx, kind, id)
}

// Delete removes an item and closes the gap it leaves in its collection.
func (s *SQLiteStore) Delete(ctx context.Context, kind, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		pos   int
		scope string
	)
	err = tx.QueryRowContext(ctx, `SELECT position, scope FROM items WHERE id = ? AND kind = ?`, id, kind).Scan(&pos, &scope)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("content: read position: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("content: delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET position = position - 1
		WHERE kind = ? AND scope = ? AND position > ?
	`, kind, scope, pos); err != nil {
		return fmt.Errorf("content: compact positions: %w", err)
	}
	ftsDelete(ctx, tx, id)
	return tx.Commit()
}

// Move shifts the items between the old and new position by one and places
// the item at position, all in one transaction.
func (s *SQLiteStore) Move(ctx context.Context, kind, id, scope string, position int) ([]models.OrderedItem, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		cur       int
		itemScope string
	)
	err = tx.QueryRowContext(ctx, `SELECT position, scope FROM items WHERE id = ? AND kind = ?`, id, kind).Scan(&cur, &itemScope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content: read position: %w", err)
	}
	if scope != "" && scope != itemScope {
		return nil, apperr.ErrNotFound
	}

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM items WHERE kind = ? AND scope = ?`, kind, itemScope,
	).Scan(&n); err != nil {
		return nil, fmt.Errorf("content: count: %w", err)
	}
	if position < 1 || position > n {
		return nil, fmt.Errorf("content: move to %d of %d: %w", position, n, apperr.ErrInvalidPosition)
	}

	switch {
	case position < cur:
		_, err = tx.ExecContext(ctx, `
			UPDATE items SET position = position + 1
			WHERE kind = ? AND scope = ? AND position >= ? AND position < ?
		`, kind, itemScope, position, cur)
	case position > cur:
		_, err = tx.ExecContext(ctx, `
			UPDATE items SET position = position - 1
			WHERE kind = ? AND scope = ? AND position > ? AND position <= ?
		`, kind, itemScope, cur, position)
	}
	if err != nil {
		return nil, fmt.Errorf("content: shift positions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET position = ?, updated_at = ? WHERE id = ?`, position, time.Now().UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("content: set position: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE kind = ? AND scope = ? ORDER BY position`, kind, itemScope)
	if err != nil {
		return nil, fmt.Errorf("content: list after move: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, fmt.Errorf("content: list after move: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("content: commit: %w", err)
	}
	return items, nil
}
