package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/checksum"
	"github.com/starford/curator/internal/models"
)

const pgSchemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	scope      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	payload    JSONB NOT NULL DEFAULT '{}'::jsonb,
	checksum   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_items_collection ON items(kind, scope, position);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(kind, created_at);
`

// PostgresStore implements Store on PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("content: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("content: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("content: apply postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func pgCollect(rows pgx.Rows) ([]models.OrderedItem, error) {
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

const pgItemColumns = `id, kind, scope, position, label, payload::text, checksum, created_at, updated_at`

// Filter returns one page of a collection in position order.
func (s *PostgresStore) Filter(ctx context.Context, p models.FilterParams) (*models.ItemPage, error) {
	page, limit := normalizePaging(p.Page, p.Limit)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM items WHERE kind = $1 AND scope = $2`, p.Kind, p.Scope,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("content: count: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgItemColumns+`
		FROM items
		WHERE kind = $1 AND scope = $2
		ORDER BY position
		LIMIT $3 OFFSET $4
	`, p.Kind, p.Scope, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("content: filter: %w", err)
	}
	items, err := pgCollect(rows)
	if err != nil {
		return nil, fmt.Errorf("content: filter scan: %w", err)
	}
	return &models.ItemPage{Nodes: nonNilItems(items), Total: total, Page: page, Limit: limit}, nil
}

// Get returns a single item.
func (s *PostgresStore) Get(ctx context.Context, kind, id string) (*models.OrderedItem, error) {
	it, err := scanItem(s.pool.QueryRow(ctx,
		`SELECT `+pgItemColumns+` FROM items WHERE id = $1 AND kind = $2`, id, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content: get: %w", err)
	}
	return &it, nil
}

// Create appends a new item at the end of its collection. The collection
// rows are locked so concurrent creates cannot share a position.
func (s *PostgresStore) Create(ctx context.Context, p CreateParams) (*models.OrderedItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := lockCollection(ctx, tx, p.Kind, p.Scope); err != nil {
		return nil, err
	}
	var last int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM items WHERE kind = $1 AND scope = $2`, p.Kind, p.Scope,
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
	if _, err := tx.Exec(ctx, `
		INSERT INTO items (id, kind, scope, position, label, payload, checksum, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
	`, it.ID, it.Kind, it.Scope, it.Position, it.Label, string(payload), it.Checksum, it.CreatedAt, it.UpdatedAt); err != nil {
		return nil, fmt.Errorf("content: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("content: commit: %w", err)
	}
	return &it, nil
}

// Update replaces label and payload, honouring IfMatch.
func (s *PostgresStore) Update(ctx context.Context, kind, id string, p UpdateParams) (*models.OrderedItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current string
	err = tx.QueryRow(ctx, `SELECT checksum FROM items WHERE id = $1 AND kind = $2 FOR UPDATE`, id, kind).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content: read checksum: %w", err)
	}
	if p.IfMatch != "" && p.IfMatch != current {
		return nil, apperr.ErrConflict
	}

	payload := normalizePayload(p.Payload)
	if _, err := tx.Exec(ctx, `
		UPDATE items SET label = $1, payload = $2::jsonb, checksum = $3, updated_at = $4
		WHERE id = $5
	`, p.Label, string(payload), checksum.Item(p.Label, payload), time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("content: update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("content: commit: %w", err)
	}
	return s.Get(ctx, kind, id)
}

// Delete removes an item and closes the gap it leaves in its collection.
func (s *PostgresStore) Delete(ctx context.Context, kind, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var (
		pos   int
		scope string
	)
	err = tx.QueryRow(ctx, `SELECT position, scope FROM items WHERE id = $1 AND kind = $2`, id, kind).Scan(&pos, &scope)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("content: read position: %w", err)
	}
	if err := lockCollection(ctx, tx, kind, scope); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("content: delete: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE items SET position = position - 1
		WHERE kind = $1 AND scope = $2 AND position > $3
	`, kind, scope, pos); err != nil {
		return fmt.Errorf("content: compact positions: %w", err)
	}
	return tx.Commit(ctx)
}

// Move places the item at position and returns the resulting order.
func (s *PostgresStore) Move(ctx context.Context, kind, id, scope string, position int) ([]models.OrderedItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var itemScope string
	err = tx.QueryRow(ctx, `SELECT scope FROM items WHERE id = $1 AND kind = $2`, id, kind).Scan(&itemScope)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content: read scope: %w", err)
	}
	if scope != "" && scope != itemScope {
		return nil, apperr.ErrNotFound
	}
	if err := lockCollection(ctx, tx, kind, itemScope); err != nil {
		return nil, err
	}

	var cur, n int
	if err := tx.QueryRow(ctx, `
		SELECT (SELECT position FROM items WHERE id = $1),
		       (SELECT count(*) FROM items WHERE kind = $2 AND scope = $3)
	`, id, kind, itemScope).Scan(&cur, &n); err != nil {
		return nil, fmt.Errorf("content: read position: %w", err)
	}
	if position < 1 || position > n {
		return nil, fmt.Errorf("content: move to %d of %d: %w", position, n, apperr.ErrInvalidPosition)
	}

	switch {
	case position < cur:
		_, err = tx.Exec(ctx, `
			UPDATE items SET position = position + 1
			WHERE kind = $1 AND scope = $2 AND position >= $3 AND position < $4
		`, kind, itemScope, position, cur)
	case position > cur:
		_, err = tx.Exec(ctx, `
			UPDATE items SET position = position - 1
			WHERE kind = $1 AND scope = $2 AND position > $3 AND position <= $4
		`, kind, itemScope, cur, position)
	}
	if err != nil {
		return nil, fmt.Errorf("content: shift positions: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE items SET position = $1, updated_at = $2 WHERE id = $3`, position, time.Now().UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("content: set position: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT `+pgItemColumns+` FROM items WHERE kind = $1 AND scope = $2 ORDER BY position`, kind, itemScope)
	if err != nil {
		return nil, fmt.Errorf("content: list after move: %w", err)
	}
	items, err := pgCollect(rows)
	if err != nil {
		return nil, fmt.Errorf("content: list after move: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("content: commit: %w", err)
	}
	return items, nil
}

// Search pages through items of kind whose label contains keyword
// (case-insensitive), in creation order.
func (s *PostgresStore) Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error) {
	page, limit = normalizePaging(page, limit)
	like := "%" + likeEscape(keyword) + "%"

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM items WHERE kind = $1 AND label ILIKE $2`, kind, like,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("content: search count: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgItemColumns+`
		FROM items
		WHERE kind = $1 AND label ILIKE $2
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`, kind, like, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("content: search: %w", err)
	}
	items, err := pgCollect(rows)
	if err != nil {
		return nil, fmt.Errorf("content: search scan: %w", err)
	}

	out := &models.SearchPage{Nodes: make([]models.Option, 0, len(items)), Page: page, Limit: limit, Total: total}
	for _, it := range items {
		out.Nodes = append(out.Nodes, itemOption(it))
	}
	return out, nil
}

// lockCollection serializes position changes of one collection for the
// rest of the transaction.
func lockCollection(ctx context.Context, tx pgx.Tx, kind, scope string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, kind+"/"+scope); err != nil {
		return fmt.Errorf("content: lock collection: %w", err)
	}
	return nil
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
