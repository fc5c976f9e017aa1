//go:build sqlite_fts5

package content

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/curator/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			id UNINDEXED,
			kind UNINDEXED,
			label,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, id, kind, label string) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM items_fts WHERE id = ?`, id)
	_, err := tx.ExecContext(ctx, `INSERT INTO items_fts (id, kind, label) VALUES (?, ?, ?)`, id, kind, label)
	if err != nil {
		return fmt.Errorf("content: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id string) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM items_fts WHERE id = ?`, id)
}

// matchQuery turns free text into a prefix query so partially typed words
// still match ("clin" finds "Clinic").
func matchQuery(keyword string) string {
	fields := strings.Fields(keyword)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(fields, " ")
}

// Search pages through items of kind matching keyword, ranked by relevance.
// An empty keyword lists everything in creation order.
func (s *SQLiteStore) Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error) {
	page, limit = normalizePaging(page, limit)
	q := matchQuery(keyword)

	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if q == "" {
		err = s.conn.QueryRowContext(ctx, `SELECT count(*) FROM items WHERE kind = ?`, kind).Scan(&total)
		if err == nil {
			rows, err = s.conn.QueryContext(ctx, `
				SELECT `+itemColumns+` FROM items WHERE kind = ?
				ORDER BY created_at, id
				LIMIT ? OFFSET ?
			`, kind, limit, (page-1)*limit)
		}
	} else {
		err = s.conn.QueryRowContext(ctx,
			`SELECT count(*) FROM items_fts WHERE kind = ? AND items_fts MATCH ?`, kind, q).Scan(&total)
		if err == nil {
			rows, err = s.conn.QueryContext(ctx, `
				SELECT i.id, i.kind, i.scope, i.position, i.label, i.payload, i.checksum, i.created_at, i.updated_at
				FROM items_fts f
				JOIN items i ON i.id = f.id
				WHERE f.kind = ? AND items_fts MATCH ?
				ORDER BY f.rank
				LIMIT ? OFFSET ?
			`, kind, q, limit, (page-1)*limit)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("content: search: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, fmt.Errorf("content: search scan: %w", err)
	}

	out := &models.SearchPage{Nodes: make([]models.Option, 0, len(items)), Page: page, Limit: limit, Total: total}
	for _, it := range items {
		out.Nodes = append(out.Nodes, itemOption(it))
	}
	return out, nil
}
