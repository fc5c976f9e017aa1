//go:build !sqlite_fts5

package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/curator/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; option search uses LIKE on items.label.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _, _, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) {}

// Search pages through items of kind whose label contains keyword, in
// creation order. An empty keyword matches everything.
func (s *SQLiteStore) Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error) {
	page, limit = normalizePaging(page, limit)
	like := "%" + likeEscape(keyword) + "%"

	var total int
	if err := s.conn.QueryRowContext(ctx, `
		SELECT count(*) FROM items
		WHERE kind = ? AND label LIKE ? ESCAPE '\'
	`, kind, like).Scan(&total); err != nil {
		return nil, fmt.Errorf("content: search count: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE kind = ? AND label LIKE ? ESCAPE '\'
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, kind, like, limit, (page-1)*limit)
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
