// Package content provides the persistent store for ordered collections,
// with SQLite and PostgreSQL backends.
package content

import (
	"context"
	"encoding/json"

	"github.com/starford/curator/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// CreateParams describes a new collection item.
type CreateParams struct {
	Kind    string          `json:"kind"`
	Scope   string          `json:"scope"`
	Label   string          `json:"label"`
	Payload json.RawMessage `json:"payload"`
}

// UpdateParams replaces the editable fields of an item. When IfMatch is
// non-empty it must equal the item's current checksum.
type UpdateParams struct {
	Label   string          `json:"label"`
	Payload json.RawMessage `json:"payload"`
	IfMatch string          `json:"-"`
}

// Store defines the collection operations consumed by the API, the
// synchronizer and the search provider. Positions within a collection are
// kept as a contiguous 1..N permutation by every mutating call.
type Store interface {
	Filter(ctx context.Context, p models.FilterParams) (*models.ItemPage, error)
	Get(ctx context.Context, kind, id string) (*models.OrderedItem, error)
	Create(ctx context.Context, p CreateParams) (*models.OrderedItem, error)
	Update(ctx context.Context, kind, id string, p UpdateParams) (*models.OrderedItem, error)
	Delete(ctx context.Context, kind, id string) error
	// Move places the item at the 1-based position and returns the
	// collection's resulting order. A non-empty scope must match the item's.
	Move(ctx context.Context, kind, id, scope string, position int) ([]models.OrderedItem, error)
	Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error)
	Close() error
}

// Verify both backends satisfy Store at compile time.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func normalizePayload(p json.RawMessage) []byte {
	if len(p) == 0 {
		return []byte("{}")
	}
	return p
}

func nonNilItems(items []models.OrderedItem) []models.OrderedItem {
	if items == nil {
		return []models.OrderedItem{}
	}
	return items
}

func itemOption(it models.OrderedItem) models.Option {
	return models.Option{Label: it.Label, Value: it.ID, Data: it.Payload}
}
