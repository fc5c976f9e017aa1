package api

import (
	"encoding/json"

	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/search"
)

// CreateItemRequest is the request body for creating an item.
type CreateItemRequest struct {
	Scope   string          `json:"scope,omitempty" example:"location:42"`
	Label   string          `json:"label" example:"Spring checkup" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
}

// UpdateItemRequest is the request body for updating an item.
type UpdateItemRequest struct {
	Label   string          `json:"label" example:"Spring checkup" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
}

// MoveResponse carries the collection order after a move.
type MoveResponse struct {
	Items []models.OrderedItem `json:"items" validate:"required"`
}

// ReorderRequest is a drag-and-drop gesture with 0-based indices.
type ReorderRequest struct {
	Scope string `json:"scope,omitempty" example:"location:42"`
	From  int    `json:"from" example:"2"`
	To    int    `json:"to" example:"0"`
}

// OpenSearchRequest starts a console search session.
type OpenSearchRequest struct {
	Kind      string `json:"kind" example:"locations" validate:"required"`
	Creatable bool   `json:"creatable"`
}

// OpenSearchResponse returns the new session id and its initial view.
type OpenSearchResponse struct {
	Session string      `json:"session" example:"7f0c..." validate:"required"`
	View    search.View `json:"view"`
}

// InputRequest is a keystroke in a search session.
type InputRequest struct {
	Term string `json:"term" example:"clinic"`
}

// SelectRequest picks an option, or the typed text in creatable sessions.
type SelectRequest struct {
	Value string `json:"value" validate:"required"`
}

// SelectResponse is the resolved form value.
type SelectResponse = models.SelectedOption
