package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/curator/internal/console"
	"github.com/starford/curator/internal/models"
)

// ConsoleHandler exposes the server-side console state.
type ConsoleHandler struct {
	con *console.Console
}

// NewConsoleHandler creates a handler over con.
func NewConsoleHandler(con *console.Console) *ConsoleHandler {
	return &ConsoleHandler{con: con}
}

// Items handles GET /api/console/collections/{kind}.
func (h *ConsoleHandler) Items(w http.ResponseWriter, r *http.Request) {
	key := models.CollectionKey{Kind: chi.URLParam(r, "kind"), Scope: r.URL.Query().Get("scope")}
	items, err := h.con.Items(r.Context(), key)
	if err != nil {
		writeError(w, "console items", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Reorder handles POST /api/console/collections/{kind}/reorder.
// A rejected move is not an HTTP error: the outcome reports the rollback
// and carries the server's message.
func (h *ConsoleHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key := models.CollectionKey{Kind: chi.URLParam(r, "kind"), Scope: req.Scope}
	out, err := h.con.Reorder(r.Context(), key, req.From, req.To)
	if err != nil {
		writeError(w, "console reorder", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// OpenSearch handles POST /api/console/search.
func (h *ConsoleHandler) OpenSearch(w http.ResponseWriter, r *http.Request) {
	var req OpenSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, view, err := h.con.OpenSearch(req.Kind, req.Creatable)
	if err != nil {
		writeError(w, "open search", err)
		return
	}
	writeJSON(w, http.StatusCreated, OpenSearchResponse{Session: id, View: view})
}

// View handles GET /api/console/search/{session}.
func (h *ConsoleHandler) View(w http.ResponseWriter, r *http.Request) {
	v, err := h.con.View(chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, "search view", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Input handles POST /api/console/search/{session}/input.
func (h *ConsoleHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.con.Input(chi.URLParam(r, "session"), req.Term)
	if err != nil {
		writeError(w, "search input", err)
		return
	}
	writeJSON(w, http.StatusAccepted, v)
}

// LoadMore handles POST /api/console/search/{session}/more.
func (h *ConsoleHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	v, err := h.con.LoadMore(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, "search load more", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Select handles POST /api/console/search/{session}/select.
func (h *ConsoleHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sel, err := h.con.Select(chi.URLParam(r, "session"), req.Value)
	if err != nil {
		writeError(w, "search select", err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// CloseSearch handles DELETE /api/console/search/{session}.
func (h *ConsoleHandler) CloseSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.con.CloseSearch(chi.URLParam(r, "session")); err != nil {
		writeError(w, "close search", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
