package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/itemservice"
	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/notify"
)

// Handler holds the collection and search route handlers.
type Handler struct {
	svc   *itemservice.Service
	notes notify.Notifier
}

// NewHandler creates a new Handler. Successful creates and deletes are
// announced through notes.
func NewHandler(svc *itemservice.Service, notes notify.Notifier) *Handler {
	return &Handler{svc: svc, notes: orNop(notes)}
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// ListItems handles GET /api/collections/{kind}.
//
//	@Summary		List a collection in position order
//	@Tags			collections
//	@Produce		json
//	@Param			kind	path		string	true	"Collection kind"
//	@Param			scope	query		string	false	"Scope, e.g. location:42"
//	@Param			page	query		int		false	"1-based page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	models.ItemPage
//	@Security		BearerAuth
//	@Router			/collections/{kind} [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Filter(r.Context(), models.FilterParams{
		Kind:  chi.URLParam(r, "kind"),
		Scope: r.URL.Query().Get("scope"),
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetItem handles GET /api/collections/{kind}/{id}.
//
//	@Summary		Get a single item
//	@Tags			collections
//	@Produce		json
//	@Success		200	{object}	models.OrderedItem
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{kind}/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Get(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get item", err)
		return
	}
	w.Header().Set("ETag", `"`+it.Checksum+`"`)
	writeJSON(w, http.StatusOK, it)
}

// CreateItem handles POST /api/collections/{kind}.
//
//	@Summary		Append an item to a collection
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateItemRequest	true	"Item to create"
//	@Success		201		{object}	models.OrderedItem
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{kind} [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}
	it, err := h.svc.Create(r.Context(), content.CreateParams{
		Kind:    chi.URLParam(r, "kind"),
		Scope:   req.Scope,
		Label:   req.Label,
		Payload: req.Payload,
	})
	if err != nil {
		writeError(w, "create item", err)
		return
	}
	h.notes.Success(fmt.Sprintf("Created %q", it.Label))
	writeJSON(w, http.StatusCreated, it)
}

// UpdateItem handles PUT /api/collections/{kind}/{id}.
//
//	@Summary		Update an item with optimistic concurrency
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string				false	"Checksum for optimistic concurrency"
//	@Param			body		body	UpdateItemRequest	true	"Updated fields"
//	@Success		200	{object}	models.OrderedItem
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{kind}/{id} [put]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	it, err := h.svc.Update(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"), content.UpdateParams{
		Label:   req.Label,
		Payload: req.Payload,
		IfMatch: ifMatch,
	})
	if err != nil {
		writeError(w, "update item", err)
		return
	}
	w.Header().Set("ETag", `"`+it.Checksum+`"`)
	writeJSON(w, http.StatusOK, it)
}

// DeleteItem handles DELETE /api/collections/{kind}/{id}.
//
//	@Summary		Delete an item and compact positions
//	@Tags			collections
//	@Success		204	"Item deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{kind}/{id} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete item", err)
		return
	}
	h.notes.Success("Item deleted")
	w.WriteHeader(http.StatusNoContent)
}

// MoveItem handles POST /api/collections/{kind}/{id}/move.
//
//	@Summary		Move an item to a 1-based position
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.MoveParams	true	"Target position and scope"
//	@Success		200		{object}	MoveResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{kind}/{id}/move [post]
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req models.MoveParams
	if !decodeJSON(w, r, &req) {
		return
	}
	items, err := h.svc.Move(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, "move item", err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Items: items})
}

// Search handles GET /api/search/{kind}.
//
//	@Summary		Page through selectable options of a collection
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Keyword; empty lists everything"
//	@Param			page	query		int		false	"1-based page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	models.SearchPage
//	@Security		BearerAuth
//	@Router			/search/{kind} [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Search(r.Context(), chi.URLParam(r, "kind"), r.URL.Query().Get("q"),
		queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
