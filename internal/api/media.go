package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/media"
	"github.com/starford/curator/internal/notify"
)

// MediaHandler accepts and lists uploaded media files.
type MediaHandler struct {
	store *media.Store
	notes notify.Notifier
}

// NewMediaHandler creates a handler over store. notes may be nil.
func NewMediaHandler(store *media.Store, notes notify.Notifier) *MediaHandler {
	return &MediaHandler{store: store, notes: orNop(notes)}
}

// List handles GET /api/media.
//
//	@Summary		List uploaded media
//	@Tags			media
//	@Produce		json
//	@Success		200	{array}	media.File
//	@Security		BearerAuth
//	@Router			/media [get]
func (h *MediaHandler) List(w http.ResponseWriter, _ *http.Request) {
	files, err := h.store.List()
	if err != nil {
		writeError(w, "list media", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// Upload handles POST /api/media (multipart/form-data, field "file").
// The part is streamed to disk; a client that disconnects mid-upload
// cancels the request context and nothing is stored.
//
//	@Summary		Upload an image or video
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	media.File
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Failure		413	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media [post]
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("expected multipart/form-data"))
		return
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		f, err := h.store.Save(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			writeError(w, "upload media", err)
			return
		}
		h.notes.Success("Uploaded " + f.Name)
		writeJSON(w, http.StatusCreated, f)
		return
	}
}

// Delete handles DELETE /api/media/{name}.
//
//	@Summary		Delete a media file
//	@Tags			media
//	@Success		204	"File deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media/{name} [delete]
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "name")); err != nil {
		writeError(w, "delete media", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeFile handles GET /media/{name}. It is mounted outside /api so
// uploaded files can be embedded directly.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.store.Path(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, abs)
}
