package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/curator/internal/console"
	"github.com/starford/curator/internal/itemservice"
	"github.com/starford/curator/internal/media"
	"github.com/starford/curator/internal/notify"
)

// Deps are the services behind the API.
type Deps struct {
	Items   *itemservice.Service
	Console *console.Console
	// Media may be nil, which disables the media routes.
	Media *media.Store
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Notifier receives success toasts for creates, deletes and uploads.
	Notifier notify.Notifier
}

func orNop(n notify.Notifier) notify.Notifier {
	if n == nil {
		return notify.Multi{}
	}
	return n
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(d.Items, d.Notifier)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Collections CRUD and reorder.
	r.Route("/collections/{kind}", func(r chi.Router) {
		r.Use(requireKind)
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.GetItem)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
		r.Post("/{id}/move", h.MoveItem)
	})

	// Option search.
	r.With(requireKind).Get("/search/{kind}", h.Search)

	// Media upload (auth-protected).
	if d.Media != nil {
		mh := NewMediaHandler(d.Media, d.Notifier)
		r.Get("/media", mh.List)
		r.Post("/media", mh.Upload)
		r.Delete("/media/{name}", mh.Delete)
	}

	// Console state.
	if d.Console != nil {
		ch := NewConsoleHandler(d.Console)
		r.Route("/console", func(r chi.Router) {
			r.With(requireKind).Get("/collections/{kind}", ch.Items)
			r.With(requireKind).Post("/collections/{kind}/reorder", ch.Reorder)
			r.Post("/search", ch.OpenSearch)
			r.Get("/search/{session}", ch.View)
			r.Post("/search/{session}/input", ch.Input)
			r.Post("/search/{session}/more", ch.LoadMore)
			r.Post("/search/{session}/select", ch.Select)
			r.Delete("/search/{session}", ch.CloseSearch)
		})
	}

	// SSE endpoint (protected by same auth middleware).
	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
