// Package itemservice coordinates the content store with change
// notifications and cache invalidation.
package itemservice

import (
	"context"

	"github.com/starford/curator/internal/cache"
	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/models"
)

// EventSink receives item change notifications; sse.Broker implements it.
type EventSink interface {
	PublishItemEvent(action, kind, scope, id string)
}

// Service wraps a content.Store. Every successful mutation publishes an item
// event and invalidates the cached list of the affected collection.
type Service struct {
	store  content.Store
	events EventSink
	cache  *cache.Cache
}

// NewService creates a new item service. events and c may be nil.
func NewService(store content.Store, events EventSink, c *cache.Cache) *Service {
	return &Service{store: store, events: events, cache: c}
}

// Filter returns one page of a collection.
func (s *Service) Filter(ctx context.Context, p models.FilterParams) (*models.ItemPage, error) {
	return s.store.Filter(ctx, p)
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, kind, id string) (*models.OrderedItem, error) {
	return s.store.Get(ctx, kind, id)
}

// Create appends a new item to its collection.
func (s *Service) Create(ctx context.Context, p content.CreateParams) (*models.OrderedItem, error) {
	it, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.changed("created", it.Kind, it.Scope, it.ID)
	return it, nil
}

// Update replaces label and payload, honouring p.IfMatch.
func (s *Service) Update(ctx context.Context, kind, id string, p content.UpdateParams) (*models.OrderedItem, error) {
	it, err := s.store.Update(ctx, kind, id, p)
	if err != nil {
		return nil, err
	}
	s.changed("updated", it.Kind, it.Scope, it.ID)
	return it, nil
}

// Delete removes an item; the rest of its collection is renumbered.
func (s *Service) Delete(ctx context.Context, kind, id string) error {
	it, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.changed("deleted", it.Kind, it.Scope, it.ID)
	return nil
}

// Move positions an item and returns the collection's new order.
func (s *Service) Move(ctx context.Context, kind, id string, p models.MoveParams) ([]models.OrderedItem, error) {
	items, err := s.store.Move(ctx, kind, id, p.Scope, p.Position)
	if err != nil {
		return nil, err
	}
	scope := p.Scope
	if len(items) > 0 {
		scope = items[0].Scope
	}
	s.changed("moved", kind, scope, id)
	return items, nil
}

// Search returns one page of options for kind.
func (s *Service) Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error) {
	return s.store.Search(ctx, kind, keyword, page, limit)
}

func (s *Service) changed(action, kind, scope, id string) {
	if s.cache != nil {
		s.cache.Invalidate(models.CollectionKey{Kind: kind, Scope: scope}.String())
	}
	if s.events != nil {
		s.events.PublishItemEvent(action, kind, scope, id)
	}
}
