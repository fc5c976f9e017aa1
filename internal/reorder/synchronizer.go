// Package reorder keeps cached collection lists consistent with the content
// store while a drag-and-drop reorder is in flight: the new order is shown
// immediately, the move is sent to the store, and the list is rolled back
// when the store rejects it.
package reorder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/cache"
	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/notify"
	"github.com/starford/curator/internal/optimistic"
)

const (
	defaultSettleTimeout = 10 * time.Second
	defaultPageSize      = 200
)

// Collection is the remote side of a reorder. Move positions are 1-based;
// a non-empty returned slice is taken as the new authoritative order.
type Collection interface {
	Filter(ctx context.Context, p models.FilterParams) (*models.ItemPage, error)
	Move(ctx context.Context, kind, id string, p models.MoveParams) ([]models.OrderedItem, error)
}

// Outcome describes what a Reorder call did.
type Outcome struct {
	// Applied is false for no-op gestures (same index, out of range).
	Applied    bool                 `json:"applied"`
	RolledBack bool                 `json:"rolled_back"`
	Items      []models.OrderedItem `json:"items"`
	Err        error                `json:"-"`
	Message    string               `json:"message,omitempty"`
}

// Synchronizer mutates the shared list cache on behalf of reorder gestures.
type Synchronizer struct {
	coll     Collection
	cache    *cache.Cache
	notifier notify.Notifier
	logger   *slog.Logger

	settleTimeout time.Duration
	pageSize      int

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger used for settlement diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithSettleTimeout bounds the refetch that follows every reorder.
func WithSettleTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.settleTimeout = d }
}

// WithPageSize sets the page size used when refetching a collection.
func WithPageSize(n int) Option {
	return func(s *Synchronizer) { s.pageSize = n }
}

// New creates a Synchronizer over coll that writes into c and reports
// failures through n.
func New(coll Collection, c *cache.Cache, n notify.Notifier, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		coll:          coll,
		cache:         c,
		notifier:      n,
		logger:        slog.Default(),
		settleTimeout: defaultSettleTimeout,
		pageSize:      defaultPageSize,
		inflight:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the cached list for key, fetching it on a miss.
func (s *Synchronizer) Load(ctx context.Context, key models.CollectionKey) ([]models.OrderedItem, error) {
	if items, ok := s.cache.Get(key.String()); ok {
		return items, nil
	}
	return s.Refetch(ctx, key)
}

// Refetch reads every page of the collection and overwrites the cache.
func (s *Synchronizer) Refetch(ctx context.Context, key models.CollectionKey) ([]models.OrderedItem, error) {
	var all []models.OrderedItem
	for page := 1; ; page++ {
		res, err := s.coll.Filter(ctx, models.FilterParams{
			Kind:  key.Kind,
			Scope: key.Scope,
			Page:  page,
			Limit: s.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("reorder: refetch %s page %d: %w", key, page, err)
		}
		all = append(all, res.Nodes...)
		if len(res.Nodes) == 0 || len(all) >= res.Total {
			break
		}
	}
	if all == nil {
		all = []models.OrderedItem{}
	}
	s.cache.Set(key.String(), all)
	return all, nil
}

// Reorder moves the item at index from to index to (0-based) in the
// collection identified by key.
//
// Remote failures are reported in the Outcome and through the notifier,
// never as an error; the only error returned is apperr.ErrBusy when another
// reorder of the same collection has not settled yet.
func (s *Synchronizer) Reorder(ctx context.Context, key models.CollectionKey, from, to int) (Outcome, error) {
	k := key.String()
	if !s.acquire(k) {
		return Outcome{}, apperr.ErrBusy
	}
	defer s.release(k)

	current, err := s.Load(ctx, key)
	if err != nil {
		msg := apperr.Message(err)
		s.notifier.Error(msg)
		return Outcome{Err: err, Message: msg}, nil
	}
	if from == to || from < 0 || to < 0 || from >= len(current) || to >= len(current) {
		return Outcome{Items: current}, nil
	}

	item := current[from]
	moved := renumber(Move(current, from, to))

	var authoritative []models.OrderedItem
	err = optimistic.Do(ctx,
		func() []models.OrderedItem {
			items, _ := s.cache.Get(k)
			return items
		},
		func(items []models.OrderedItem) { s.cache.Set(k, items) },
		moved,
		func(ctx context.Context) error {
			order, err := s.coll.Move(ctx, key.Kind, item.ID, models.MoveParams{
				Position: to + 1,
				Scope:    key.Scope,
			})
			if err != nil {
				return err
			}
			authoritative = order
			return nil
		},
	)

	out := Outcome{Applied: true}
	last := moved
	switch {
	case err != nil:
		out.RolledBack = true
		out.Err = err
		out.Message = apperr.Message(err)
		s.logger.Warn("reorder: move rejected, rolled back",
			slog.String("collection", k),
			slog.String("id", item.ID),
			slog.Int("position", to+1),
			slog.String("error", err.Error()))
		s.notifier.Error(out.Message)
		last = current
	case len(authoritative) > 0 && !sameOrder(authoritative, moved):
		s.logger.Debug("reorder: server order differs, taking server order", slog.String("collection", k))
		s.cache.Set(k, authoritative)
		last = authoritative
	}

	out.Items = s.settle(ctx, key, last)
	return out, nil
}

// settle refetches the collection and drops dependent views. It runs even
// if ctx was cancelled so a late failure cannot leave the cache speculative.
// When the refetch fails and the cache entry is gone, last is reported.
func (s *Synchronizer) settle(ctx context.Context, key models.CollectionKey, last []models.OrderedItem) []models.OrderedItem {
	k := key.String()
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settleTimeout)
	defer cancel()

	items, err := s.Refetch(sctx, key)
	if err != nil {
		s.logger.Warn("reorder: settle refetch failed", slog.String("collection", k), slog.String("error", err.Error()))
		var ok bool
		if items, ok = s.cache.Get(k); !ok {
			items = slices.Clone(last)
		}
	}
	s.cache.InvalidateDependents(k)
	return items
}

func (s *Synchronizer) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Synchronizer) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}
