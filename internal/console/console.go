// Package console hosts the server-side state of the admin console: reorder
// gestures over cached collection lists and the search sessions behind
// searchable selects. State changes are pushed to the browser as events.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/notify"
	"github.com/starford/curator/internal/reorder"
	"github.com/starford/curator/internal/search"
)

// EventSearchUpdated carries the view of a search session after each change.
const EventSearchUpdated = "search.updated"

// Config tunes search sessions.
type Config struct {
	Delay    time.Duration
	Timeout  time.Duration
	PageSize int
	IdleTTL  time.Duration
	Renderer search.Renderer
	Logger   *slog.Logger
}

// SearchEvent is the payload of EventSearchUpdated.
type SearchEvent struct {
	Session string      `json:"session"`
	Kind    string      `json:"kind"`
	View    search.View `json:"view"`
}

type session struct {
	id        string
	kind      string
	creatable bool
	provider  *search.Provider

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// Console owns the synchronizer and all open search sessions.
type Console struct {
	syncer *reorder.Synchronizer
	source search.Source
	pub    notify.Publisher
	cfg    Config
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a console. pub may be nil.
func New(s *reorder.Synchronizer, source search.Source, pub notify.Publisher, cfg Config) *Console {
	if cfg.Delay <= 0 {
		cfg.Delay = search.DefaultDelay
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Renderer == nil {
		cfg.Renderer = search.DefaultRenderer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Console{
		syncer:   s,
		source:   source,
		pub:      pub,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Items returns the cached list of a collection, loading it on a miss.
func (c *Console) Items(ctx context.Context, key models.CollectionKey) ([]models.OrderedItem, error) {
	if !models.ValidKind(key.Kind) {
		return nil, fmt.Errorf("console: kind %q: %w", key.Kind, apperr.ErrNotFound)
	}
	return c.syncer.Load(ctx, key)
}

// Reorder applies a drag-and-drop gesture from index from to index to.
func (c *Console) Reorder(ctx context.Context, key models.CollectionKey, from, to int) (reorder.Outcome, error) {
	if !models.ValidKind(key.Kind) {
		return reorder.Outcome{}, fmt.Errorf("console: kind %q: %w", key.Kind, apperr.ErrNotFound)
	}
	return c.syncer.Reorder(ctx, key, from, to)
}

// OpenSearch starts a search session over kind and returns its id.
func (c *Console) OpenSearch(kind string, creatable bool) (string, search.View, error) {
	if !models.ValidKind(kind) {
		return "", search.View{}, fmt.Errorf("console: kind %q: %w", kind, apperr.ErrNotFound)
	}
	s := &session{
		id:        uuid.NewString(),
		kind:      kind,
		creatable: creatable,
		lastUsed:  c.now(),
	}
	s.provider = search.New(search.FromSource(c.source, kind, c.cfg.PageSize),
		search.WithDelay(c.cfg.Delay),
		search.WithTimeout(c.timeout()),
		search.WithLogger(c.cfg.Logger.With(slog.String("session", s.id), slog.String("kind", kind))),
		search.WithOnChange(func(search.State) { c.publish(s) }),
	)

	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()

	c.cfg.Logger.Debug("console: search opened", slog.String("session", s.id), slog.String("kind", kind))
	return s.id, c.view(s), nil
}

// Input forwards a keystroke to a session.
func (c *Console) Input(id, term string) (search.View, error) {
	s, err := c.lookup(id)
	if err != nil {
		return search.View{}, err
	}
	s.provider.Input(term)
	return c.view(s), nil
}

// LoadMore fetches the next page of a session.
func (c *Console) LoadMore(ctx context.Context, id string) (search.View, error) {
	s, err := c.lookup(id)
	if err != nil {
		return search.View{}, err
	}
	s.provider.LoadMore(ctx)
	return c.view(s), nil
}

// View returns the current view of a session.
func (c *Console) View(id string) (search.View, error) {
	s, err := c.lookup(id)
	if err != nil {
		return search.View{}, err
	}
	return c.view(s), nil
}

// Select resolves value to the form value it stands for: a loaded option or,
// for creatable sessions, the typed free text.
func (c *Console) Select(id, value string) (models.SelectedOption, error) {
	s, err := c.lookup(id)
	if err != nil {
		return models.SelectedOption{}, err
	}
	st := s.provider.State()
	for _, o := range st.Options {
		if o.Value == value {
			return models.SelectedFromOption(o), nil
		}
	}
	if v := c.view(s); v.Create != nil && v.Create.Value == value {
		return *v.Create, nil
	}
	return models.SelectedOption{}, fmt.Errorf("console: option %q: %w", value, apperr.ErrNotFound)
}

// CloseSearch ends a session; in-flight results are discarded.
func (c *Console) CloseSearch(id string) error {
	c.mu.Lock()
	s, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("console: session %s: %w", id, apperr.ErrNotFound)
	}
	s.provider.Close()
	return nil
}

// SessionCount returns the number of open search sessions.
func (c *Console) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Run closes idle sessions until ctx is cancelled, then closes the rest.
func (c *Console) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.IdleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Close()
			return nil
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep closes sessions idle for longer than the configured TTL.
func (c *Console) Sweep() {
	now := c.now()
	var idle []*session

	c.mu.Lock()
	for id, s := range c.sessions {
		if s.idleSince(now) > c.cfg.IdleTTL {
			idle = append(idle, s)
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	for _, s := range idle {
		s.provider.Close()
		c.cfg.Logger.Debug("console: idle search closed", slog.String("session", s.id))
	}
}

// Close ends every session.
func (c *Console) Close() {
	c.mu.Lock()
	all := c.sessions
	c.sessions = make(map[string]*session)
	c.mu.Unlock()

	for _, s := range all {
		s.provider.Close()
	}
}

func (c *Console) lookup(id string) (*session, error) {
	c.mu.Lock()
	s, ok := c.sessions[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("console: session %s: %w", id, apperr.ErrNotFound)
	}
	s.touch(c.now())
	return s, nil
}

func (c *Console) view(s *session) search.View {
	return s.provider.View(c.cfg.Renderer, s.creatable)
}

func (c *Console) publish(s *session) {
	if c.pub == nil {
		return
	}
	c.pub.Publish(EventSearchUpdated, SearchEvent{Session: s.id, Kind: s.kind, View: c.view(s)})
}

func (c *Console) timeout() time.Duration {
	if c.cfg.Timeout > 0 {
		return c.cfg.Timeout
	}
	return 10 * time.Second
}
