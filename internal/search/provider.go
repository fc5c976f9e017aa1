// Package search adapts keystroke-driven input and "load more" gestures into
// paginated calls against a remote search, debouncing keystrokes and
// discarding results that belong to a superseded search.
package search

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/curator/internal/debounce"
	"github.com/starford/curator/internal/models"
)

const (
	// DefaultDelay is the quiet period after the last keystroke.
	DefaultDelay   = 500 * time.Millisecond
	defaultTimeout = 10 * time.Second
)

// SearchFunc fetches one 1-based page of results for keyword. A nil page
// with a nil error means "no usable response".
type SearchFunc func(ctx context.Context, keyword string, page int) (*models.SearchPage, error)

// Source is a multi-kind search backend such as content.Store.
type Source interface {
	Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error)
}

// FromSource binds src to one collection kind and page size.
func FromSource(src Source, kind string, limit int) SearchFunc {
	return func(ctx context.Context, keyword string, page int) (*models.SearchPage, error) {
		return src.Search(ctx, kind, keyword, page, limit)
	}
}

// State is a snapshot of a Provider.
type State struct {
	Session uint64          `json:"session"`
	Term    string          `json:"term"`
	Options []models.Option `json:"options"`
	HasMore bool            `json:"has_more"`
	Loading bool            `json:"loading"`
	// Page is the last page requested in this session, 0 if none.
	Page int `json:"page"`
}

// Provider owns the search state of one select widget.
type Provider struct {
	search    SearchFunc
	delay     time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	onChange  func(State)
	debouncer *debounce.Debouncer

	life context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	session uint64
	term    string
	cursor  int
	options []models.Option
	hasMore bool
	loaded  bool
	loading bool
	cancel  context.CancelFunc
	closed  bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) { p.delay = d }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithLogger sets the logger for swallowed search failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithOnChange registers a callback invoked with a fresh snapshot after
// every state change. It runs outside the provider's lock.
func WithOnChange(fn func(State)) Option {
	return func(p *Provider) { p.onChange = fn }
}

// New creates a Provider around fn.
func New(fn SearchFunc, opts ...Option) *Provider {
	p := &Provider{
		search:  fn,
		delay:   DefaultDelay,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		cursor:  1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.debouncer = debounce.New(p.delay)
	p.life, p.stop = context.WithCancel(context.Background())
	return p
}

// Input records a keystroke. The term is stored immediately and a new
// session starts; the page 1 fetch fires once no further keystroke arrives
// within the delay.
func (p *Provider) Input(term string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.resetLocked(term)
	sess := p.session
	p.debouncer.Debounce(func() { p.fetch(p.life, sess) })
	st := p.stateLocked()
	p.mu.Unlock()

	p.emit(st)
}

// LoadMore fetches the next page of the current session and returns the
// resulting state. It does nothing while a fetch is in flight, while a
// debounced fetch is pending, or after the last page.
func (p *Provider) LoadMore(ctx context.Context) State {
	p.mu.Lock()
	if p.closed || p.loading || p.debouncer.Pending() || (p.loaded && !p.hasMore) {
		st := p.stateLocked()
		p.mu.Unlock()
		return st
	}
	sess := p.session
	p.mu.Unlock()

	p.fetch(ctx, sess)
	return p.State()
}

// State returns a snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// Close stops the provider: the pending keystroke is dropped, the in-flight
// call is cancelled and its result ignored.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.debouncer.Cancel()
	p.stop()
}

func (p *Provider) resetLocked(term string) {
	p.session++
	p.term = term
	p.cursor = 1
	p.options = nil
	p.hasMore = false
	p.loaded = false
	p.loading = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Provider) stateLocked() State {
	return State{
		Session: p.session,
		Term:    p.term,
		Options: slices.Clone(p.options),
		HasMore: p.hasMore,
		Loading: p.loading,
		Page:    p.cursor - 1,
	}
}

// fetch requests the page under the cursor for session sess. The result is
// applied only if sess is still the active session when the call returns.
func (p *Provider) fetch(parent context.Context, sess uint64) {
	p.mu.Lock()
	if p.closed || sess != p.session || p.loading {
		p.mu.Unlock()
		return
	}
	page := p.cursor
	p.cursor++
	term := p.term
	p.loading = true
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	p.cancel = cancel
	st := p.stateLocked()
	p.mu.Unlock()
	p.emit(st)

	res, err := p.search(ctx, term, page)
	cancel()

	p.mu.Lock()
	if p.closed || sess != p.session {
		p.mu.Unlock()
		p.logger.Debug("search: dropped superseded result",
			slog.String("term", term), slog.Int("page", page))
		return
	}
	p.loading = false
	p.cancel = nil
	p.loaded = true
	switch {
	case err != nil:
		p.hasMore = false
		p.logger.Warn("search: request failed",
			slog.String("term", term), slog.Int("page", page), slog.String("error", err.Error()))
	case res == nil:
		p.hasMore = false
	default:
		p.options = append(p.options, res.Nodes...)
		p.hasMore = res.HasNextPage()
	}
	st = p.stateLocked()
	p.mu.Unlock()
	p.emit(st)
}

func (p *Provider) emit(st State) {
	if p.onChange != nil {
		p.onChange(st)
	}
}
