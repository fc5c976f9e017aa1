package reorder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/cache"
	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/notify"
)

// fakeCollection is an in-memory remote that keeps positions contiguous.
type fakeCollection struct {
	mu        sync.Mutex
	items     []models.OrderedItem
	moveErr   error
	filterErr error
	moves     []models.MoveParams
	movedIDs  []string
	// onMove runs inside Move before the result is decided.
	onMove func()
	// reply overrides the order returned by Move.
	reply []models.OrderedItem
}

func newFake(ids ...string) *fakeCollection {
	f := &fakeCollection{}
	for i, id := range ids {
		f.items = append(f.items, models.OrderedItem{ID: id, Kind: "banners", Label: id, Position: i + 1})
	}
	return f
}

func (f *fakeCollection) Filter(_ context.Context, p models.FilterParams) (*models.ItemPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	start := (p.Page - 1) * p.Limit
	end := min(start+p.Limit, len(f.items))
	if start > len(f.items) {
		start = len(f.items)
	}
	return &models.ItemPage{
		Nodes: slices.Clone(f.items[start:end]),
		Total: len(f.items),
		Page:  p.Page,
		Limit: p.Limit,
	}, nil
}

func (f *fakeCollection) Move(_ context.Context, _, id string, p models.MoveParams) ([]models.OrderedItem, error) {
	if f.onMove != nil {
		f.onMove()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, p)
	f.movedIDs = append(f.movedIDs, id)
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	from := slices.IndexFunc(f.items, func(it models.OrderedItem) bool { return it.ID == id })
	f.items = renumber(Move(f.items, from, p.Position-1))
	if f.reply != nil {
		return f.reply, nil
	}
	return slices.Clone(f.items), nil
}

func ids(items []models.OrderedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

var bannersKey = models.CollectionKey{Kind: "banners"}

func TestMove_MatchesSplice(t *testing.T) {
	base := []string{"a", "b", "c", "d", "e"}
	for from := range base {
		for to := range base {
			// Reference: splice out, then splice in.
			ref := slices.Clone(base)
			v := ref[from]
			ref = slices.Delete(ref, from, from+1)
			ref = slices.Insert(ref, to, v)

			got := Move(base, from, to)
			if diff := cmp.Diff(ref, got); diff != "" {
				t.Errorf("Move(%d, %d) mismatch (-want +got):\n%s", from, to, diff)
			}
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, base); diff != "" {
		t.Errorf("Move mutated its input:\n%s", diff)
	}
}

func TestMove_Example(t *testing.T) {
	got := Move([]string{"a", "b", "c", "d"}, 2, 0)
	if diff := cmp.Diff([]string{"c", "a", "b", "d"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestReorder_Success(t *testing.T) {
	remote := newFake("A", "B", "C", "D")
	c := cache.New(nil)
	rec := &notify.Recorder{}
	s := New(remote, c, rec)

	var during []string
	remote.onMove = func() {
		items, _ := c.Get(bannersKey.String())
		during = ids(items)
	}

	out, err := s.Reorder(context.Background(), bannersKey, 2, 0)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if !out.Applied || out.RolledBack {
		t.Fatalf("outcome = %+v", out)
	}
	if diff := cmp.Diff([]string{"C", "A", "B", "D"}, during); diff != "" {
		t.Errorf("optimistic cache during move (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]models.MoveParams{{Position: 1}}, remote.moves); diff != "" {
		t.Errorf("move params (-want +got):\n%s", diff)
	}
	if remote.movedIDs[0] != "C" {
		t.Errorf("moved id = %s, want C", remote.movedIDs[0])
	}
	if diff := cmp.Diff([]string{"C", "A", "B", "D"}, ids(out.Items)); diff != "" {
		t.Errorf("settled items (-want +got):\n%s", diff)
	}
	for i, it := range out.Items {
		if it.Position != i+1 {
			t.Errorf("item %s position %d at index %d", it.ID, it.Position, i)
		}
	}
	if len(rec.Messages()) != 0 {
		t.Errorf("unexpected notifications %+v", rec.Messages())
	}
}

func TestReorder_FailureRollsBack(t *testing.T) {
	remote := newFake("A", "B", "C", "D")
	remote.moveErr = &apperr.RemoteError{Status: 422, Message: "banner is locked"}
	c := cache.New(nil)
	rec := &notify.Recorder{}
	s := New(remote, c, rec)

	before, err := s.Load(context.Background(), bannersKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	out, err := s.Reorder(context.Background(), bannersKey, 2, 0)
	if err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}
	if !out.RolledBack || out.Message != "banner is locked" {
		t.Errorf("outcome = %+v", out)
	}
	after, _ := c.Get(bannersKey.String())
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("cache after rollback (-want +got):\n%s", diff)
	}
	msgs := rec.Messages()
	if len(msgs) != 1 || msgs[0] != (notify.Message{Level: "error", Text: "banner is locked"}) {
		t.Errorf("notifications = %+v", msgs)
	}
}

func TestReorder_RollbackWithoutRefetch(t *testing.T) {
	remote := newFake("A", "B", "C")
	c := cache.New(nil)
	s := New(remote, c, &notify.Recorder{})
	before, _ := s.Load(context.Background(), bannersKey)

	// Both the move and the settlement refetch fail: only the rollback
	// restores the list.
	remote.moveErr = errors.New("connection reset")
	remote.filterErr = errors.New("connection reset")

	out, _ := s.Reorder(context.Background(), bannersKey, 0, 2)
	if out.Message != "connection reset" {
		t.Errorf("message = %q, want raw error string", out.Message)
	}
	after, _ := c.Get(bannersKey.String())
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("cache after rollback (-want +got):\n%s", diff)
	}
}

func TestReorder_ServerOrderWins(t *testing.T) {
	remote := newFake("A", "B", "C")
	c := cache.New(nil)
	s := New(remote, c, &notify.Recorder{})
	if _, err := s.Load(context.Background(), bannersKey); err != nil {
		t.Fatal(err)
	}

	// The server reports an order different from the optimistic one and
	// the refetch fails, so the reply is the last word.
	remote.reply = []models.OrderedItem{{ID: "B", Position: 1}, {ID: "C", Position: 2}, {ID: "A", Position: 3}}
	remote.onMove = func() { remote.filterErr = errors.New("unavailable") }

	out, _ := s.Reorder(context.Background(), bannersKey, 1, 0)
	if diff := cmp.Diff([]string{"B", "C", "A"}, ids(out.Items)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestReorder_InvalidatedCacheKeepsItems(t *testing.T) {
	remote := newFake("A", "B", "C")
	c := cache.New(nil)
	s := New(remote, c, &notify.Recorder{})
	if _, err := s.Load(context.Background(), bannersKey); err != nil {
		t.Fatal(err)
	}

	// The collaborator drops the cache entry on a committed move, then the
	// settlement refetch fails.
	remote.onMove = func() {
		c.Invalidate(bannersKey.String())
		remote.mu.Lock()
		remote.filterErr = errors.New("unavailable")
		remote.mu.Unlock()
	}

	out, err := s.Reorder(context.Background(), bannersKey, 2, 0)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if out.Items == nil {
		t.Fatal("outcome items are nil")
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, ids(out.Items)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestReorder_NoOps(t *testing.T) {
	remote := newFake("A", "B", "C")
	s := New(remote, cache.New(nil), &notify.Recorder{})

	for _, tc := range []struct{ from, to int }{{1, 1}, {-1, 0}, {0, 3}, {5, 0}} {
		out, err := s.Reorder(context.Background(), bannersKey, tc.from, tc.to)
		if err != nil {
			t.Fatalf("Reorder(%d,%d): %v", tc.from, tc.to, err)
		}
		if out.Applied {
			t.Errorf("Reorder(%d,%d) should be a no-op", tc.from, tc.to)
		}
	}
	if len(remote.moves) != 0 {
		t.Errorf("no-op gestures reached the remote: %+v", remote.moves)
	}
}

func TestReorder_BusyWhileInFlight(t *testing.T) {
	remote := newFake("A", "B", "C")
	s := New(remote, cache.New(nil), &notify.Recorder{})

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.onMove = func() {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Reorder(context.Background(), bannersKey, 0, 1)
		done <- err
	}()
	<-entered

	if _, err := s.Reorder(context.Background(), bannersKey, 1, 2); !errors.Is(err, apperr.ErrBusy) {
		t.Errorf("concurrent reorder err = %v, want ErrBusy", err)
	}
	other := models.CollectionKey{Kind: "banners", Scope: "other"}
	if _, err := s.Reorder(context.Background(), other, 0, 0); err != nil {
		t.Errorf("other collection should not be blocked: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first reorder: %v", err)
	}
}

func TestReorder_InvalidatesDependents(t *testing.T) {
	remote := newFake("A", "B")
	c := cache.New(nil)
	s := New(remote, c, &notify.Recorder{})

	detail := "locations/detail:1"
	c.Set(detail, []models.OrderedItem{{ID: "featured"}})
	c.Depend(detail, bannersKey.String())

	if _, err := s.Reorder(context.Background(), bannersKey, 0, 1); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(detail); ok {
		t.Error("dependent view should be invalidated on settle")
	}
	if _, ok := c.Get(bannersKey.String()); !ok {
		t.Error("collection itself should stay cached")
	}
}

func TestReorder_LoadFailureReported(t *testing.T) {
	remote := newFake("A")
	remote.filterErr = errors.New("db down")
	rec := &notify.Recorder{}
	s := New(remote, cache.New(nil), rec)

	out, err := s.Reorder(context.Background(), bannersKey, 0, 0)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if out.Err == nil || out.Applied {
		t.Errorf("outcome = %+v", out)
	}
	if len(rec.Messages()) != 1 {
		t.Errorf("expected one error toast, got %+v", rec.Messages())
	}
}

func TestRefetch_WalksAllPages(t *testing.T) {
	var labels []string
	for i := 0; i < 7; i++ {
		labels = append(labels, fmt.Sprintf("i%d", i))
	}
	remote := newFake(labels...)
	s := New(remote, cache.New(nil), &notify.Recorder{}, WithPageSize(3))

	items, err := s.Refetch(context.Background(), bannersKey)
	if err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	if diff := cmp.Diff(labels, ids(items)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
