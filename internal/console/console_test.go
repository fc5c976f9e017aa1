package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/cache"
	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/itemservice"
	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/notify"
	"github.com/starford/curator/internal/reorder"
	"github.com/starford/curator/internal/search"
	"github.com/starford/curator/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type published struct {
	mu     sync.Mutex
	events []SearchEvent
}

func (p *published) Publish(eventType string, data any) {
	if ev, ok := data.(SearchEvent); ok && eventType == EventSearchUpdated {
		p.mu.Lock()
		p.events = append(p.events, ev)
		p.mu.Unlock()
	}
}

func (p *published) last() (SearchEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return SearchEvent{}, false
	}
	return p.events[len(p.events)-1], true
}

type env struct {
	console *Console
	svc     *itemservice.Service
	pub     *published
	notes   *notify.Recorder
}

func newEnv(t *testing.T) env {
	t.Helper()
	c := cache.New(nil)
	svc := itemservice.NewService(testutil.TestStore(t), nil, c)
	notes := &notify.Recorder{}
	pub := &published{}
	con := New(reorder.New(svc, c, notes), svc, pub, Config{Delay: 10 * time.Millisecond, PageSize: 2})
	t.Cleanup(con.Close)
	return env{console: con, svc: svc, pub: pub, notes: notes}
}

func (e env) seed(t *testing.T, kind, scope string, labels ...string) {
	t.Helper()
	for _, l := range labels {
		if _, err := e.svc.Create(context.Background(), content.CreateParams{Kind: kind, Scope: scope, Label: l}); err != nil {
			t.Fatal(err)
		}
	}
}

func labels(items []models.OrderedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func waitView(t *testing.T, c *Console, id string, cond func(search.View) bool) search.View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, err := c.View(id)
		if err != nil {
			t.Fatal(err)
		}
		if cond(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("view never satisfied condition")
	return search.View{}
}

func TestReorder(t *testing.T) {
	e := newEnv(t)
	key := models.CollectionKey{Kind: models.KindBanners}
	e.seed(t, key.Kind, "", "a", "b", "c", "d")

	out, err := e.console.Reorder(context.Background(), key, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Applied || out.RolledBack {
		t.Fatalf("outcome = %+v", out)
	}
	if diff := cmp.Diff([]string{"c", "a", "b", "d"}, labels(out.Items)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	items, err := e.console.Items(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(labels(out.Items), labels(items)); diff != "" {
		t.Errorf("cached list differs from settled order:\n%s", diff)
	}
}

func TestReorderUnknownKind(t *testing.T) {
	e := newEnv(t)
	_, err := e.console.Reorder(context.Background(), models.CollectionKey{Kind: "widgets"}, 0, 1)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSearchSession(t *testing.T) {
	e := newEnv(t)
	e.seed(t, models.KindLocations, "", "Clinic X", "Clinic Y", "Clinic Z", "Clinic W", "Clinic V", "Office")

	id, v, err := e.console.OpenSearch(models.KindLocations, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Options) != 0 {
		t.Errorf("fresh session has options: %+v", v)
	}

	if _, err := e.console.Input(id, "clinic"); err != nil {
		t.Fatal(err)
	}
	v = waitView(t, e.console, id, func(v search.View) bool { return !v.Loading && len(v.Options) == 2 })
	if !v.HasMore {
		t.Fatal("expected more pages")
	}

	v, _ = e.console.LoadMore(context.Background(), id)
	v, _ = e.console.LoadMore(context.Background(), id)
	if len(v.Options) != 5 || v.HasMore {
		t.Errorf("after three pages: %+v", v)
	}

	ev, ok := e.pub.last()
	if !ok || ev.Session != id || ev.Kind != models.KindLocations {
		t.Errorf("last event = %+v", ev)
	}

	sel, err := e.console.Select(id, v.Options[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if sel.IsNew || sel.Label != v.Options[0].Label {
		t.Errorf("selected = %+v", sel)
	}

	if err := e.console.CloseSearch(id); err != nil {
		t.Fatal(err)
	}
	if _, err := e.console.View(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("view after close err = %v", err)
	}
}

func TestSelectCreatable(t *testing.T) {
	e := newEnv(t)
	id, _, err := e.console.OpenSearch(models.KindCategories, true)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = e.console.Input(id, "Pediatrics")
	waitView(t, e.console, id, func(v search.View) bool { return !v.Loading && v.Message != "" })

	sel, err := e.console.Select(id, "Pediatrics")
	if err != nil {
		t.Fatal(err)
	}
	if !sel.IsNew || sel.Value != "Pediatrics" {
		t.Errorf("selected = %+v", sel)
	}
	if _, err := e.console.Select(id, "Other"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	e := newEnv(t)
	now := time.Now()
	e.console.now = func() time.Time { return now }

	idle, _, _ := e.console.OpenSearch(models.KindDoctors, false)
	active, _, _ := e.console.OpenSearch(models.KindDoctors, false)

	now = now.Add(e.console.cfg.IdleTTL - time.Second)
	_, _ = e.console.View(active)
	now = now.Add(2 * time.Second)

	e.console.Sweep()
	if _, err := e.console.View(idle); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("idle session survived: %v", err)
	}
	if _, err := e.console.View(active); err != nil {
		t.Errorf("active session closed: %v", err)
	}
	if n := e.console.SessionCount(); n != 1 {
		t.Errorf("sessions = %d", n)
	}
}

func TestRunClosesSessionsOnShutdown(t *testing.T) {
	e := newEnv(t)
	_, _, _ = e.console.OpenSearch(models.KindTeams, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.console.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if n := e.console.SessionCount(); n != 0 {
		t.Errorf("sessions after shutdown = %d", n)
	}
}
