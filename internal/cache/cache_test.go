package cache

import (
	"slices"
	"testing"

	"github.com/starford/curator/internal/models"
)

func items(ids ...string) []models.OrderedItem {
	out := make([]models.OrderedItem, len(ids))
	for i, id := range ids {
		out[i] = models.OrderedItem{ID: id, Position: i + 1}
	}
	return out
}

func TestGetReturnsCopy(t *testing.T) {
	c := New(nil)
	c.Set("banners", items("a", "b"))

	got, ok := c.Get("banners")
	if !ok || len(got) != 2 {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	got[0].ID = "mutated"
	again, _ := c.Get("banners")
	if again[0].ID != "a" {
		t.Error("cache shares backing array with caller")
	}
}

func TestSetNilStoresEmpty(t *testing.T) {
	c := New(nil)
	c.Set("empty", nil)
	got, ok := c.Get("empty")
	if !ok || got == nil || len(got) != 0 {
		t.Errorf("Get = %v, %v; want empty non-nil", got, ok)
	}
}

func TestInvalidateCascades(t *testing.T) {
	var fired []string
	c := New(func(key string) { fired = append(fired, key) })
	c.Set("images/location:1", items("a"))
	c.Set("locations", items("l1"))
	c.Set("locations/detail:1", items("l1"))
	c.Depend("locations/detail:1", "images/location:1")
	c.Depend("locations", "locations/detail:1")

	c.Invalidate("images/location:1")

	if keys := c.Keys(); len(keys) != 0 {
		t.Errorf("keys after cascade = %v", keys)
	}
	slices.Sort(fired)
	want := []string{"images/location:1", "locations", "locations/detail:1"}
	if !slices.Equal(fired, want) {
		t.Errorf("hook fired for %v, want %v", fired, want)
	}
}

func TestInvalidateDependentsKeepsKey(t *testing.T) {
	c := New(nil)
	c.Set("images/location:1", items("a"))
	c.Set("locations/detail:1", items("l1"))
	c.Depend("locations/detail:1", "images/location:1")

	c.InvalidateDependents("images/location:1")

	if _, ok := c.Get("images/location:1"); !ok {
		t.Error("source key should survive")
	}
	if _, ok := c.Get("locations/detail:1"); ok {
		t.Error("dependent should be dropped")
	}
}

func TestDependCycleTerminates(t *testing.T) {
	c := New(nil)
	c.Set("a", items("1"))
	c.Set("b", items("2"))
	c.Depend("a", "b")
	c.Depend("b", "a")
	c.Invalidate("a")
	if len(c.Keys()) != 0 {
		t.Errorf("keys = %v", c.Keys())
	}
}
