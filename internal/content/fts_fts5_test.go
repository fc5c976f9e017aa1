//go:build sqlite_fts5

package content

import (
	"context"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	s := testStore(t)
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM items_fts`).Scan(&count); err != nil {
		t.Fatalf("items_fts table missing: %v", err)
	}
}

func TestFTS5_PrefixMatch(t *testing.T) {
	s := testStore(t)
	seed(t, s, "doctors", "", "Anna Clinician", "Boris Surgeon")

	page, err := s.Search(context.Background(), "doctors", "clin", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1 || page.Nodes[0].Label != "Anna Clinician" {
		t.Errorf("page = %+v", page)
	}
}

func TestFTS5_FollowsDelete(t *testing.T) {
	s := testStore(t)
	ids := seed(t, s, "teams", "", "Cardiology")
	ctx := context.Background()

	if err := s.Delete(ctx, "teams", ids[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	page, err := s.Search(ctx, "teams", "cardiology", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("deleted item still indexed: %+v", page)
	}
}
