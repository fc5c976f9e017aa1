// Package testutil provides shared test helpers for setting up stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/media"
)

// TestStore creates a temporary SQLite content store that is automatically
// cleaned up.
func TestStore(t *testing.T) *content.SQLiteStore {
	t.Helper()
	dbFile, err := os.CreateTemp("", "curator-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := content.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMedia creates a media store in a temporary directory.
func TestMedia(t *testing.T) *media.Store {
	t.Helper()
	s, err := media.NewStore(filepath.Join(t.TempDir(), "media"), 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
