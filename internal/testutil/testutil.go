// Package testutil provides shared test helpers for setting up the
// key-value store and the media blob store.
package testutil

import (
	"os"
	"testing"

	"github.com/puchi-app/puchi/internal/media"
	"github.com/puchi-app/puchi/internal/store"
)

// TestKV creates a temporary SQLite store that is automatically cleaned up.
func TestKV(t *testing.T) *store.KV {
	t.Helper()
	dbFile, err := os.CreateTemp("", "puchi-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	kv, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

// TestBlobStore creates a media store rooted in a temp directory with the
// default inline threshold.
func TestBlobStore(t *testing.T) *media.Store {
	t.Helper()
	return media.NewStore(t.TempDir(), 0)
}
