// Package testutil holds fixtures shared by package tests: a migrated
// sqlite database, a scripted transport and in-process HTTP helpers.
package testutil

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/flitsinc/go-jabber/internal/state"
)

// OpenTestDB opens a fully migrated database in a per-test directory. The
// returned func closes it; the test cleanup closes it as well.
func OpenTestDB(t testing.TB) (*sql.DB, func()) {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "jabber.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	var once sync.Once
	closeFn := func() {
		once.Do(func() { _ = db.Close() })
	}
	t.Cleanup(closeFn)
	return db, closeFn
}
