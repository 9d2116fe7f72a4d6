package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedConsoleIsServed(t *testing.T) {
	srv := &Server{}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("cache-control: %q", got)
	}
	if !strings.Contains(rec.Body.String(), "/api/streams/subscribe") {
		t.Fatalf("console page does not follow the event stream")
	}
}

func TestDirOverridesEmbeddedConsole(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("custom"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	srv := &Server{Dir: dir}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "custom" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
