package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/go-jabber/internal/api"
	"github.com/flitsinc/go-jabber/internal/archive"
	"github.com/flitsinc/go-jabber/internal/config"
	"github.com/flitsinc/go-jabber/internal/history"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/state"
	"github.com/flitsinc/go-jabber/internal/testutil"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestInitConfigRefusesToOverwrite(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "jabber.toml")

	stdout, _, err := executeCLI(t, home, "--config", path, "init-config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+path)

	_, _, err = executeCLI(t, home, "--config", path, "init-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCLI(t, home, "--config", path, "init-config", "--force")
	require.NoError(t, err)

	store, err := config.Load(path)
	require.NoError(t, err)
	_, ok := store.Account("example")
	assert.True(t, ok)
}

func TestInitConfigDefaultsToHomeDir(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "init-config")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, ".go-jabber", "config.toml"))
	require.NoError(t, err)
}

func TestSendQueuesCommandOnDaemon(t *testing.T) {
	h := hub.New()
	srv := httptest.NewServer((&api.Server{Hub: h}).Handler())
	defer srv.Close()

	stdout, _, err := executeCLI(t, t.TempDir(),
		"send", "status",
		"--addr", srv.URL,
		"--account", "work",
		"--payload", `{"show":"away","message":"lunch"}`,
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"verb":"status"`)

	cmd, ok := h.Next()
	require.True(t, ok)
	assert.Equal(t, hub.VerbStatus, cmd.Verb)
	assert.Equal(t, "work", cmd.Account)
	assert.Equal(t, hub.StatusPayload{Show: "away", Message: "lunch"}, cmd.Payload)
}

func TestSendRejectsInvalidPayload(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "send", "status", "--addr", "127.0.0.1:1", "--payload", "{nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestSendReportsRejection(t *testing.T) {
	srv := httptest.NewServer((&api.Server{Hub: hub.New()}).Handler())
	defer srv.Close()

	_, _, err := executeCLI(t, t.TempDir(), "send", "status", "--addr", srv.URL, "--payload", `{"show":3}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestExportHistoryWritesArchive(t *testing.T) {
	home := t.TempDir()
	dataDir := filepath.Join(home, "data")
	path := writeConfig(t, home, fmt.Sprintf("[profile]\ndata_dir = %q\n", dataDir))

	db, err := state.Open(filepath.Join(dataDir, "go-jabber.db"))
	require.NoError(t, err)
	store := history.NewStore(db)
	for _, text := range []string{"hi", "how are you"} {
		require.NoError(t, store.Append(context.Background(), "work", "alice@example.com", "recv", text))
	}
	require.NoError(t, db.Close())

	stdout, _, err := executeCLI(t, home, "--config", path,
		"export-history", "--account", "work", "--jid", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, stdout, "exported 2 lines")

	matches, err := filepath.Glob(filepath.Join(dataDir, "exports", "go-jabber", "work", "alice@example.com", "*.jsonl.gz"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	recs, err := archive.Decode(data)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "how are you", recs[1].Text)
}

func TestExportHistoryRequiresJID(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "export-history", "--account", "work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "jid" not set`)
}

func TestRunDaemonServesUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		Profile:  config.ProfileConfig{DataDir: dir, DBPath: filepath.Join(dir, "go-jabber.db")},
		Core:     config.CoreConfig{PollInterval: 10 * time.Millisecond},
		HTTP:     config.HTTPConfig{Enabled: true, Addr: "127.0.0.1:0"},
		Accounts: map[string]config.AccountConfig{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addrs := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- runDaemon(ctx, daemonDeps{
			cfg:    cfg,
			log:    zerolog.Nop(),
			dialer: testutil.NewFakeDialer(),
			ready:  func(a net.Addr) { addrs <- a },
		})
	}()

	var addr net.Addr
	select {
	case addr = <-addrs:
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}

	for _, path := range []string{"/api/health", "/metrics", "/"} {
		resp, err := http.Get("http://" + addr.String() + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestRunDaemonStopsOnQuitCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		Profile:  config.ProfileConfig{DataDir: dir, DBPath: filepath.Join(dir, "go-jabber.db")},
		Core:     config.CoreConfig{PollInterval: 10 * time.Millisecond},
		HTTP:     config.HTTPConfig{Enabled: true, Addr: "127.0.0.1:0"},
		Accounts: map[string]config.AccountConfig{},
	}

	addrs := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- runDaemon(context.Background(), daemonDeps{
			cfg:    cfg,
			log:    zerolog.Nop(),
			dialer: testutil.NewFakeDialer(),
			ready:  func(a net.Addr) { addrs <- a },
		})
	}()

	var addr net.Addr
	select {
	case addr = <-addrs:
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}

	_, _, err := executeCLI(t, t.TempDir(), "send", "quit", "--addr", addr.String())
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon ignored quit")
	}
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:5290", baseURL("127.0.0.1:5290"))
	assert.Equal(t, "https://chat.example.com", baseURL("https://chat.example.com/"))
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Chdir(home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)+"\n"), 0o600))
	return path
}
