package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, 100*time.Millisecond, cfg.Core.PollInterval)
	assert.Equal(t, 6, cfg.Core.SubscriptionLoopThreshold)
	assert.Equal(t, 5*time.Second, cfg.Core.SubscriptionLoopWindow)
	assert.True(t, cfg.Core.DelRoster)
	assert.Equal(t, filepath.Join("data", "go-jabber.db"), cfg.Profile.DBPath)
	assert.Equal(t, filepath.Join("data", "exports"), cfg.Archive.Dir)
	assert.Equal(t, "go-jabber", cfg.Archive.Prefix)
	assert.Empty(t, store.AccountNames())
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path, false))
	require.Error(t, WriteDefault(path, false))

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Config().File)

	acct, ok := store.Account("example")
	require.True(t, ok)
	assert.Equal(t, "me@example.com", acct.JID)
	assert.Equal(t, "online", acct.Status)

	v, ok := store.Lookup("core", "subscription_loop_window")
	require.True(t, ok)
	assert.Equal(t, "5s", v)
	assert.True(t, store.Bool("core", "del_auth"))
	assert.False(t, store.Bool("core", "always_auth"))
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[core]\nalways_auth = false\n"), 0o600))
	t.Setenv("GO_JABBER_CORE_ALWAYS_AUTH", "true")

	store, err := Load(path)
	require.NoError(t, err)
	assert.True(t, store.Config().Core.AlwaysAuth)
	assert.True(t, store.Bool("core", "always_auth"))
}

func TestInvalidAccountNameIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[accounts.Bad_Name]\njid = \"me@example.com\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestAccountRequiresJID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[accounts.work]\nurl = \"wss://x\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
