package account

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/go-jabber/internal/stanza"
)

func TestTransitions(t *testing.T) {
	c := New("work", "me@example.com", Settings{})
	assert.Equal(t, Disconnected, c.State())

	err := c.Transition(Connected)
	var transitionErr *TransitionError
	require.True(t, errors.As(err, &transitionErr))
	require.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, Disconnected, transitionErr.From)

	require.NoError(t, c.Transition(Connecting))
	require.NoError(t, c.Transition(Connected))
	assert.True(t, c.Connected())
	require.Error(t, c.Transition(Connecting))
	require.NoError(t, c.Transition(Disconnected))
	require.Error(t, c.Transition(Disconnected))
}

func TestDisconnectDropsSinkAndPending(t *testing.T) {
	c := New("work", "me@example.com", Settings{})
	var sent []*stanza.Node
	require.NoError(t, c.Transition(Connecting))
	require.NoError(t, c.Transition(Connected))
	c.Attach(func(n *stanza.Node) error {
		sent = append(sent, n)
		return nil
	})

	id, err := c.Request(RequestVersion, stanza.IQ("get", "", "bob@example.com/pc"))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, sent, 1)
	assert.Equal(t, id, sent[0].ID())
	assert.True(t, c.HasPending(RequestVersion, id))

	require.NoError(t, c.Transition(Disconnected))
	assert.Zero(t, c.PendingCount(RequestVersion))
	require.ErrorIs(t, c.Send(stanza.Presence("", "")), ErrNotConnected)
}

func TestConsumePendingIsFailSafe(t *testing.T) {
	c := New("work", "me@example.com", Settings{})
	assert.False(t, c.ConsumePending(RequestTime, "missing"))
	c.AddPending(RequestTime, "t1")
	c.AddPending(RequestTime, "")
	assert.Equal(t, 1, c.PendingCount(RequestTime))
	assert.False(t, c.ConsumePending(RequestVersion, "t1"))
	assert.True(t, c.ConsumePending(RequestTime, "t1"))
	assert.False(t, c.ConsumePending(RequestTime, "t1"))
}

func TestLoopGuardFlagsBurst(t *testing.T) {
	g := NewLoopGuard(DefaultLoopThreshold, DefaultLoopWindow)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		assert.False(t, g.Record("peer@example.com", base.Add(time.Duration(i)*500*time.Millisecond)))
	}
	assert.False(t, g.Suppressed("peer@example.com"))

	assert.True(t, g.Record("peer@example.com", base.Add(3*time.Second)))
	assert.True(t, g.Suppressed("peer@example.com"))
	assert.Equal(t, DefaultLoopThreshold-1, g.Entries("peer@example.com"))

	// Seventh notification well outside the window of the trimmed log.
	assert.False(t, g.Record("peer@example.com", base.Add(time.Minute)))
	assert.Equal(t, DefaultLoopThreshold-1, g.Entries("peer@example.com"))

	assert.False(t, g.Suppressed("other@example.com"))
}

func TestLoopGuardSlowNotificationsNeverFlag(t *testing.T) {
	g := NewLoopGuard(6, 5*time.Second)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		assert.False(t, g.Record("peer@example.com", base.Add(time.Duration(i)*time.Second)))
	}
	assert.False(t, g.Suppressed("peer@example.com"))
}

func TestVestigialRosterItem(t *testing.T) {
	assert.True(t, RosterItem{JID: "a@b"}.Vestigial())
	assert.True(t, RosterItem{JID: "a@b", Subscription: "none", Ask: "none"}.Vestigial())
	assert.False(t, RosterItem{JID: "a@b", Subscription: "both"}.Vestigial())
	assert.False(t, RosterItem{JID: "a@b", Ask: "subscribe"}.Vestigial())
	assert.False(t, RosterItem{JID: "a@b", Name: "A"}.Vestigial())
	assert.False(t, RosterItem{JID: "a@b", Groups: []string{"g"}}.Vestigial())
}

func TestApplyRosterPush(t *testing.T) {
	c := New("work", "me@example.com", Settings{})
	c.ApplyRosterPush(RosterItem{JID: "a@b", Subscription: "both"})
	assert.True(t, c.InRoster("a@b"))
	c.ApplyRosterPush(RosterItem{JID: "a@b", Subscription: "remove"})
	assert.False(t, c.InRoster("a@b"))
}
