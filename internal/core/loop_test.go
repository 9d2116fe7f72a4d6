package core

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/config"
	"github.com/flitsinc/go-jabber/internal/events"
	"github.com/flitsinc/go-jabber/internal/history"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/stanza"
	"github.com/flitsinc/go-jabber/internal/state"
	"github.com/flitsinc/go-jabber/internal/testutil"
	"github.com/flitsinc/go-jabber/internal/transport"
)

const me = "me@example.com"

var watched = []string{
	hub.EventStatus, hub.EventWarning, hub.EventError, hub.EventQuit,
	hub.EventMessageSent, hub.EventRoster, hub.EventLogLine, hub.EventLogLineCount,
	hub.EventAgentRemoved, hub.EventAgentInfo,
	string(events.MessageReceived), string(events.Subscribed),
}

type harness struct {
	t       *testing.T
	hub     *hub.Hub
	dialer  *testutil.FakeDialer
	loop    *Loop
	history *history.Store
	rosters *state.Store
	now     time.Time
	seq     int
	got     []hub.Message
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	db, closeFn := testutil.OpenTestDB(t)
	t.Cleanup(closeFn)

	h := &harness{
		t:      t,
		hub:    hub.New(),
		dialer: testutil.NewFakeDialer(),
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	h.history = history.NewStore(db).WithClock(h.clock)
	h.rosters = state.NewStore(db)

	cfg := config.Config{
		Core: config.CoreConfig{
			DelAuth:                   true,
			DelRoster:                 true,
			ReadBudget:                32,
			SubscriptionLoopThreshold: 6,
			SubscriptionLoopWindow:    5 * time.Second,
			LogHistory:                true,
		},
		Accounts: map[string]config.AccountConfig{
			"work": {JID: me, Password: "pw", Resource: "desk", URL: "ws://fake", Priority: 5},
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	loop, err := New(h.hub, h.dialer, cfg,
		WithClock(h.clock),
		WithIDGenerator(h.nextID),
		WithHistory(h.history),
		WithRosterCache(h.rosters),
	)
	require.NoError(t, err)
	h.loop = loop
	require.NoError(t, h.hub.Register("test", watched, func(m hub.Message) {
		h.got = append(h.got, m)
	}))
	return h
}

func (h *harness) clock() time.Time {
	return h.now
}

func (h *harness) nextID() string {
	h.seq++
	return fmt.Sprintf("id-%d", h.seq)
}

func (h *harness) enqueue(verb hub.Verb, payload any) {
	h.hub.Enqueue(hub.Command{Verb: verb, Account: "work", Payload: payload})
}

func (h *harness) tick() bool {
	return h.loop.Tick(context.Background())
}

func (h *harness) connect() *testutil.FakeConn {
	h.t.Helper()
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "online"})
	h.tick()
	conn := h.dialer.Conn(me)
	require.NotNil(h.t, conn)
	h.got = nil
	return conn
}

func (h *harness) named(name string) []hub.Message {
	var out []hub.Message
	for _, m := range h.got {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// requestID finds the id of the last iq get we sent carrying a child in ns.
func requestID(t *testing.T, conn *testutil.FakeConn, ns string) string {
	t.Helper()
	sent := conn.SentMatching("iq", "get")
	for i := len(sent) - 1; i >= 0; i-- {
		for _, c := range sent[i].Children {
			if c.Namespace() == ns {
				return sent[i].ID()
			}
		}
	}
	t.Fatalf("no iq get in %s was sent", ns)
	return ""
}

func TestStatusConnectsBeforeQueuedMessage(t *testing.T) {
	h := newHarness(t, nil)
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "away", Message: "lunch"})
	h.enqueue(hub.VerbSendMessage, hub.MessagePayload{To: "alice@example.com", Body: "hi"})
	require.False(t, h.tick())

	conn := h.dialer.Conn(me)
	require.NotNil(t, conn)
	sent := conn.Sent()
	require.Len(t, sent, 4)

	presence := sent[0]
	assert.Equal(t, "presence", presence.Local())
	assert.Equal(t, "away", presence.ChildText("show"))
	assert.Equal(t, "lunch", presence.ChildText("status"))
	assert.Equal(t, "5", presence.ChildText("priority"))

	assert.NotNil(t, sent[1].ChildNS("vCard", stanza.NSVCard))
	assert.NotNil(t, sent[2].ChildNS("query", stanza.NSRoster))
	assert.Equal(t, "message", sent[3].Local())
	assert.Equal(t, "chat", sent[3].Type())
	assert.Equal(t, "hi", sent[3].ChildText("body"))

	ctx, ok := h.loop.Account("work")
	require.True(t, ok)
	assert.Equal(t, account.Connected, ctx.State())
	assert.Equal(t, 1, ctx.PendingCount(account.RequestRoster))
	assert.Equal(t, 1, ctx.PendingCount(account.RequestOwnVCard))

	require.Len(t, h.got, 2)
	assert.Equal(t, hub.EventStatus, h.got[0].Name)
	assert.Equal(t, StatusData{Show: "away", Message: "lunch"}, h.got[0].Data)
	assert.Equal(t, hub.EventMessageSent, h.got[1].Name)
}

func TestInvisibleStatusUsesPresenceType(t *testing.T) {
	h := newHarness(t, nil)
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "invisible"})
	h.tick()

	p := h.dialer.Conn(me).SentMatching("presence", "")
	require.Len(t, p, 1)
	assert.Equal(t, "invisible", p[0].Type())
	assert.Nil(t, p[0].Child("show"))
}

func TestStatusWhileConnectedOnlyResendsPresence(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "dnd"})
	h.tick()

	assert.Equal(t, 1, h.dialer.Dials())
	assert.Len(t, conn.SentMatching("presence", ""), 2)
	assert.Len(t, conn.SentMatching("iq", "get"), 2)
	require.Len(t, h.named(hub.EventStatus), 1)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()

	h.enqueue(hub.VerbDisconnect, nil)
	h.enqueue(hub.VerbDisconnect, nil)
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "offline"})
	h.tick()

	assert.True(t, conn.Closed())
	assert.Len(t, conn.SentMatching("presence", "unavailable"), 1)
	statuses := h.named(hub.EventStatus)
	require.Len(t, statuses, 1)
	assert.Equal(t, StatusData{Show: "offline"}, statuses[0].Data)

	ctx, _ := h.loop.Account("work")
	assert.Equal(t, account.Disconnected, ctx.State())
	assert.Zero(t, ctx.PendingCount(account.RequestRoster))
}

func TestConnectFailuresProduceDistinctWarnings(t *testing.T) {
	h := newHarness(t, nil)
	h.dialer.FailNext(me, fmt.Errorf("%w: connection refused", transport.ErrTransport))
	h.dialer.FailNext(me, fmt.Errorf("%w: not-authorized", transport.ErrAuth))

	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "online"})
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "online"})
	h.tick()

	warnings := h.named(hub.EventWarning)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Data.(WarningData).Message, "Couldn't connect to example.com")
	assert.Equal(t, "Authentication failed with example.com, check your login and password",
		warnings[1].Data.(WarningData).Message)

	for _, m := range h.named(hub.EventStatus) {
		assert.Equal(t, StatusData{Show: "offline"}, m.Data)
	}
	ctx, _ := h.loop.Account("work")
	assert.Equal(t, account.Disconnected, ctx.State())
}

func TestUnknownVerbIsDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.enqueue(hub.Verb("teleport"), nil)
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "online"})
	h.tick()

	assert.Equal(t, 0, h.hub.Len())
	assert.NotNil(t, h.dialer.Conn(me))
}

func TestWrongPayloadDoesNotStopQueue(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.enqueue(hub.VerbSendMessage, "not a payload")
	h.enqueue(hub.VerbSendMessage, &hub.MessagePayload{To: "bob@example.com", Body: "ok"})
	h.tick()

	msgs := conn.SentMatching("message", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob@example.com", msgs[0].To())
}

func TestStanzasAreBroadcastInArrivalOrder(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	conn.Push(
		`<message xmlns="jabber:client" from="alice@example.com/phone" type="chat"><body>one</body></message>`,
		`<message xmlns="jabber:client" from="bob@example.com/pc" type="chat"><body>two</body></message>`,
		`<message xmlns="jabber:client" from="alice@example.com/phone" type="chat"><body>three</body></message>`,
	)
	h.tick()

	got := h.named(string(events.MessageReceived))
	require.Len(t, got, 3)
	for i, body := range []string{"one", "two", "three"} {
		assert.Equal(t, body, got[i].Data.(events.Message).Body)
	}
}

func TestReadBudgetBoundsOneTick(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Core.ReadBudget = 2 })
	conn := h.connect()
	for i := 0; i < 5; i++ {
		conn.Push(fmt.Sprintf(`<message xmlns="jabber:client" from="alice@example.com/a" type="chat"><body>%d</body></message>`, i))
	}
	h.tick()
	assert.Len(t, h.named(string(events.MessageReceived)), 2)
	h.tick()
	h.tick()
	assert.Len(t, h.named(string(events.MessageReceived)), 5)
}

func TestRosterResultIsBroadcastAndCached(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	id := requestID(t, conn, stanza.NSRoster)
	conn.Push(`<iq xmlns="jabber:client" type="result" id="` + id + `"><query xmlns="jabber:iq:roster" ver="v7">` +
		`<item jid="alice@example.com" name="Alice" subscription="both"><group>Friends</group></item>` +
		`</query></iq>`)
	h.tick()

	rosters := h.named(hub.EventRoster)
	require.Len(t, rosters, 1)
	assert.Contains(t, rosters[0].Data.(events.Roster).Items, "alice@example.com")

	cached, err := h.rosters.LoadRoster(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "v7", cached.Version)
	assert.Equal(t, []string{"Friends"}, cached.Items["alice@example.com"].Groups)
}

func TestCachedRosterVersionIsAnnounced(t *testing.T) {
	h := newHarness(t, nil)
	items := map[string]account.RosterItem{
		"alice@example.com": {JID: "alice@example.com", Subscription: "both"},
	}
	require.NoError(t, h.rosters.SaveRoster(context.Background(), "work", "v3", items))

	conn := h.connect()
	id := requestID(t, conn, stanza.NSRoster)
	var query *stanza.Node
	for _, n := range conn.SentMatching("iq", "get") {
		if n.ID() == id {
			query = n.ChildNS("query", stanza.NSRoster)
		}
	}
	require.NotNil(t, query)
	assert.Equal(t, "v3", query.Attr("ver"))

	conn.Push(`<iq xmlns="jabber:client" type="result" id="` + id + `"/>`)
	h.tick()
	rosters := h.named(hub.EventRoster)
	require.Len(t, rosters, 1)
	assert.Contains(t, rosters[0].Data.(events.Roster).Items, "alice@example.com")
}

func TestSubscribedQueuesRosterUpdate(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	conn.Push(`<presence xmlns="jabber:client" from="carol@example.com" type="subscribed"/>`)
	h.tick()
	require.Len(t, h.named(string(events.Subscribed)), 1)
	require.Equal(t, 1, h.hub.Len())

	h.tick()
	var item *stanza.Node
	for _, iq := range conn.SentMatching("iq", "set") {
		if q := iq.ChildNS("query", stanza.NSRoster); q != nil {
			item = q.Child("item")
		}
	}
	require.NotNil(t, item)
	assert.Equal(t, "carol@example.com", item.Attr("jid"))
	assert.Equal(t, "carol", item.Attr("name"))
	assert.Equal(t, "general", item.ChildText("group"))
}

func TestSubscriptionBurstStopsAutomaticRosterUpdates(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	const subscribed = `<presence xmlns="jabber:client" from="loop@example.com" type="subscribed"/>`
	for i := 0; i < 6; i++ {
		h.now = h.now.Add(500 * time.Millisecond)
		conn.Push(subscribed)
		h.tick()
	}
	h.tick()

	acct, ok := h.loop.Account("work")
	require.True(t, ok)
	require.True(t, acct.LoopGuard().Suppressed("loop@example.com"))
	require.Len(t, h.named(string(events.Subscribed)), 5)
	require.Len(t, rosterSets(conn), 5)

	h.now = h.now.Add(time.Minute)
	conn.Push(subscribed)
	h.tick()
	assert.Len(t, h.named(string(events.Subscribed)), 6)
	assert.Zero(t, h.hub.Len())
	h.tick()
	assert.Len(t, rosterSets(conn), 5)
}

func rosterSets(conn *testutil.FakeConn) []*stanza.Node {
	var out []*stanza.Node
	for _, iq := range conn.SentMatching("iq", "set") {
		if iq.ChildNS("query", stanza.NSRoster) != nil {
			out = append(out, iq)
		}
	}
	return out
}

func TestSubscribeWithAutoAuthAcceptsTheRequestBack(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.enqueue(hub.VerbSubscribe, hub.SubscribePayload{JID: "carol@example.com", AutoAuth: true})
	h.tick()

	acct, ok := h.loop.Account("work")
	require.True(t, ok)
	assert.True(t, acct.AutoAuthJIDs["carol@example.com"])

	conn.Push(`<presence xmlns="jabber:client" from="carol@example.com" type="subscribe"/>`)
	h.tick()
	var answered bool
	for _, p := range conn.SentMatching("presence", "subscribed") {
		answered = answered || p.To() == "carol@example.com"
	}
	assert.True(t, answered)
}

func TestUnsubscribeHonoursDeletionSettings(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Core.DelRoster = false })
	conn := h.connect()
	h.enqueue(hub.VerbUnsubscribe, hub.JIDPayload{JID: "dave@example.com"})
	h.tick()

	assert.Len(t, conn.SentMatching("presence", "unsubscribe"), 1)
	assert.Empty(t, conn.SentMatching("iq", "set"))
}

func TestSubscribeUsesDefaultNote(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.enqueue(hub.VerbSubscribe, hub.SubscribePayload{JID: "erin@example.com"})
	h.enqueue(hub.VerbAuthorize, hub.JIDPayload{JID: "frank@example.com"})
	h.enqueue(hub.VerbDeny, hub.JIDPayload{JID: "gina@example.com"})
	h.tick()

	sub := conn.SentMatching("presence", "subscribe")
	require.Len(t, sub, 1)
	assert.Equal(t, events.DefaultSubscribeNote, sub[0].ChildText("status"))
	assert.Len(t, conn.SentMatching("presence", "subscribed"), 1)
	assert.Len(t, conn.SentMatching("presence", "unsubscribed"), 1)
}

func TestUnsubscribeAgentUsesKnownKey(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.enqueue(hub.VerbRequestAgentInfo, hub.AgentPayload{JID: "icq.example.com"})
	h.tick()
	id := requestID(t, conn, stanza.NSRegister)
	conn.Push(`<iq xmlns="jabber:client" type="result" from="icq.example.com" id="` + id + `">` +
		`<query xmlns="jabber:iq:register"><key>k-42</key><username/></query></iq>`)
	h.tick()
	require.Len(t, h.named(hub.EventAgentInfo), 1)

	h.enqueue(hub.VerbUnsubscribeAgent, hub.AgentPayload{JID: "icq.example.com"})
	h.tick()

	var remove *stanza.Node
	for _, iq := range conn.SentMatching("iq", "set") {
		if q := iq.ChildNS("query", stanza.NSRegister); q != nil {
			remove = q
		}
	}
	require.NotNil(t, remove)
	assert.NotNil(t, remove.Child("remove"))
	assert.Equal(t, "k-42", remove.ChildText("key"))
	require.Len(t, h.named(hub.EventAgentRemoved), 1)
}

func TestPublishVCardSkipsJID(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.enqueue(hub.VerbPublishVCard, hub.VCardPayload{Fields: map[string]any{
		"jid": me,
		"FN":  "Me Myself",
		"N":   map[string]any{"GIVEN": "Me", "FAMILY": "Myself"},
	}})
	h.tick()

	sets := conn.SentMatching("iq", "set")
	require.Len(t, sets, 1)
	card := sets[0].ChildNS("vCard", stanza.NSVCard)
	require.NotNil(t, card)
	assert.Nil(t, card.Child("jid"))
	assert.Equal(t, "Me Myself", card.ChildText("FN"))
	assert.Equal(t, "Myself", card.Child("N").ChildText("FAMILY"))
}

func TestFetchLogRangeReturnsRequestedLines(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		require.NoError(t, h.history.Append(ctx, "work", "alice@example.com", "recv", fmt.Sprintf("line %d", i)))
	}

	h.enqueue(hub.VerbFetchLogCount, hub.JIDPayload{JID: "alice@example.com"})
	h.enqueue(hub.VerbFetchLogRange, hub.LogRangePayload{JID: "alice@example.com", Start: 2, End: 5})
	h.tick()

	counts := h.named(hub.EventLogLineCount)
	require.Len(t, counts, 1)
	assert.Equal(t, 6, counts[0].Data.(LogLineCountData).Count)

	lines := h.named(hub.EventLogLine)
	require.Len(t, lines, 3)
	for i, m := range lines {
		data := m.Data.(LogLineData)
		assert.Equal(t, i+3, data.Number)
		assert.Equal(t, fmt.Sprintf("line %d", i+3), data.Text)
		assert.Equal(t, "recv", data.Kind)
	}
}

func TestMessagesAreWrittenToHistory(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	conn.Push(`<message xmlns="jabber:client" from="alice@example.com/phone" type="chat"><body>hello</body></message>`)
	h.tick()
	h.enqueue(hub.VerbSendMessage, hub.MessagePayload{To: "alice@example.com/phone", Body: "hi back"})
	h.tick()

	lines, err := h.history.Range(context.Background(), "work", "alice@example.com", 0, 10)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "recv", lines[0].Kind)
	assert.Equal(t, "hello", lines[0].Text())
	assert.Equal(t, "sent", lines[1].Kind)
}

func TestDeadTransportIsReaped(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	conn.Push(`<message xmlns="jabber:client" from="alice@example.com/phone" type="chat"><body>last words</body></message>`)
	conn.Drop(nil)
	h.tick()

	assert.Len(t, h.named(string(events.MessageReceived)), 1)
	statuses := h.named(hub.EventStatus)
	require.Len(t, statuses, 1)
	assert.Equal(t, StatusData{Show: "offline"}, statuses[0].Data)
	require.Len(t, h.named(hub.EventWarning), 1)

	ctx, _ := h.loop.Account("work")
	assert.Equal(t, account.Disconnected, ctx.State())
}

func TestRegisterInterestViaCommand(t *testing.T) {
	h := newHarness(t, nil)
	var seen []string
	h.hub.Enqueue(hub.Command{Verb: hub.VerbRegisterInterest, Payload: hub.InterestPayload{
		Subscriber: "roster-window",
		Names:      []string{hub.EventStatus},
		Handler:    func(m hub.Message) { seen = append(seen, m.Name) },
	}})
	h.enqueue(hub.VerbStatus, hub.StatusPayload{Show: "online"})
	h.tick()

	assert.Equal(t, []string{hub.EventStatus}, seen)
	assert.Equal(t, []string{hub.EventStatus}, h.hub.Interests("roster-window"))
}

func TestQuitDisconnectsEverythingAndEndsLoop(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()
	h.hub.Enqueue(hub.Command{Verb: hub.VerbQuit})
	h.enqueue(hub.VerbSendMessage, hub.MessagePayload{To: "alice@example.com", Body: "never"})

	assert.True(t, h.tick())
	assert.True(t, h.loop.Done())
	assert.True(t, conn.Closed())
	assert.Empty(t, conn.SentMatching("message", ""))
	require.Len(t, h.named(hub.EventQuit), 1)
}

func TestRunStopsOnQuit(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Core.PollInterval = time.Millisecond })
	h.hub.Enqueue(hub.Command{Verb: hub.VerbQuit})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.loop.Run(ctx))
}

func TestAutoconnectQueuesConfiguredStatus(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		acct := c.Accounts["work"]
		acct.Autoconnect = true
		acct.Status = "chat"
		c.Accounts["work"] = acct
	})
	h.loop.Autoconnect()
	h.tick()

	p := h.dialer.Conn(me).SentMatching("presence", "")
	require.Len(t, p, 1)
	assert.Equal(t, "chat", p[0].ChildText("show"))
}

func TestWireCommandsReachTheirHandlers(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect()

	cases := []struct {
		verb hub.Verb
		raw  string
	}{
		{hub.VerbStatus, `{"show":"away","message":"lunch"}`},
		{hub.VerbSendMessage, `{"to":"alice@example.com","body":"hi"}`},
		{hub.VerbSubscribe, `{"jid":"alice@example.com","nick":"Me"}`},
		{hub.VerbAuthorize, `{"jid":"alice@example.com"}`},
		{hub.VerbDeny, `{"jid":"bob@example.com"}`},
		{hub.VerbUnsubscribe, `{"jid":"bob@example.com"}`},
		{hub.VerbUnsubscribeAgent, `{"jid":"icq.example.com"}`},
		{hub.VerbUpdateRosterItem, `{"jid":"alice@example.com","name":"Alice","groups":["friends"]}`},
		{hub.VerbRequestAgents, ``},
		{hub.VerbRequestAgentInfo, `{"jid":"aim.example.com"}`},
		{hub.VerbRegisterAgent, `{"jid":"aim.example.com","fields":{"username":"me"}}`},
		{hub.VerbAgentLogging, `{"jid":"aim.example.com","type":"available"}`},
		{hub.VerbRequestVCard, `{"jid":"alice@example.com"}`},
		{hub.VerbPublishVCard, `{"fields":{"FN":"Me","ADR":{"LOCALITY":"Here"}}}`},
		{hub.VerbRequestVersion, `{"jid":"alice@example.com/phone"}`},
		{hub.VerbRequestLast, `{"jid":"alice@example.com"}`},
		{hub.VerbRequestTime, `{"jid":"alice@example.com/phone"}`},
		{hub.VerbFetchLogCount, `{"jid":"alice@example.com"}`},
		{hub.VerbFetchLogRange, `{"jid":"alice@example.com","start":0,"end":2}`},
		{hub.VerbDisconnect, ``},
		{hub.VerbQuit, ``},
	}
	// register-interest is in-process only and refused by the wire decoder.
	require.Len(t, cases, len(h.loop.handlers)-1)

	for _, c := range cases {
		payload, err := hub.DecodePayload(c.verb, []byte(c.raw))
		require.NoError(t, err, c.verb)
		handler, ok := h.loop.handlers[c.verb]
		require.True(t, ok, c.verb)
		err = handler(context.Background(), hub.Command{Verb: c.verb, Account: "work", Payload: payload})
		require.NoError(t, err, c.verb)
	}

	var removeTo, infoTo bool
	for _, iq := range conn.SentMatching("iq", "") {
		q := iq.ChildNS("query", stanza.NSRegister)
		if q == nil {
			continue
		}
		switch iq.Attr("to") {
		case "icq.example.com":
			removeTo = q.Child("remove") != nil
		case "aim.example.com":
			infoTo = infoTo || iq.Attr("type") == "get"
		}
	}
	assert.True(t, removeTo, "unsubscribe-agent should send a registration removal")
	assert.True(t, infoTo, "request-agent-info should query the agent")
	assert.Len(t, h.named(hub.EventAgentRemoved), 1)
}

func TestAccountLoggerCarriesAccountName(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{
		Core: config.CoreConfig{ReadBudget: 8},
		Accounts: map[string]config.AccountConfig{
			"work": {JID: me, Password: "pw", Resource: "desk", URL: "ws://fake"},
		},
	}
	loop, err := New(hub.New(), testutil.NewFakeDialer(), cfg, WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)

	loop.sessions["work"].log.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"account":"work"`)
}
