package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/events"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

type handlerFunc func(ctx context.Context, cmd hub.Command) error

func (l *Loop) dispatchTable() map[hub.Verb]handlerFunc {
	return map[hub.Verb]handlerFunc{
		hub.VerbQuit:             l.handleQuit,
		hub.VerbStatus:           l.handleStatus,
		hub.VerbDisconnect:       l.handleDisconnect,
		hub.VerbSendMessage:      l.handleSendMessage,
		hub.VerbSubscribe:        l.handleSubscribe,
		hub.VerbAuthorize:        l.presenceTo("subscribed"),
		hub.VerbDeny:             l.presenceTo("unsubscribed"),
		hub.VerbUnsubscribe:      l.handleUnsubscribe,
		hub.VerbUnsubscribeAgent: l.handleUnsubscribeAgent,
		hub.VerbUpdateRosterItem: l.handleUpdateRosterItem,
		hub.VerbRequestAgents:    l.handleRequestAgents,
		hub.VerbRequestAgentInfo: l.handleRequestAgentInfo,
		hub.VerbRegisterAgent:    l.handleRegisterAgent,
		hub.VerbAgentLogging:     l.handleAgentLogging,
		hub.VerbRequestVCard:     l.handleRequestVCard,
		hub.VerbPublishVCard:     l.handlePublishVCard,
		hub.VerbRequestVersion:   l.queryTo(account.RequestVersion, stanza.NSVersion, "query"),
		hub.VerbRequestLast:      l.queryTo(account.RequestLast, stanza.NSLast, "query"),
		hub.VerbRequestTime:      l.queryTo(account.RequestTime, stanza.NSTime, "time"),
		hub.VerbFetchLogCount:    l.handleFetchLogCount,
		hub.VerbFetchLogRange:    l.handleFetchLogRange,
		hub.VerbRegisterInterest: l.handleRegisterInterest,
	}
}

func (l *Loop) handleQuit(_ context.Context, _ hub.Command) error {
	for _, name := range l.names {
		s := l.sessions[name]
		if l.disconnect(s) {
			l.hub.Broadcast(hub.EventStatus, name, StatusData{Show: "offline"})
		}
	}
	l.hub.Broadcast(hub.EventQuit, "", nil)
	l.quit = true
	return nil
}

func (l *Loop) handleStatus(ctx context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.StatusPayload](cmd)
	if err != nil {
		return err
	}
	show := p.Show
	if show == "" {
		show = "online"
	}

	if show == "offline" {
		if l.disconnect(s) {
			l.hub.Broadcast(hub.EventStatus, s.conn.Name, StatusData{Show: "offline", Message: p.Message})
		}
		return nil
	}

	fresh := false
	if s.conn.State() == account.Disconnected {
		if err := l.connect(ctx, s); err != nil {
			return err
		}
		fresh = true
	}
	if !s.conn.Connected() {
		return fmt.Errorf("status for %s: %w", s.conn.Name, account.ErrNotConnected)
	}
	if err := l.sendPresence(s, show, p.Message); err != nil {
		return err
	}
	s.show, s.status = show, p.Message
	l.hub.Broadcast(hub.EventStatus, s.conn.Name, StatusData{Show: show, Message: p.Message})
	if !fresh {
		return nil
	}
	if err := l.requestOwnVCard(s); err != nil {
		return err
	}
	return l.requestRoster(s)
}

func (l *Loop) handleDisconnect(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	if l.disconnect(s) {
		l.hub.Broadcast(hub.EventStatus, s.conn.Name, StatusData{Show: "offline"})
	}
	return nil
}

func (l *Loop) handleSendMessage(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.MessagePayload](cmd)
	if err != nil {
		return err
	}
	typ := p.Type
	if typ == "" {
		typ = "chat"
	}
	msg := stanza.Message(p.To, typ, p.Body).SetAttr("id", s.conn.NewID())
	if p.Thread != "" {
		msg.AddText("thread", p.Thread)
	}
	if err := s.conn.Send(msg); err != nil {
		return err
	}
	l.hub.Broadcast(hub.EventMessageSent, s.conn.Name, MessageSentData{
		To:     p.To,
		Body:   p.Body,
		Type:   typ,
		Thread: p.Thread,
	})
	return nil
}

func (l *Loop) handleSubscribe(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.SubscribePayload](cmd)
	if err != nil {
		return err
	}
	note := p.Note
	if note == "" {
		note = events.DefaultSubscribeNote
	}
	pres := stanza.Presence(p.JID, "subscribe").AddText("status", note)
	if p.Nick != "" {
		pres.Add(stanza.NSNick, "nick").SetText(p.Nick)
	}
	if err := s.conn.Send(pres); err != nil {
		return err
	}
	if p.AutoAuth {
		bare, _ := stanza.SplitJID(p.JID)
		s.conn.AutoAuthJIDs[bare] = true
	}
	return nil
}

// presenceTo answers a subscription with a bare presence of typ.
func (l *Loop) presenceTo(typ string) handlerFunc {
	return func(_ context.Context, cmd hub.Command) error {
		s, err := l.session(cmd.Account)
		if err != nil {
			return err
		}
		p, err := payloadAs[hub.JIDPayload](cmd)
		if err != nil {
			return err
		}
		return s.conn.Send(stanza.Presence(p.JID, typ))
	}
}

func (l *Loop) handleUnsubscribe(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.JIDPayload](cmd)
	if err != nil {
		return err
	}
	if l.core.DelAuth {
		if err := s.conn.Send(stanza.Presence(p.JID, "unsubscribe")); err != nil {
			return err
		}
	}
	if l.core.DelRoster {
		return s.conn.Send(rosterRemove(s.conn.NewID(), p.JID))
	}
	return nil
}

func (l *Loop) handleUnsubscribeAgent(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.AgentPayload](cmd)
	if err != nil {
		return err
	}
	if err := s.conn.Send(rosterRemove(s.conn.NewID(), p.JID)); err != nil {
		return err
	}
	iq := stanza.IQ("set", s.conn.NewID(), p.JID)
	q := iq.Add(stanza.NSRegister, "query")
	q.AddText("remove", "")
	if key := s.agentKs[p.JID]; key != "" {
		q.AddText("key", key)
	}
	if err := s.conn.Send(iq); err != nil {
		return err
	}
	delete(s.agentKs, p.JID)
	l.hub.Broadcast(hub.EventAgentRemoved, s.conn.Name, AgentRemovedData{JID: p.JID})
	return nil
}

func (l *Loop) handleUpdateRosterItem(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.RosterItemPayload](cmd)
	if err != nil {
		return err
	}
	iq := stanza.IQ("set", s.conn.NewID(), "")
	item := iq.Add(stanza.NSRoster, "query").Add(stanza.NSRoster, "item").
		SetAttr("jid", p.JID).
		SetAttr("name", p.Name)
	for _, g := range p.Groups {
		item.AddText("group", g)
	}
	return s.conn.Send(iq)
}

func (l *Loop) handleRequestAgents(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	iq := stanza.IQ("get", s.conn.NewID(), s.host)
	iq.Add(stanza.NSDiscoItems, "query")
	_, err = s.conn.Request(account.RequestAgents, iq)
	return err
}

func (l *Loop) handleRequestAgentInfo(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.AgentPayload](cmd)
	if err != nil {
		return err
	}
	iq := stanza.IQ("get", s.conn.NewID(), p.JID)
	iq.Add(stanza.NSRegister, "query")
	_, err = s.conn.Request(account.RequestAgentInfo, iq)
	return err
}

func (l *Loop) handleRegisterAgent(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.RegisterPayload](cmd)
	if err != nil {
		return err
	}
	iq := stanza.IQ("set", s.conn.NewID(), p.JID)
	q := iq.Add(stanza.NSRegister, "query")
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.AddText(k, p.Fields[k])
	}
	if key := s.agentKs[p.JID]; key != "" && p.Fields["key"] == "" {
		q.AddText("key", key)
	}
	_, err = s.conn.Request(account.RequestRegister, iq)
	return err
}

func (l *Loop) handleAgentLogging(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.AgentPayload](cmd)
	if err != nil {
		return err
	}
	typ := p.Type
	if typ == "available" {
		typ = ""
	}
	return s.conn.Send(stanza.Presence(p.JID, typ))
}

func (l *Loop) handleRequestVCard(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.JIDPayload](cmd)
	if err != nil {
		return err
	}
	bare, _ := stanza.SplitJID(p.JID)
	kind := account.RequestVCard
	if p.JID == "" || bare == s.conn.JID {
		kind = account.RequestOwnVCard
	}
	iq := stanza.IQ("get", s.conn.NewID(), p.JID)
	iq.Add(stanza.NSVCard, "vCard")
	_, err = s.conn.Request(kind, iq)
	return err
}

// handlePublishVCard stores our vCard. Nested maps become structured
// elements one level deep; the "jid" entry is never published.
func (l *Loop) handlePublishVCard(_ context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.VCardPayload](cmd)
	if err != nil {
		return err
	}
	iq := stanza.IQ("set", s.conn.NewID(), "")
	card := iq.Add(stanza.NSVCard, "vCard")
	for _, k := range sortedKeys(p.Fields) {
		if k == "jid" {
			continue
		}
		switch v := p.Fields[k].(type) {
		case map[string]any:
			sub := card.Add("", k)
			for _, kk := range sortedKeys(v) {
				sub.AddText(kk, fmt.Sprint(v[kk]))
			}
		case map[string]string:
			sub := card.Add("", k)
			for _, kk := range sortedStringKeys(v) {
				sub.AddText(kk, v[kk])
			}
		case nil:
			card.AddText(k, "")
		default:
			card.AddText(k, fmt.Sprint(v))
		}
	}
	return s.conn.Send(iq)
}

// queryTo sends an entity query (version, last activity, time) to a full
// jid and records it for the matching result event.
func (l *Loop) queryTo(kind account.RequestKind, ns, element string) handlerFunc {
	return func(_ context.Context, cmd hub.Command) error {
		s, err := l.session(cmd.Account)
		if err != nil {
			return err
		}
		p, err := payloadAs[hub.JIDPayload](cmd)
		if err != nil {
			return err
		}
		iq := stanza.IQ("get", s.conn.NewID(), p.JID)
		iq.Add(ns, element)
		_, err = s.conn.Request(kind, iq)
		return err
	}
}

func (l *Loop) handleFetchLogCount(ctx context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.JIDPayload](cmd)
	if err != nil {
		return err
	}
	if l.history == nil {
		return l.persistenceFailure(s, "history", fmt.Errorf("no history store configured"))
	}
	n, err := l.history.Count(ctx, s.conn.Name, p.JID)
	if err != nil {
		return l.persistenceFailure(s, "Cannot count history lines", err)
	}
	l.hub.Broadcast(hub.EventLogLineCount, s.conn.Name, LogLineCountData{JID: p.JID, Count: n})
	return nil
}

func (l *Loop) handleFetchLogRange(ctx context.Context, cmd hub.Command) error {
	s, err := l.session(cmd.Account)
	if err != nil {
		return err
	}
	p, err := payloadAs[hub.LogRangePayload](cmd)
	if err != nil {
		return err
	}
	if l.history == nil {
		return l.persistenceFailure(s, "history", fmt.Errorf("no history store configured"))
	}
	lines, err := l.history.Range(ctx, s.conn.Name, p.JID, p.Start, p.End)
	if err != nil {
		return l.persistenceFailure(s, "Cannot read history", err)
	}
	for _, line := range lines {
		l.hub.Broadcast(hub.EventLogLine, s.conn.Name, LogLineData{
			JID:    p.JID,
			Number: line.Number,
			Time:   line.Time,
			Kind:   line.Kind,
			Text:   line.Text(),
		})
	}
	return nil
}

func (l *Loop) handleRegisterInterest(_ context.Context, cmd hub.Command) error {
	p, err := payloadAs[hub.InterestPayload](cmd)
	if err != nil {
		return err
	}
	subscriber := p.Subscriber
	if subscriber == "" {
		subscriber = cmd.Account
	}
	return l.hub.Register(subscriber, p.Names, p.Handler)
}

// persistenceFailure reports a storage error to the presentation layer and
// aborts the command.
func (l *Loop) persistenceFailure(s *session, title string, err error) error {
	l.hub.Broadcast(hub.EventError, s.conn.Name, ErrorData{Title: title, Detail: err.Error()})
	return err
}

func rosterRemove(id, jid string) *stanza.Node {
	iq := stanza.IQ("set", id, "")
	iq.Add(stanza.NSRoster, "query").Add(stanza.NSRoster, "item").
		SetAttr("jid", jid).
		SetAttr("subscription", "remove")
	return iq
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
