package core

import (
	"context"

	"github.com/flitsinc/go-jabber/internal/events"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

// autoGroup is where contacts that accepted our subscription are filed.
const autoGroup = "general"

// react applies the core's own follow-ups to an event after it has been
// broadcast.
func (l *Loop) react(s *session, ev events.Event) {
	switch ev.Name {
	case events.RosterReceived:
		roster, ok := ev.Data.(events.Roster)
		if !ok {
			return
		}
		l.saveRoster(s)
		l.hub.Broadcast(hub.EventRoster, s.conn.Name, roster)
	case events.RosterPushed:
		l.saveRoster(s)
	case events.Subscribed:
		sub, ok := ev.Data.(events.SubscribedData)
		if !ok {
			return
		}
		// A contact caught in a subscription loop is still reported but no
		// longer acknowledged automatically.
		if s.conn.LoopGuard().Suppressed(sub.JID) {
			s.log.Info().Str("jid", sub.JID).Msg("subscription loop, skipping roster update")
			return
		}
		l.hub.Enqueue(hub.Command{
			Verb:    hub.VerbUpdateRosterItem,
			Account: s.conn.Name,
			Payload: hub.RosterItemPayload{JID: sub.JID, Name: sub.Node, Groups: []string{autoGroup}},
		})
	case events.AgentsReceived:
		l.hub.Broadcast(hub.EventAgents, s.conn.Name, ev.Data)
	case events.AgentInfoReceived:
		info, ok := ev.Data.(events.AgentInfo)
		if !ok {
			return
		}
		if info.Key != "" {
			s.agentKs[info.JID] = info.Key
		}
		l.hub.Broadcast(hub.EventAgentInfo, s.conn.Name, info)
	case events.StreamConflictReceived:
		l.hub.Broadcast(hub.EventWarning, s.conn.Name, WarningData{
			Title:   "Disconnected",
			Message: "Another client connected with the same resource",
		})
	}
}

// recordHistory is registered on the hub for received and sent messages.
func (l *Loop) recordHistory(msg hub.Message) {
	var jid, kind, text string
	switch data := msg.Data.(type) {
	case events.Message:
		if data.Body == "" {
			return
		}
		jid, kind, text = data.JID, "recv", data.Body
	case MessageSentData:
		jid, _ = stanza.SplitJID(data.To)
		kind, text = "sent", data.Body
	default:
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := l.history.Append(ctx, msg.Account, jid, kind, text); err != nil {
		l.log.Error().Err(err).Str("account", msg.Account).Str("jid", jid).Msg("append history")
		l.hub.Broadcast(hub.EventError, msg.Account, ErrorData{Title: "Cannot write history", Detail: err.Error()})
	}
}
