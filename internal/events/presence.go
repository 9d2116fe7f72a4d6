package events

import (
	"strconv"
	"strings"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

// DefaultSubscribeNote is used when a subscription request carries no status.
const DefaultSubscribeNote = "I would like to add you to my roster."

var presenceTypes = map[string]bool{
	"unavailable":  true,
	"error":        true,
	"subscribe":    true,
	"subscribed":   true,
	"unsubscribe":  true,
	"unsubscribed": true,
}

var showValues = map[string]bool{"chat": true, "away": true, "xa": true, "dnd": true}

func generateRawPresence(in Input) (any, bool) {
	return RawPresence{Node: in.Stanza}, true
}

func generatePresence(in Input) (any, bool) {
	raw, ok := in.Base.Data.(RawPresence)
	if !ok {
		return nil, false
	}
	st := raw.Node
	conn := in.Conn

	ptype := st.Type()
	if !presenceTypes[ptype] {
		ptype = ""
	}
	if !conn.Connected() {
		in.Log.Debug().Msg("account is no longer connected")
		return nil, false
	}
	full, bare, resource := sender(conn, st)
	if _, err := stanza.ParseJID(full); err != nil {
		in.Log.Debug().Err(err).Str("from", full).Msg("presence from invalid jid")
		return nil, false
	}

	p := Presence{
		Type:      ptype,
		FullJID:   full,
		JID:       bare,
		Resource:  resource,
		ID:        st.ID(),
		UserNick:  st.ChildText("nick"),
		Timestamp: delayStamp(st),
		Status:    st.ChildText("status"),
		Show:      st.ChildText("show"),
	}
	var avatarSHA *string
	transportAutoAuth := false
	for _, x := range st.ChildrenNamed("x") {
		ns := x.Namespace()
		switch {
		case strings.HasPrefix(ns, stanza.NSMUC):
			p.IsGroupChat = true
		case ns == stanza.NSVCardUpdate:
			if photo := x.Child("photo"); photo != nil {
				sha := photo.Data()
				avatarSHA = &sha
			}
			p.ContactNickname = x.ChildText("nickname")
		case ns == stanza.NSRosterSubSync:
			server := bare
			if _, domain, ok := strings.Cut(bare, "@"); ok {
				server = domain
			}
			if conn.InRoster(server) {
				transportAutoAuth = true
			}
		}
	}
	if !showValues[p.Show] {
		p.Show = ""
	}
	switch {
	case ptype == "" && p.Show == "":
		p.Show = "online"
	case ptype == "unavailable":
		p.Show = "offline"
	}
	if prio, err := strconv.Atoi(st.ChildText("priority")); err == nil {
		p.Priority = prio
	}
	if avatarSHA != nil {
		p.AvatarSHA = *avatarSHA
	}

	if p.IsGroupChat {
		if ptype == "error" {
			_, p.ErrorCode = st.ErrorCondition()
			p.Show = "error"
			p.Status = st.ErrorText()
		}
		return p, true
	}

	switch ptype {
	case "subscribe":
		agent := !stanza.HasNode(full)
		if conn.Settings.AutoAuthorize || agent || conn.AutoAuthJIDs[bare] || transportAutoAuth {
			send(in, stanza.Presence(full, "subscribed"))
			if transportAutoAuth {
				conn.AutomaticallyAdded[bare] = true
				back := stanza.Presence(bare, "subscribe")
				if p.UserNick != "" {
					back.Add(stanza.NSNick, "nick").SetText(p.UserNick)
				}
				send(in, back)
			}
			if agent || transportAutoAuth {
				p.Show = "offline"
				p.Status = "offline"
				p.Notify = true
				return p, true
			}
		} else {
			if p.Status == "" {
				p.Status = DefaultSubscribeNote
			}
			p.Outcome = OutcomeSubscribeRequest
		}
	case "subscribed":
		if conn.AutomaticallyAdded[bare] {
			delete(conn.AutomaticallyAdded, bare)
		} else {
			p.Outcome = guardedOutcome(conn, bare, OutcomeSubscribed)
		}
	case "unsubscribed":
		p.Outcome = guardedOutcome(conn, bare, OutcomeUnsubscribed)
	case "error":
		cond, code := st.ErrorCondition()
		p.ErrorCode = code
		if code != "409" && cond != "conflict" {
			p.Show = "error"
			p.Status = st.ErrorText()
			p.Notify = conn.InRoster(bare)
			return p, true
		}
	case "unavailable":
		p.Terminated = terminateSessions(conn, bare, full)
	}

	if avatarSHA != nil && ptype != "error" && *avatarSHA != conn.VCardSHAs[bare] {
		conn.VCardSHAs[bare] = *avatarSHA
		iq := stanza.IQ("get", "", bare)
		iq.Add(stanza.NSVCard, "vCard")
		if _, err := conn.Request(account.RequestVCard, iq); err != nil {
			in.Log.Warn().Err(err).Str("jid", bare).Msg("request updated vcard")
		}
	}

	if ptype == "" || ptype == "unavailable" {
		if bare == ownBare(conn) && resource == conn.Resource {
			p.Own = true
		} else if conn.InRoster(bare) {
			p.Notify = true
		}
	}
	return p, true
}

// guardedOutcome records a subscription notification and returns suppressed
// when it completes a burst.
func guardedOutcome(conn *account.Context, jid string, outcome SubscriptionOutcome) SubscriptionOutcome {
	if conn.LoopGuard().Record(jid, conn.Now()) {
		return OutcomeSuppressed
	}
	return outcome
}

// terminateSessions ends sessions in which the contact never sent a thread
// id, when the contact supports sessions at all.
func terminateSessions(conn *account.Context, jids ...string) []string {
	var ended []string
	for _, jid := range jids {
		byThread, ok := conn.Sessions[jid]
		if !ok {
			continue
		}
		if !conn.Supports(jid, stanza.NSSessions) && !conn.Supports(jid, stanza.NSESession) {
			continue
		}
		for thread, sess := range byThread {
			if !sess.ReceivedThreadID {
				delete(byThread, thread)
				ended = append(ended, thread)
			}
		}
	}
	return ended
}

func generatePresenceNotify(in Input) (any, bool) {
	p, ok := in.Base.Data.(Presence)
	if !ok || !p.Notify || p.IsGroupChat {
		return nil, false
	}
	return Notify{
		JID:       p.JID,
		Show:      p.Show,
		Status:    p.Status,
		Resource:  p.Resource,
		Priority:  p.Priority,
		Timestamp: p.Timestamp,
		Nickname:  p.ContactNickname,
	}, true
}

func generateSubscribeRequest(in Input) (any, bool) {
	p, ok := in.Base.Data.(Presence)
	if !ok || p.Outcome != OutcomeSubscribeRequest {
		return nil, false
	}
	return SubscribeRequestData{JID: p.JID, Note: p.Status, Nick: p.UserNick}, true
}

func generateSubscribed(in Input) (any, bool) {
	p, ok := in.Base.Data.(Presence)
	if !ok || p.Outcome != OutcomeSubscribed {
		return nil, false
	}
	node, _, _ := strings.Cut(p.JID, "@")
	return SubscribedData{JID: p.JID, Node: node, Resource: p.Resource}, true
}

func generateUnsubscribed(in Input) (any, bool) {
	p, ok := in.Base.Data.(Presence)
	if !ok || p.Outcome != OutcomeUnsubscribed {
		return nil, false
	}
	return UnsubscribedData{JID: p.JID}, true
}
