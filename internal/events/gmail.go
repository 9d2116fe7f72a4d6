package events

import (
	"strconv"

	"github.com/flitsinc/go-jabber/internal/stanza"
)

func generateGmailNotify(in Input) (any, bool) {
	mb := in.Stanza.Child("mailbox")
	if mb == nil || mb.Attr("url") == "" {
		return nil, false
	}
	in.Conn.GmailURL = mb.Attr("url")
	if mb.Namespace() != stanza.NSGmailNotify {
		return nil, false
	}
	total, err := strconv.Atoi(mb.Attr("total-matched"))
	if err != nil || total == 0 {
		return nil, false
	}
	res := Gmail{JID: ownBare(in.Conn), NewMessages: total}
	threads := mb.ChildrenNamed("mail-thread-info")
	for _, th := range threads {
		var unread []string
		for _, s := range th.Child("senders").ChildrenNamed("sender") {
			if s.Attr("unread") != "1" {
				continue
			}
			if name := s.Attr("name"); name != "" {
				unread = append(unread, name+" <"+s.Attr("address")+">")
			} else {
				unread = append(unread, s.Attr("address"))
			}
		}
		if len(unread) == 0 {
			continue
		}
		if tid, err := strconv.ParseInt(th.Attr("tid"), 10, 64); err == nil && tid > in.Conn.GmailLastTID {
			in.Conn.GmailLastTID = tid
		}
		res.Threads = append(res.Threads, GmailThread{
			From:          unread,
			Subject:       th.ChildText("subject"),
			Snippet:       th.ChildText("snippet"),
			URL:           th.Attr("url"),
			Participation: th.Attr("participation"),
			Messages:      th.Attr("messages"),
			Date:          th.Attr("date"),
		})
	}
	if len(threads) > 0 {
		if t, err := strconv.ParseInt(mb.Attr("result-time"), 10, 64); err == nil {
			in.Conn.GmailLastTime = t
		}
	}
	return res, true
}

func generateGmailNewMail(in Input) (any, bool) {
	st := in.Stanza
	if st.ChildNS("new-mail", stanza.NSGmailNotify) == nil {
		return nil, false
	}
	if st.Type() == "set" {
		send(in, stanza.Reply(st))
	}
	return requestFrom(in), true
}

func generateRosterExchange(in Input) (any, bool) {
	x := in.Stanza.ChildNS("x", stanza.NSRosterX)
	if x == nil || len(x.Children) == 0 {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, in.Stanza)
	action := x.Children[0].Attr("action")
	if action == "" {
		action = "add"
	}
	res := RosterExchange{JID: bare, Resource: resource, Action: action, Items: map[string]ExchangeItem{}}
	for _, item := range x.ChildrenNamed("item") {
		j, err := stanza.ParseJID(item.Attr("jid"))
		if err != nil {
			in.Log.Warn().Err(err).Msg("ignoring roster exchange item")
			continue
		}
		jid := j.String()
		var groups []string
		for _, g := range item.ChildrenNamed("group") {
			groups = append(groups, g.Data())
		}
		if known, ok := in.Conn.Roster[jid]; ok {
			if (known.Subscription == "both" || known.Subscription == "to") && sameGroups(known.Groups, groups) {
				continue
			}
		}
		res.Items[jid] = ExchangeItem{Name: item.Attr("name"), Groups: groups}
	}
	if len(res.Items) == 0 {
		return nil, false
	}
	return res, true
}

func sameGroups(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, g := range a {
		set[g] = true
	}
	for _, g := range b {
		if !set[g] {
			return false
		}
		delete(set, g)
	}
	return len(set) == 0
}
