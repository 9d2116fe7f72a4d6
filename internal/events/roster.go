package events

import (
	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

func parseRosterItem(n *stanza.Node) account.RosterItem {
	item := account.RosterItem{
		Name:         n.Attr("name"),
		Subscription: n.Attr("subscription"),
		Ask:          n.Attr("ask"),
	}
	for _, g := range n.ChildrenNamed("group") {
		item.Groups = append(item.Groups, g.Data())
	}
	return item
}

// generateRoster handles the answer to our roster fetch. Vestigial entries
// are removed upstream and never shown; our own jid is never listed.
func generateRoster(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "result" || !in.Conn.ConsumePending(account.RequestRoster, st.ID()) {
		return nil, false
	}
	query := st.ChildNS("query", stanza.NSRoster)
	res := Roster{Version: query.Attr("ver"), Items: map[string]account.RosterItem{}}
	if query == nil {
		// Empty result: the server confirmed our cached version.
		res.Version = in.Conn.RosterVer
		for jid, item := range in.Conn.Roster {
			res.Items[jid] = item
		}
		return res, true
	}
	self := ownBare(in.Conn)
	for _, n := range query.ChildrenNamed("item") {
		j, err := stanza.ParseJID(n.Attr("jid"))
		if err != nil {
			in.Log.Warn().Err(err).Str("jid", n.Attr("jid")).Msg("roster item is not a valid jid, skipping")
			continue
		}
		jid := j.String()
		if jid == self {
			continue
		}
		item := parseRosterItem(n)
		item.JID = jid
		if item.Vestigial() {
			remove := stanza.IQ("set", in.Conn.NewID(), "")
			remove.Add(stanza.NSRoster, "query").Add(stanza.NSRoster, "item").
				SetAttr("jid", jid).SetAttr("subscription", "remove")
			send(in, remove)
			res.Removed = append(res.Removed, jid)
			continue
		}
		res.Items[jid] = item
	}
	in.Conn.ReplaceRoster(res.Items, res.Version)
	return res, true
}

// generateRosterPush applies a roster set. Pushes that do not come from our
// own server are ignored.
func generateRosterPush(in Input) (any, bool) {
	st := in.Stanza
	query := st.ChildNS("query", stanza.NSRoster)
	if st.Type() != "set" || query == nil {
		return nil, false
	}
	if from := st.From(); from != "" {
		if bare, _ := stanza.SplitJID(from); bare != ownBare(in.Conn) {
			in.Log.Warn().Str("from", from).Msg("ignoring roster push from foreign entity")
			return nil, false
		}
	}
	res := RosterPush{Version: query.Attr("ver"), Items: map[string]account.RosterItem{}}
	for _, n := range query.ChildrenNamed("item") {
		j, err := stanza.ParseJID(n.Attr("jid"))
		if err != nil {
			in.Log.Warn().Err(err).Str("jid", n.Attr("jid")).Msg("roster push item is not a valid jid, skipping")
			continue
		}
		item := parseRosterItem(n)
		item.JID = j.String()
		in.Conn.ApplyRosterPush(item)
		res.Items[item.JID] = item
	}
	if res.Version != "" {
		in.Conn.RosterVer = res.Version
	}
	if in.Conn.Connected() {
		send(in, stanza.Reply(st))
	}
	return res, true
}
