package events

import (
	"github.com/flitsinc/go-jabber/internal/stanza"
)

func generateMUCOwner(in Input) (any, bool) {
	st := in.Stanza
	query := st.ChildNS("query", stanza.NSMUCOwner)
	if st.Type() != "result" || query == nil {
		return nil, false
	}
	x := query.ChildNS("x", stanza.NSData)
	if x == nil {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	return MUCOwner{JID: bare, Resource: resource, Form: parseForm(x)}, true
}

func generateMUCAdmin(in Input) (any, bool) {
	st := in.Stanza
	query := st.ChildNS("query", stanza.NSMUCAdmin)
	if st.Type() != "result" || query == nil {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	res := MUCAdmin{JID: bare, Resource: resource, Users: map[string]MUCUser{}}
	for _, item := range query.ChildrenNamed("item") {
		if !item.HasAttr("jid") || !item.HasAttr("affiliation") {
			continue
		}
		j, err := stanza.ParseJID(item.Attr("jid"))
		if err != nil {
			in.Log.Warn().Err(err).Str("jid", item.Attr("jid")).Msg("ignoring muc admin item")
			continue
		}
		res.Users[j.String()] = MUCUser{
			Affiliation: item.Attr("affiliation"),
			Nick:        item.Attr("nick"),
			Role:        item.Attr("role"),
			Reason:      item.ChildText("reason"),
		}
	}
	return res, true
}
