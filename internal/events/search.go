package events

import (
	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

// searchQuery returns the jabber:iq:search payload of a result and whether it
// carries results rather than a form to fill.
func searchQuery(st *stanza.Node) (*stanza.Node, bool) {
	if st.Type() != "result" {
		return nil, false
	}
	query := st.ChildNS("query", stanza.NSSearch)
	if query == nil {
		return nil, false
	}
	if x := query.ChildNS("x", stanza.NSData); x != nil {
		return query, x.Attr("type") == "result"
	}
	return query, len(query.ChildrenNamed("item")) > 0
}

func generateSearchForm(in Input) (any, bool) {
	query, results := searchQuery(in.Stanza)
	if query == nil || results {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, in.Stanza)
	res := SearchForm{JID: bare, Resource: resource}
	if x := query.ChildNS("x", stanza.NSData); x != nil {
		form := parseForm(x)
		res.IsDataForm = true
		res.Form = &form
		return res, true
	}
	res.Fields = map[string]string{}
	for _, c := range query.Children {
		res.Fields[c.Local()] = c.Data()
	}
	return res, true
}

func generateSearchResult(in Input) (any, bool) {
	query, results := searchQuery(in.Stanza)
	if query == nil || !results {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, in.Stanza)
	res := SearchResult{JID: bare, Resource: resource}
	if x := query.ChildNS("x", stanza.NSData); x != nil {
		form := parseForm(x)
		res.IsDataForm = true
		res.Form = &form
		return res, true
	}
	for _, item := range query.ChildrenNamed("item") {
		row := map[string]string{}
		for _, a := range item.Attrs {
			row[a.Name.Local] = a.Value
		}
		for _, c := range item.Children {
			row[c.Local()] = c.Data()
		}
		res.Items = append(res.Items, row)
	}
	return res, true
}

func generateAgents(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "result" || !in.Conn.ConsumePending(account.RequestAgents, st.ID()) {
		return nil, false
	}
	_, bare, _ := sender(in.Conn, st)
	res := Agents{Server: bare}
	if q := st.ChildNS("query", stanza.NSAgents); q != nil {
		for _, a := range q.ChildrenNamed("agent") {
			res.Items = append(res.Items, Agent{
				JID:       a.Attr("jid"),
				Name:      a.ChildText("name"),
				Service:   a.ChildText("service"),
				Transport: a.ChildText("transport"),
				Register:  a.Child("register") != nil,
				Search:    a.Child("search") != nil,
			})
		}
		return res, true
	}
	for _, item := range st.ChildNS("query", stanza.NSDiscoItems).ChildrenNamed("item") {
		res.Items = append(res.Items, Agent{JID: item.Attr("jid"), Name: item.Attr("name")})
	}
	return res, true
}

func generateAgentInfo(in Input) (any, bool) {
	st := in.Stanza
	if !isResponse(st) || !in.Conn.ConsumePending(account.RequestAgentInfo, st.ID()) {
		return nil, false
	}
	_, bare, _ := sender(in.Conn, st)
	res := AgentInfo{JID: bare}
	query := st.ChildNS("query", stanza.NSRegister)
	if st.Type() == "error" || query == nil {
		return res, true
	}
	if x := query.ChildNS("x", stanza.NSData); x != nil {
		form := parseForm(x)
		res.Form = &form
	}
	res.Fields = map[string]string{}
	for _, c := range query.Children {
		switch c.Local() {
		case "instructions":
			res.Instructions = c.Data()
		case "key":
			res.Key = c.Data()
		case "registered":
			res.Registered = true
		case "x":
		default:
			res.Fields[c.Local()] = c.Data()
		}
	}
	return res, true
}

func generateAgentRegistered(in Input) (any, bool) {
	st := in.Stanza
	if !isResponse(st) || !in.Conn.ConsumePending(account.RequestRegister, st.ID()) {
		return nil, false
	}
	_, bare, _ := sender(in.Conn, st)
	res := Registration{JID: bare, OK: st.Type() == "result"}
	if !res.OK {
		res.Error = st.ErrorText()
	}
	return res, true
}
