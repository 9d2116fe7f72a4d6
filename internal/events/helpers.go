package events

import (
	"strings"
	"time"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

// sender returns the bare jid and resource a stanza came from. Stanzas from
// the server itself carry no from and are attributed to our own jid.
func sender(conn *account.Context, st *stanza.Node) (full, bare, resource string) {
	full = st.From()
	if full == "" {
		full = conn.JID
	}
	bare, resource = stanza.SplitJID(full)
	return full, bare, resource
}

func ownBare(conn *account.Context) string {
	bare, _ := stanza.SplitJID(conn.JID)
	return bare
}

func isResponse(st *stanza.Node) bool {
	t := st.Type()
	return t == "result" || t == "error"
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true":
		return true
	}
	return false
}

// parseStamp accepts XEP-0082 date-times and the legacy XEP-0091 format.
func parseStamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "20060102T15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// delayStamp reads a delayed-delivery timestamp, preferring the current
// namespace over the legacy one.
func delayStamp(st *stanza.Node) time.Time {
	if d := st.ChildNS("delay", stanza.NSDelay); d != nil {
		if t, ok := parseStamp(d.Attr("stamp")); ok {
			return t
		}
	}
	for _, x := range st.ChildrenNamed("x") {
		if x.Namespace() == stanza.NSDelayLegacy {
			if t, ok := parseStamp(x.Attr("stamp")); ok {
				return t
			}
		}
	}
	return time.Time{}
}

func send(in Input, n *stanza.Node) {
	if err := in.Conn.Send(n); err != nil {
		in.Log.Warn().Err(err).Str("stanza", n.Local()).Msg("send reply")
	}
}

func parseForm(x *stanza.Node) DataForm {
	form := DataForm{
		Type:         x.Attr("type"),
		Title:        x.ChildText("title"),
		Instructions: x.ChildText("instructions"),
	}
	form.Fields = parseFields(x)
	if rep := x.Child("reported"); rep != nil {
		form.Reported = parseFields(rep)
	}
	for _, item := range x.ChildrenNamed("item") {
		form.Items = append(form.Items, parseFields(item))
	}
	return form
}

func parseFields(n *stanza.Node) []FormField {
	var out []FormField
	for _, f := range n.ChildrenNamed("field") {
		field := FormField{Var: f.Attr("var"), Type: f.Attr("type"), Label: f.Attr("label")}
		for _, v := range f.ChildrenNamed("value") {
			field.Values = append(field.Values, v.Data())
		}
		for _, o := range f.ChildrenNamed("option") {
			field.Options = append(field.Options, o.ChildText("value"))
		}
		out = append(out, field)
	}
	return out
}
