package stanza

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolvesNamespacesAndText(t *testing.T) {
	n, err := ParseString(`<iq xmlns="jabber:client" type="result" id="r1" from="srv.example.com">
		<query xmlns="jabber:iq:version"><name>Psi</name><version>1.5</version></query>
	</iq>`)
	require.NoError(t, err)

	assert.Equal(t, "iq", n.Local())
	assert.Equal(t, NSClient, n.Namespace())
	assert.Equal(t, "result", n.Type())
	assert.Equal(t, "r1", n.ID())
	assert.Empty(t, n.Text, "whitespace between children is dropped")

	q := n.Query()
	require.NotNil(t, q)
	assert.Equal(t, NSVersion, q.Namespace())
	assert.Equal(t, "Psi", q.ChildText("name"))
	assert.Equal(t, "1.5", q.ChildText("version"))
	assert.Empty(t, q.ChildText("os"))
}

func TestNilSafeAccessors(t *testing.T) {
	var n *Node
	assert.Empty(t, n.Attr("x"))
	assert.Nil(t, n.Child("query").Child("storage"))
	assert.Empty(t, n.Child("a").ChildText("b"))
	assert.False(t, n.Is("iq", ""))
}

func TestParseRejectsEmptyAndBroken(t *testing.T) {
	_, err := ParseString("")
	require.ErrorIs(t, err, ErrEmpty)

	_, err = ParseString("<iq><query></iq>")
	require.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	iq := IQ("set", "abc", "").SetAttr("from", "a@b/c")
	item := iq.Add(NSRoster, "query").Add("", "item").SetAttr("jid", "x@y").SetAttr("name", `a "b" & <c>`)
	item.AddText("group", "Friends")

	out := iq.String()
	assert.Contains(t, out, `<iq xmlns="jabber:client" type="set" id="abc" from="a@b/c">`)
	assert.Contains(t, out, `<query xmlns="jabber:iq:roster">`)
	assert.Contains(t, out, `<group>Friends</group>`)

	back, err := ParseString(out)
	require.NoError(t, err)
	got := back.Query().Child("item")
	assert.Equal(t, `a "b" & <c>`, got.Attr("name"))
	assert.Equal(t, NSRoster, got.Namespace())
	assert.Equal(t, "Friends", got.ChildText("group"))
}

func TestSetAttrSkipsEmptyAndReplaces(t *testing.T) {
	p := Presence("", "")
	assert.Empty(t, p.Attrs)
	p.SetAttr("type", "subscribe").SetAttr("type", "subscribed")
	assert.Equal(t, "subscribed", p.Type())
	assert.Len(t, p.Attrs, 1)
}

func TestReplySwapsAddresses(t *testing.T) {
	req := MustParse(`<iq xmlns="jabber:client" type="get" id="p1" from="srv.example.com" to="me@example.com/home"><ping xmlns="urn:xmpp:ping"/></iq>`)
	res := Reply(req)
	assert.Equal(t, "result", res.Type())
	assert.Equal(t, "p1", res.ID())
	assert.Equal(t, "srv.example.com", res.To())
	assert.Equal(t, "me@example.com/home", res.From())
}

func TestErrorCondition(t *testing.T) {
	n := MustParse(`<iq xmlns="jabber:client" type="error" id="e"><error code="404" type="cancel"><item-not-found xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"/></error></iq>`)
	cond, code := n.ErrorCondition()
	assert.Equal(t, "item-not-found", cond)
	assert.Equal(t, "404", code)
	assert.Equal(t, "item-not-found", n.ErrorText())
}

func TestParseJID(t *testing.T) {
	j, err := ParseJID("alice@example.com/phone")
	require.NoError(t, err)
	assert.Equal(t, "alice", j.Local)
	assert.Equal(t, "example.com", j.Domain)
	assert.Equal(t, "phone", j.Resource)
	assert.Equal(t, "alice@example.com", j.Bare())
	assert.False(t, j.IsAgent())

	agent, err := ParseJID("icq.example.com")
	require.NoError(t, err)
	assert.True(t, agent.IsAgent())
	assert.Equal(t, "icq.example.com", agent.String())

	_, err = ParseJID("")
	require.ErrorIs(t, err, ErrInvalidJID)
	_, err = ParseJID("bob@")
	require.ErrorIs(t, err, ErrInvalidJID)
}

func TestHasNode(t *testing.T) {
	assert.True(t, HasNode("alice@example.com"))
	assert.False(t, HasNode("agent.example.com"))
	assert.False(t, HasNode("@example.com"))
}
