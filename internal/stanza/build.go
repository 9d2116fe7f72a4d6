package stanza

import "encoding/xml"

func New(ns, name string) *Node {
	return &Node{Name: xml.Name{Space: ns, Local: name}}
}

// SetAttr sets or replaces an attribute. Empty values are skipped so callers
// can pass optional fields directly.
func (n *Node) SetAttr(name, value string) *Node {
	if value == "" {
		return n
	}
	for i, a := range n.Attrs {
		if a.Name.Local == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	return n
}

func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

// Add appends a new child and returns it.
func (n *Node) Add(ns, name string) *Node {
	c := New(ns, name)
	n.Children = append(n.Children, c)
	return c
}

// AddText appends a child carrying only character data and returns n.
func (n *Node) AddText(name, text string) *Node {
	n.Add("", name).SetText(text)
	return n
}

func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

func Presence(to, typ string) *Node {
	return New(NSClient, "presence").SetAttr("to", to).SetAttr("type", typ)
}

func Message(to, typ, body string) *Node {
	m := New(NSClient, "message").SetAttr("to", to).SetAttr("type", typ)
	if body != "" {
		m.AddText("body", body)
	}
	return m
}

func IQ(typ, id, to string) *Node {
	return New(NSClient, "iq").SetAttr("type", typ).SetAttr("id", id).SetAttr("to", to)
}

// Reply builds an empty result for a get/set iq.
func Reply(req *Node) *Node {
	return IQ("result", req.ID(), req.From()).SetAttr("from", req.To())
}
