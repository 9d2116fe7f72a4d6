package stanza

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrEmpty = errors.New("no element in input")

// Parse reads exactly one element from r.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrEmpty
		}
		if err != nil {
			return nil, fmt.Errorf("parse stanza: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attrs: dropNamespaceDecls(t.Attr)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse stanza: unexpected end element %s", t.Name.Local)
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(n.Children) > 0 && strings.TrimSpace(n.Text) == "" {
				n.Text = ""
			}
			if len(stack) == 0 {
				return n, nil
			}
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Text += string(t)
			}
		}
	}
}

func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// MustParse is for tests and static fixtures.
func MustParse(s string) *Node {
	n, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return n
}

func dropNamespaceDecls(attrs []xml.Attr) []xml.Attr {
	out := make([]xml.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// String serializes the tree. A namespace declaration is only written where
// it differs from the enclosing element.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.write(&b, "")
	return b.String()
}

func (n *Node) write(b *strings.Builder, parentNS string) {
	b.WriteByte('<')
	b.WriteString(n.Name.Local)
	ns := parentNS
	if n.Name.Space != "" && n.Name.Space != parentNS {
		writeAttr(b, "xmlns", n.Name.Space)
		ns = n.Name.Space
	}
	for _, a := range n.Attrs {
		name := a.Name.Local
		if a.Name.Space == nsXML {
			name = "xml:" + name
		}
		writeAttr(b, name, a.Value)
	}
	if len(n.Children) == 0 && n.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	if n.Text != "" {
		_ = xml.EscapeText(stringWriter{b}, []byte(n.Text))
	}
	for _, c := range n.Children {
		c.write(b, ns)
	}
	b.WriteString("</")
	b.WriteString(n.Name.Local)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(stringWriter{b}, []byte(value))
	b.WriteByte('"')
}

type stringWriter struct{ b *strings.Builder }

func (w stringWriter) Write(p []byte) (int, error) { return w.b.Write(p) }
