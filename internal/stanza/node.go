// Package stanza holds the tree-structured protocol element the core reads
// from and writes to a connection. A Node is treated as immutable once it has
// been parsed or handed to a transport.
package stanza

import (
	"encoding/xml"
	"strings"
)

type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Text     string
}

// All read accessors are nil-safe so generators can walk optional paths
// without checking every step.

func (n *Node) Local() string {
	if n == nil {
		return ""
	}
	return n.Name.Local
}

func (n *Node) Namespace() string {
	if n == nil {
		return ""
	}
	return n.Name.Space
}

func (n *Node) Is(name, ns string) bool {
	return n != nil && n.Name.Local == name && (ns == "" || n.Name.Space == ns)
}

func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *Node) HasAttr(name string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

func (n *Node) Data() string {
	if n == nil {
		return ""
	}
	return n.Text
}

// Child returns the first child with the given local name.
func (n *Node) Child(name string) *Node {
	return n.ChildNS(name, "")
}

// ChildNS returns the first child matching name and namespace. An empty
// namespace matches any.
func (n *Node) ChildNS(name, ns string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name.Local == name && (ns == "" || c.Name.Space == ns) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child with the given local name, or all children
// when name is empty.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	if name == "" {
		return n.Children
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name.Local == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) ChildText(name string) string {
	return n.Child(name).Data()
}

func (n *Node) ChildAttr(child, attr string) string {
	return n.Child(child).Attr(attr)
}

func (n *Node) ID() string   { return n.Attr("id") }
func (n *Node) Type() string { return n.Attr("type") }
func (n *Node) From() string { return n.Attr("from") }
func (n *Node) To() string   { return n.Attr("to") }

// Query returns the first <query/> child.
func (n *Node) Query() *Node { return n.Child("query") }

// ErrorCondition returns the defined condition name and legacy code carried
// by an <error/> child.
func (n *Node) ErrorCondition() (condition, code string) {
	errNode := n.Child("error")
	if errNode == nil {
		return "", ""
	}
	code = errNode.Attr("code")
	for _, c := range errNode.Children {
		if c.Name.Space == NSStanzaErrors && c.Name.Local != "text" {
			return c.Name.Local, code
		}
	}
	return "", code
}

// ErrorText returns the human readable error message, falling back to the
// condition name.
func (n *Node) ErrorText() string {
	errNode := n.Child("error")
	if errNode == nil {
		return ""
	}
	if txt := strings.TrimSpace(errNode.ChildText("text")); txt != "" {
		return txt
	}
	if txt := strings.TrimSpace(errNode.Data()); txt != "" {
		return txt
	}
	cond, _ := n.ErrorCondition()
	return cond
}
