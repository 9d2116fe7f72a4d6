package stanza

import (
	"errors"
	"fmt"
	"strings"

	"mellium.im/xmpp/jid"
)

var ErrInvalidJID = errors.New("invalid jid")

type JID struct {
	Local    string
	Domain   string
	Resource string
}

func ParseJID(raw string) (JID, error) {
	j, err := jid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return JID{}, fmt.Errorf("%w %q: %v", ErrInvalidJID, raw, err)
	}
	return JID{Local: j.Localpart(), Domain: j.Domainpart(), Resource: j.Resourcepart()}, nil
}

func (j JID) Bare() string {
	if j.Local == "" {
		return j.Domain
	}
	return j.Local + "@" + j.Domain
}

func (j JID) String() string {
	if j.Resource == "" {
		return j.Bare()
	}
	return j.Bare() + "/" + j.Resource
}

// IsAgent reports whether the address has no node part, which is how
// gateways and services address themselves.
func (j JID) IsAgent() bool {
	return j.Local == ""
}

// SplitJID splits a full jid textually without validation. Used for routing
// decisions where a malformed address must not abort processing.
func SplitJID(raw string) (bare, resource string) {
	bare, resource, _ = strings.Cut(raw, "/")
	return bare, resource
}

// HasNode is the textual agent check: an '@' at a position greater than zero.
func HasNode(raw string) bool {
	return strings.Index(raw, "@") > 0
}
