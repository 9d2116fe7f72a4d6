// Package transport opens XMPP client sessions. The core loop only sees the
// Conn interface: sends are synchronous, reads are polled without blocking.
package transport

import (
	"context"
	"errors"

	"github.com/flitsinc/go-jabber/internal/stanza"
)

var (
	// ErrTransport covers dial, framing and stream failures.
	ErrTransport = errors.New("transport failure")
	// ErrAuth is returned when the server rejects the credentials.
	ErrAuth   = errors.New("authentication failed")
	ErrClosed = errors.New("connection closed")
)

type Credentials struct {
	JID      string
	Password string
	Resource string
	// URL is the websocket endpoint, e.g. wss://example.com/xmpp-websocket.
	URL string
}

type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Conn, error)
}

type Conn interface {
	// BoundJID is the full jid the server assigned at resource binding.
	BoundJID() string
	Send(n *stanza.Node) error
	// Poll returns at most max buffered stanzas and never blocks.
	Poll(max int) []*stanza.Node
	// Alive is false once the stream has ended for any reason; Err then
	// reports why.
	Alive() bool
	Err() error
	Close() error
}
