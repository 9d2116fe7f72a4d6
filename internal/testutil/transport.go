package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flitsinc/go-jabber/internal/stanza"
	"github.com/flitsinc/go-jabber/internal/transport"
)

// FakeDialer hands out FakeConns keyed by bare jid. Errors registered with
// FailNext are returned once, in order.
type FakeDialer struct {
	mu       sync.Mutex
	conns    map[string]*FakeConn
	failures map[string][]error
	dials    []transport.Credentials
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		conns:    map[string]*FakeConn{},
		failures: map[string][]error{},
	}
}

func (d *FakeDialer) FailNext(jid string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[jid] = append(d.failures[jid], err)
}

func (d *FakeDialer) Dial(ctx context.Context, creds transport.Credentials) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, creds)
	if queued := d.failures[creds.JID]; len(queued) > 0 {
		d.failures[creds.JID] = queued[1:]
		return nil, queued[0]
	}
	conn := NewFakeConn(creds.JID + "/" + creds.Resource)
	d.conns[creds.JID] = conn
	return conn, nil
}

// Conn returns the most recent connection dialled for jid.
func (d *FakeDialer) Conn(jid string) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[jid]
}

func (d *FakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

// FakeConn records sends and serves pushed stanzas from an in-memory inbox.
type FakeConn struct {
	mu      sync.Mutex
	jid     string
	inbox   []*stanza.Node
	sent    []*stanza.Node
	err     error
	closed  bool
	SendErr error
}

func NewFakeConn(boundJID string) *FakeConn {
	return &FakeConn{jid: boundJID}
}

func (c *FakeConn) BoundJID() string {
	return c.jid
}

// Push queues raw XML as incoming stanzas. It panics on malformed input.
func (c *FakeConn) Push(raw ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range raw {
		c.inbox = append(c.inbox, stanza.MustParse(r))
	}
}

// Drop ends the stream as if the server went away.
func (c *FakeConn) Drop(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		err = fmt.Errorf("%w: connection reset", transport.ErrTransport)
	}
	c.err = err
}

func (c *FakeConn) Send(n *stanza.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *FakeConn) Poll(max int) []*stanza.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.inbox)
	if max > 0 && n > max {
		n = max
	}
	out := c.inbox[:n:n]
	c.inbox = c.inbox[n:]
	return out
}

func (c *FakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err == nil && !c.closed
}

func (c *FakeConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Sent returns a copy of everything written so far.
func (c *FakeConn) Sent() []*stanza.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*stanza.Node(nil), c.sent...)
}

// SentMatching returns sent stanzas with the given element name and type.
// An empty typ matches any.
func (c *FakeConn) SentMatching(element, typ string) []*stanza.Node {
	var out []*stanza.Node
	for _, n := range c.Sent() {
		if n.Local() == element && (typ == "" || n.Type() == typ) {
			out = append(out, n)
		}
	}
	return out
}
