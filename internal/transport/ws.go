package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/flitsinc/go-jabber/internal/stanza"
)

const (
	subprotocol    = "xmpp"
	defaultBuffer  = 256
	defaultTimeout = 15 * time.Second
	readLimit      = 1 << 20
)

// WSDialer speaks XMPP over WebSocket framing (RFC 7395) with SASL PLAIN.
type WSDialer struct {
	Log          zerolog.Logger
	Timeout      time.Duration
	BufferSize   int
	WriteTimeout time.Duration
}

func NewWSDialer(log zerolog.Logger) *WSDialer {
	return &WSDialer{Log: log}
}

func (d *WSDialer) Dial(ctx context.Context, creds Credentials) (Conn, error) {
	addr, err := stanza.ParseJID(creds.JID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if addr.Local == "" {
		return nil, fmt.Errorf("%w: jid %q has no local part", ErrAuth, creds.JID)
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ws, _, err := websocket.Dial(hctx, creds.URL, &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, creds.URL, err)
	}
	ws.SetReadLimit(readLimit)

	h := handshake{ws: ws, domain: addr.Domain}
	bound, err := h.run(hctx, addr.Local, creds.Password, creds.Resource)
	if err != nil {
		_ = ws.Close(websocket.StatusPolicyViolation, "handshake failed")
		return nil, err
	}

	size := d.BufferSize
	if size <= 0 {
		size = defaultBuffer
	}
	writeTimeout := d.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultTimeout
	}
	readCtx, stop := context.WithCancel(context.Background())
	c := &wsConn{
		ws:           ws,
		jid:          bound,
		incoming:     make(chan *stanza.Node, size),
		stop:         stop,
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          d.Log.With().Str("jid", bound).Logger(),
	}
	go c.readLoop(readCtx)
	return c, nil
}

type handshake struct {
	ws     *websocket.Conn
	domain string
}

func (h handshake) run(ctx context.Context, user, password, resource string) (string, error) {
	features, err := h.open(ctx)
	if err != nil {
		return "", err
	}
	if !offersPlain(features) {
		return "", fmt.Errorf("%w: server does not offer PLAIN", ErrAuth)
	}

	auth := stanza.New(stanza.NSSASL, "auth").SetAttr("mechanism", "PLAIN")
	auth.SetText(base64.StdEncoding.EncodeToString([]byte("\x00" + user + "\x00" + password)))
	if err := h.write(ctx, auth); err != nil {
		return "", err
	}
	reply, err := h.read(ctx)
	if err != nil {
		return "", err
	}
	switch reply.Local() {
	case "success":
	case "failure":
		cond := ""
		if len(reply.Children) > 0 {
			cond = reply.Children[0].Local()
		}
		return "", fmt.Errorf("%w: %s", ErrAuth, cond)
	default:
		return "", fmt.Errorf("%w: unexpected <%s> during auth", ErrTransport, reply.Local())
	}

	if _, err := h.open(ctx); err != nil {
		return "", err
	}
	bind := stanza.IQ("set", "bind-1", "")
	b := bind.Add(stanza.NSBind, "bind")
	if resource != "" {
		b.AddText("resource", resource)
	}
	if err := h.write(ctx, bind); err != nil {
		return "", err
	}
	res, err := h.read(ctx)
	if err != nil {
		return "", err
	}
	if res.Type() != "result" {
		cond, _ := res.ErrorCondition()
		return "", fmt.Errorf("%w: bind failed: %s", ErrTransport, cond)
	}
	bound := strings.TrimSpace(res.ChildNS("bind", stanza.NSBind).ChildText("jid"))
	if bound == "" {
		bound = user + "@" + h.domain + "/" + resource
	}
	return bound, nil
}

// open sends a stream header and returns the features that follow it.
func (h handshake) open(ctx context.Context) (*stanza.Node, error) {
	open := stanza.New(stanza.NSFraming, "open").
		SetAttr("to", h.domain).
		SetAttr("version", "1.0")
	if err := h.write(ctx, open); err != nil {
		return nil, err
	}
	for {
		n, err := h.read(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case n.Is("open", stanza.NSFraming):
			continue
		case n.Is("features", stanza.NSStreams):
			return n, nil
		case n.Is("error", stanza.NSStreams):
			cond := ""
			if len(n.Children) > 0 {
				cond = n.Children[0].Local()
			}
			return nil, fmt.Errorf("%w: stream error %s", ErrTransport, cond)
		default:
			return nil, fmt.Errorf("%w: unexpected <%s> before features", ErrTransport, n.Local())
		}
	}
}

func (h handshake) write(ctx context.Context, n *stanza.Node) error {
	if err := h.ws.Write(ctx, websocket.MessageText, []byte(n.String())); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

func (h handshake) read(ctx context.Context) (*stanza.Node, error) {
	_, data, err := h.ws.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
	n, err := stanza.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return n, nil
}

func offersPlain(features *stanza.Node) bool {
	mechs := features.ChildNS("mechanisms", stanza.NSSASL)
	for _, m := range mechs.ChildrenNamed("mechanism") {
		if strings.EqualFold(strings.TrimSpace(m.Data()), "PLAIN") {
			return true
		}
	}
	return false
}

type wsConn struct {
	ws           *websocket.Conn
	jid          string
	incoming     chan *stanza.Node
	stop         context.CancelFunc
	done         chan struct{}
	writeTimeout time.Duration
	log          zerolog.Logger

	mu     sync.Mutex
	err    error
	closed bool
}

func (c *wsConn) BoundJID() string {
	return c.jid
}

func (c *wsConn) readLoop(ctx context.Context) {
	defer close(c.done)
	defer close(c.incoming)
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			c.fail(fmt.Errorf("%w: read: %v", ErrTransport, err))
			return
		}
		n, err := stanza.ParseString(string(data))
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping unparsable frame")
			continue
		}
		if n.Is("close", stanza.NSFraming) {
			c.fail(fmt.Errorf("%w: server closed the stream", ErrTransport))
			return
		}
		select {
		case c.incoming <- n:
		case <-ctx.Done():
			c.fail(ErrClosed)
			return
		}
	}
}

func (c *wsConn) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *wsConn) Send(n *stanza.Node) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, []byte(n.String())); err != nil {
		err = fmt.Errorf("%w: write: %v", ErrTransport, err)
		c.fail(err)
		return err
	}
	return nil
}

// Poll drains buffered stanzas, including the ones that arrived before the
// stream ended.
func (c *wsConn) Poll(max int) []*stanza.Node {
	var out []*stanza.Node
	for max <= 0 || len(out) < max {
		select {
		case n, ok := <-c.incoming:
			if !ok {
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
	return out
}

func (c *wsConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err == nil && !c.closed
}

func (c *wsConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	_ = c.ws.Write(ctx, websocket.MessageText, []byte(stanza.New(stanza.NSFraming, "close").String()))
	cancel()
	c.stop()
	_ = c.ws.Close(websocket.StatusNormalClosure, "")
	<-c.done
	c.fail(ErrClosed)
	return nil
}
