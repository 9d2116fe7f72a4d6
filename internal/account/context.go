// Package account holds the per-account Connection Context: connection state,
// request correlation, roster snapshot and the small caches events read and
// mutate. A Context is owned by the core loop goroutine and is never locked.
package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/flitsinc/go-jabber/internal/idgen"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

var (
	ErrNotConnected           = errors.New("account not connected")
	ErrInvalidStateTransition = errors.New("invalid connection state transition")
)

type TransitionError struct {
	Account string
	From    State
	To      State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid connection state transition for %s: %s -> %s", e.Account, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// Settings are the behavioural flags the context exposes to events.
type Settings struct {
	AutoAuthorize bool
	ClientName    string
	ClientVersion string
	ClientOS      string
	LoopThreshold int
	LoopWindow    time.Duration
}

type Session struct {
	ThreadID         string
	ReceivedThreadID bool
}

type Context struct {
	Name     string
	JID      string
	Resource string
	Settings Settings

	state State
	send  func(*stanza.Node) error
	now   func() time.Time
	newID func() string

	pending map[RequestKind]map[string]struct{}
	guard   *LoopGuard

	Roster       map[string]RosterItem
	RosterVer    string
	Capabilities map[string][]string
	Sessions     map[string]map[string]*Session
	VCardSHAs    map[string]string

	// AutomaticallyAdded holds jids we subscribed to on behalf of a transport;
	// their "subscribed" answer is consumed silently.
	AutomaticallyAdded map[string]bool
	AutoAuthJIDs       map[string]bool

	GmailURL      string
	GmailLastTID  int64
	GmailLastTime int64

	ConnectedAt time.Time
}

type Option func(*Context)

func WithClock(nowFn func() time.Time) Option {
	return func(c *Context) {
		if nowFn != nil {
			c.now = nowFn
		}
	}
}

func WithIDGenerator(newIDFn func() string) Option {
	return func(c *Context) {
		if newIDFn != nil {
			c.newID = newIDFn
		}
	}
}

func New(name, jid string, settings Settings, opts ...Option) *Context {
	if settings.LoopThreshold <= 0 {
		settings.LoopThreshold = DefaultLoopThreshold
	}
	if settings.LoopWindow <= 0 {
		settings.LoopWindow = DefaultLoopWindow
	}
	c := &Context{
		Name:               name,
		JID:                jid,
		Settings:           settings,
		now:                func() time.Time { return time.Now().UTC() },
		newID:              idgen.New,
		pending:            map[RequestKind]map[string]struct{}{},
		Roster:             map[string]RosterItem{},
		Capabilities:       map[string][]string{},
		Sessions:           map[string]map[string]*Session{},
		VCardSHAs:          map[string]string{},
		AutomaticallyAdded: map[string]bool{},
		AutoAuthJIDs:       map[string]bool{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.guard = NewLoopGuard(settings.LoopThreshold, settings.LoopWindow)
	return c
}

func (c *Context) Now() time.Time {
	return c.now()
}

func (c *Context) NewID() string {
	return c.newID()
}

func (c *Context) State() State {
	return c.state
}

func (c *Context) Connected() bool {
	return c.state == Connected
}

// Transition moves the state machine. Allowed edges:
// disconnected -> connecting -> connected -> disconnected, and
// connecting -> disconnected on failure.
func (c *Context) Transition(to State) error {
	from := c.state
	ok := false
	switch from {
	case Disconnected:
		ok = to == Connecting
	case Connecting:
		ok = to == Connected || to == Disconnected
	case Connected:
		ok = to == Disconnected
	}
	if !ok {
		return &TransitionError{Account: c.Name, From: from, To: to}
	}
	c.state = to
	switch to {
	case Connected:
		c.ConnectedAt = c.now()
	case Disconnected:
		c.send = nil
		c.ClearPending()
	}
	return nil
}

// Attach installs the outgoing sink for the live connection.
func (c *Context) Attach(send func(*stanza.Node) error) {
	c.send = send
}

func (c *Context) Send(n *stanza.Node) error {
	if c.send == nil {
		return fmt.Errorf("send to %s: %w", c.Name, ErrNotConnected)
	}
	return c.send(n)
}

// Request sends an iq get/set, recording its id under kind so the matching
// result event can claim it.
func (c *Context) Request(kind RequestKind, iq *stanza.Node) (string, error) {
	id := iq.ID()
	if id == "" {
		id = c.NewID()
		iq.SetAttr("id", id)
	}
	if err := c.Send(iq); err != nil {
		return "", err
	}
	c.AddPending(kind, id)
	return id, nil
}

// LoopGuard exposes the subscription flood detector.
func (c *Context) LoopGuard() *LoopGuard {
	return c.guard
}

func (c *Context) Session(jid, thread string) *Session {
	byThread, ok := c.Sessions[jid]
	if !ok {
		byThread = map[string]*Session{}
		c.Sessions[jid] = byThread
	}
	sess, ok := byThread[thread]
	if !ok {
		sess = &Session{ThreadID: thread}
		byThread[thread] = sess
	}
	return sess
}

func (c *Context) Supports(jid, feature string) bool {
	for _, f := range c.Capabilities[jid] {
		if f == feature {
			return true
		}
	}
	return false
}
