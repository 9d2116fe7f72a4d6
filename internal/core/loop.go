// Package core runs the single-goroutine scheduler that owns every account:
// it drains queued commands, polls each live connection for a bounded
// number of stanzas, composes them into events and broadcasts the results.
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/config"
	"github.com/flitsinc/go-jabber/internal/events"
	"github.com/flitsinc/go-jabber/internal/history"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/idgen"
	"github.com/flitsinc/go-jabber/internal/logging"
	"github.com/flitsinc/go-jabber/internal/metrics"
	"github.com/flitsinc/go-jabber/internal/stanza"
	"github.com/flitsinc/go-jabber/internal/state"
	"github.com/flitsinc/go-jabber/internal/transport"
)

var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrBadPayload     = errors.New("unexpected command payload")
)

// HistoryLog is the per-contact line log the core reads and appends to.
type HistoryLog interface {
	Append(ctx context.Context, account, jid, kind, text string) error
	Count(ctx context.Context, account, jid string) (int, error)
	Range(ctx context.Context, account, jid string, start, end int) ([]history.Line, error)
}

// RosterCache keeps the last fetched roster of each account across runs.
type RosterCache interface {
	SaveRoster(ctx context.Context, acct, version string, items map[string]account.RosterItem) error
	LoadRoster(ctx context.Context, acct string) (state.CachedRoster, error)
}

type session struct {
	conn    *account.Context
	cfg     config.AccountConfig
	link    transport.Conn
	host    string
	show    string
	status  string
	agentKs map[string]string
	log     zerolog.Logger
}

type Loop struct {
	hub      *hub.Hub
	composer *events.Composer
	dialer   transport.Dialer
	core     config.CoreConfig

	history HistoryLog
	rosters RosterCache
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string

	sessions map[string]*session
	names    []string
	handlers map[hub.Verb]handlerFunc
	quit     bool
}

type Option func(*Loop)

func WithLogger(log zerolog.Logger) Option {
	return func(l *Loop) {
		l.log = log.With().Str("component", "core").Logger()
	}
}

func WithClock(nowFn func() time.Time) Option {
	return func(l *Loop) {
		if nowFn != nil {
			l.now = nowFn
		}
	}
}

func WithIDGenerator(newIDFn func() string) Option {
	return func(l *Loop) {
		if newIDFn != nil {
			l.newID = newIDFn
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) {
		l.metrics = m
	}
}

func WithHistory(h HistoryLog) Option {
	return func(l *Loop) {
		l.history = h
	}
}

func WithRosterCache(c RosterCache) Option {
	return func(l *Loop) {
		l.rosters = c
	}
}

// WithComposer replaces the default event table.
func WithComposer(c *events.Composer) Option {
	return func(l *Loop) {
		if c != nil {
			l.composer = c
		}
	}
}

// New builds a loop for every configured account. All accounts start
// disconnected.
func New(h *hub.Hub, dialer transport.Dialer, cfg config.Config, opts ...Option) (*Loop, error) {
	if h == nil {
		return nil, errors.New("core: hub is required")
	}
	if dialer == nil {
		return nil, errors.New("core: dialer is required")
	}
	l := &Loop{
		hub:      h,
		dialer:   dialer,
		core:     cfg.Core,
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    idgen.New,
		sessions: map[string]*session{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.composer == nil {
		l.composer = events.NewComposer(events.Default(), l.log)
	}
	if l.core.ReadBudget <= 0 {
		l.core.ReadBudget = 32
	}
	l.handlers = l.dispatchTable()

	for name, acct := range cfg.Accounts {
		if err := l.addAccount(name, acct); err != nil {
			return nil, err
		}
	}
	sort.Strings(l.names)

	if l.history != nil && l.core.LogHistory {
		if err := h.Register("history", []string{string(events.MessageReceived), hub.EventMessageSent}, l.recordHistory); err != nil {
			return nil, fmt.Errorf("register history subscriber: %w", err)
		}
	}
	return l, nil
}

func (l *Loop) addAccount(name string, acct config.AccountConfig) error {
	addr, err := stanza.ParseJID(acct.JID)
	if err != nil {
		return fmt.Errorf("account %s: %w", name, err)
	}
	settings := account.Settings{
		AutoAuthorize: acct.AutoAuthorize || l.core.AlwaysAuth,
		ClientName:    l.core.ClientName,
		ClientVersion: l.core.ClientVersion,
		ClientOS:      l.core.ClientOS,
		LoopThreshold: l.core.SubscriptionLoopThreshold,
		LoopWindow:    l.core.SubscriptionLoopWindow,
	}
	conn := account.New(name, addr.Bare(), settings,
		account.WithClock(l.now),
		account.WithIDGenerator(l.newID),
	)
	conn.Resource = acct.Resource
	l.sessions[name] = &session{
		conn:    conn,
		cfg:     acct,
		host:    addr.Domain,
		show:    "offline",
		agentKs: map[string]string{},
		log:     logging.ForAccount(l.log, name),
	}
	l.names = append(l.names, name)
	return nil
}

// Account exposes the connection context of name for inspection.
func (l *Loop) Account(name string) (*account.Context, bool) {
	s, ok := l.sessions[name]
	if !ok {
		return nil, false
	}
	return s.conn, true
}

func (l *Loop) Accounts() []string {
	return append([]string(nil), l.names...)
}

// Done reports whether a quit command has been processed.
func (l *Loop) Done() bool {
	return l.quit
}

// Autoconnect queues a status command for every account configured with
// autoconnect, using its configured status (online when unset).
func (l *Loop) Autoconnect() {
	for _, name := range l.names {
		s := l.sessions[name]
		if !s.cfg.Autoconnect {
			continue
		}
		show := s.cfg.Status
		if show == "" {
			show = "online"
		}
		l.hub.Enqueue(hub.Command{Verb: hub.VerbStatus, Account: name, Payload: hub.StatusPayload{Show: show}})
	}
}

// Tick runs one scheduler step: every queued command, then a bounded read
// from each live connection, then removal of connections that died. It
// returns true once quit has been processed.
func (l *Loop) Tick(ctx context.Context) bool {
	start := l.now()
	defer func() {
		l.metrics.ObserveTick(l.now().Sub(start).Seconds())
	}()

	for !l.quit {
		cmd, ok := l.hub.Next()
		if !ok {
			break
		}
		l.execute(ctx, cmd)
	}
	l.metrics.SetQueueDepth(l.hub.Len())
	if l.quit {
		return true
	}

	for _, name := range l.names {
		s := l.sessions[name]
		if s.link == nil {
			continue
		}
		dead := !s.link.Alive()
		batch := s.link.Poll(l.core.ReadBudget)
		if dead {
			batch = append(batch, s.link.Poll(0)...)
		}
		for _, st := range batch {
			l.process(s, st)
		}
		if dead || !s.link.Alive() {
			l.reap(s)
		}
	}
	l.metrics.SetConnected(l.connectedCount())
	return false
}

// Run ticks until quit or until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.core.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if l.Tick(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// shutdown closes every connection without announcing quit.
func (l *Loop) shutdown() {
	for _, name := range l.names {
		l.disconnect(l.sessions[name])
	}
}

func (l *Loop) connectedCount() int {
	n := 0
	for _, s := range l.sessions {
		if s.conn.Connected() {
			n++
		}
	}
	return n
}

// process composes one stanza and broadcasts every event it produced, in
// composition order.
func (l *Loop) process(s *session, st *stanza.Node) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.Panic("stanza")
			s.log.Error().Str("panic", fmt.Sprint(r)).Str("element", st.Local()).Msg("stanza processing panicked")
		}
	}()
	l.metrics.Stanza(s.conn.Name, st.Local())
	for _, ev := range l.composer.Compose(s.conn, st) {
		l.metrics.Event(string(ev.Name))
		l.hub.Broadcast(string(ev.Name), s.conn.Name, ev.Data)
		l.react(s, ev)
	}
}

func (l *Loop) execute(ctx context.Context, cmd hub.Command) {
	log := l.log.With().Str("verb", string(cmd.Verb)).Str("command_id", cmd.ID).Logger()
	defer func() {
		if r := recover(); r != nil {
			l.metrics.Panic("command")
			l.metrics.Command(string(cmd.Verb), "panic")
			log.Error().Str("panic", fmt.Sprint(r)).Msg("command handler panicked")
		}
	}()

	handler, ok := l.handlers[cmd.Verb]
	if !ok {
		l.metrics.Command(string(cmd.Verb), "unknown")
		log.Warn().Msg("unknown command, dropping")
		return
	}
	if err := handler(ctx, cmd); err != nil {
		l.metrics.Command(string(cmd.Verb), "error")
		log.Warn().Err(err).Str("account", cmd.Account).Msg("command failed")
		return
	}
	l.metrics.Command(string(cmd.Verb), "ok")
}

func (l *Loop) session(name string) (*session, error) {
	if name == "" && len(l.names) == 1 {
		return l.sessions[l.names[0]], nil
	}
	s, ok := l.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccount, name)
	}
	return s, nil
}

// payloadAs accepts both the value and pointer form of a payload so that
// in-process callers and decoded HTTP commands are treated alike.
func payloadAs[T any](cmd hub.Command) (T, error) {
	var zero T
	switch p := cmd.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	}
	return zero, fmt.Errorf("%w: %s wants %T, got %T", ErrBadPayload, cmd.Verb, zero, cmd.Payload)
}
