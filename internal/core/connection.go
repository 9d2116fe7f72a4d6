package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/stanza"
	"github.com/flitsinc/go-jabber/internal/transport"
)

const storeTimeout = 5 * time.Second

// connect dials the account and moves it to connected. On failure the
// account is back to disconnected, status offline and a warning have been
// broadcast, and the dial error is returned.
func (l *Loop) connect(ctx context.Context, s *session) error {
	if err := s.conn.Transition(account.Connecting); err != nil {
		return err
	}
	link, err := l.dialer.Dial(ctx, transport.Credentials{
		JID:      s.conn.JID,
		Password: s.cfg.Password,
		Resource: s.cfg.Resource,
		URL:      s.cfg.URL,
	})
	if err != nil {
		_ = s.conn.Transition(account.Disconnected)
		s.show = "offline"
		warning := WarningData{
			Title:   "Connection failed",
			Message: fmt.Sprintf("Couldn't connect to %s: %v", s.host, err),
		}
		outcome := "transport_failure"
		if errors.Is(err, transport.ErrAuth) {
			outcome = "auth_failure"
			warning = WarningData{
				Title:   "Authentication failed",
				Message: fmt.Sprintf("Authentication failed with %s, check your login and password", s.host),
			}
		}
		l.metrics.Connect(outcome)
		s.log.Warn().Err(err).Msg("connect failed")
		l.hub.Broadcast(hub.EventStatus, s.conn.Name, StatusData{Show: "offline"})
		l.hub.Broadcast(hub.EventWarning, s.conn.Name, warning)
		return err
	}

	s.link = link
	if _, resource := stanza.SplitJID(link.BoundJID()); resource != "" {
		s.conn.Resource = resource
	}
	s.conn.Attach(link.Send)
	if err := s.conn.Transition(account.Connected); err != nil {
		_ = link.Close()
		s.link = nil
		return err
	}
	l.metrics.Connect("ok")
	s.log.Info().Str("bound", link.BoundJID()).Msg("connected")
	l.loadCachedRoster(s)
	return nil
}

// disconnect is idempotent: an account that is already disconnected is
// left untouched and nothing is broadcast.
func (l *Loop) disconnect(s *session) bool {
	if s.conn.State() == account.Disconnected {
		return false
	}
	if s.conn.Connected() {
		if err := s.conn.Send(stanza.Presence("", "unavailable")); err != nil {
			s.log.Debug().Err(err).Msg("unavailable presence not sent")
		}
	}
	if s.link != nil {
		if err := s.link.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close transport")
		}
		s.link = nil
	}
	_ = s.conn.Transition(account.Disconnected)
	s.show = "offline"
	s.log.Info().Msg("disconnected")
	return true
}

// reap drops a connection whose transport ended on its own.
func (l *Loop) reap(s *session) {
	cause := s.link.Err()
	s.log.Warn().Err(cause).Msg("connection lost")
	if !l.disconnect(s) {
		return
	}
	l.hub.Broadcast(hub.EventStatus, s.conn.Name, StatusData{Show: "offline"})
	if cause != nil && !errors.Is(cause, transport.ErrClosed) {
		l.hub.Broadcast(hub.EventWarning, s.conn.Name, WarningData{
			Title:   "Connection lost",
			Message: fmt.Sprintf("Lost connection with %s: %v", s.host, cause),
		})
	}
}

// sendPresence announces show/status. "invisible" maps to the invisible
// presence type, "online" carries no show element.
func (l *Loop) sendPresence(s *session, show, status string) error {
	typ := ""
	if show == "invisible" {
		typ = "invisible"
	}
	p := stanza.Presence("", typ)
	switch show {
	case "chat", "away", "xa", "dnd":
		p.AddText("show", show)
	}
	if status != "" {
		p.AddText("status", status)
	}
	p.AddText("priority", strconv.Itoa(s.cfg.Priority))
	return s.conn.Send(p)
}

// requestOwnVCard and requestRoster are issued once per successful connect.
func (l *Loop) requestOwnVCard(s *session) error {
	iq := stanza.IQ("get", s.conn.NewID(), "")
	iq.Add(stanza.NSVCard, "vCard")
	_, err := s.conn.Request(account.RequestOwnVCard, iq)
	return err
}

func (l *Loop) requestRoster(s *session) error {
	iq := stanza.IQ("get", s.conn.NewID(), "")
	q := iq.Add(stanza.NSRoster, "query")
	if len(s.conn.Roster) > 0 {
		q.SetAttr("ver", s.conn.RosterVer)
	}
	_, err := s.conn.Request(account.RequestRoster, iq)
	return err
}

func (l *Loop) loadCachedRoster(s *session) {
	if l.rosters == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	cached, err := l.rosters.LoadRoster(ctx, s.conn.Name)
	if err != nil {
		s.log.Error().Err(err).Msg("load cached roster")
		return
	}
	if len(cached.Items) > 0 {
		s.conn.ReplaceRoster(cached.Items, cached.Version)
	}
}

func (l *Loop) saveRoster(s *session) {
	if l.rosters == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := l.rosters.SaveRoster(ctx, s.conn.Name, s.conn.RosterVer, s.conn.Roster); err != nil {
		s.log.Error().Err(err).Msg("save roster cache")
		l.hub.Broadcast(hub.EventError, s.conn.Name, ErrorData{Title: "Roster cache", Detail: err.Error()})
	}
}
