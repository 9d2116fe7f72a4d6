package events

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

type Composer struct {
	registry *Registry
	log      zerolog.Logger
}

func NewComposer(registry *Registry, log zerolog.Logger) *Composer {
	return &Composer{registry: registry, log: log.With().Str("component", "composer").Logger()}
}

func (c *Composer) Registry() *Registry {
	return c.registry
}

// Compose resolves the whole cascade for one stanza and returns the fired
// events in registration order of their kinds.
func (c *Composer) Compose(conn *account.Context, st *stanza.Node) []Event {
	if st == nil {
		return nil
	}
	log := c.log.With().Str("account", conn.Name).Str("element", st.Local()).Logger()
	fired := map[Name][]*Event{}
	var out []*Event

	for _, k := range c.registry.kinds {
		if k.Root() {
			if !k.accepts(st) {
				continue
			}
			if ev := c.generate(k, Input{Conn: conn, Stanza: st, Log: log}); ev != nil {
				fired[k.Name] = append(fired[k.Name], ev)
				out = append(out, ev)
			}
			continue
		}
		for _, base := range k.Bases {
			for _, baseEv := range fired[base] {
				if ev := c.generate(k, Input{Conn: conn, Stanza: st, Base: baseEv, Log: log}); ev != nil {
					fired[k.Name] = append(fired[k.Name], ev)
					out = append(out, ev)
				}
			}
		}
	}

	events := make([]Event, len(out))
	for i, ev := range out {
		events[i] = *ev
	}
	return events
}

func (c *Composer) generate(k Kind, in Input) (ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			in.Log.Debug().Str("kind", string(k.Name)).Str("panic", fmt.Sprint(r)).Msg("generator rejected stanza")
			ev = nil
		}
	}()
	data, ok := k.Generate(in)
	if !ok {
		return nil
	}
	return &Event{Name: k.Name, Account: in.Conn.Name, Base: in.Base, Data: data}
}
