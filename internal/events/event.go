// Package events turns raw stanzas into typed application events.
//
// Every event kind is declared once in an explicit table (see Default): a
// root kind is offered each incoming stanza whose element it names, a
// derived kind is offered every instance of each base kind that fired for
// the same stanza. A generator either returns a fully populated value or
// reports that the kind does not apply, in which case nothing derived from
// it is produced for that stanza.
package events

import (
	"github.com/rs/zerolog"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

type Name string

// Event is a materialized instance. It lives for one composition cycle.
type Event struct {
	Name    Name
	Account string
	Base    *Event
	Data    any
}

// Input is what a generator may read. Base is nil for root kinds.
type Input struct {
	Conn   *account.Context
	Stanza *stanza.Node
	Base   *Event
	Log    zerolog.Logger
}

// Generator returns the event value and true, or false when the kind does
// not apply to this input. Generators may send replies and mutate the
// connection context; both must tolerate the same stanza being delivered
// twice.
type Generator func(in Input) (any, bool)

type Kind struct {
	Name Name
	// Element restricts a root kind to stanzas with this local name. Empty
	// matches every stanza. Ignored for derived kinds.
	Element  string
	Bases    []Name
	Generate Generator
}

func (k Kind) Root() bool {
	return len(k.Bases) == 0
}

func (k Kind) accepts(st *stanza.Node) bool {
	return k.Element == "" || st.Local() == k.Element
}
