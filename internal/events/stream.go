package events

import (
	"github.com/flitsinc/go-jabber/internal/stanza"
)

func generateStream(in Input) (any, bool) {
	st := in.Stanza
	if st.Namespace() != stanza.NSStreams {
		return nil, false
	}
	res := StreamError{}
	for _, c := range st.Children {
		if c.Namespace() != stanza.NSStreamErrors {
			continue
		}
		if c.Local() == "text" {
			res.Text = c.Data()
		} else if res.Condition == "" {
			res.Condition = c.Local()
		}
	}
	return res, true
}

func generateStreamConflict(in Input) (any, bool) {
	se, ok := in.Base.Data.(StreamError)
	if !ok || se.Condition != "conflict" {
		return nil, false
	}
	return se, true
}
