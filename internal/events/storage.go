package events

import (
	"github.com/flitsinc/go-jabber/internal/stanza"
)

func generatePrivateStorage(in Input) (any, bool) {
	st := in.Stanza
	query := st.ChildNS("query", stanza.NSPrivate)
	if st.Type() != "result" || query == nil {
		return nil, false
	}
	storage := query.Child("storage")
	if storage == nil {
		return nil, false
	}
	return PrivateStorage{Namespace: storage.Namespace(), Storage: storage}, true
}

func generatePrivateStorageBookmarks(in Input) (any, bool) {
	ps, ok := in.Base.Data.(PrivateStorage)
	if !ok || ps.Namespace != stanza.NSBookmarks {
		return nil, false
	}
	return Bookmarks{Source: PrivateStorageBookmarksReceived, Items: parseBookmarks(in, ps.Storage)}, true
}

func generatePrivateStorageRosternotes(in Input) (any, bool) {
	ps, ok := in.Base.Data.(PrivateStorage)
	if !ok || ps.Namespace != stanza.NSRosterNotes {
		return nil, false
	}
	notes := map[string]string{}
	for _, note := range ps.Storage.ChildrenNamed("note") {
		j, err := stanza.ParseJID(note.Attr("jid"))
		if err != nil {
			in.Log.Warn().Err(err).Str("jid", note.Attr("jid")).Msg("ignoring roster note")
			continue
		}
		notes[j.String()] = note.Data()
	}
	if len(notes) == 0 {
		return nil, false
	}
	return Annotations{Notes: notes}, true
}

func generateRosternotes(in Input) (any, bool) {
	notes, ok := in.Base.Data.(Annotations)
	return notes, ok
}

func generatePubsub(in Input) (any, bool) {
	items := in.Stanza.ChildNS("pubsub", stanza.NSPubsub).Child("items")
	item := items.Child("item")
	if item == nil {
		return nil, false
	}
	return PubsubItem{Node: items.Attr("node"), Item: item}, true
}

func generatePubsubBookmarks(in Input) (any, bool) {
	pi, ok := in.Base.Data.(PubsubItem)
	if !ok {
		return nil, false
	}
	storage := pi.Item.ChildNS("storage", stanza.NSBookmarks)
	if storage == nil {
		return nil, false
	}
	return Bookmarks{Source: PubsubBookmarksReceived, Items: parseBookmarks(in, storage)}, true
}

// generateBookmarks fires once for every bookmark source that fired.
func generateBookmarks(in Input) (any, bool) {
	bm, ok := in.Base.Data.(Bookmarks)
	return bm, ok
}

// parseBookmarks reads conference entries, skipping invalid jids and keeping
// the first entry for a duplicated jid.
func parseBookmarks(in Input, storage *stanza.Node) []Bookmark {
	var out []Bookmark
	seen := map[string]bool{}
	for _, conf := range storage.ChildrenNamed("conference") {
		j, err := stanza.ParseJID(conf.Attr("jid"))
		if err != nil {
			in.Log.Warn().Err(err).Str("jid", conf.Attr("jid")).Msg("ignoring bookmark")
			continue
		}
		jid := j.String()
		if seen[jid] {
			continue
		}
		seen[jid] = true
		printStatus := conf.ChildText("print_status")
		if printStatus == "" {
			printStatus = conf.ChildText("show_status")
		}
		out = append(out, Bookmark{
			Name:        conf.Attr("name"),
			JID:         jid,
			Autojoin:    parseBool(conf.Attr("autojoin")),
			Minimize:    parseBool(conf.Attr("minimize")),
			Password:    conf.ChildText("password"),
			Nick:        conf.ChildText("nick"),
			PrintStatus: printStatus,
		})
	}
	return out
}
