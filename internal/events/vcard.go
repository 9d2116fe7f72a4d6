package events

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

func generateVCard(in Input) (any, bool) {
	st := in.Stanza
	card := st.ChildNS("vCard", stanza.NSVCard)
	if !isResponse(st) {
		return nil, false
	}
	own := in.Conn.ConsumePending(account.RequestOwnVCard, st.ID())
	requested := own || in.Conn.ConsumePending(account.RequestVCard, st.ID())
	if !requested && card == nil {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	if st.From() == "" || bare == ownBare(in.Conn) {
		own = true
	}
	res := VCard{ID: st.ID(), JID: bare, Resource: resource, Own: own, Fields: map[string]any{}}
	if card == nil {
		// Error or empty answer: the contact has no vCard.
		return res, true
	}
	res.Fields = vcardFields(card)
	res.PhotoSHA = photoSHA(card)
	in.Conn.VCardSHAs[bare] = res.PhotoSHA
	return res, true
}

// vcardFields flattens a vCard into name -> text, nesting one level for
// structured elements such as N or ADR.
func vcardFields(card *stanza.Node) map[string]any {
	out := map[string]any{}
	for _, c := range card.Children {
		if len(c.Children) == 0 {
			out[c.Local()] = c.Text
			continue
		}
		sub := map[string]string{}
		for _, cc := range c.Children {
			sub[cc.Local()] = cc.Text
		}
		out[c.Local()] = sub
	}
	return out
}

func photoSHA(card *stanza.Node) string {
	photo := card.Child("PHOTO")
	if photo == nil {
		return ""
	}
	raw := strings.Join(strings.Fields(photo.ChildText("BINVAL")), "")
	if raw == "" {
		return ""
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return ""
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func generateMyVCard(in Input) (any, bool) {
	card, ok := in.Base.Data.(VCard)
	if !ok || !card.Own {
		return nil, false
	}
	return card, true
}
