package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

func generateHTTPAuth(in Input) (any, bool) {
	confirm := in.Stanza.ChildNS("confirm", stanza.NSHTTPAuth)
	if confirm == nil {
		return nil, false
	}
	_, bare, _ := sender(in.Conn, in.Stanza)
	return HTTPAuth{
		JID:       bare,
		StanzaID:  in.Stanza.ID(),
		ConfirmID: confirm.Attr("id"),
		Method:    confirm.Attr("method"),
		URL:       confirm.Attr("url"),
		Message:   in.Stanza.ChildText("body"),
	}, true
}

// claimResponse reports whether st answers a request of kind, either because
// its id is outstanding or because it carries the expected payload.
func claimResponse(in Input, kind account.RequestKind, payload *stanza.Node) bool {
	st := in.Stanza
	if !isResponse(st) {
		return false
	}
	pending := in.Conn.ConsumePending(kind, st.ID())
	return pending || (st.Type() == "result" && payload != nil)
}

func generateVersionResult(in Input) (any, bool) {
	st := in.Stanza
	query := st.ChildNS("query", stanza.NSVersion)
	if !claimResponse(in, account.RequestVersion, query) {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	res := VersionResult{ID: st.ID(), JID: bare, Resource: resource}
	if st.Type() == "error" {
		return res, true
	}
	if query == nil {
		return nil, false
	}
	var info []string
	if name := query.ChildText("name"); name != "" {
		info = append(info, name)
	}
	if version := query.ChildText("version"); version != "" {
		info = append(info, version)
	}
	res.ClientInfo = strings.Join(info, " ")
	res.OSInfo = query.ChildText("os")
	return res, true
}

func generateLastResult(in Input) (any, bool) {
	st := in.Stanza
	query := st.ChildNS("query", stanza.NSLast)
	if !claimResponse(in, account.RequestLast, query) {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	res := LastResult{ID: st.ID(), JID: bare, Resource: resource, Seconds: -1}
	if st.Type() == "error" {
		return res, true
	}
	if query == nil {
		return nil, false
	}
	seconds, err := strconv.Atoi(query.Attr("seconds"))
	if err != nil {
		in.Log.Debug().Str("seconds", query.Attr("seconds")).Msg("malformed last activity answer")
		return nil, false
	}
	res.Seconds = seconds
	res.Status = query.Data()
	return res, true
}

func generateTimeResult(in Input) (any, bool) {
	st := in.Stanza
	tnode := st.ChildNS("time", stanza.NSTime)
	if !claimResponse(in, account.RequestTime, tnode) {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	res := TimeResult{ID: st.ID(), JID: bare, Resource: resource}
	if st.Type() == "error" {
		return res, true
	}
	if tnode == nil {
		return nil, false
	}
	zone, err := parseTZO(tnode.ChildText("tzo"))
	if err != nil {
		in.Log.Debug().Err(err).Msg("malformed entity time answer")
		return nil, false
	}
	utc, ok := parseUTC(tnode.ChildText("utc"))
	if !ok {
		in.Log.Debug().Str("utc", tnode.ChildText("utc")).Msg("wrong time format")
		return nil, false
	}
	res.Time = utc.In(zone)
	res.TimeInfo = res.Time.Format("Mon Jan _2 15:04:05 2006")
	return res, true
}

func parseTZO(tzo string) (*time.Location, error) {
	tzo = strings.TrimSpace(tzo)
	if tzo == "" {
		return nil, fmt.Errorf("missing tzo")
	}
	if strings.EqualFold(tzo, "z") {
		return time.UTC, nil
	}
	hours, minutes, ok := strings.Cut(tzo, ":")
	if !ok {
		return nil, fmt.Errorf("tzo %q: missing separator", tzo)
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return nil, fmt.Errorf("tzo %q: %w", tzo, err)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return nil, fmt.Errorf("tzo %q: %w", tzo, err)
	}
	offset := h*3600 + m*60
	if strings.HasPrefix(hours, "-") {
		offset = h*3600 - m*60
	}
	return time.FixedZone("remote", offset), nil
}

func parseUTC(v string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05Z", "2006-01-02T15:04:05.999999999Z"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func generateErrorReceived(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "error" {
		return nil, false
	}
	_, bare, resource := sender(in.Conn, st)
	cond, code := st.ErrorCondition()
	return ErrorAnswer{
		ID:        st.ID(),
		JID:       bare,
		Resource:  resource,
		Message:   st.ErrorText(),
		Code:      code,
		Condition: cond,
	}, true
}

func requestFrom(in Input) Request {
	_, bare, resource := sender(in.Conn, in.Stanza)
	return Request{ID: in.Stanza.ID(), JID: bare, Resource: resource}
}

func generateVersionRequest(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "get" || st.ChildNS("query", stanza.NSVersion) == nil {
		return nil, false
	}
	reply := stanza.Reply(st)
	q := reply.Add(stanza.NSVersion, "query")
	settings := in.Conn.Settings
	if settings.ClientName != "" {
		q.AddText("name", settings.ClientName)
	}
	if settings.ClientVersion != "" {
		q.AddText("version", settings.ClientVersion)
	}
	if settings.ClientOS != "" {
		q.AddText("os", settings.ClientOS)
	}
	send(in, reply)
	return requestFrom(in), true
}

func generateLastRequest(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "get" || st.ChildNS("query", stanza.NSLast) == nil {
		return nil, false
	}
	reply := stanza.Reply(st)
	reply.Add(stanza.NSLast, "query").SetAttr("seconds", "0")
	send(in, reply)
	return requestFrom(in), true
}

func generateTimeRequest(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "get" || st.ChildNS("query", stanza.NSTimeLegacy) == nil {
		return nil, false
	}
	now := in.Conn.Now()
	local := now.In(time.Local)
	zone, _ := local.Zone()
	reply := stanza.Reply(st)
	reply.Add(stanza.NSTimeLegacy, "query").
		AddText("utc", now.UTC().Format("20060102T15:04:05")).
		AddText("tz", zone).
		AddText("display", local.Format("Mon Jan _2 15:04:05 2006"))
	send(in, reply)
	return requestFrom(in), true
}

func generateTimeRevisedRequest(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "get" || st.ChildNS("time", stanza.NSTime) == nil {
		return nil, false
	}
	now := in.Conn.Now()
	_, offset := now.In(time.Local).Zone()
	reply := stanza.Reply(st)
	reply.Add(stanza.NSTime, "time").
		AddText("tzo", formatTZO(offset)).
		AddText("utc", now.UTC().Format("2006-01-02T15:04:05Z"))
	send(in, reply)
	return requestFrom(in), true
}

func formatTZO(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}

func generatePing(in Input) (any, bool) {
	st := in.Stanza
	if st.Type() != "get" || st.ChildNS("ping", stanza.NSPing) == nil {
		return nil, false
	}
	send(in, stanza.Reply(st))
	return requestFrom(in), true
}
