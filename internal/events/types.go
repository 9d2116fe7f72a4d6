package events

import (
	"time"

	"github.com/flitsinc/go-jabber/internal/account"
	"github.com/flitsinc/go-jabber/internal/stanza"
)

type HTTPAuth struct {
	JID       string `json:"jid"`
	StanzaID  string `json:"stanza_id"`
	ConfirmID string `json:"confirm_id"`
	Method    string `json:"method"`
	URL       string `json:"url"`
	Message   string `json:"message,omitempty"`
}

type VersionResult struct {
	ID         string `json:"id"`
	JID        string `json:"jid"`
	Resource   string `json:"resource,omitempty"`
	ClientInfo string `json:"client_info"`
	OSInfo     string `json:"os_info"`
}

type LastResult struct {
	ID       string `json:"id"`
	JID      string `json:"jid"`
	Resource string `json:"resource,omitempty"`
	Seconds  int    `json:"seconds"`
	Status   string `json:"status"`
}

type TimeResult struct {
	ID       string    `json:"id"`
	JID      string    `json:"jid"`
	Resource string    `json:"resource,omitempty"`
	TimeInfo string    `json:"time_info"`
	Time     time.Time `json:"time"`
}

type VCard struct {
	ID       string         `json:"id"`
	JID      string         `json:"jid"`
	Resource string         `json:"resource,omitempty"`
	Own      bool           `json:"own"`
	Fields   map[string]any `json:"fields"`
	PhotoSHA string         `json:"photo_sha,omitempty"`
}

type GmailThread struct {
	From          []string `json:"from"`
	Subject       string   `json:"subject"`
	Snippet       string   `json:"snippet"`
	URL           string   `json:"url"`
	Participation string   `json:"participation"`
	Messages      string   `json:"messages"`
	Date          string   `json:"date"`
}

type Gmail struct {
	JID         string        `json:"jid"`
	NewMessages int           `json:"new_messages"`
	Threads     []GmailThread `json:"threads"`
}

type ExchangeItem struct {
	Name   string   `json:"name,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

type RosterExchange struct {
	JID      string                  `json:"jid"`
	Resource string                  `json:"resource,omitempty"`
	Action   string                  `json:"action"`
	Items    map[string]ExchangeItem `json:"items"`
}

// Request is an incoming query we answered.
type Request struct {
	ID       string `json:"id"`
	JID      string `json:"jid"`
	Resource string `json:"resource,omitempty"`
}

type Roster struct {
	Version string                        `json:"version,omitempty"`
	Items   map[string]account.RosterItem `json:"items"`
	Removed []string                      `json:"removed,omitempty"`
}

type RosterPush struct {
	Version string                        `json:"version,omitempty"`
	Items   map[string]account.RosterItem `json:"items"`
}

type FormField struct {
	Var     string   `json:"var"`
	Type    string   `json:"type,omitempty"`
	Label   string   `json:"label,omitempty"`
	Values  []string `json:"values,omitempty"`
	Options []string `json:"options,omitempty"`
}

type DataForm struct {
	Type         string        `json:"type"`
	Title        string        `json:"title,omitempty"`
	Instructions string        `json:"instructions,omitempty"`
	Fields       []FormField   `json:"fields"`
	Reported     []FormField   `json:"reported,omitempty"`
	Items        [][]FormField `json:"items,omitempty"`
}

type MUCOwner struct {
	JID      string   `json:"jid"`
	Resource string   `json:"resource,omitempty"`
	Form     DataForm `json:"form"`
}

type MUCUser struct {
	Affiliation string `json:"affiliation"`
	Nick        string `json:"nick,omitempty"`
	Role        string `json:"role,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type MUCAdmin struct {
	JID      string             `json:"jid"`
	Resource string             `json:"resource,omitempty"`
	Users    map[string]MUCUser `json:"users"`
}

// PrivateStorage borrows the storage element for the current cycle only.
type PrivateStorage struct {
	Namespace string       `json:"namespace"`
	Storage   *stanza.Node `json:"-"`
}

type PubsubItem struct {
	Node string       `json:"node"`
	Item *stanza.Node `json:"-"`
}

type Bookmark struct {
	Name        string `json:"name"`
	JID         string `json:"jid"`
	Autojoin    bool   `json:"autojoin"`
	Minimize    bool   `json:"minimize"`
	Password    string `json:"password,omitempty"`
	Nick        string `json:"nick,omitempty"`
	PrintStatus string `json:"print_status,omitempty"`
}

type Bookmarks struct {
	Source Name       `json:"source"`
	Items  []Bookmark `json:"items"`
}

type Annotations struct {
	Notes map[string]string `json:"notes"`
}

type SearchForm struct {
	JID        string            `json:"jid"`
	Resource   string            `json:"resource,omitempty"`
	IsDataForm bool              `json:"is_dataform"`
	Form       *DataForm         `json:"form,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

type SearchResult struct {
	JID        string              `json:"jid"`
	Resource   string              `json:"resource,omitempty"`
	IsDataForm bool                `json:"is_dataform"`
	Form       *DataForm           `json:"form,omitempty"`
	Items      []map[string]string `json:"items,omitempty"`
}

type Agent struct {
	JID       string `json:"jid"`
	Name      string `json:"name,omitempty"`
	Service   string `json:"service,omitempty"`
	Transport string `json:"transport,omitempty"`
	Register  bool   `json:"register"`
	Search    bool   `json:"search"`
}

type Agents struct {
	Server string  `json:"server"`
	Items  []Agent `json:"items"`
}

type AgentInfo struct {
	JID          string            `json:"jid"`
	Instructions string            `json:"instructions,omitempty"`
	Key          string            `json:"key,omitempty"`
	Registered   bool              `json:"registered"`
	Fields       map[string]string `json:"fields,omitempty"`
	Form         *DataForm         `json:"form,omitempty"`
}

type Registration struct {
	JID   string `json:"jid"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type ErrorAnswer struct {
	ID        string `json:"id"`
	JID       string `json:"jid"`
	Resource  string `json:"resource,omitempty"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Condition string `json:"condition,omitempty"`
}

type StreamError struct {
	Condition string `json:"condition"`
	Text      string `json:"text,omitempty"`
}

type RawPresence struct {
	Node *stanza.Node `json:"-"`
}

type SubscriptionOutcome int

const (
	OutcomeNone SubscriptionOutcome = iota
	OutcomeSubscribeRequest
	OutcomeSubscribed
	OutcomeUnsubscribed
	OutcomeSuppressed
)

type Presence struct {
	Type            string              `json:"type,omitempty"`
	FullJID         string              `json:"full_jid"`
	JID             string              `json:"jid"`
	Resource        string              `json:"resource,omitempty"`
	ID              string              `json:"id,omitempty"`
	Show            string              `json:"show"`
	Status          string              `json:"status"`
	Priority        int                 `json:"priority"`
	Timestamp       time.Time           `json:"timestamp,omitzero"`
	UserNick        string              `json:"user_nick,omitempty"`
	ContactNickname string              `json:"contact_nickname,omitempty"`
	AvatarSHA       string              `json:"avatar_sha,omitempty"`
	IsGroupChat     bool                `json:"is_gc"`
	ErrorCode       string              `json:"error_code,omitempty"`
	Own             bool                `json:"own"`
	Notify          bool                `json:"-"`
	Outcome         SubscriptionOutcome `json:"-"`
	Terminated      []string            `json:"terminated_sessions,omitempty"`
}

type Notify struct {
	JID       string    `json:"jid"`
	Show      string    `json:"show"`
	Status    string    `json:"status"`
	Resource  string    `json:"resource,omitempty"`
	Priority  int       `json:"priority"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Nickname  string    `json:"nickname,omitempty"`
}

type SubscribeRequestData struct {
	JID  string `json:"jid"`
	Note string `json:"note"`
	Nick string `json:"nick,omitempty"`
}

type SubscribedData struct {
	JID      string `json:"jid"`
	Node     string `json:"node"`
	Resource string `json:"resource,omitempty"`
}

type UnsubscribedData struct {
	JID string `json:"jid"`
}

type Message struct {
	ID        string    `json:"id,omitempty"`
	FullJID   string    `json:"full_jid"`
	JID       string    `json:"jid"`
	Resource  string    `json:"resource,omitempty"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	Subject   string    `json:"subject,omitempty"`
	Thread    string    `json:"thread,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

type MessageErrorData struct {
	JID     string `json:"jid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Body    string `json:"body,omitempty"`
}
