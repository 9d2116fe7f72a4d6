package hub

import "time"

type Verb string

const (
	VerbQuit             Verb = "quit"
	VerbStatus           Verb = "status"
	VerbDisconnect       Verb = "disconnect"
	VerbSendMessage      Verb = "send-message"
	VerbSubscribe        Verb = "subscribe"
	VerbAuthorize        Verb = "authorize"
	VerbDeny             Verb = "deny"
	VerbUnsubscribe      Verb = "unsubscribe"
	VerbUnsubscribeAgent Verb = "unsubscribe-agent"
	VerbUpdateRosterItem Verb = "update-roster-item"
	VerbRequestAgents    Verb = "request-agents"
	VerbRequestAgentInfo Verb = "request-agent-info"
	VerbRegisterAgent    Verb = "register-agent"
	VerbAgentLogging     Verb = "agent-logging"
	VerbRequestVCard     Verb = "request-vcard"
	VerbPublishVCard     Verb = "publish-vcard"
	VerbRequestVersion   Verb = "request-version"
	VerbRequestLast      Verb = "request-last"
	VerbRequestTime      Verb = "request-time"
	VerbFetchLogCount    Verb = "fetch-log-count"
	VerbFetchLogRange    Verb = "fetch-log-range"
	VerbRegisterInterest Verb = "register-interest"
)

// Broadcast names produced by the core itself. Protocol events are
// broadcast under their kind name.
const (
	EventStatus       = "status"
	EventMessageSent  = "message-sent"
	EventRoster       = "roster"
	EventWarning      = "warning"
	EventError        = "error"
	EventQuit         = "quit"
	EventAgents       = "agents"
	EventAgentInfo    = "agent-info"
	EventAgentRemoved = "agent-removed"
	EventLogLine      = "log-line"
	EventLogLineCount = "log-line-count"
)

// Command travels from a presentation component to the core loop. It is
// consumed exactly once.
type Command struct {
	ID        string    `json:"id"`
	Verb      Verb      `json:"verb"`
	Account   string    `json:"account,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusPayload struct {
	Show    string `json:"show"`
	Message string `json:"message,omitempty"`
}

type MessagePayload struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	Type   string `json:"type,omitempty"`
	Thread string `json:"thread,omitempty"`
}

// SubscribePayload asks for a contact's presence. With AutoAuth set, the
// contact's own subscription request is authorized without asking.
type SubscribePayload struct {
	JID      string `json:"jid"`
	Note     string `json:"note,omitempty"`
	Nick     string `json:"nick,omitempty"`
	AutoAuth bool   `json:"auto_auth,omitempty"`
}

type JIDPayload struct {
	JID string `json:"jid"`
}

type RosterItemPayload struct {
	JID    string   `json:"jid"`
	Name   string   `json:"name,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

type LogRangePayload struct {
	JID   string `json:"jid"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// InterestPayload registers a handler under an opt-in list of names. A nil
// Handler only updates the interest list of an existing registration.
type InterestPayload struct {
	Subscriber string   `json:"subscriber"`
	Names      []string `json:"names"`
	Handler    Handler  `json:"-"`
}

type AgentPayload struct {
	JID  string `json:"jid"`
	Type string `json:"type,omitempty"`
}

type RegisterPayload struct {
	JID    string            `json:"jid"`
	Fields map[string]string `json:"fields"`
}

type VCardPayload struct {
	Fields map[string]any `json:"fields"`
}

// Message is one broadcast as delivered to subscribers.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Account   string    `json:"account,omitempty"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler func(Message)
