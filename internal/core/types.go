package core

// Payloads of the broadcasts the core produces itself.

type StatusData struct {
	Show    string `json:"show"`
	Message string `json:"message,omitempty"`
}

type WarningData struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ErrorData struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type MessageSentData struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	Type   string `json:"type"`
	Thread string `json:"thread,omitempty"`
}

type AgentRemovedData struct {
	JID string `json:"jid"`
}

type LogLineCountData struct {
	JID   string `json:"jid"`
	Count int    `json:"count"`
}

type LogLineData struct {
	JID    string `json:"jid"`
	Number int    `json:"number"`
	Time   string `json:"time"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
}
