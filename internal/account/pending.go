package account

type RequestKind string

const (
	RequestVersion   RequestKind = "version"
	RequestLast      RequestKind = "last"
	RequestTime      RequestKind = "time"
	RequestVCard     RequestKind = "vcard"
	RequestOwnVCard  RequestKind = "own-vcard"
	RequestRoster    RequestKind = "roster"
	RequestAgents    RequestKind = "agents"
	RequestAgentInfo RequestKind = "agent-info"
	RequestRegister  RequestKind = "register"
)

func (c *Context) AddPending(kind RequestKind, id string) {
	if id == "" {
		return
	}
	ids, ok := c.pending[kind]
	if !ok {
		ids = map[string]struct{}{}
		c.pending[kind] = ids
	}
	ids[id] = struct{}{}
}

func (c *Context) HasPending(kind RequestKind, id string) bool {
	_, ok := c.pending[kind][id]
	return ok
}

// ConsumePending removes id and reports whether it was outstanding. An
// unknown id is not an error.
func (c *Context) ConsumePending(kind RequestKind, id string) bool {
	ids, ok := c.pending[kind]
	if !ok {
		return false
	}
	if _, ok := ids[id]; !ok {
		return false
	}
	delete(ids, id)
	return true
}

func (c *Context) PendingCount(kind RequestKind) int {
	return len(c.pending[kind])
}

// ClearPending drops every outstanding id. Called when the account
// disconnects; no result can arrive after that.
func (c *Context) ClearPending() {
	c.pending = map[RequestKind]map[string]struct{}{}
}
