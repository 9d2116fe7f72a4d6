package account

type RosterItem struct {
	JID          string   `json:"jid"`
	Name         string   `json:"name,omitempty"`
	Subscription string   `json:"subscription,omitempty"`
	Ask          string   `json:"ask,omitempty"`
	Groups       []string `json:"groups,omitempty"`
}

// Vestigial reports whether the item carries no information at all: no
// subscription, no pending request, no name and no groups. Such entries are
// removed upstream instead of being shown.
func (r RosterItem) Vestigial() bool {
	return (r.Subscription == "" || r.Subscription == "none") &&
		(r.Ask == "" || r.Ask == "none") &&
		r.Name == "" &&
		len(r.Groups) == 0
}

// ReplaceRoster swaps in a fully fetched roster.
func (c *Context) ReplaceRoster(items map[string]RosterItem, version string) {
	c.Roster = make(map[string]RosterItem, len(items))
	for jid, item := range items {
		c.Roster[jid] = item
	}
	c.RosterVer = version
}

// ApplyRosterPush merges one pushed item; subscription "remove" deletes it.
func (c *Context) ApplyRosterPush(item RosterItem) {
	if item.Subscription == "remove" {
		delete(c.Roster, item.JID)
		return
	}
	c.Roster[item.JID] = item
}

func (c *Context) InRoster(jid string) bool {
	_, ok := c.Roster[jid]
	return ok
}
