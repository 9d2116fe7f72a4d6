package events

const (
	HTTPAuthReceived                  Name = "http-auth-received"
	VersionResultReceived             Name = "version-result-received"
	LastResultReceived                Name = "last-result-received"
	TimeResultReceived                Name = "time-result-received"
	VCardReceived                     Name = "vcard-received"
	MyVCard                           Name = "my-vcard"
	GmailNotify                       Name = "gmail-notify"
	GmailNewMailReceived              Name = "gmail-new-mail-received"
	RosterItemExchangeReceived        Name = "roster-item-exchange-received"
	VersionRequestReceived            Name = "version-request-received"
	LastRequestReceived               Name = "last-request-received"
	TimeRequestReceived               Name = "time-request-received"
	TimeRevisedRequestReceived        Name = "time-revised-request-received"
	RosterReceived                    Name = "roster-received"
	RosterPushed                      Name = "roster-pushed"
	MUCOwnerReceived                  Name = "muc-owner-received"
	MUCAdminReceived                  Name = "muc-admin-received"
	PrivateStorageReceived            Name = "private-storage-received"
	PrivateStorageBookmarksReceived   Name = "private-storage-bookmarks-received"
	PrivateStorageRosternotesReceived Name = "private-storage-rosternotes-received"
	PubsubReceived                    Name = "pubsub-received"
	PubsubBookmarksReceived           Name = "pubsub-bookmarks-received"
	BookmarksReceived                 Name = "bookmarks-received"
	RosternotesReceived               Name = "rosternotes-received"
	SearchFormReceived                Name = "search-form-received"
	SearchResultReceived              Name = "search-result-received"
	AgentsReceived                    Name = "agents-received"
	AgentInfoReceived                 Name = "agent-info-received"
	AgentRegistered                   Name = "agent-registered"
	ErrorReceived                     Name = "error-received"
	PingReceived                      Name = "ping-received"
	StreamReceived                    Name = "stream-received"
	StreamConflictReceived            Name = "stream-conflict-received"
	RawPresenceReceived               Name = "raw-pres-received"
	PresenceReceived                  Name = "presence-received"
	PresenceNotify                    Name = "presence-notify"
	SubscribeRequest                  Name = "subscribe-request"
	Subscribed                        Name = "subscribed"
	Unsubscribed                      Name = "unsubscribed"
	MessageReceived                   Name = "message-received"
	MessageError                      Name = "message-error"
)
