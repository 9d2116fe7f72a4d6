package events

// Default returns the registry of every kind the core understands. Order is
// significant: it is both the delivery order and a topological order of the
// base relation.
func Default() *Registry {
	return NewRegistry().MustRegister(
		Kind{Name: HTTPAuthReceived, Generate: generateHTTPAuth},
		Kind{Name: VersionResultReceived, Element: "iq", Generate: generateVersionResult},
		Kind{Name: LastResultReceived, Element: "iq", Generate: generateLastResult},
		Kind{Name: TimeResultReceived, Element: "iq", Generate: generateTimeResult},
		Kind{Name: VCardReceived, Element: "iq", Generate: generateVCard},
		Kind{Name: MyVCard, Bases: []Name{VCardReceived}, Generate: generateMyVCard},
		Kind{Name: GmailNotify, Element: "iq", Generate: generateGmailNotify},
		Kind{Name: GmailNewMailReceived, Element: "iq", Generate: generateGmailNewMail},
		Kind{Name: RosterItemExchangeReceived, Generate: generateRosterExchange},
		Kind{Name: VersionRequestReceived, Element: "iq", Generate: generateVersionRequest},
		Kind{Name: LastRequestReceived, Element: "iq", Generate: generateLastRequest},
		Kind{Name: TimeRequestReceived, Element: "iq", Generate: generateTimeRequest},
		Kind{Name: TimeRevisedRequestReceived, Element: "iq", Generate: generateTimeRevisedRequest},
		Kind{Name: RosterReceived, Element: "iq", Generate: generateRoster},
		Kind{Name: RosterPushed, Element: "iq", Generate: generateRosterPush},
		Kind{Name: MUCOwnerReceived, Element: "iq", Generate: generateMUCOwner},
		Kind{Name: MUCAdminReceived, Element: "iq", Generate: generateMUCAdmin},
		Kind{Name: PrivateStorageReceived, Element: "iq", Generate: generatePrivateStorage},
		Kind{Name: PrivateStorageBookmarksReceived, Bases: []Name{PrivateStorageReceived}, Generate: generatePrivateStorageBookmarks},
		Kind{Name: PrivateStorageRosternotesReceived, Bases: []Name{PrivateStorageReceived}, Generate: generatePrivateStorageRosternotes},
		Kind{Name: PubsubReceived, Element: "iq", Generate: generatePubsub},
		Kind{Name: PubsubBookmarksReceived, Bases: []Name{PubsubReceived}, Generate: generatePubsubBookmarks},
		Kind{Name: BookmarksReceived, Bases: []Name{PrivateStorageBookmarksReceived, PubsubBookmarksReceived}, Generate: generateBookmarks},
		Kind{Name: RosternotesReceived, Bases: []Name{PrivateStorageRosternotesReceived}, Generate: generateRosternotes},
		Kind{Name: SearchFormReceived, Element: "iq", Generate: generateSearchForm},
		Kind{Name: SearchResultReceived, Element: "iq", Generate: generateSearchResult},
		Kind{Name: AgentsReceived, Element: "iq", Generate: generateAgents},
		Kind{Name: AgentInfoReceived, Element: "iq", Generate: generateAgentInfo},
		Kind{Name: AgentRegistered, Element: "iq", Generate: generateAgentRegistered},
		Kind{Name: ErrorReceived, Element: "iq", Generate: generateErrorReceived},
		Kind{Name: PingReceived, Element: "iq", Generate: generatePing},
		Kind{Name: StreamReceived, Element: "error", Generate: generateStream},
		Kind{Name: StreamConflictReceived, Bases: []Name{StreamReceived}, Generate: generateStreamConflict},
		Kind{Name: RawPresenceReceived, Element: "presence", Generate: generateRawPresence},
		Kind{Name: PresenceReceived, Bases: []Name{RawPresenceReceived}, Generate: generatePresence},
		Kind{Name: PresenceNotify, Bases: []Name{PresenceReceived}, Generate: generatePresenceNotify},
		Kind{Name: SubscribeRequest, Bases: []Name{PresenceReceived}, Generate: generateSubscribeRequest},
		Kind{Name: Subscribed, Bases: []Name{PresenceReceived}, Generate: generateSubscribed},
		Kind{Name: Unsubscribed, Bases: []Name{PresenceReceived}, Generate: generateUnsubscribed},
		Kind{Name: MessageReceived, Element: "message", Generate: generateMessage},
		Kind{Name: MessageError, Element: "message", Generate: generateMessageError},
	)
}
