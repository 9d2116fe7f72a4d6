package stanza

// Namespaces the core reads or writes.
const (
	NSClient        = "jabber:client"
	NSStreams       = "http://etherx.jabber.org/streams"
	NSStreamErrors  = "urn:ietf:params:xml:ns:xmpp-streams"
	NSStanzaErrors  = "urn:ietf:params:xml:ns:xmpp-stanzas"
	NSFraming       = "urn:ietf:params:xml:ns:xmpp-framing"
	NSSASL          = "urn:ietf:params:xml:ns:xmpp-sasl"
	NSBind          = "urn:ietf:params:xml:ns:xmpp-bind"
	NSRoster        = "jabber:iq:roster"
	NSVersion       = "jabber:iq:version"
	NSLast          = "jabber:iq:last"
	NSTimeLegacy    = "jabber:iq:time"
	NSTime          = "urn:xmpp:time"
	NSPing          = "urn:xmpp:ping"
	NSVCard         = "vcard-temp"
	NSVCardUpdate   = "vcard-temp:x:update"
	NSPrivate       = "jabber:iq:private"
	NSPubsub        = "http://jabber.org/protocol/pubsub"
	NSBookmarks     = "storage:bookmarks"
	NSRosterNotes   = "storage:rosternotes"
	NSSearch        = "jabber:iq:search"
	NSData          = "jabber:x:data"
	NSMUC           = "http://jabber.org/protocol/muc"
	NSMUCUser       = "http://jabber.org/protocol/muc#user"
	NSMUCAdmin      = "http://jabber.org/protocol/muc#admin"
	NSMUCOwner      = "http://jabber.org/protocol/muc#owner"
	NSRosterX       = "http://jabber.org/protocol/rosterx"
	NSHTTPAuth      = "http://jabber.org/protocol/http-auth"
	NSGmailNotify   = "google:mail:notify"
	NSDelay         = "urn:xmpp:delay"
	NSDelayLegacy   = "jabber:x:delay"
	NSRegister      = "jabber:iq:register"
	NSAgents        = "jabber:iq:agents"
	NSDiscoItems    = "http://jabber.org/protocol/disco#items"
	NSSessions      = "urn:xmpp:ssn"
	NSESession      = "http://www.xmpp.org/extensions/xep-0116.html#ns"
	NSRosterSubSync = "http://delx.cjb.net/protocol/roster-subsync"
	NSNick          = "http://jabber.org/protocol/nick"
	nsXML           = "http://www.w3.org/XML/1998/namespace"
)
