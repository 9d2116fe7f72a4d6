package state

// migrations are applied in order; PRAGMA user_version records how many ran.
// Append new steps, never edit old ones.
var migrations = []string{
	// 1: per-contact history log.
	`
CREATE TABLE history_lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  account TEXT NOT NULL,
  jid TEXT NOT NULL,
  line TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX idx_history_lines_account_jid ON history_lines(account, jid, id);
`,
	// 2: broadcast journal.
	`
CREATE TABLE events (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  account TEXT NOT NULL,
  payload TEXT,
  created_at TEXT NOT NULL
);
CREATE INDEX idx_events_name_account_created ON events(name, account, created_at);
`,
	// 3: roster cache, announced through the roster ver attribute.
	`
CREATE TABLE roster_versions (
  account TEXT PRIMARY KEY,
  version TEXT,
  updated_at TEXT NOT NULL
);
CREATE TABLE roster_items (
  account TEXT NOT NULL,
  jid TEXT NOT NULL,
  name TEXT,
  subscription TEXT,
  ask TEXT,
  groups TEXT,
  PRIMARY KEY (account, jid)
);
`,
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int {
	return len(migrations)
}
