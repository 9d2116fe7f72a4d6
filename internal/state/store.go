package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flitsinc/go-jabber/internal/account"
)

// Store caches each account's roster between runs so a roster fetch can
// announce the version we already hold.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type CachedRoster struct {
	Version   string
	Items     map[string]account.RosterItem
	UpdatedAt time.Time
}

// SaveRoster replaces the cached roster of acct.
func (s *Store) SaveRoster(ctx context.Context, acct, version string, items map[string]account.RosterItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_items WHERE account = ?`, acct); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	for jid, item := range items {
		groupsJSON, err := encodeGroups(item.Groups)
		if err != nil {
			return fmt.Errorf("encode groups: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO roster_items (account, jid, name, subscription, ask, groups)
			VALUES (?, ?, ?, ?, ?, ?)
		`, acct, jid, nullable(item.Name), nullable(item.Subscription), nullable(item.Ask), groupsJSON)
		if err != nil {
			return fmt.Errorf("insert roster item: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO roster_versions (account, version, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET version = excluded.version, updated_at = excluded.updated_at
	`, acct, nullable(version), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store roster version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster: %w", err)
	}
	return nil
}

// LoadRoster returns the cached roster of acct; an account never saved
// yields an empty roster and no error.
func (s *Store) LoadRoster(ctx context.Context, acct string) (CachedRoster, error) {
	out := CachedRoster{Items: map[string]account.RosterItem{}}

	var version sql.NullString
	var updatedAtStr string
	err := s.db.QueryRowContext(ctx, `SELECT version, updated_at FROM roster_versions WHERE account = ?`, acct).Scan(&version, &updatedAtStr)
	if err == sql.ErrNoRows {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("load roster version: %w", err)
	}
	out.Version = version.String
	out.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAtStr)

	rows, err := s.db.QueryContext(ctx, `SELECT jid, name, subscription, ask, groups FROM roster_items WHERE account = ? ORDER BY jid`, acct)
	if err != nil {
		return out, fmt.Errorf("list roster items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item account.RosterItem
		var name, sub, ask, groups sql.NullString
		if err := rows.Scan(&item.JID, &name, &sub, &ask, &groups); err != nil {
			return out, fmt.Errorf("scan roster item: %w", err)
		}
		item.Name = name.String
		item.Subscription = sub.String
		item.Ask = ask.String
		item.Groups = decodeGroups(groups.String)
		out.Items[item.JID] = item
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate roster items: %w", err)
	}
	return out, nil
}
