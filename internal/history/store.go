// Package history is the append-only per-contact conversation log. Each
// line is "<unix time>:<kind>:<text>"; readers address lines by their
// 1-based position in a contact's log.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrPersistence = errors.New("history store failure")

// Line is one parsed log entry. Rest holds every field after the kind;
// text containing ':' therefore spans several fields.
type Line struct {
	Number int      `json:"number"`
	Time   string   `json:"time"`
	Kind   string   `json:"kind"`
	Rest   []string `json:"rest"`
}

// Text rejoins the free-form fields.
func (l Line) Text() string {
	return strings.Join(l.Rest, ":")
}

// ParseLine splits a raw line. Lines with fewer than three fields are not
// valid entries.
func ParseLine(number int, raw string) (Line, bool) {
	fields := strings.Split(strings.TrimRight(raw, "\n"), ":")
	if len(fields) <= 2 {
		return Line{}, false
	}
	return Line{Number: number, Time: fields[0], Kind: fields[1], Rest: fields[2:]}, true
}

// FormatLine renders an entry in the on-disk line format.
func FormatLine(at time.Time, kind, text string) string {
	text = strings.ReplaceAll(text, "\n", "\\n")
	return strconv.FormatInt(at.Unix(), 10) + ":" + kind + ":" + text
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the timestamp source used by Append.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) Append(ctx context.Context, account, jid, kind, text string) error {
	at := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_lines (account, jid, line, created_at) VALUES (?, ?, ?, ?)
	`, account, jid, FormatLine(at, kind, text), at.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append %s: %w: %v", jid, ErrPersistence, err)
	}
	return nil
}

// AppendRaw stores a line verbatim.
func (s *Store) AppendRaw(ctx context.Context, account, jid, line string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_lines (account, jid, line, created_at) VALUES (?, ?, ?, ?)
	`, account, jid, line, s.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append %s: %w: %v", jid, ErrPersistence, err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, account, jid string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_lines WHERE account = ? AND jid = ?`, account, jid).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w: %v", jid, ErrPersistence, err)
	}
	return n, nil
}

// Range returns the valid lines numbered start+1 through end. Malformed
// lines inside the range are skipped but still consume their number.
func (s *Store) Range(ctx context.Context, account, jid string, start, end int) ([]Line, error) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT line FROM history_lines WHERE account = ? AND jid = ? ORDER BY id LIMIT ? OFFSET ?
	`, account, jid, end-start, start)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w: %v", jid, ErrPersistence, err)
	}
	defer rows.Close()

	var out []Line
	nb := start
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w: %v", jid, ErrPersistence, err)
		}
		nb++
		if line, ok := ParseLine(nb, raw); ok {
			out = append(out, line)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w: %v", jid, ErrPersistence, err)
	}
	return out, nil
}
