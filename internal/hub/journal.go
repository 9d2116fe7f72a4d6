package hub

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Journal keeps every broadcast in the events table so surfaces that
// connect late can page through what happened.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

type ListOptions struct {
	Name    string
	Account string
	Limit   int
	// Order is "fifo" or "lifo" (default).
	Order string
}

// Entry is a journaled broadcast; Data is the decoded JSON payload.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Account   string    `json:"account,omitempty"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (j *Journal) Record(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Name) == "" {
		return fmt.Errorf("name is required")
	}
	payload, err := encodeJSON(msg.Data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events (id, name, account, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.Name, msg.Account, payload, msg.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	orderBy := "created_at DESC, id DESC"
	if strings.ToLower(opts.Order) == "fifo" {
		orderBy = "created_at ASC, id ASC"
	}

	var where []string
	var args []any
	if opts.Name != "" {
		where = append(where, "name = ?")
		args = append(args, opts.Name)
	}
	if opts.Account != "" {
		where = append(where, "account = ?")
		args = append(args, opts.Account)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	query := fmt.Sprintf(`SELECT id, name, account, payload, created_at FROM events %s ORDER BY %s LIMIT ?`, clause, orderBy)
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var payload sql.NullString
		var createdAtStr string
		if err := rows.Scan(&e.ID, &e.Name, &e.Account, &payload, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
		e.Data = decodeJSON(payload.String)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeJSON(v string) any {
	if v == "" {
		return nil
	}
	var out any
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil
	}
	return out
}
