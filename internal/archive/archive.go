// Package archive packs a contact's history into gzip-compressed JSON lines
// and ships it to a sink: a local file or an S3 bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/flitsinc/go-jabber/internal/history"
)

// Record is one exported history line.
type Record struct {
	Account string `json:"account"`
	JID     string `json:"jid"`
	Number  int    `json:"number"`
	Time    string `json:"time"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
}

// Encode writes lines as JSONL and gzips the result.
func Encode(account, jid string, lines []history.Line) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	enc := json.NewEncoder(gz)
	for _, l := range lines {
		rec := Record{Account: account, JID: jid, Number: l.Number, Time: l.Time, Kind: l.Kind, Text: l.Text()}
		if err := enc.Encode(rec); err != nil {
			_ = gz.Close()
			return nil, fmt.Errorf("encode line %d: %w", l.Number, err)
		}
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) ([]Record, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()
	dec := json.NewDecoder(gz)
	var out []Record
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Key names an export object: <prefix>/<account>/<jid>/<unix>.jsonl.gz.
func Key(prefix, account, jid string, at time.Time) string {
	parts := []string{account, sanitize(jid), fmt.Sprintf("%d.jsonl.gz", at.Unix())}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append([]string{p}, parts...)
	}
	return strings.Join(parts, "/")
}

func sanitize(jid string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(jid)
}

type Sink interface {
	Put(ctx context.Context, key string, body []byte) error
}

// DirSink stores objects under a local directory.
type DirSink struct {
	Dir string
}

func (d DirSink) Put(_ context.Context, key string, body []byte) error {
	path := filepath.Join(d.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// HistoryReader is the part of the history store an export needs.
type HistoryReader interface {
	Count(ctx context.Context, account, jid string) (int, error)
	Range(ctx context.Context, account, jid string, start, end int) ([]history.Line, error)
}

// Export reads the full log of jid and writes it to sink. It returns the key
// used and the number of lines exported.
func Export(ctx context.Context, h HistoryReader, sink Sink, prefix, account, jid string, at time.Time) (string, int, error) {
	n, err := h.Count(ctx, account, jid)
	if err != nil {
		return "", 0, err
	}
	lines, err := h.Range(ctx, account, jid, 0, n)
	if err != nil {
		return "", 0, err
	}
	body, err := Encode(account, jid, lines)
	if err != nil {
		return "", 0, err
	}
	key := Key(prefix, account, jid, at)
	if err := sink.Put(ctx, key, body); err != nil {
		return "", 0, err
	}
	return key, len(lines), nil
}
