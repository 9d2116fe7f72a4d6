package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/flitsinc/go-jabber/internal/hub"
	"github.com/flitsinc/go-jabber/internal/metrics"
)

// Server is the HTTP face of the hub: presentation components enqueue
// commands here and follow broadcasts over SSE or a websocket.
type Server struct {
	Hub       *hub.Hub
	Journal   *hub.Journal
	Metrics   *metrics.Metrics
	StartedAt time.Time
	Info      DiagnosticsInfo
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/commands", s.handleCommands)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/streams/subscribe", s.handleStreamSubscribe)
	mux.HandleFunc("/api/streams/ws", s.handleStreamWS)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics.Handler())
	}

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

// CommandRequest is the wire form of a hub command.
type CommandRequest struct {
	Verb    hub.Verb        `json:"verb"`
	Account string          `json:"account,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req CommandRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmd, err := req.command()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.Hub.Enqueue(cmd))
}

func (req CommandRequest) command() (hub.Command, error) {
	if strings.TrimSpace(string(req.Verb)) == "" {
		return hub.Command{}, errRequired("verb")
	}
	if req.Verb == hub.VerbRegisterInterest {
		return hub.Command{}, errLocalOnly
	}
	payload, err := hub.DecodePayload(req.Verb, req.Payload)
	if err != nil {
		return hub.Command{}, err
	}
	return hub.Command{Verb: req.Verb, Account: req.Account, Payload: payload}, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if s.Journal == nil {
		writeError(w, http.StatusNotImplemented, errNotFound("journal"))
		return
	}
	q := r.URL.Query()
	items, err := s.Journal.List(r.Context(), hub.ListOptions{
		Name:    q.Get("name"),
		Account: q.Get("account"),
		Limit:   parseInt(q.Get("limit"), 50),
		Order:   q.Get("order"),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStreamSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	names := splitComma(r.URL.Query().Get("names"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errNotFound("streaming support"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	_, _ = w.Write([]byte(":ok\n\n"))
	flusher.Flush()

	ctx := r.Context()
	sub := s.Hub.Subscribe(ctx, names)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("event: " + msg.Name + "\ndata: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

func decodeJSON(body io.Reader, dest any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitComma(value string) []string {
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type notFoundError struct {
	msg string
}

func (e notFoundError) Error() string { return e.msg }

var errLocalOnly = fmt.Errorf("%w: register-interest needs an in-process handler, follow /api/streams/subscribe?names= or /api/streams/ws?names= instead", hub.ErrLocalVerb)

func errNotFound(target string) error {
	return notFoundError{msg: target + " not found"}
}

type requiredError string

func (e requiredError) Error() string { return string(e) + " is required" }

func errRequired(field string) error {
	return requiredError(field)
}
