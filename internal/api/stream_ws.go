package api

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"

	"github.com/flitsinc/go-jabber/internal/hub"
)

type wsWriter interface {
	Write(ctx context.Context, msgType websocket.MessageType, data []byte) error
}

type wsReader interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
}

// handleStreamWS is the two-way surface: broadcasts matching ?names= go out
// as text frames, and every CommandRequest the client writes is queued.
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		writeError(w, http.StatusInternalServerError, errNotFound("hub"))
		return
	}
	names := splitComma(r.URL.Query().Get("names"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		_ = readCommands(ctx, s.Hub, conn)
	}()

	if err := streamMessages(ctx, s.Hub, names, conn); err != nil && ctx.Err() == nil {
		_ = conn.Close(websocket.StatusInternalError, "stream error")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "done")
}

func streamMessages(ctx context.Context, h *hub.Hub, names []string, writer wsWriter) error {
	sub := h.Subscribe(ctx, names)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if err := writer.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		}
	}
}

// readCommands queues commands until the socket fails. Frames that do not
// decode into a valid command are skipped.
func readCommands(ctx context.Context, h *hub.Hub, reader wsReader) error {
	for {
		_, data, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		var req CommandRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		cmd, err := req.command()
		if err != nil {
			continue
		}
		h.Enqueue(cmd)
	}
}
