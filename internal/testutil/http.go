package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

type inProcess struct {
	handler http.Handler
}

func (rt inProcess) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	rt.handler.ServeHTTP(rec, req)
	res := rec.Result()
	res.Request = req
	return res, nil
}

// NewInProcessClient sends every request straight to handler.
func NewInProcessClient(handler http.Handler) *http.Client {
	return &http.Client{Transport: inProcess{handler: handler}}
}

// SSEFrame is one server-sent event.
type SSEFrame struct {
	Event string
	Data  string
}

// SSERecorder is a flushing ResponseWriter that splits what is written into
// server-sent event frames. Comment-only frames are dropped.
type SSERecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	buf    bytes.Buffer
	frames chan SSEFrame
}

func NewSSERecorder() *SSERecorder {
	return &SSERecorder{header: make(http.Header), code: http.StatusOK, frames: make(chan SSEFrame, 64)}
}

func (r *SSERecorder) Header() http.Header {
	return r.header
}

func (r *SSERecorder) WriteHeader(code int) {
	r.mu.Lock()
	r.code = code
	r.mu.Unlock()
}

func (r *SSERecorder) Code() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

func (r *SSERecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Write(p)
	for {
		raw, rest, ok := strings.Cut(r.buf.String(), "\n\n")
		if !ok {
			break
		}
		r.buf.Reset()
		r.buf.WriteString(rest)
		if frame, ok := parseFrame(raw); ok {
			select {
			case r.frames <- frame:
			default:
			}
		}
	}
	return len(p), nil
}

func (r *SSERecorder) Flush() {}

// Next waits up to timeout for the next frame.
func (r *SSERecorder) Next(timeout time.Duration) (SSEFrame, bool) {
	select {
	case f := <-r.frames:
		return f, true
	case <-time.After(timeout):
		return SSEFrame{}, false
	}
}

func parseFrame(raw string) (SSEFrame, bool) {
	var f SSEFrame
	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			f.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			f.Data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	return f, f.Event != "" || f.Data != ""
}
