// Package hub connects presentation components to the core loop: a FIFO
// command queue in one direction and an interest-filtered broadcast in the
// other.
package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/flitsinc/go-jabber/internal/metrics"
)

type Hub struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
	journal *Journal
	now     func() time.Time

	qmu   sync.Mutex
	queue []Command

	mu       sync.RWMutex
	handlers map[string]*registration
	order    []string
	streams  map[string]*stream
}

type registration struct {
	names   map[string]struct{}
	handler Handler
}

type stream struct {
	names map[string]struct{}
	ch    chan Message
}

type Option func(*Hub)

func WithLogger(log zerolog.Logger) Option {
	return func(h *Hub) {
		h.log = log.With().Str("component", "hub").Logger()
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithJournal persists every broadcast.
func WithJournal(j *Journal) Option {
	return func(h *Hub) {
		h.journal = j
	}
}

func WithClock(nowFn func() time.Time) Option {
	return func(h *Hub) {
		if nowFn != nil {
			h.now = nowFn
		}
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		handlers: map[string]*registration{},
		streams:  map[string]*stream{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Enqueue appends a command and never blocks. The command gets an id and a
// creation time when it has none.
func (h *Hub) Enqueue(cmd Command) Command {
	if cmd.ID == "" {
		cmd.ID = ulid.Make().String()
	}
	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = h.now()
	}
	h.qmu.Lock()
	h.queue = append(h.queue, cmd)
	depth := len(h.queue)
	h.qmu.Unlock()
	h.metrics.SetQueueDepth(depth)
	return cmd
}

// Next pops the oldest command.
func (h *Hub) Next() (Command, bool) {
	h.qmu.Lock()
	if len(h.queue) == 0 {
		h.qmu.Unlock()
		return Command{}, false
	}
	cmd := h.queue[0]
	h.queue[0] = Command{}
	h.queue = h.queue[1:]
	depth := len(h.queue)
	h.qmu.Unlock()
	h.metrics.SetQueueDepth(depth)
	return cmd, true
}

func (h *Hub) Len() int {
	h.qmu.Lock()
	defer h.qmu.Unlock()
	return len(h.queue)
}

// Register installs handler for subscriber under an explicit interest list.
// Registering the same subscriber again replaces its list; a nil handler
// keeps the previous one.
func (h *Hub) Register(subscriber string, names []string, handler Handler) error {
	if subscriber == "" {
		return fmt.Errorf("register: subscriber is required")
	}
	set := nameSet(names)
	h.mu.Lock()
	defer h.mu.Unlock()
	reg, exists := h.handlers[subscriber]
	if !exists {
		if handler == nil {
			return fmt.Errorf("register %s: handler is required", subscriber)
		}
		reg = &registration{}
		h.handlers[subscriber] = reg
		h.order = append(h.order, subscriber)
	}
	reg.names = set
	if handler != nil {
		reg.handler = handler
	}
	return nil
}

func (h *Hub) Unregister(subscriber string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handlers[subscriber]; !ok {
		return
	}
	delete(h.handlers, subscriber)
	for i, s := range h.order {
		if s == subscriber {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Interests returns the names subscriber registered for.
func (h *Hub) Interests(subscriber string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	reg, ok := h.handlers[subscriber]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(reg.names))
	for n := range reg.names {
		out = append(out, n)
	}
	return out
}

// Subscribe returns a channel that receives a copy of every matching
// broadcast until ctx is done. An empty names list matches everything.
// Copies are dropped when the reader falls behind.
func (h *Hub) Subscribe(ctx context.Context, names []string) <-chan Message {
	ch := make(chan Message, 64)
	id := ulid.Make().String()

	h.mu.Lock()
	h.streams[id] = &stream{names: nameSet(names), ch: ch}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.streams, id)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers) + len(h.streams)
}

// Broadcast delivers synchronously to every registered handler interested in
// name, in registration order. A panicking handler is logged and skipped.
func (h *Hub) Broadcast(name, account string, data any) Message {
	msg := Message{
		ID:        ulid.Make().String(),
		Name:      name,
		Account:   account,
		Data:      data,
		CreatedAt: h.now(),
	}
	h.metrics.Broadcast(name)

	if h.journal != nil {
		if err := h.journal.Record(context.Background(), msg); err != nil {
			h.log.Error().Err(err).Str("event", name).Msg("journal broadcast")
		}
	}

	h.mu.RLock()
	targets := make([]Handler, 0, len(h.order))
	subscribers := make([]string, 0, len(h.order))
	for _, s := range h.order {
		reg := h.handlers[s]
		if _, ok := reg.names[name]; ok {
			targets = append(targets, reg.handler)
			subscribers = append(subscribers, s)
		}
	}
	for _, st := range h.streams {
		if len(st.names) > 0 {
			if _, ok := st.names[name]; !ok {
				continue
			}
		}
		select {
		case st.ch <- msg:
		default:
			h.metrics.StreamDrop()
		}
	}
	h.mu.RUnlock()

	for i, handler := range targets {
		h.deliver(subscribers[i], handler, msg)
	}
	return msg
}

func (h *Hub) deliver(subscriber string, handler Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.Panic("handler")
			h.log.Error().
				Str("subscriber", subscriber).
				Str("event", msg.Name).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber failed")
		}
	}()
	handler(msg)
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
