package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flitsinc/go-jabber/internal/testutil"
)

func TestQueueIsFIFO(t *testing.T) {
	h := New()
	h.Enqueue(Command{Verb: VerbStatus, Account: "work"})
	h.Enqueue(Command{Verb: VerbSendMessage, Account: "work"})
	if h.Len() != 2 {
		t.Fatalf("expected 2 queued, got %d", h.Len())
	}

	first, ok := h.Next()
	if !ok || first.Verb != VerbStatus {
		t.Fatalf("expected status first, got %+v", first)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned")
	}
	second, _ := h.Next()
	if second.Verb != VerbSendMessage {
		t.Fatalf("expected send-message second, got %s", second.Verb)
	}
	if _, ok := h.Next(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestBroadcastHonoursInterestLists(t *testing.T) {
	h := New()
	var gotA, gotB []string
	if err := h.Register("a", []string{"status"}, func(m Message) { gotA = append(gotA, m.Name) }); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := h.Register("b", []string{"status", "roster"}, func(m Message) { gotB = append(gotB, m.Name) }); err != nil {
		t.Fatalf("register b: %v", err)
	}

	h.Broadcast("status", "work", "online")
	h.Broadcast("roster", "work", nil)
	h.Broadcast("quit", "", nil)

	if len(gotA) != 1 || gotA[0] != "status" {
		t.Fatalf("unexpected deliveries to a: %v", gotA)
	}
	if len(gotB) != 2 {
		t.Fatalf("unexpected deliveries to b: %v", gotB)
	}
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	h := New()
	delivered := false
	_ = h.Register("broken", []string{"status"}, func(Message) { panic("boom") })
	_ = h.Register("ok", []string{"status"}, func(Message) { delivered = true })

	h.Broadcast("status", "work", "online")
	if !delivered {
		t.Fatalf("expected delivery after a panicking subscriber")
	}
}

func TestReRegisterReplacesInterests(t *testing.T) {
	h := New()
	count := 0
	_ = h.Register("ui", []string{"status"}, func(Message) { count++ })
	if err := h.Register("ui", []string{"roster"}, nil); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	h.Broadcast("status", "work", nil)
	h.Broadcast("roster", "work", nil)
	if count != 1 {
		t.Fatalf("expected only roster delivery, got %d", count)
	}
	if err := h.Register("new", []string{"status"}, nil); err == nil {
		t.Fatalf("expected error registering without handler")
	}
}

func TestSubscribeStream(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, []string{"message-received"})

	h.Broadcast("status", "work", nil)
	h.Broadcast("message-received", "work", map[string]string{"body": "hi"})

	select {
	case msg := <-ch:
		if msg.Name != "message-received" {
			t.Fatalf("unexpected message %s", msg.Name)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast")
	}

	cancel()
	for range ch {
	}
}

func TestJournalRecordsBroadcasts(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	journal := NewJournal(db)
	h := New(WithJournal(journal))
	first := h.Broadcast("status", "work", "online")
	h.Broadcast("status", "home", "away")
	h.Broadcast("warning", "", "cannot connect")

	items, err := journal.List(context.Background(), ListOptions{Name: "status", Order: "fifo"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 status entries, got %d", len(items))
	}
	if items[0].ID != first.ID || items[0].Data != "online" {
		t.Fatalf("unexpected first entry %+v", items[0])
	}

	items, err = journal.List(context.Background(), ListOptions{Account: "home"})
	if err != nil {
		t.Fatalf("list by account: %v", err)
	}
	if len(items) != 1 || items[0].Data != "away" {
		t.Fatalf("unexpected account filter result %+v", items)
	}
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload(VerbFetchLogRange, []byte(`{"jid":"alice@example.com","start":2,"end":5}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, ok := p.(LogRangePayload)
	if !ok || r.Start != 2 || r.End != 5 {
		t.Fatalf("unexpected payload %#v", p)
	}
	if _, err := DecodePayload("bogus", nil); err == nil {
		t.Fatalf("expected unknown verb error")
	}
}

func TestDecodeAgentVerbsKeepType(t *testing.T) {
	for _, verb := range []Verb{VerbUnsubscribeAgent, VerbRequestAgentInfo, VerbAgentLogging} {
		p, err := DecodePayload(verb, []byte(`{"jid":"icq.example.com","type":"available"}`))
		if err != nil {
			t.Fatalf("%s: %v", verb, err)
		}
		a, ok := p.(AgentPayload)
		if !ok || a.JID != "icq.example.com" {
			t.Fatalf("%s: unexpected payload %#v", verb, p)
		}
	}
}

func TestDecodeRejectsRegisterInterest(t *testing.T) {
	_, err := DecodePayload(VerbRegisterInterest, []byte(`{"subscriber":"ui","names":["status"]}`))
	if !errors.Is(err, ErrLocalVerb) {
		t.Fatalf("expected ErrLocalVerb, got %v", err)
	}
}
