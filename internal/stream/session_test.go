// internal/stream/session_test.go
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ssePlayer writes scripted SSE frames from a test handler.
type ssePlayer struct {
	w http.ResponseWriter
	f http.Flusher
}

func (p *ssePlayer) raw(s string) {
	io.WriteString(p.w, s)
	p.f.Flush()
}

// token emits an unnamed message event with a JSON-encoded payload.
func (p *ssePlayer) token(text string) {
	b, _ := json.Marshal(text)
	p.raw("data: " + string(b) + "\n\n")
}

func (p *ssePlayer) event(name, data string) {
	p.raw("event: " + name + "\ndata: " + data + "\n\n")
}

func newSSETestServer(t *testing.T, script func(p *ssePlayer, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		f.Flush()
		script(&ssePlayer{w: w, f: f}, r)
	}))
}

// collect drains the session until its channel closes.
func collect(t *testing.T, s *Session) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for stream close, got %d events", len(events))
		}
	}
}

func TestTokenOrderAndChoicesTerminal(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("Once")
		p.token(" upon")
		p.token(" a time")
		p.event("choices", `["Go left","Go right"]`)
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %#v", len(events), events)
	}

	var text strings.Builder
	for _, ev := range events[:3] {
		tok, ok := ev.(Token)
		if !ok {
			t.Fatalf("event = %T, want Token", ev)
		}
		if tok.Raw {
			t.Error("JSON-encoded token reported as raw")
		}
		text.WriteString(tok.Text)
	}
	if text.String() != "Once upon a time" {
		t.Errorf("concatenated text = %q, want %q", text.String(), "Once upon a time")
	}

	ch, ok := events[3].(Choices)
	if !ok {
		t.Fatalf("terminal event = %T, want Choices", events[3])
	}
	if len(ch.Options) != 2 || ch.Options[0] != "Go left" || ch.Options[1] != "Go right" {
		t.Errorf("options = %v", ch.Options)
	}

	if s.Phase() != PhaseDone {
		t.Errorf("phase = %v, want done", s.Phase())
	}
}

func TestRawTokenFallback(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.raw("data: plain text token\n\n")
		p.event("choices", `[]`)
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	tok, ok := events[0].(Token)
	if !ok {
		t.Fatalf("event = %T, want Token", events[0])
	}
	if !tok.Raw {
		t.Error("non-JSON payload not flagged as raw")
	}
	if tok.Text != "plain text token" {
		t.Errorf("text = %q, want raw payload", tok.Text)
	}
}

func TestThinkingSequence(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.event("thinking", `{"thinking": true}`)
		p.token("reasoning...")
		p.event("thinking", `{"thinking": false}`)
		p.token("Hello")
		p.event("choices", `["Onward"]`)
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	wantKinds := []string{"thinking", "token", "thinking", "token", "choices"}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %#v", len(events), len(wantKinds), events)
	}
	for i, kind := range wantKinds {
		if events[i].Kind() != kind {
			t.Errorf("event[%d].Kind() = %q, want %q", i, events[i].Kind(), kind)
		}
	}

	first, _ := events[0].(Thinking)
	if !first.On {
		t.Error("first thinking event should be on")
	}
	second, _ := events[2].(Thinking)
	if second.On {
		t.Error("second thinking event should be off")
	}
}

func TestMalformedThinkingRecovered(t *testing.T) {
	// Decode failures on individual events are logged and skipped,
	// never aborting the stream.
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.event("thinking", `not json at all`)
		p.token("still going")
		p.event("choices", `[]`)
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 2 {
		t.Fatalf("got %d events, want token+choices only: %#v", len(events), events)
	}
	if events[0].Kind() != "token" || events[1].Kind() != "choices" {
		t.Errorf("kinds = %q, %q", events[0].Kind(), events[1].Kind())
	}
	if s.Phase() != PhaseDone {
		t.Errorf("phase = %v, want done", s.Phase())
	}
}

func TestServerErrorEvent(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("partial")
		p.event("error", "model exploded")
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	fail, ok := events[1].(Failure)
	if !ok {
		t.Fatalf("event = %T, want Failure", events[1])
	}
	if !strings.Contains(fail.Err.Error(), "model exploded") {
		t.Errorf("error = %v, want server message", fail.Err)
	}
	if fail.Stalled {
		t.Error("server error flagged as stall")
	}
	if s.Phase() != PhaseErrored {
		t.Errorf("phase = %v, want errored", s.Phase())
	}
}

func TestDoneTerminal(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantConv string
	}{
		{"with conversation id", `{"conversation_id": "abc-123"}`, "abc-123"},
		{"empty payload", ``, ""},
		{"raw payload", `finished`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
				p.token("chat reply")
				p.event("done", tt.payload)
			})
			defer srv.Close()

			c := NewClient(Options{})
			s, err := c.Open(context.Background(), srv.URL, false)
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}

			events := collect(t, s)
			if len(events) != 2 {
				t.Fatalf("got %d events, want 2", len(events))
			}
			done, ok := events[1].(Done)
			if !ok {
				t.Fatalf("event = %T, want Done", events[1])
			}
			if done.ConversationID != tt.wantConv {
				t.Errorf("conversation id = %q, want %q", done.ConversationID, tt.wantConv)
			}
		})
	}
}

func TestStopDiscardsLateEvents(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("first")
		<-r.Context().Done()
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	select {
	case ev := <-s.Events():
		tok, ok := ev.(Token)
		if !ok || tok.Text != "first" {
			t.Fatalf("first event = %#v, want Token(first)", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first token")
	}

	s.Stop()
	s.Stop() // repeated stop is safe

	// No terminal and no further tokens arrive after Stop.
	for ev := range s.Events() {
		t.Errorf("unexpected event after Stop: %#v", ev)
	}
	if s.Phase().Active() {
		t.Errorf("phase = %v after Stop, want inactive", s.Phase())
	}
}

func TestStallWatchdog(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		<-r.Context().Done()
	})
	defer srv.Close()

	c := NewClient(Options{StallTimeout: 50 * time.Millisecond})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	fail, ok := events[0].(Failure)
	if !ok {
		t.Fatalf("event = %T, want Failure", events[0])
	}
	if !fail.Stalled {
		t.Error("watchdog failure not flagged as stalled")
	}
	if !errors.Is(fail.Err, ErrStalled) {
		t.Errorf("error = %v, want ErrStalled", fail.Err)
	}
}

func TestEOFWithoutTerminal(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("cut off")
	})
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 2 {
		t.Fatalf("got %d events, want token+failure: %#v", len(events), events)
	}
	if _, ok := events[1].(Failure); !ok {
		t.Fatalf("event = %T, want Failure", events[1])
	}
	if s.Phase() != PhaseErrored {
		t.Errorf("phase = %v, want errored", s.Phase())
	}
}

func TestOpenStopsPriorSession(t *testing.T) {
	blocking := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("from A")
		<-r.Context().Done()
	})
	defer blocking.Close()

	finishing := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("from B")
		p.event("choices", `["next"]`)
	})
	defer finishing.Close()

	c := NewClient(Options{})
	a, err := c.Open(context.Background(), blocking.URL, false)
	if err != nil {
		t.Fatalf("Open(A) failed: %v", err)
	}
	<-a.Events() // first token from A

	b, err := c.Open(context.Background(), finishing.URL, false)
	if err != nil {
		t.Fatalf("Open(B) failed: %v", err)
	}

	// A must be closed with no terminal; its remaining events drain to
	// channel close without any interleaved delivery.
	for ev := range a.Events() {
		t.Errorf("event from replaced session: %#v", ev)
	}
	if a.Phase().Active() {
		t.Errorf("replaced session phase = %v, want inactive", a.Phase())
	}

	events := collect(t, b)
	if len(events) != 2 {
		t.Fatalf("got %d events from B, want 2", len(events))
	}
	if b.Phase() != PhaseDone {
		t.Errorf("B phase = %v, want done", b.Phase())
	}
}

func TestStopActive(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		p.token("going")
		<-r.Context().Done()
	})
	defer srv.Close()

	c := NewClient(Options{})
	c.StopActive() // nothing active, no-op

	s, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	<-s.Events()

	c.StopActive()
	for ev := range s.Events() {
		t.Errorf("unexpected event after StopActive: %#v", ev)
	}
}

func TestOpenRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"book not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	s, err := c.Open(context.Background(), srv.URL, false)
	if err == nil {
		s.Stop()
		t.Fatal("Open() succeeded on HTTP 404, want error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestInitialPhase(t *testing.T) {
	srv := newSSETestServer(t, func(p *ssePlayer, r *http.Request) {
		<-r.Context().Done()
	})
	defer srv.Close()

	c := NewClient(Options{})

	fresh, err := c.Open(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if fresh.Phase() != PhaseThinking {
		t.Errorf("fresh phase = %v, want thinking", fresh.Phase())
	}
	fresh.Stop()

	regen, err := c.Open(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("Open(regen) failed: %v", err)
	}
	if regen.Phase() != PhaseEmitting {
		t.Errorf("regen phase = %v, want emitting", regen.Phase())
	}
	regen.Stop()
}

func TestDecodeToken(t *testing.T) {
	tests := []struct {
		input    string
		wantText string
		wantRaw  bool
	}{
		{`"encoded"`, "encoded", false},
		{`"with\nnewline"`, "with\nnewline", false},
		{`""`, "", false},
		{`plain`, "plain", true},
		{`{"not":"a string"}`, `{"not":"a string"}`, true},
	}

	for _, tt := range tests {
		text, raw := decodeToken(tt.input)
		if text != tt.wantText || raw != tt.wantRaw {
			t.Errorf("decodeToken(%q) = (%q, %v), want (%q, %v)",
				tt.input, text, raw, tt.wantText, tt.wantRaw)
		}
	}
}

func TestDecodeChoices(t *testing.T) {
	opts, err := decodeChoices(`["a","b","c"]`)
	if err != nil {
		t.Fatalf("decodeChoices(array) failed: %v", err)
	}
	if len(opts) != 3 {
		t.Errorf("got %d options, want 3", len(opts))
	}

	opts, err = decodeChoices(`{"choices":["x"]}`)
	if err != nil {
		t.Fatalf("decodeChoices(object) failed: %v", err)
	}
	if len(opts) != 1 || opts[0] != "x" {
		t.Errorf("options = %v, want [x]", opts)
	}

	if _, err = decodeChoices(`garbage`); err == nil {
		t.Error("decodeChoices(garbage) succeeded, want error")
	}
}
