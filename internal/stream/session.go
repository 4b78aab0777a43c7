// internal/stream/session.go
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrStalled reports that the watchdog aborted a stream which stopped
// delivering events before its timeout.
var ErrStalled = errors.New("stream stalled before terminal event")

// Client opens generation streams against the storybuilder service.
// It enforces the single-active invariant: opening a new stream always
// stops the previous one first, so no two sessions can deliver tokens
// concurrently.
type Client struct {
	http  *http.Client
	stall time.Duration
	log   *zap.Logger

	mu     sync.Mutex
	active *Session
}

// Options configures a stream Client.
type Options struct {
	// StallTimeout aborts a session that delivers no event for this
	// long. Zero disables the watchdog and waits indefinitely.
	StallTimeout time.Duration
	Logger       *zap.Logger
}

// NewClient creates a stream client. Streams run until their terminal
// event, so the underlying HTTP client carries no overall timeout.
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		stall: opts.StallTimeout,
		log:   log,
	}
}

// Open starts a generation stream for the given SSE URL. Any active
// session is stopped before the new connection is dialed. regen marks
// a regeneration request, which may emit content immediately with no
// thinking marker, so the session starts in the emitting phase.
func (c *Client) Open(ctx context.Context, url string, regen bool) (*Session, error) {
	c.mu.Lock()
	if c.active != nil {
		c.active.Stop()
		c.active = nil
	}
	c.mu.Unlock()

	sctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(sctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream rejected: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s := &Session{
		ID:     uuid.NewString(),
		events: make(chan Event, 100),
		ctx:    sctx,
		cancel: cancel,
		log:    c.log,
		phase:  PhaseThinking,
	}
	if regen {
		s.phase = PhaseEmitting
	}

	c.mu.Lock()
	c.active = s
	c.mu.Unlock()

	c.log.Info("stream opened",
		zap.String("session", s.ID),
		zap.Bool("regen", regen))

	go s.read(resp.Body, c.stall)
	return s, nil
}

// StopActive stops the running session, if any.
func (c *Client) StopActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.Stop()
		c.active = nil
	}
}

// Session is one live generation stream. Normalized events arrive on a
// buffered channel consumed one at a time by the UI loop; the channel
// closes after a terminal event, a failure, or Stop.
type Session struct {
	// ID correlates log lines and UI messages with this session.
	ID string

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	mu     sync.Mutex
	phase  Phase
	closed bool
}

// Events returns the stream of normalized events.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Phase reports the current lifecycle stage.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Stop cancels the stream without waiting for a terminal event. Events
// still in the network buffer are discarded. Safe to call repeatedly
// and after the stream already finished.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.phase = PhaseIdle
	s.mu.Unlock()

	s.log.Info("stream stopped by user", zap.String("session", s.ID))
	s.cancel()
}

// read pumps wire events from the response body until a terminal event,
// an error, or cancellation. Runs in its own goroutine; the sole writer
// to the events channel.
func (s *Session) read(body io.ReadCloser, stall time.Duration) {
	defer close(s.events)
	defer s.cancel()
	defer body.Close()

	var stalled atomic.Bool
	var watchdog *time.Timer
	if stall > 0 {
		watchdog = time.AfterFunc(stall, func() {
			stalled.Store(true)
			s.cancel()
		})
		defer watchdog.Stop()
	}

	r := newSSEReader(body)
	for {
		ev, err := r.next()
		if err != nil {
			if s.stopped() {
				return
			}
			switch {
			case stalled.Load():
				s.fail(ErrStalled, true)
			case errors.Is(err, io.EOF):
				s.fail(errors.New("connection closed before terminal event"), false)
			default:
				s.fail(err, false)
			}
			return
		}
		if watchdog != nil {
			watchdog.Reset(stall)
		}
		if s.dispatch(ev) {
			return
		}
	}
}

// dispatch normalizes one wire event and delivers it. Returns true when
// the stream is finished and the reader must exit.
func (s *Session) dispatch(ev wireEvent) bool {
	switch ev.name {
	case "", "message":
		text, raw := decodeToken(ev.data)
		if raw {
			s.log.Debug("token payload not JSON, using raw text",
				zap.String("session", s.ID))
		}
		s.setPhase(PhaseEmitting)
		return !s.emit(Token{Text: text, Raw: raw})

	case "thinking":
		var payload struct {
			Thinking bool `json:"thinking"`
		}
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			// Decode failures on individual events never abort the stream.
			s.log.Warn("undecodable thinking event",
				zap.String("session", s.ID), zap.Error(err))
			return false
		}
		if payload.Thinking {
			s.setPhase(PhaseThinking)
		} else {
			s.setPhase(PhaseEmitting)
		}
		return !s.emit(Thinking{On: payload.Thinking})

	case "choices":
		opts, err := decodeChoices(ev.data)
		if err != nil {
			s.log.Warn("undecodable choices payload",
				zap.String("session", s.ID), zap.Error(err))
		}
		if !s.finish(PhaseDone) {
			return true
		}
		s.log.Info("stream complete",
			zap.String("session", s.ID), zap.Int("choices", len(opts)))
		s.send(Choices{Options: opts})
		return true

	case "done":
		conv := decodeDone(ev.data)
		if !s.finish(PhaseDone) {
			return true
		}
		s.log.Info("stream complete", zap.String("session", s.ID))
		s.send(Done{ConversationID: conv})
		return true

	case "error":
		msg := strings.TrimSpace(ev.data)
		if msg == "" {
			msg = "generation failed"
		}
		s.failWith(fmt.Errorf("server: %s", msg))
		return true

	default:
		s.log.Debug("ignoring unknown stream event",
			zap.String("session", s.ID), zap.String("event", ev.name))
		return false
	}
}

// emit delivers a non-terminal event unless the session was stopped.
// Returns false when the event was dropped because the session closed.
func (s *Session) emit(ev Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	return s.send(ev)
}

// send performs the channel delivery, abandoning it on cancellation so
// a stopped consumer cannot wedge the reader.
func (s *Session) send(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// finish claims the terminal transition. Returns false when the session
// was already stopped, in which case no terminal event is delivered.
func (s *Session) finish(p Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.phase = p
	return true
}

func (s *Session) fail(err error, stalled bool) {
	if !s.finish(PhaseErrored) {
		return
	}
	s.log.Error("stream failed",
		zap.String("session", s.ID),
		zap.Bool("stalled", stalled),
		zap.Error(err))
	s.send(Failure{Err: err, Stalled: stalled})
}

func (s *Session) failWith(err error) {
	s.fail(err, false)
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.phase = p
}

func (s *Session) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// decodeToken unwraps a JSON-encoded token payload. Falls back to the
// raw text for senders that emit unencoded fragments.
func decodeToken(data string) (string, bool) {
	var text string
	if err := json.Unmarshal([]byte(data), &text); err == nil {
		return text, false
	}
	return data, true
}

// decodeChoices accepts either a bare JSON array of choice strings or
// an object wrapping one under "choices".
func decodeChoices(data string) ([]string, error) {
	var opts []string
	if err := json.Unmarshal([]byte(data), &opts); err == nil {
		return opts, nil
	}
	var wrapped struct {
		Choices []string `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Choices, nil
}

// decodeDone extracts the conversation id from a done payload. Empty
// and non-JSON payloads are valid and yield no id.
func decodeDone(data string) string {
	var payload struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return ""
	}
	return payload.ConversationID
}
