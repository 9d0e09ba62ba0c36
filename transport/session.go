package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	cerrors "chat-sync/errors"
)

// sessionKey identifies one logical session. Reconnecting with an
// unchanged key is not observable as a new session.
type sessionKey struct {
	endpoint string
	identity string
	demo     bool
}

// Session owns the single realtime connection. It dials, re-dials with
// capped backoff forever, translates frames into typed events, and
// exposes a fire-and-forget Send. There are never two live sessions:
// a changed key tears the previous one down first.
type Session struct {
	log    *slog.Logger
	sink   contract.EventSink
	dialer *websocket.Dialer

	mu      sync.Mutex
	key     sessionKey
	conn    *websocket.Conn
	state   domain.ConnState
	backoff *Backoff
	cancel  context.CancelFunc
	active  string

	backoffBase    time.Duration
	backoffCeiling time.Duration
}

func NewSession(log *slog.Logger, backoffBase, backoffCeiling time.Duration) *Session {
	return &Session{
		log:            log,
		dialer:         websocket.DefaultDialer,
		state:          domain.StateDisconnected,
		backoffBase:    backoffBase,
		backoffCeiling: backoffCeiling,
	}
}

// BindSink attaches the consumer of inbound events. It must be called
// once, before Connect.
func (s *Session) BindSink(sink contract.EventSink) {
	s.sink = sink
}

// Connect establishes (or re-establishes) the logical session. Calling it
// again with the same endpoint, identity, and demo flag is a no-op; any
// change shuts the previous session down completely before dialing.
func (s *Session) Connect(ctx context.Context, endpoint string, identity domain.Identity, demo bool) error {
	key := sessionKey{endpoint: endpoint, identity: identity.DisplayName, demo: demo}

	s.mu.Lock()
	if s.cancel != nil && key == s.key {
		s.mu.Unlock()
		s.log.Debug("Session unchanged, keeping the live connection")
		return nil
	}
	s.teardownLocked()

	runCtx, cancel := context.WithCancel(ctx)
	s.key = key
	s.cancel = cancel
	s.backoff = NewBackoff(s.backoffBase, s.backoffCeiling)
	s.mu.Unlock()

	if demo {
		// Demo mode never dials and never reports a disconnection.
		s.setState(domain.StateConnected)
		return nil
	}

	go s.run(runCtx, key)
	return nil
}

// run is the reconnect loop: unbounded attempts, increasing delay up to
// the ceiling. Error is not terminal; the loop keeps trying until the
// session context is canceled.
func (s *Session) run(ctx context.Context, key sessionKey) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(domain.StateConnecting)

		conn, _, err := s.dialer.DialContext(ctx, key.endpoint, nil)
		if err != nil {
			s.mu.Lock()
			delay := s.backoff.Next()
			attempt := s.backoff.Attempt()
			s.mu.Unlock()
			s.report(domain.StateError, attempt, delay)
			s.log.Warn(fmt.Sprintf("Dial failed (attempt %d), retrying in %s", attempt, delay),
				"endpoint", key.endpoint, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.backoff.Reset()
		active := s.active
		s.mu.Unlock()
		s.setState(domain.StateConnected)
		s.announce(key, active)

		s.readLoop(ctx, conn)

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		s.setState(domain.StateDisconnected)
	}
}

// announce identifies the session and re-joins the active conversation
// room. It runs before anything else on every (re)connection.
func (s *Session) announce(key sessionKey, active string) {
	if err := s.Send(event.JoinOutbound{Identity: key.identity}); err != nil {
		s.log.Warn("Join announcement failed", "error", err)
	}
	if active == "" {
		return
	}
	if err := s.Send(event.JoinConversationOutbound{ConversationID: active}); err != nil {
		s.log.Warn("Conversation re-join failed", "conversation", active, "error", err)
	}
}

// readLoop pumps frames until the connection drops. A frame that fails to
// decode is dropped on its own; it never affects the connection.
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("Connection dropped", "error", err)
			}
			_ = conn.Close()
			return
		}
		evt, err := Decode(raw)
		if err != nil {
			s.log.Warn("Dropping malformed frame", "error", err)
			continue
		}
		if !s.sink.Enqueue(evt) {
			s.log.Warn("Engine queue full, dropping inbound event")
		}
	}
}

// Send frames and writes one outbound event. It reports ErrNotConnected
// when the session is not in Connected state; in demo mode every send is
// accepted and swallowed.
func (s *Session) Send(out event.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Remember room joins so a reconnect can re-subscribe on its own.
	if join, ok := out.(event.JoinConversationOutbound); ok {
		s.active = join.ConversationID
	}

	if s.key.demo {
		return nil
	}
	if s.state != domain.StateConnected || s.conn == nil {
		return cerrors.ErrNotConnected
	}
	raw, err := Encode(out)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, raw)
}

func (s *Session) State() domain.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats exposes the reconnect loop for observability.
func (s *Session) Stats() contract.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backoff == nil {
		return contract.SessionStats{}
	}
	return contract.SessionStats{Attempt: s.backoff.Attempt(), Delay: s.backoff.Current().String()}
}

// Shutdown tears the session down: the reconnect loop stops and the
// connection closes. Listeners see no further events.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Session) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.state = domain.StateDisconnected
}

func (s *Session) setState(state domain.ConnState) {
	s.mu.Lock()
	var attempt int
	var delay time.Duration
	if s.backoff != nil {
		attempt = s.backoff.Attempt()
		delay = s.backoff.Current()
	}
	s.mu.Unlock()
	s.report(state, attempt, delay)
}

// report publishes a state transition. Repeats of the current state are
// suppressed, as is anything arriving after teardown.
func (s *Session) report(state domain.ConnState, attempt int, delay time.Duration) {
	s.mu.Lock()
	if s.cancel == nil || s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	if !s.sink.Enqueue(event.StatusChanged{State: state, Attempt: attempt, Delay: delay}) {
		s.log.Warn("Engine queue full, dropping status change", "state", state)
	}
}
