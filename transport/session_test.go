package transport

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"chat-sync/domain"
	"chat-sync/domain/event"
	cerrors "chat-sync/errors"
)

type captureSink struct {
	events chan event.Inbound
}

func newCaptureSink() *captureSink {
	return &captureSink{events: make(chan event.Inbound, 64)}
}

func (s *captureSink) Enqueue(e event.Inbound) bool {
	select {
	case s.events <- e:
		return true
	default:
		return false
	}
}

func (s *captureSink) nextStatus(t *testing.T) event.StatusChanged {
	t.Helper()
	for {
		select {
		case evt := <-s.events:
			if status, ok := evt.(event.StatusChanged); ok {
				return status
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no status change arrived")
		}
	}
}

func newTestSession(t *testing.T, sink *captureSink) *Session {
	t.Helper()
	s := NewSession(slogt.New(t), 10*time.Millisecond, 40*time.Millisecond)
	s.BindSink(sink)
	t.Cleanup(s.Shutdown)
	return s
}

func Test_Connect_DemoModeNeverDials(t *testing.T) {
	req := require.New(t)
	sink := newCaptureSink()
	s := newTestSession(t, sink)

	err := s.Connect(context.Background(), "ws://nowhere.invalid/ws", domain.Identity{DisplayName: "Alice"}, true)

	req.NoError(err)
	req.Equal(domain.StateConnected, s.State())
	req.Equal(domain.StateConnected, sink.nextStatus(t).State)
}

func Test_Connect_SameKeyIsIdempotent(t *testing.T) {
	req := require.New(t)
	sink := newCaptureSink()
	s := newTestSession(t, sink)
	identity := domain.Identity{DisplayName: "Alice"}

	req.NoError(s.Connect(context.Background(), "ws://nowhere.invalid/ws", identity, true))
	sink.nextStatus(t)

	// A second call with an unchanged key must not restart anything
	req.NoError(s.Connect(context.Background(), "ws://nowhere.invalid/ws", identity, true))

	select {
	case evt := <-sink.events:
		t.Fatalf("unexpected event after idempotent connect: %T", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func Test_Send_DemoModeSwallows(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, newCaptureSink())
	req.NoError(s.Connect(context.Background(), "ws://nowhere.invalid/ws", domain.Identity{DisplayName: "Alice"}, true))

	req.NoError(s.Send(event.MessageOutbound{ConversationID: "c1", Sender: "Alice", Body: "hi"}))
}

func Test_Send_WhileDisconnected(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, newCaptureSink())

	err := s.Send(event.MessageOutbound{ConversationID: "c1", Sender: "Alice", Body: "hi"})

	req.ErrorIs(err, cerrors.ErrNotConnected)
}

func Test_Run_RetriesWithGrowingBackoff(t *testing.T) {
	req := require.New(t)
	sink := newCaptureSink()
	s := newTestSession(t, sink)

	// Nothing listens on this port; every dial fails fast
	req.NoError(s.Connect(context.Background(), "ws://127.0.0.1:1/ws", domain.Identity{DisplayName: "Alice"}, false))

	req.Equal(domain.StateConnecting, sink.nextStatus(t).State)
	first := sink.nextStatus(t)
	req.Equal(domain.StateError, first.State)
	req.Equal(1, first.Attempt)

	// The loop keeps going: a second attempt follows with a longer delay
	req.Equal(domain.StateConnecting, sink.nextStatus(t).State)
	second := sink.nextStatus(t)
	req.Equal(domain.StateError, second.State)
	req.Equal(2, second.Attempt)
	req.Greater(second.Delay, first.Delay)
}

func Test_Shutdown_StopsTheReconnectLoop(t *testing.T) {
	req := require.New(t)
	sink := newCaptureSink()
	s := NewSession(slogt.New(t), 10*time.Millisecond, 40*time.Millisecond)
	s.BindSink(sink)

	req.NoError(s.Connect(context.Background(), "ws://127.0.0.1:1/ws", domain.Identity{DisplayName: "Alice"}, false))
	sink.nextStatus(t)

	s.Shutdown()
	req.Equal(domain.StateDisconnected, s.State())
}
