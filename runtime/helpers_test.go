package runtime

import (
	"context"
	"sync"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
)

// fakeTransport records outbound events and fails on demand.
type fakeTransport struct {
	mu      sync.Mutex
	state   domain.ConnState
	sent    []event.Outbound
	sendErr error
}

func (f *fakeTransport) Connect(context.Context, string, domain.Identity, bool) error {
	return nil
}

func (f *fakeTransport) Send(out event.Outbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, out)
	return nil
}

func (f *fakeTransport) State() domain.ConnState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTransport) Stats() contract.SessionStats { return contract.SessionStats{} }
func (f *fakeTransport) Shutdown()                    {}

func (f *fakeTransport) sentEvents() []event.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.Outbound, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeHistory serves canned histories per conversation.
type fakeHistory struct {
	mu        sync.Mutex
	histories map[string][]domain.Message
	err       error
}

func (f *fakeHistory) History(_ context.Context, conversationID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[conversationID], nil
}

// fakeDirectoryQuery serves a canned directory snapshot.
type fakeDirectoryQuery struct {
	conversations []domain.Conversation
	err           error
}

func (f *fakeDirectoryQuery) Conversations(context.Context) ([]domain.Conversation, error) {
	return f.conversations, f.err
}

// fakeSink captures enqueued events on a channel.
type fakeSink struct {
	events chan event.Inbound
}

func newFakeSink() *fakeSink {
	return &fakeSink{events: make(chan event.Inbound, 16)}
}

func (f *fakeSink) Enqueue(e event.Inbound) bool {
	select {
	case f.events <- e:
		return true
	default:
		return false
	}
}
