package contract

import (
	"context"

	"chat-sync/domain"
	"chat-sync/domain/event"
)

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// EventSink receives inbound events for serialized processing. Enqueue
// never blocks; it reports false when the queue is full and the event
// was dropped.
type EventSink interface {
	Enqueue(e event.Inbound) bool
}

// SessionStats exposes the reconnect loop for observability.
type SessionStats struct {
	Attempt int
	Delay   string
}

// Transport owns the one realtime connection to the service.
// Connect is idempotent per (endpoint, identity, demo) triple; a changed
// triple tears the previous session down before dialing again.
type Transport interface {
	Connect(ctx context.Context, endpoint string, identity domain.Identity, demo bool) error
	Send(out event.Outbound) error
	State() domain.ConnState
	Stats() SessionStats
	Shutdown()
}

// DirectoryQuery fetches the conversation directory snapshot.
type DirectoryQuery interface {
	Conversations(ctx context.Context) ([]domain.Conversation, error)
}

// HistoryQuery fetches the durable message history of one conversation,
// already re-ordered to chronological.
type HistoryQuery interface {
	History(ctx context.Context, conversationID string) ([]domain.Message, error)
}

// Uploader pushes a raw media blob to the media store and returns the
// descriptor a message can reference.
type Uploader interface {
	Upload(ctx context.Context, blob []byte, kind domain.MessageKind, fileName string) (domain.Upload, error)
}

// SettingsRepository persists the single local settings record.
type SettingsRepository interface {
	Load() (domain.Settings, error)
	Save(s domain.Settings) error
}
