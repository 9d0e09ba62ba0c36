// Package event defines the closed variant sets exchanged with the
// realtime service: inbound events consumed by the engine loop and
// outbound events written to the wire. Unrecognized shapes are rejected
// at the transport boundary, never accessed structurally.
package event

import (
	"time"

	"chat-sync/domain"
)

// Inbound is an event delivered to the engine queue. Conversation returns
// the owning conversation ID, or "" for directory- and session-level
// events that are not subject to the isolation rule.
type Inbound interface {
	Conversation() string
}

// StatusChanged reports a transport state transition together with the
// current reconnect attempt and delay for observability.
type StatusChanged struct {
	State   domain.ConnState
	Attempt int
	Delay   time.Duration
}

// MessageReceived carries a broadcast or echoed message. CorrelationToken
// is set when the service echoes back the optimistic identity the client
// attached at send time.
type MessageReceived struct {
	Message          domain.Message
	CorrelationToken string
}

// MessageEdited is an edit delta for an existing message.
type MessageEdited struct {
	ConversationID string
	MessageID      string
	Body           string
	EditedAt       time.Time
}

// MessageDeleted is a delete delta.
type MessageDeleted struct {
	ConversationID string
	MessageID      string
}

// ReactionChanged replaces the full reaction mapping of a message.
type ReactionChanged struct {
	ConversationID string
	MessageID      string
	Reactions      map[string][]string
}

// ConversationCreated announces a new directory entry.
type ConversationCreated struct {
	Created domain.Conversation
}

// HistoryLoaded delivers the result of an asynchronous history fetch.
// The engine discards it when the active conversation changed while the
// fetch was in flight.
type HistoryLoaded struct {
	ConversationID string
	Messages       []domain.Message
	Err            error
}

// DirectoryLoaded delivers the result of a directory snapshot fetch.
type DirectoryLoaded struct {
	Conversations []domain.Conversation
	Err           error
}

func (StatusChanged) Conversation() string       { return "" }
func (e MessageReceived) Conversation() string   { return e.Message.ConversationID }
func (e MessageEdited) Conversation() string     { return e.ConversationID }
func (e MessageDeleted) Conversation() string    { return e.ConversationID }
func (e ReactionChanged) Conversation() string   { return e.ConversationID }
func (ConversationCreated) Conversation() string { return "" }
func (e HistoryLoaded) Conversation() string     { return e.ConversationID }
func (DirectoryLoaded) Conversation() string     { return "" }
