package event

import "chat-sync/domain"

// Wire type tags shared by inbound and outbound envelopes.
const (
	TypeJoin                = "join"
	TypeJoinConversation    = "join_conversation"
	TypeMessage             = "message"
	TypeEditMessage         = "edit_message"
	TypeDeleteMessage       = "delete_message"
	TypeToggleReaction      = "toggle_reaction"
	TypeReactionChanged     = "reaction_changed"
	TypeCreateConversation  = "create_conversation"
	TypeConversationCreated = "conversation_created"
)

// Outbound is an event written to the realtime channel. Type returns the
// wire tag placed on the envelope.
type Outbound interface {
	Type() string
}

// JoinOutbound announces the identity on a fresh connection.
type JoinOutbound struct {
	Identity string
}

// JoinConversationOutbound subscribes the session to a conversation room.
type JoinConversationOutbound struct {
	ConversationID string
}

// MessageOutbound posts a message. CorrelationToken carries the optimistic
// identity so the echo can be reconciled without heuristics.
type MessageOutbound struct {
	ConversationID   string
	Sender           string
	Body             string
	Kind             domain.MessageKind
	CorrelationToken string
	ReplyTarget      string
	Media            *domain.Media
	IsForwarded      bool
	ForwardedFrom    string
}

// EditOutbound rewrites a message body.
type EditOutbound struct {
	ConversationID string
	MessageID      string
	Body           string
}

// DeleteOutbound removes a message.
type DeleteOutbound struct {
	ConversationID string
	MessageID      string
}

// ReactionOutbound toggles one actor's reaction on a message.
type ReactionOutbound struct {
	ConversationID string
	MessageID      string
	Symbol         string
	Actor          string
}

// CreateConversationOutbound asks the service for a new conversation.
type CreateConversationOutbound struct {
	Name        string
	Description string
}

func (JoinOutbound) Type() string               { return TypeJoin }
func (JoinConversationOutbound) Type() string   { return TypeJoinConversation }
func (MessageOutbound) Type() string            { return TypeMessage }
func (EditOutbound) Type() string               { return TypeEditMessage }
func (DeleteOutbound) Type() string             { return TypeDeleteMessage }
func (ReactionOutbound) Type() string           { return TypeToggleReaction }
func (CreateConversationOutbound) Type() string { return TypeCreateConversation }
