package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"chat-sync/domain"
	"chat-sync/domain/event"
	cerrors "chat-sync/errors"
)

// validate checks decoded payload shapes before anything touches their
// fields. A payload that fails here is dropped, not partially applied.
var validate = validator.New()

// Envelope is the frame exchanged on the realtime channel: a closed type
// tag plus the raw payload for that tag.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	ID               string              `json:"id" validate:"required"`
	ConversationID   string              `json:"conversationId" validate:"required"`
	Sender           string              `json:"sender" validate:"required"`
	Body             string              `json:"body"`
	CreatedAt        time.Time           `json:"createdAt"`
	Kind             string              `json:"kind"`
	CorrelationToken string              `json:"correlationToken,omitempty"`
	ReplyTarget      string              `json:"replyTarget,omitempty"`
	MediaURL         string              `json:"mediaUrl,omitempty"`
	MimeType         string              `json:"mimeType,omitempty"`
	FileName         string              `json:"fileName,omitempty"`
	FileSize         int64               `json:"fileSize,omitempty"`
	DurationMs       int64               `json:"durationMs,omitempty"`
	IsForwarded      bool                `json:"isForwarded,omitempty"`
	ForwardedFrom    string              `json:"forwardedFrom,omitempty"`
	Reactions        map[string][]string `json:"reactions,omitempty"`
}

type outboundMessagePayload struct {
	ConversationID   string `json:"conversationId"`
	Sender           string `json:"sender"`
	Body             string `json:"body"`
	Kind             string `json:"kind"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	ReplyTarget      string `json:"replyTarget,omitempty"`
	MediaURL         string `json:"mediaUrl,omitempty"`
	MimeType         string `json:"mimeType,omitempty"`
	FileName         string `json:"fileName,omitempty"`
	FileSize         int64  `json:"fileSize,omitempty"`
	DurationMs       int64  `json:"durationMs,omitempty"`
	IsForwarded      bool   `json:"isForwarded,omitempty"`
	ForwardedFrom    string `json:"forwardedFrom,omitempty"`
}

type editPayload struct {
	ConversationID string    `json:"conversationId" validate:"required"`
	ID             string    `json:"id" validate:"required"`
	Body           string    `json:"body"`
	EditedAt       time.Time `json:"editedAt"`
}

type deletePayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	ID             string `json:"id" validate:"required"`
}

type reactionPayload struct {
	ConversationID string              `json:"conversationId" validate:"required"`
	MessageID      string              `json:"messageId" validate:"required"`
	Symbol         string              `json:"symbol,omitempty"`
	Actor          string              `json:"actor,omitempty"`
	Reactions      map[string][]string `json:"reactions"`
}

type conversationPayload struct {
	ID             string    `json:"id" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	Description    string    `json:"description,omitempty"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

type joinPayload struct {
	Identity string `json:"identity"`
}

type joinConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type createConversationPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Decode turns a raw frame into a typed inbound event. Unknown envelope
// types and payloads that fail shape validation come back as errors; the
// caller drops the frame without touching connection state.
func Decode(raw []byte) (event.Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrInvalidEnvelope, err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: missing type tag", cerrors.ErrInvalidEnvelope)
	}

	switch env.Type {
	case event.TypeMessage:
		var p messagePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.MessageReceived{
			Message:          toDomainMessage(p),
			CorrelationToken: p.CorrelationToken,
		}, nil
	case event.TypeEditMessage:
		var p editPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.MessageEdited{
			ConversationID: p.ConversationID,
			MessageID:      p.ID,
			Body:           p.Body,
			EditedAt:       p.EditedAt,
		}, nil
	case event.TypeDeleteMessage:
		var p deletePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.MessageDeleted{ConversationID: p.ConversationID, MessageID: p.ID}, nil
	case event.TypeReactionChanged:
		var p reactionPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.ReactionChanged{
			ConversationID: p.ConversationID,
			MessageID:      p.MessageID,
			Reactions:      p.Reactions,
		}, nil
	case event.TypeConversationCreated:
		var p conversationPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.ConversationCreated{Created: domain.Conversation{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			LastActivityAt: p.LastActivityAt,
			CreatedAt:      p.CreatedAt,
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", cerrors.ErrUnknownEnvelope, env.Type)
	}
}

func decodePayload(raw json.RawMessage, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrInvalidEnvelope, err)
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrInvalidEnvelope, err)
	}
	return nil
}

// Encode frames an outbound event for the wire.
func Encode(out event.Outbound) ([]byte, error) {
	payload, err := outboundPayload(out)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: out.Type(), Payload: raw})
}

func outboundPayload(out event.Outbound) (any, error) {
	switch o := out.(type) {
	case event.JoinOutbound:
		return joinPayload{Identity: o.Identity}, nil
	case event.JoinConversationOutbound:
		return joinConversationPayload{ConversationID: o.ConversationID}, nil
	case event.MessageOutbound:
		p := outboundMessagePayload{
			ConversationID:   o.ConversationID,
			Sender:           o.Sender,
			Body:             o.Body,
			Kind:             string(o.Kind),
			CorrelationToken: o.CorrelationToken,
			ReplyTarget:      o.ReplyTarget,
			IsForwarded:      o.IsForwarded,
			ForwardedFrom:    o.ForwardedFrom,
		}
		if o.Media != nil {
			p.MediaURL = o.Media.URL
			p.MimeType = o.Media.MimeType
			p.FileName = o.Media.FileName
			p.FileSize = o.Media.FileSize
			p.DurationMs = o.Media.Duration.Milliseconds()
		}
		return p, nil
	case event.EditOutbound:
		return editPayload{ConversationID: o.ConversationID, ID: o.MessageID, Body: o.Body}, nil
	case event.DeleteOutbound:
		return deletePayload{ConversationID: o.ConversationID, ID: o.MessageID}, nil
	case event.ReactionOutbound:
		return reactionPayload{
			ConversationID: o.ConversationID,
			MessageID:      o.MessageID,
			Symbol:         o.Symbol,
			Actor:          o.Actor,
		}, nil
	case event.CreateConversationOutbound:
		return createConversationPayload{Name: o.Name, Description: o.Description}, nil
	default:
		return nil, fmt.Errorf("%w: %T", cerrors.ErrUnknownEnvelope, out)
	}
}

func toDomainMessage(p messagePayload) domain.Message {
	msg := domain.Message{
		ID:             p.ID,
		ConversationID: p.ConversationID,
		Sender:         p.Sender,
		Body:           p.Body,
		CreatedAt:      p.CreatedAt,
		Kind:           domain.MessageKind(p.Kind),
		ReplyTarget:    p.ReplyTarget,
		Reactions:      p.Reactions,
		IsForwarded:    p.IsForwarded,
		ForwardedFrom:  p.ForwardedFrom,
	}
	if msg.Kind == "" {
		msg.Kind = domain.KindText
	}
	if p.MediaURL != "" {
		msg.Media = &domain.Media{
			URL:      p.MediaURL,
			MimeType: p.MimeType,
			FileName: p.FileName,
			FileSize: p.FileSize,
			Duration: time.Duration(p.DurationMs) * time.Millisecond,
		}
	}
	return msg
}
