// Package rest implements the query interface of the chat service:
// the conversation directory snapshot and per-conversation message
// history. The realtime channel lives in the transport package; this
// client only performs one-shot reads.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/valyala/fasthttp"

	"chat-sync/domain"
	cerrors "chat-sync/errors"
)

type Client struct {
	log     *slog.Logger
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		http:    &fasthttp.Client{},
		timeout: timeout,
	}
}

type conversationDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	LastActivityAt time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type historyMessageDTO struct {
	ID            string              `json:"id"`
	SenderName    string              `json:"senderName"`
	Content       string              `json:"content"`
	CreatedAt     time.Time           `json:"createdAt"`
	Kind          string              `json:"kind"`
	MediaURL      string              `json:"mediaUrl,omitempty"`
	MimeType      string              `json:"mimeType,omitempty"`
	FileName      string              `json:"fileName,omitempty"`
	FileSize      int64               `json:"fileSize,omitempty"`
	DurationMs    int64               `json:"durationMs,omitempty"`
	ReplyTarget   string              `json:"replyTarget,omitempty"`
	Reactions     map[string][]string `json:"reactions,omitempty"`
	IsForwarded   bool                `json:"isForwarded,omitempty"`
	ForwardedFrom string              `json:"forwardedFrom,omitempty"`
}

// Conversations fetches the directory snapshot, ordered most recent
// activity first.
func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	body, err := c.get(ctx, c.baseURL+"/conversations")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrDirectoryFetch, err)
	}

	var dtos []conversationDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrDirectoryFetch, err)
	}

	conversations := lo.Map(dtos, func(dto conversationDTO, _ int) domain.Conversation {
		return domain.Conversation{
			ID:             dto.ID,
			Name:           dto.Name,
			Description:    dto.Description,
			LastActivityAt: dto.LastActivityAt,
			CreatedAt:      dto.CreatedAt,
		}
	})
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastActivityAt.After(conversations[j].LastActivityAt)
	})
	return conversations, nil
}

// History fetches the durable log of one conversation. The service
// returns newest-first; the result is re-ordered to chronological so the
// engine can replace its log wholesale.
func (c *Client) History(ctx context.Context, conversationID string) ([]domain.Message, error) {
	url := fmt.Sprintf("%s/conversations/%s/messages", c.baseURL, conversationID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrHistoryFetch, err)
	}

	var dtos []historyMessageDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrHistoryFetch, err)
	}

	messages := lo.Map(dtos, func(dto historyMessageDTO, _ int) domain.Message {
		return toDomainMessage(conversationID, dto)
	})
	return lo.Reverse(messages), nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	// The response body is reused by fasthttp once released.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func toDomainMessage(conversationID string, dto historyMessageDTO) domain.Message {
	msg := domain.Message{
		ID:             dto.ID,
		ConversationID: conversationID,
		Sender:         dto.SenderName,
		Body:           dto.Content,
		CreatedAt:      dto.CreatedAt,
		Kind:           domain.MessageKind(dto.Kind),
		ReplyTarget:    dto.ReplyTarget,
		Reactions:      dto.Reactions,
		IsForwarded:    dto.IsForwarded,
		ForwardedFrom:  dto.ForwardedFrom,
	}
	if msg.Kind == "" {
		msg.Kind = domain.KindText
	}
	if dto.MediaURL != "" {
		msg.Media = &domain.Media{
			URL:      dto.MediaURL,
			MimeType: dto.MimeType,
			FileName: dto.FileName,
			FileSize: dto.FileSize,
			Duration: time.Duration(dto.DurationMs) * time.Millisecond,
		}
	}
	return msg
}
