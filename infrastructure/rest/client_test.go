package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"chat-sync/domain"
	cerrors "chat-sync/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(slogt.New(t), server.URL, time.Second)
}

func Test_Conversations_OrderedByActivity(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/conversations", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": "c1", "name": "general", "lastActivityAt": "2026-08-30T09:00:00Z", "createdAt": "2026-08-01T00:00:00Z"},
			{"id": "c2", "name": "random", "lastActivityAt": "2026-08-30T11:00:00Z", "createdAt": "2026-08-01T00:00:00Z"}
		]`))
	})

	conversations, err := c.Conversations(context.Background())

	req.NoError(err)
	req.Len(conversations, 2)
	req.Equal("c2", conversations[0].ID)
	req.Equal("general", conversations[1].Name)
}

func Test_Conversations_ErrorStatus(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Conversations(context.Background())

	req.ErrorIs(err, cerrors.ErrDirectoryFetch)
}

func Test_History_ReversedToChronological(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/conversations/c1/messages", r.URL.Path)
		// Newest first, the service's native order
		_, _ = w.Write([]byte(`[
			{"id": "srv2", "senderName": "Bob", "content": "second", "createdAt": "2026-08-30T10:01:00Z", "kind": "text"},
			{"id": "srv1", "senderName": "Alice", "content": "first", "createdAt": "2026-08-30T10:00:00Z", "kind": "text"}
		]`))
	})

	messages, err := c.History(context.Background(), "c1")

	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("first", messages[0].Body)
	req.Equal("second", messages[1].Body)
	req.Equal("c1", messages[0].ConversationID)
}

func Test_History_MediaAndDefaults(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "srv1", "senderName": "Bob", "content": "[AUDIO] note.ogg",
			 "createdAt": "2026-08-30T10:00:00Z", "kind": "audio",
			 "mediaUrl": "https://cdn/note.ogg", "mimeType": "audio/ogg",
			 "fileName": "note.ogg", "fileSize": 2048, "durationMs": 3000},
			{"id": "srv0", "senderName": "Bob", "content": "bare", "createdAt": "2026-08-30T09:00:00Z"}
		]`))
	})

	messages, err := c.History(context.Background(), "c1")

	req.NoError(err)
	// Untyped entries default to text
	req.Equal(domain.KindText, messages[0].Kind)
	req.Nil(messages[0].Media)

	audio := messages[1]
	req.Equal(domain.KindAudio, audio.Kind)
	req.NotNil(audio.Media)
	req.Equal(3*time.Second, audio.Media.Duration)
	req.Equal(int64(2048), audio.Media.FileSize)
}

func Test_History_ErrorStatus(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.History(context.Background(), "missing")

	req.ErrorIs(err, cerrors.ErrHistoryFetch)
}
