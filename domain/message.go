package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// localIDPrefix marks identities minted on this client before the server
// has acknowledged the message. A server-issued ID never carries it, so
// the reconciler can tell a pending entry from a confirmed one without
// guessing at string shapes.
const localIDPrefix = "local-"

// NewLocalID mints an optimistic message identity.
func NewLocalID() string {
	return localIDPrefix + uuid.NewString()
}

// IsLocalID reports whether an identity was minted by NewLocalID and is
// therefore still awaiting its server echo.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindAudio MessageKind = "audio"
	KindVideo MessageKind = "video"
	KindFile  MessageKind = "file"
)

// Media describes an already-uploaded attachment referenced by a message.
type Media struct {
	URL      string
	MimeType string
	FileName string
	FileSize int64
	Duration time.Duration
}

// Upload is the descriptor the upload collaborator hands back once a raw
// blob has been pushed to the media store.
type Upload struct {
	Kind  MessageKind
	Media Media
}

// Message is one entry of a conversation log. A message belongs to exactly
// one conversation for its lifetime; forwarding creates a new message with
// a fresh identity in the target conversation.
type Message struct {
	ID             string
	ConversationID string
	Sender         string
	Body           string
	CreatedAt      time.Time
	Kind           MessageKind
	Media          *Media
	EditedAt       *time.Time
	IsOwn          bool
	IsSystem       bool
	ReplyTarget    string
	Reactions      map[string][]string
	ForwardedFrom  string
	IsForwarded    bool
}

// ToggleReaction flips the actor's presence under the given symbol.
// When the last reactor leaves, the symbol is removed from the mapping
// entirely so an empty set never lingers.
func (m *Message) ToggleReaction(symbol, actor string) {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	reactors := m.Reactions[symbol]
	if lo.Contains(reactors, actor) {
		reactors = lo.Without(reactors, actor)
	} else {
		reactors = append(reactors, actor)
	}
	if len(reactors) == 0 {
		delete(m.Reactions, symbol)
		return
	}
	m.Reactions[symbol] = reactors
}

// HasReactor reports whether the actor currently reacts with the symbol.
func (m *Message) HasReactor(symbol, actor string) bool {
	return lo.Contains(m.Reactions[symbol], actor)
}

// OriginalSender resolves the name to stamp on a forwarded copy: the
// first sender in the chain, not the latest forwarder.
func (m *Message) OriginalSender() string {
	if m.ForwardedFrom != "" {
		return m.ForwardedFrom
	}
	return m.Sender
}
