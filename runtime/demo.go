package runtime

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
)

// DemoPeer simulates the other side of a conversation when no service is
// reachable. Replies arrive through the same engine queue as real events
// after a randomized delay, so the reconciliation path under test is the
// production one.
type DemoPeer struct {
	log      *slog.Logger
	sink     contract.EventSink
	name     string
	minDelay time.Duration
	maxDelay time.Duration
}

func NewDemoPeer(log *slog.Logger, sink contract.EventSink, name string, minDelay, maxDelay time.Duration) *DemoPeer {
	return &DemoPeer{
		log:      log,
		sink:     sink,
		name:     name,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

var demoReplies = []string{
	"Interesting, tell me more.",
	"Agreed!",
	"I was just about to say the same thing.",
	"Can we come back to that later?",
	"Nice one.",
}

// Reply schedules a simulated peer message for the conversation.
func (p *DemoPeer) Reply(conversationID, prompt string) {
	delay := p.minDelay
	if span := p.maxDelay - p.minDelay; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	body := demoReplies[rand.Intn(len(demoReplies))]
	if prompt == "" {
		body = "You sent an empty message. Bold move."
	}

	time.AfterFunc(delay, func() {
		msg := domain.Message{
			ID:             fmt.Sprintf("demo-%s", uuid.NewString()),
			ConversationID: conversationID,
			Sender:         p.name,
			Body:           body,
			Kind:           domain.KindText,
			CreatedAt:      time.Now(),
		}
		if !p.sink.Enqueue(event.MessageReceived{Message: msg}) {
			p.log.Warn("Engine queue full, dropping demo reply")
		}
	})
}
