package runtime

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	cerrors "chat-sync/errors"
)

// Dispatcher translates user intents into optimistic log mutations plus
// outbound protocol events, or into terminal system notices when sending
// is not possible. It runs on the engine goroutine.
type Dispatcher struct {
	log       *slog.Logger
	identity  *domain.Identity
	recon     *Reconciler
	directory *domain.Directory
	transport contract.Transport
	demo      *DemoPeer
	demoMode  bool
	now       func() time.Time
}

func NewDispatcher(log *slog.Logger, identity *domain.Identity, recon *Reconciler,
	directory *domain.Directory, transport contract.Transport, demo *DemoPeer, demoMode bool) *Dispatcher {
	return &Dispatcher{
		log:       log,
		identity:  identity,
		recon:     recon,
		directory: directory,
		transport: transport,
		demo:      demo,
		demoMode:  demoMode,
		now:       time.Now,
	}
}

// SendText posts a text message to the active conversation. An empty
// trimmed body without media is a no-op, except in demo mode which always
// accepts.
func (d *Dispatcher) SendText(cmd domain.SendTextCommand) {
	body := strings.TrimSpace(cmd.Body)
	if body == "" && !d.demoMode {
		return
	}
	d.post(domain.Message{
		Body:        body,
		Kind:        domain.KindText,
		ReplyTarget: cmd.ReplyTarget,
	})
}

// SendMedia posts an already-uploaded attachment. When no caption is
// supplied the body defaults to "[KIND] filename".
func (d *Dispatcher) SendMedia(cmd domain.SendMediaCommand) {
	body := strings.TrimSpace(cmd.Caption)
	if body == "" {
		body = defaultCaption(cmd.Upload)
	}
	media := cmd.Upload.Media
	d.post(domain.Message{
		Body:        body,
		Kind:        cmd.Upload.Kind,
		Media:       &media,
		ReplyTarget: cmd.ReplyTarget,
	})
}

// post is the shared optimistic-insert-then-emit flow for text and media.
func (d *Dispatcher) post(msg domain.Message) {
	msg.ID = domain.NewLocalID()
	msg.ConversationID = d.identity.ActiveConversation
	msg.Sender = d.identity.DisplayName
	msg.CreatedAt = d.now()
	msg.IsOwn = true
	d.recon.AppendLocal(msg)

	if d.demoMode {
		d.demo.Reply(msg.ConversationID, msg.Body)
		d.directory.Touch(msg.ConversationID, msg.CreatedAt)
		return
	}

	err := d.transport.Send(event.MessageOutbound{
		ConversationID:   msg.ConversationID,
		Sender:           msg.Sender,
		Body:             msg.Body,
		Kind:             msg.Kind,
		CorrelationToken: msg.ID,
		ReplyTarget:      msg.ReplyTarget,
		Media:            msg.Media,
	})
	if err != nil {
		d.notice("Message not sent: no connection to the chat service")
		return
	}
	d.directory.Touch(msg.ConversationID, msg.CreatedAt)
}

// Edit rewrites one of the user's own messages locally and emits the
// delta. There is no confirmation handshake beyond the generic edit
// broadcast.
func (d *Dispatcher) Edit(cmd domain.EditCommand) {
	d.recon.Edit(cmd.MessageID, cmd.Body, d.now())
	err := d.transport.Send(event.EditOutbound{
		ConversationID: d.identity.ActiveConversation,
		MessageID:      cmd.MessageID,
		Body:           cmd.Body,
	})
	if err != nil && !d.demoMode {
		d.notice("Edit not sent: no connection to the chat service")
	}
}

// Delete removes a message locally and emits the delta. No undo.
func (d *Dispatcher) Delete(cmd domain.DeleteCommand) {
	d.recon.Delete(cmd.MessageID)
	err := d.transport.Send(event.DeleteOutbound{
		ConversationID: d.identity.ActiveConversation,
		MessageID:      cmd.MessageID,
	})
	if err != nil && !d.demoMode {
		d.notice("Delete not sent: no connection to the chat service")
	}
}

// React toggles the current identity's reaction optimistically, then
// emits the toggle.
func (d *Dispatcher) React(cmd domain.ReactCommand) {
	if !d.recon.ToggleReaction(cmd.MessageID, cmd.Symbol, d.identity.DisplayName) {
		d.log.Debug("Reaction on unknown message", "id", cmd.MessageID)
		return
	}
	err := d.transport.Send(event.ReactionOutbound{
		ConversationID: d.identity.ActiveConversation,
		MessageID:      cmd.MessageID,
		Symbol:         cmd.Symbol,
		Actor:          d.identity.DisplayName,
	})
	if err != nil && !d.demoMode {
		d.notice("Reaction not sent: no connection to the chat service")
	}
}

// Forward sends a copy of a message into another conversation under a
// fresh identity, stamped with the original sender. The source message
// is not touched and the local log gains nothing: the copy lives in the
// target conversation.
func (d *Dispatcher) Forward(cmd domain.ForwardCommand) {
	source, ok := d.recon.Find(cmd.MessageID)
	if !ok {
		d.log.Debug("Forward of unknown message", "id", cmd.MessageID)
		return
	}
	err := d.transport.Send(event.MessageOutbound{
		ConversationID: cmd.TargetConversationID,
		Sender:         d.identity.DisplayName,
		Body:           source.Body,
		Kind:           source.Kind,
		Media:          source.Media,
		IsForwarded:    true,
		ForwardedFrom:  source.OriginalSender(),
	})
	if err != nil && !d.demoMode {
		d.notice("Forward not sent: no connection to the chat service")
		return
	}
	d.directory.Touch(cmd.TargetConversationID, d.now())
}

// CreateConversation emits the creation request. The directory gains the
// entry only when the service echoes the creation back; there is no
// optimistic directory entry.
func (d *Dispatcher) CreateConversation(cmd domain.CreateConversationCommand) {
	err := d.transport.Send(event.CreateConversationOutbound{
		Name:        cmd.Name,
		Description: cmd.Description,
	})
	if err != nil && !d.demoMode {
		d.notice("Conversation not created: no connection to the chat service")
	}
}

// notice appends a terminal, user-visible system entry to the active log.
// System entries never travel over the wire.
func (d *Dispatcher) notice(text string) {
	d.log.Debug(fmt.Sprintf("System notice: %s (%v)", text, cerrors.ErrNotConnected))
	d.recon.AppendLocal(domain.Message{
		ID:             domain.NewLocalID(),
		ConversationID: d.identity.ActiveConversation,
		Body:           text,
		Kind:           domain.KindText,
		CreatedAt:      d.now(),
		IsSystem:       true,
	})
}

// defaultCaption synthesizes the body for a media message sent without
// caption text.
func defaultCaption(upload domain.Upload) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(upload.Kind)), upload.Media.FileName)
}
