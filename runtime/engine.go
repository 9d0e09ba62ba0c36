package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
)

// Options tunes the engine loop.
type Options struct {
	QueueSize    int
	DemoMode     bool
	DemoPeerName string
	DemoReplyMin time.Duration
	DemoReplyMax time.Duration
}

// Engine is the single consumer of everything that can mutate the local
// view: transport events, user commands, demo timers, and asynchronous
// fetch results. Processing is sequential; suspension happens only at
// I/O boundaries, and every continuation re-validates the active
// conversation before applying its result.
type Engine struct {
	log        *slog.Logger
	transport  contract.Transport
	history    contract.HistoryQuery
	directoryQ contract.DirectoryQuery

	commands chan domain.Command
	inbound  chan event.Inbound

	mu         sync.Mutex
	identity   domain.Identity
	directory  *domain.Directory
	recon      *Reconciler
	dispatcher *Dispatcher
	state      domain.ConnState
	noticed    bool
	onChange   func()
}

func NewEngine(log *slog.Logger, identity domain.Identity, transport contract.Transport,
	history contract.HistoryQuery, directoryQ contract.DirectoryQuery, opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.DemoPeerName == "" {
		opts.DemoPeerName = "Sam"
	}

	e := &Engine{
		log:        log,
		transport:  transport,
		history:    history,
		directoryQ: directoryQ,
		commands:   make(chan domain.Command, opts.QueueSize),
		inbound:    make(chan event.Inbound, opts.QueueSize),
		identity:   identity,
		directory:  domain.NewDirectory(),
		state:      domain.StateDisconnected,
	}
	e.recon = NewReconciler(log, &e.identity)
	demo := NewDemoPeer(log, e, opts.DemoPeerName, opts.DemoReplyMin, opts.DemoReplyMax)
	e.dispatcher = NewDispatcher(log, &e.identity, e.recon, e.directory, transport, demo, opts.DemoMode)
	if opts.DemoMode {
		e.state = domain.StateConnected
	}
	return e
}

// Run consumes the queues until the context is canceled. It is the only
// goroutine that mutates the log and the directory.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.log.Debug("Stopping engine loop")
			return ctx.Err()
		case cmd, ok := <-e.commands:
			if !ok {
				return nil
			}
			e.handleCommand(cmd)
			e.notifyChange()
		case evt, ok := <-e.inbound:
			if !ok {
				return nil
			}
			e.handleInbound(evt)
			e.notifyChange()
		}
	}
}

// Dispatch hands a user intent to the loop. A full queue drops the
// command with a warning rather than blocking the caller.
func (e *Engine) Dispatch(cmd domain.Command) bool {
	select {
	case e.commands <- cmd:
		return true
	default:
		e.log.Warn(fmt.Sprintf("Command queue full, dropping %T", cmd))
		return false
	}
}

// Enqueue delivers an inbound event to the loop; it never blocks.
func (e *Engine) Enqueue(evt event.Inbound) bool {
	select {
	case e.inbound <- evt:
		return true
	default:
		e.log.Warn(fmt.Sprintf("Event queue full, dropping %T", evt))
		return false
	}
}

// SetOnChange installs a callback invoked after each processed event,
// on the engine goroutine.
func (e *Engine) SetOnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

func (e *Engine) notifyChange() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Engine) handleCommand(cmd domain.Command) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch c := cmd.(type) {
	case domain.SendTextCommand:
		e.dispatcher.SendText(c)
	case domain.SendMediaCommand:
		e.dispatcher.SendMedia(c)
	case domain.EditCommand:
		e.dispatcher.Edit(c)
	case domain.DeleteCommand:
		e.dispatcher.Delete(c)
	case domain.ReactCommand:
		e.dispatcher.React(c)
	case domain.ForwardCommand:
		e.dispatcher.Forward(c)
	case domain.CreateConversationCommand:
		e.dispatcher.CreateConversation(c)
	case domain.SwitchConversationCommand:
		e.switchConversation(c.ConversationID)
	case domain.RefreshDirectoryCommand:
		e.refreshDirectory()
	default:
		e.log.Warn(fmt.Sprintf("Dropping unknown command %T", cmd))
	}
}

// switchConversation clears the log immediately so the previous
// conversation cannot bleed over, re-subscribes the transport, and kicks
// off the history fetch. The fetch result comes back through the queue
// and is discarded if the user switched again meanwhile.
func (e *Engine) switchConversation(conversationID string) {
	e.identity.ActiveConversation = conversationID
	e.recon.Clear()

	if err := e.transport.Send(event.JoinConversationOutbound{ConversationID: conversationID}); err != nil {
		e.log.Debug("Room join deferred until reconnect", "conversation", conversationID)
	}

	go func() {
		messages, err := e.history.History(context.Background(), conversationID)
		e.Enqueue(event.HistoryLoaded{ConversationID: conversationID, Messages: messages, Err: err})
	}()
}

func (e *Engine) refreshDirectory() {
	go func() {
		conversations, err := e.directoryQ.Conversations(context.Background())
		e.Enqueue(event.DirectoryLoaded{Conversations: conversations, Err: err})
	}()
}

func (e *Engine) handleInbound(evt event.Inbound) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Isolation rule: everything except directory- and session-level
	// events is bound to the active conversation. Mismatches are
	// discarded entirely; history reload is the only catch-up path.
	if conv := evt.Conversation(); conv != "" && conv != e.identity.ActiveConversation {
		e.log.Debug(fmt.Sprintf("Discarding %T for inactive conversation %s", evt, conv))
		return
	}

	switch ev := evt.(type) {
	case event.StatusChanged:
		e.applyStatus(ev)
	case event.MessageReceived:
		if e.recon.Apply(ev.Message, ev.CorrelationToken) {
			e.directory.Touch(ev.Message.ConversationID, ev.Message.CreatedAt)
		}
	case event.MessageEdited:
		e.recon.Edit(ev.MessageID, ev.Body, ev.EditedAt)
	case event.MessageDeleted:
		e.recon.Delete(ev.MessageID)
	case event.ReactionChanged:
		e.recon.SetReactions(ev.MessageID, ev.Reactions)
	case event.ConversationCreated:
		e.directory.Append(ev.Created)
	case event.HistoryLoaded:
		if ev.Err != nil {
			// The log stays empty; reselecting the conversation is
			// the recovery path.
			e.log.Warn("History fetch failed", "conversation", ev.ConversationID, "error", ev.Err)
			return
		}
		e.recon.Replace(ev.Messages)
	case event.DirectoryLoaded:
		if ev.Err != nil {
			e.log.Warn("Directory fetch failed", "error", ev.Err)
			return
		}
		e.directory.Replace(ev.Conversations)
	default:
		e.log.Warn(fmt.Sprintf("Dropping unknown inbound event %T", evt))
	}
}

// applyStatus tracks the connection state and surfaces one system notice
// per disconnect.
func (e *Engine) applyStatus(ev event.StatusChanged) {
	e.state = ev.State
	switch ev.State {
	case domain.StateConnected:
		e.noticed = false
	case domain.StateDisconnected, domain.StateError:
		if e.noticed || e.identity.ActiveConversation == "" {
			return
		}
		e.noticed = true
		e.recon.AppendLocal(domain.Message{
			ID:             domain.NewLocalID(),
			ConversationID: e.identity.ActiveConversation,
			Body:           "Connection lost, reconnecting in the background",
			Kind:           domain.KindText,
			CreatedAt:      time.Now(),
			IsSystem:       true,
		})
	}
}

// Messages returns a copy of the active conversation's ordered log.
func (e *Engine) Messages() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recon.Messages()
}

// Conversations returns a copy of the current directory ordering.
func (e *Engine) Conversations() []domain.Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.directory.List()
}

// State returns the last observed connection state.
func (e *Engine) State() domain.ConnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Identity returns the current identity context.
func (e *Engine) Identity() domain.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}
