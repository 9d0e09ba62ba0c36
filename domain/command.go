package domain

// Command is a user intent handed to the engine. The set is closed: the
// dispatcher switches over these variants and drops anything else.
type Command interface {
	isCommand()
}

// SendTextCommand posts a text message to the active conversation.
type SendTextCommand struct {
	Body        string
	ReplyTarget string
}

// SendMediaCommand posts an already-uploaded attachment to the active
// conversation. Caption may be empty; a default is synthesized from the
// upload descriptor.
type SendMediaCommand struct {
	Upload      Upload
	Caption     string
	ReplyTarget string
}

// EditCommand rewrites the body of one of the user's own messages.
type EditCommand struct {
	MessageID string
	Body      string
}

// DeleteCommand removes a message from the active conversation.
type DeleteCommand struct {
	MessageID string
}

// ReactCommand toggles the current identity's reaction on a message.
type ReactCommand struct {
	MessageID string
	Symbol    string
}

// ForwardCommand copies a message of the active conversation into another
// conversation under a fresh identity. The source message is not touched.
type ForwardCommand struct {
	MessageID            string
	TargetConversationID string
}

// CreateConversationCommand asks the service for a new conversation. The
// directory only gains the entry when the creation event is echoed back.
type CreateConversationCommand struct {
	Name        string
	Description string
}

// SwitchConversationCommand changes the active conversation: the log is
// cleared immediately and replaced by a fresh history fetch.
type SwitchConversationCommand struct {
	ConversationID string
}

// RefreshDirectoryCommand re-fetches the conversation directory snapshot.
type RefreshDirectoryCommand struct{}

func (SendTextCommand) isCommand()           {}
func (SendMediaCommand) isCommand()          {}
func (EditCommand) isCommand()               {}
func (DeleteCommand) isCommand()             {}
func (ReactCommand) isCommand()              {}
func (ForwardCommand) isCommand()            {}
func (CreateConversationCommand) isCommand() {}
func (SwitchConversationCommand) isCommand() {}
func (RefreshDirectoryCommand) isCommand()   {}
