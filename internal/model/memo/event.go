package memo

// Inbound events produced by the transport layer (HTTP Events API or
// Socket Mode). The orchestrator only ever sees these three shapes.

// CommandInvoked is the slash command that starts a blank dialogue.
type CommandInvoked struct {
	UserID string
	TeamID string
}

// ShortcutInvoked is the message shortcut that seeds a dialogue from an
// existing message or thread.
type ShortcutInvoked struct {
	UserID      string
	TeamID      string
	ChannelID   string
	MessageText string
	MessageTS   string
	ThreadTS    string
}

// FileRef identifies an uploaded file attached to a DM message.
type FileRef struct {
	ID       string
	Filetype string
}

// DirectMessageReceived is a user message in the bot's DM channel.
type DirectMessageReceived struct {
	ChannelID string
	UserID    string
	Text      string
	Files     []FileRef
}
