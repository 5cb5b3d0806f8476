package domain

import "context"

// Invite is a live guild invite as reported by the platform.
type Invite struct {
	Code string
	Uses int
}

// LogEntry is an announcement for a guild's "logs" channel.
type LogEntry struct {
	Title       string
	Description string
	Fields      []LogField
	Footer      string
}

// LogField is a titled block inside a LogEntry.
type LogField struct {
	Name  string
	Value string
}

// Platform is the outbound command surface of the chat platform.
// Every call is a side effect; callers persist state before issuing one and
// never retry a failed call.
type Platform interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error

	GuildEmojiExists(ctx context.Context, guildID, name string) (bool, error)
	CreateEmoji(ctx context.Context, guildID, name string, png []byte) (Emoji, error)

	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (Message, error)
	DownloadAttachment(ctx context.Context, attachment Attachment) ([]byte, error)

	SendLog(ctx context.Context, guildID string, entry LogEntry) error
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	DisconnectVoice(ctx context.Context, guildID, userID string) error
	ListInvites(ctx context.Context, guildID string) ([]Invite, error)

	// FindRole resolves a role name to its id. ok is false when no role matches.
	FindRole(ctx context.Context, guildID, name string) (roleID string, ok bool, err error)
	// ChannelExists reports whether channelID is a channel of guildID.
	ChannelExists(ctx context.Context, guildID, channelID string) (bool, error)
}

// Prompter asks a user a question in a channel and waits for their next
// message there. Implementations honour ctx cancellation and deadlines.
type Prompter interface {
	Ask(ctx context.Context, channelID, userID, question string) (string, error)
}
