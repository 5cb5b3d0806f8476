package domain

import (
	"strings"
	"time"
)

// ReactionAction distinguishes added from removed reactions.
type ReactionAction int

const (
	ReactionAdd ReactionAction = iota
	ReactionRemove
)

func (a ReactionAction) String() string {
	if a == ReactionRemove {
		return "remove"
	}
	return "add"
}

// Emoji identifies a reaction emoji. Unicode emoji only carry Name.
type Emoji struct {
	ID       string
	Name     string
	Custom   bool
	Animated bool
}

// String renders the emoji the way it appears in message text: the unicode
// literal, or <:name:id> for custom emoji.
func (e Emoji) String() string {
	if !e.Custom {
		return e.Name
	}
	if e.Animated {
		return "<a:" + e.Name + ":" + e.ID + ">"
	}
	return "<:" + e.Name + ":" + e.ID + ">"
}

// Is reports whether e is a custom emoji with the given name (case-insensitive).
func (e Emoji) Is(name string) bool {
	return e.Custom && strings.EqualFold(e.Name, name)
}

// ReactionEvent is a normalized add/remove notification for a reaction.
// MessageAuthorID and MessageCreatedAt are filled when the adapter knows the
// reacted message; karma accrual needs them.
type ReactionEvent struct {
	GuildID          string
	ChannelID        string
	MessageID        string
	UserID           string
	Emoji            Emoji
	Action           ReactionAction
	MessageAuthorID  string
	MessageCreatedAt time.Time
}

// InGuild reports whether the event happened inside a guild.
func (e ReactionEvent) InGuild() bool { return e.GuildID != "" }

// Attachment is a file attached to a message.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// IsImage reports whether the attachment has an image content type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// Message is the platform-independent view of a chat message.
type Message struct {
	ID                string
	GuildID           string
	ChannelID         string
	AuthorID          string
	AuthorDisplayName string
	Content           string
	Attachments       []Attachment
	Mentions          []string
	CreatedAt         time.Time
}

// InGuild reports whether the message was sent inside a guild.
func (m Message) InGuild() bool { return m.GuildID != "" }

// MessageEdit carries a message before and after an edit.
type MessageEdit struct {
	Before Message
	After  Message
}

// ReactionClear is emitted when all reactions on a message are removed.
type ReactionClear struct {
	Message Message
}

// MemberUpdate carries a guild member's nickname transition.
type MemberUpdate struct {
	GuildID    string
	MemberID   string
	BeforeNick string
	AfterNick  string
}

// UserUpdate carries a user's global name transition.
type UserUpdate struct {
	UserID     string
	BeforeName string
	AfterName  string
}

// MemberJoin is emitted when a member joins a guild.
type MemberJoin struct {
	GuildID  string
	MemberID string
}

// MemberLeave is emitted when a member leaves a guild.
type MemberLeave struct {
	GuildID     string
	MemberID    string
	DisplayName string
}

// InviteChange is emitted on invite creation and deletion.
type InviteChange struct {
	GuildID string
	Code    string
	Uses    int
}

// VoiceJoin is emitted when a member connects to a voice channel.
type VoiceJoin struct {
	GuildID   string
	MemberID  string
	ChannelID string
}
