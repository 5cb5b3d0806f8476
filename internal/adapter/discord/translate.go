package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tukib/snakebot/internal/domain"
)

func toEmoji(e discordgo.Emoji) domain.Emoji {
	return domain.Emoji{
		ID:       e.ID,
		Name:     e.Name,
		Custom:   e.ID != "",
		Animated: e.Animated,
	}
}

// toMessage converts a gateway message. Partial messages (edits) may lack
// an author; the zero values are kept.
func toMessage(m *discordgo.Message) domain.Message {
	if m == nil {
		return domain.Message{}
	}
	msg := domain.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorDisplayName = displayName(m.Author, m.Member)
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}
	for _, u := range m.Mentions {
		if u != nil {
			msg.Mentions = append(msg.Mentions, u.ID)
		}
	}
	if msg.CreatedAt.IsZero() && m.ID != "" {
		if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
			msg.CreatedAt = ts
		}
	}
	return msg
}

// mergeEdit fills fields a partial MESSAGE_UPDATE leaves out from the cached
// message before the edit.
func mergeEdit(before, after domain.Message) domain.Message {
	if after.GuildID == "" {
		after.GuildID = before.GuildID
	}
	if after.AuthorID == "" {
		after.AuthorID = before.AuthorID
		after.AuthorDisplayName = before.AuthorDisplayName
	}
	if after.CreatedAt.IsZero() {
		after.CreatedAt = before.CreatedAt
	}
	return after
}

func toReaction(r *discordgo.MessageReaction, action domain.ReactionAction) domain.ReactionEvent {
	ev := domain.ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     toEmoji(r.Emoji),
		Action:    action,
	}
	if ts, err := discordgo.SnowflakeTimestamp(r.MessageID); err == nil {
		ev.MessageCreatedAt = ts
	}
	return ev
}

// displayName prefers the guild nickname, then the global display name.
func displayName(u *discordgo.User, m *discordgo.Member) string {
	if m != nil && m.Nick != "" {
		return m.Nick
	}
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// nameChanges splits a member update into a nickname and a username change.
// Either result is nil when that name did not change.
func nameChanges(guildID string, before, after *discordgo.Member) (*domain.MemberUpdate, *domain.UserUpdate) {
	if before == nil || after == nil || after.User == nil {
		return nil, nil
	}
	var nick *domain.MemberUpdate
	if before.Nick != after.Nick {
		nick = &domain.MemberUpdate{
			GuildID:    guildID,
			MemberID:   after.User.ID,
			BeforeNick: before.Nick,
			AfterNick:  after.Nick,
		}
	}
	var user *domain.UserUpdate
	if before.User != nil && before.User.Username != after.User.Username {
		user = &domain.UserUpdate{
			UserID:     after.User.ID,
			BeforeName: before.User.Username,
			AfterName:  after.User.Username,
		}
	}
	return nick, user
}

// voiceJoin reports a connection to a voice channel from no channel.
func voiceJoin(v *discordgo.VoiceStateUpdate) (domain.VoiceJoin, bool) {
	if v.VoiceState == nil || v.ChannelID == "" {
		return domain.VoiceJoin{}, false
	}
	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
		return domain.VoiceJoin{}, false
	}
	return domain.VoiceJoin{GuildID: v.GuildID, MemberID: v.UserID, ChannelID: v.ChannelID}, true
}

// reactionAPIName converts the message-text form of an emoji to the form the
// reactions endpoint accepts: <:name:id> and <a:name:id> become name:id.
func reactionAPIName(emoji string) string {
	if !strings.HasPrefix(emoji, "<") || !strings.HasSuffix(emoji, ">") {
		return emoji
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(emoji, "<"), ">")
	inner = strings.TrimPrefix(inner, "a:")
	return strings.TrimPrefix(inner, ":")
}

func toEmbed(e domain.LogEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       logColor,
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return embed
}
