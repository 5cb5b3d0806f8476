package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tukib/snakebot/internal/app"
	"github.com/tukib/snakebot/internal/domain"
)

const (
	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages

	// stateMessages is how many messages per channel the session caches;
	// snipes and edit logs need the pre-change copy.
	stateMessages = 500

	eventTimeout = 30 * time.Second
)

// NewSession creates a bot session with the intents the agent listens on.
// The caller opens it.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = intents
	s.State.MaxMessageCount = stateMessages
	s.State.TrackMembers = true
	s.State.TrackVoice = true
	return s, nil
}

// SelfID returns the bot user id of an open session.
func SelfID(s *discordgo.Session) (string, error) {
	if s.State == nil || s.State.User == nil {
		return "", fmt.Errorf("discord session is not ready")
	}
	return s.State.User.ID, nil
}

// CommandHandler runs chat commands. It reports whether msg was one.
type CommandHandler interface {
	Handle(ctx context.Context, msg domain.Message) bool
}

// Gateway translates gateway events into dispatcher calls. discordgo runs
// every handler on its own goroutine.
type Gateway struct {
	ctx        context.Context
	s          *discordgo.Session
	dispatcher *app.Dispatcher
	commands   CommandHandler
	waiter     *Waiter
	platform   domain.Platform
	removers   []func()
}

// NewGateway binds handlers to ctx; cancelling it aborts in-flight handlers.
func NewGateway(ctx context.Context, s *discordgo.Session, dispatcher *app.Dispatcher, commands CommandHandler, waiter *Waiter, platform domain.Platform) *Gateway {
	return &Gateway{ctx: ctx, s: s, dispatcher: dispatcher, commands: commands, waiter: waiter, platform: platform}
}

// Register installs the event handlers.
func (g *Gateway) Register() {
	g.removers = append(g.removers,
		g.s.AddHandler(g.onMessageCreate),
		g.s.AddHandler(g.onMessageUpdate),
		g.s.AddHandler(g.onMessageDelete),
		g.s.AddHandler(g.onReactionAdd),
		g.s.AddHandler(g.onReactionRemove),
		g.s.AddHandler(g.onReactionRemoveAll),
		g.s.AddHandler(g.onMemberUpdate),
		g.s.AddHandler(g.onMemberAdd),
		g.s.AddHandler(g.onMemberRemove),
		g.s.AddHandler(g.onInviteCreate),
		g.s.AddHandler(g.onInviteDelete),
		g.s.AddHandler(g.onVoiceStateUpdate),
	)
}

// Close removes the handlers and closes the session.
func (g *Gateway) Close() error {
	for _, remove := range g.removers {
		remove()
	}
	g.removers = nil
	if err := g.s.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (g *Gateway) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(g.ctx, eventTimeout)
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	msg := toMessage(m.Message)
	if !m.Author.Bot && g.waiter.Offer(msg.ChannelID, msg.AuthorID, msg.Content) {
		return
	}

	ctx, cancel := g.eventContext()
	_ = g.dispatcher.OnMessage(ctx, msg)
	cancel()

	if !m.Author.Bot {
		// commands may prompt for minutes; only shutdown cancels them
		g.commands.Handle(g.ctx, msg)
	}
}

func (g *Gateway) onMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil || m.BeforeUpdate == nil {
		return
	}
	before := toMessage(m.BeforeUpdate)
	after := mergeEdit(before, toMessage(m.Message))
	if before.Content == after.Content {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnMessageEdit(ctx, domain.MessageEdit{Before: before, After: after})
}

func (g *Gateway) onMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	msg := toMessage(m.BeforeDelete)
	if m.BeforeDelete == nil {
		if m.Message == nil {
			return
		}
		msg = toMessage(m.Message)
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnMessageDelete(ctx, msg)
}

func (g *Gateway) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	g.onReaction(r.MessageReaction, domain.ReactionAdd)
}

func (g *Gateway) onReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	g.onReaction(r.MessageReaction, domain.ReactionRemove)
}

func (g *Gateway) onReaction(r *discordgo.MessageReaction, action domain.ReactionAction) {
	if r == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()

	ev := toReaction(r, action)
	if ev.Emoji.Custom {
		// karma needs the author, which reaction events do not carry
		if msg, ok := g.message(ctx, r.ChannelID, r.MessageID); ok {
			ev.MessageAuthorID = msg.AuthorID
			ev.MessageCreatedAt = msg.CreatedAt
		}
	}
	_ = g.dispatcher.OnReaction(ctx, ev)
}

func (g *Gateway) onReactionRemoveAll(_ *discordgo.Session, r *discordgo.MessageReactionRemoveAll) {
	if r.MessageReaction == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()

	msg, ok := g.message(ctx, r.ChannelID, r.MessageID)
	if !ok {
		return
	}
	if msg.GuildID == "" {
		msg.GuildID = r.GuildID
	}
	_ = g.dispatcher.OnReactionClear(ctx, domain.ReactionClear{Message: msg})
}

// message looks the message up in the state cache, then over REST.
func (g *Gateway) message(ctx context.Context, channelID, messageID string) (domain.Message, bool) {
	if g.s.State != nil {
		if m, err := g.s.State.Message(channelID, messageID); err == nil {
			return toMessage(m), true
		}
	}
	msg, err := g.platform.FetchMessage(ctx, channelID, messageID)
	if err != nil {
		slog.DebugContext(ctx, "Failed to resolve reacted message", "channel_id", channelID, "message_id", messageID, "error", err)
		return domain.Message{}, false
	}
	return msg, true
}

func (g *Gateway) onMemberUpdate(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.Member == nil {
		return
	}
	nick, user := nameChanges(m.GuildID, m.BeforeUpdate, m.Member)
	if nick == nil && user == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	if nick != nil {
		_ = g.dispatcher.OnMemberUpdate(ctx, *nick)
	}
	if user != nil {
		_ = g.dispatcher.OnUserUpdate(ctx, *user)
	}
}

func (g *Gateway) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnMemberJoin(ctx, domain.MemberJoin{GuildID: m.GuildID, MemberID: m.User.ID})
}

func (g *Gateway) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.Member == nil || m.User == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnMemberLeave(ctx, domain.MemberLeave{
		GuildID:     m.GuildID,
		MemberID:    m.User.ID,
		DisplayName: displayName(m.User, m.Member),
	})
}

func (g *Gateway) onInviteCreate(_ *discordgo.Session, i *discordgo.InviteCreate) {
	if i.Invite == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnInviteCreate(ctx, domain.InviteChange{GuildID: i.GuildID, Code: i.Code, Uses: i.Uses})
}

func (g *Gateway) onInviteDelete(_ *discordgo.Session, i *discordgo.InviteDelete) {
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnInviteDelete(ctx, domain.InviteChange{GuildID: i.GuildID, Code: i.Code})
}

func (g *Gateway) onVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	join, ok := voiceJoin(v)
	if !ok {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	_ = g.dispatcher.OnVoiceJoin(ctx, join)
}
