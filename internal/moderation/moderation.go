// Package moderation enforces the downvote flag and keeps the per-member
// message counters and karma.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// Options configures the enforcer.
type Options struct {
	// DownvoteEmoji is added to messages of flagged members, in message text form.
	DownvoteEmoji string
	// UpvoteName and DownvoteName are the custom emoji names that move karma.
	UpvoteName   string
	DownvoteName string
	// KarmaWindow bounds how old a message may be for its reactions to count.
	KarmaWindow time.Duration
	// PingDeleteWindow is the age under which deleting a mention gets flagged.
	PingDeleteWindow time.Duration
}

// Enforcer reacts to messages, voice joins and reactions of flagged members.
type Enforcer struct {
	store    domain.KVStore
	mutator  *record.Mutator
	platform domain.Platform
	clock    clockwork.Clock
	opts     Options
}

func NewEnforcer(store domain.KVStore, mutator *record.Mutator, platform domain.Platform, clock clockwork.Clock, opts Options) *Enforcer {
	return &Enforcer{
		store:    store,
		mutator:  mutator,
		platform: platform,
		clock:    clock,
		opts:     opts,
	}
}

// OnMessage counts guild messages and downvotes messages of flagged authors.
// Both flags get the downvote; the blacklist flag also gates commands.
func (e *Enforcer) OnMessage(ctx context.Context, msg domain.Message) error {
	if msg.InGuild() {
		if _, err := record.AddCounter(ctx, e.mutator, domain.NamespaceMessageCount, domain.CompositeKey(msg.GuildID, msg.AuthorID), 1); err != nil {
			return fmt.Errorf("failed to count message: %w", err)
		}
	}

	flag, err := record.FlagOf(ctx, e.store, msg.GuildID, msg.AuthorID)
	if err != nil {
		return err
	}
	if flag == record.FlagNone {
		return nil
	}
	return e.downvote(ctx, msg.ChannelID, msg.ID)
}

// OnReactionClear puts the downvote back on a flagged author's message.
func (e *Enforcer) OnReactionClear(ctx context.Context, ev domain.ReactionClear) error {
	flag, err := record.FlagOf(ctx, e.store, ev.Message.GuildID, ev.Message.AuthorID)
	if err != nil {
		return err
	}
	if flag == record.FlagNone {
		return nil
	}
	return e.downvote(ctx, ev.Message.ChannelID, ev.Message.ID)
}

// OnVoiceJoin disconnects flagged members and costs them one karma.
func (e *Enforcer) OnVoiceJoin(ctx context.Context, ev domain.VoiceJoin) error {
	if ev.ChannelID == "" {
		return nil
	}
	flag, err := record.FlagOf(ctx, e.store, ev.GuildID, ev.MemberID)
	if err != nil {
		return err
	}
	if flag == record.FlagNone {
		return nil
	}

	err = e.platform.DisconnectVoice(ctx, ev.GuildID, ev.MemberID)
	metrics.SideEffect("disconnect_voice", err)
	if err != nil {
		return apperrors.ExternalError("failed to disconnect member", err).WithField("member_id", ev.MemberID)
	}
	_, err = e.adjustKarma(ctx, ev.MemberID, -1)
	return err
}

// OnReaction moves the message author's karma for upvote/downvote reactions
// from other members on recent messages.
func (e *Enforcer) OnReaction(ctx context.Context, ev domain.ReactionEvent) error {
	if !ev.Emoji.Custom || ev.MessageAuthorID == "" || ev.UserID == ev.MessageAuthorID {
		return nil
	}
	if e.clock.Since(ev.MessageCreatedAt) > e.opts.KarmaWindow {
		return nil
	}

	var delta int64
	switch {
	case ev.Emoji.Is(e.opts.UpvoteName):
		delta = 1
	case ev.Emoji.Is(e.opts.DownvoteName):
		delta = -1
	default:
		return nil
	}
	if ev.Action == domain.ReactionRemove {
		delta = -delta
	}

	_, err := e.adjustKarma(ctx, ev.MessageAuthorID, delta)
	return err
}

// CheckPingDelete flags the author of a guild message that mentioned someone
// and was deleted shortly after being sent. It reports whether a flag was set.
func (e *Enforcer) CheckPingDelete(ctx context.Context, msg domain.Message) (bool, error) {
	if !msg.InGuild() || len(msg.Mentions) == 0 {
		return false, nil
	}
	if e.clock.Since(msg.CreatedAt) >= e.opts.PingDeleteWindow {
		return false, nil
	}

	key := domain.CompositeKey(msg.GuildID, msg.AuthorID)
	if err := e.store.Put(ctx, domain.NamespaceBlacklist, key, record.EncodeFlag(record.FlagDownvote)); err != nil {
		return false, fmt.Errorf("failed to flag ping delete: %w", err)
	}
	slog.Info("Ping and delete flagged", "guild_id", msg.GuildID, "member_id", msg.AuthorID)
	return true, nil
}

// Karma returns a member's karma.
func (e *Enforcer) Karma(ctx context.Context, memberID string) (int64, error) {
	return record.LoadCounter(ctx, e.store, domain.NamespaceKarma, memberID)
}

// MessageCount returns how many messages a member sent in a guild.
func (e *Enforcer) MessageCount(ctx context.Context, guildID, memberID string) (int64, error) {
	return record.LoadCounter(ctx, e.store, domain.NamespaceMessageCount, domain.CompositeKey(guildID, memberID))
}

func (e *Enforcer) adjustKarma(ctx context.Context, memberID string, delta int64) (int64, error) {
	n, err := record.AddCounter(ctx, e.mutator, domain.NamespaceKarma, memberID, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust karma: %w", err)
	}
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	metrics.KarmaAdjustmentsTotal.WithLabelValues(direction).Inc()
	return n, nil
}

func (e *Enforcer) downvote(ctx context.Context, channelID, messageID string) error {
	err := e.platform.AddReaction(ctx, channelID, messageID, e.opts.DownvoteEmoji)
	metrics.SideEffect("add_reaction", err)
	if err != nil {
		return apperrors.ExternalError("failed to add downvote", err).WithField("message_id", messageID)
	}
	return nil
}
