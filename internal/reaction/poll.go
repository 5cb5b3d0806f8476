package reaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/record"
)

// Polls tallies votes on tracked poll messages. Removals are not counted and
// a user may vote more than once.
type Polls struct {
	store   domain.KVStore
	mutator *record.Mutator
}

func NewPolls(store domain.KVStore, mutator *record.Mutator) *Polls {
	return &Polls{store: store, mutator: mutator}
}

func (p *Polls) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	if ev.Action != domain.ReactionAdd || !ev.InGuild() || ev.Emoji.Custom {
		return nil
	}

	_, err := record.Update(ctx, p.mutator, record.Polls, ev.GuildID, func(poll *record.Poll) (record.Action, error) {
		if !poll.Increment(ev.MessageID, ev.Emoji.Name) {
			return record.Keep, nil
		}
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to count poll vote: %w", err)
	}
	return nil
}

// Track starts tallying emojis on a poll message.
func (p *Polls) Track(ctx context.Context, guildID, messageID string, emojis []string) error {
	_, err := record.Update(ctx, p.mutator, record.Polls, guildID, func(poll *record.Poll) (record.Action, error) {
		poll.Track(messageID, emojis)
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to track poll: %w", err)
	}
	return nil
}

// Results returns emoji -> count for one poll message; nil when untracked.
func (p *Polls) Results(ctx context.Context, guildID, messageID string) (map[string]int, error) {
	poll, err := record.Load(ctx, p.store, record.Polls, guildID)
	if err != nil {
		return nil, err
	}
	options, ok := poll.Messages[messageID]
	if !ok {
		return nil, nil
	}
	out := make(map[string]int, len(options))
	for emoji, opt := range options {
		out[emoji] = opt.Count
	}
	return out, nil
}

// Clear forgets every tracked poll of every guild.
func (p *Polls) Clear(ctx context.Context) error {
	var guilds []string
	if err := p.store.Iterate(ctx, domain.NamespacePolls, func(key string, _ []byte) bool {
		guilds = append(guilds, key)
		return true
	}); err != nil {
		return fmt.Errorf("failed to list polls: %w", err)
	}

	for _, g := range guilds {
		err := p.mutator.Mutate(ctx, domain.NamespacePolls, g, func([]byte, bool) ([]byte, record.Action, error) {
			return nil, record.Delete, nil
		})
		if err != nil {
			return fmt.Errorf("failed to clear polls of guild %s: %w", g, err)
		}
	}
	slog.Info("Polls cleared", "guilds", len(guilds))
	return nil
}
