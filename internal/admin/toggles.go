package admin

import (
	"context"
	"fmt"
	"slices"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/record"
)

// ToggleGlobalBlacklist flips the global blacklist flag of a user and reports
// whether the user is flagged afterwards. Any existing flag is cleared.
func (s *Service) ToggleGlobalBlacklist(ctx context.Context, userID string) (bool, error) {
	return s.toggle(ctx, domain.NamespaceBlacklist, userID, record.EncodeFlag(record.FlagBlacklist))
}

// ToggleGlobalDownvote flips the global downvote flag of a user.
func (s *Service) ToggleGlobalDownvote(ctx context.Context, userID string) (bool, error) {
	return s.toggle(ctx, domain.NamespaceBlacklist, userID, record.EncodeFlag(record.FlagDownvote))
}

// ToggleGuildDownvote flips the guild-scoped downvote flag of a member.
func (s *Service) ToggleGuildDownvote(ctx context.Context, guildID, memberID string) (bool, error) {
	return s.toggle(ctx, domain.NamespaceBlacklist, domain.CompositeKey(guildID, memberID), record.EncodeFlag(record.FlagDownvote))
}

// ToggleCommand disables or re-enables a command in a guild. It reports
// whether the command is disabled afterwards.
func (s *Service) ToggleCommand(ctx context.Context, guildID, command string) (bool, error) {
	if domain.IsReservedSetting(command) {
		return false, apperrors.ValidationError("Command " + command + " cannot be disabled")
	}
	return s.toggle(ctx, domain.NamespaceSettings, domain.DisabledCommandKey(guildID, command), []byte("1"))
}

// ToggleLogging turns edit and delete logging off or on for a guild. It
// reports whether logging is disabled afterwards.
func (s *Service) ToggleLogging(ctx context.Context, guildID string) (bool, error) {
	return s.toggle(ctx, domain.NamespaceSettings, domain.LoggingDisabledKey(guildID), []byte("1"))
}

// ToggleChannel disables or re-enables commands in a channel. It reports
// whether the channel is disabled afterwards.
func (s *Service) ToggleChannel(ctx context.Context, guildID, channelID string) (bool, error) {
	disabled := false
	_, err := record.Update(ctx, s.mutator, record.DisabledChannels, domain.DisabledChannelsKey(guildID), func(channels *[]string) (record.Action, error) {
		if i := slices.Index(*channels, channelID); i >= 0 {
			*channels = slices.Delete(*channels, i, i+1)
		} else {
			*channels = append(*channels, channelID)
			disabled = true
		}
		if len(*channels) == 0 {
			return record.Delete, nil
		}
		return record.Put, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle channel: %w", err)
	}
	return disabled, nil
}

// toggle deletes key when present and writes value otherwise.
func (s *Service) toggle(ctx context.Context, ns domain.Namespace, key string, value []byte) (bool, error) {
	set := false
	err := s.mutator.Mutate(ctx, ns, key, func(_ []byte, found bool) ([]byte, record.Action, error) {
		if found {
			return nil, record.Delete, nil
		}
		set = true
		return value, record.Put, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s/%s: %w", ns, key, err)
	}
	return set, nil
}
