// Package gate decides whether a command invocation may run.
package gate

import (
	"context"
	"fmt"
	"slices"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// Notices shown to a denied invoker.
const (
	NoticeCommandDisabled = "Command disabled"
	NoticeBlacklisted     = "You are blacklisted from using commands"
)

// CommandDisableChannel stays usable in disabled channels so they can be re-enabled.
const CommandDisableChannel = "disable_channel"

// Invocation describes one command call. GuildID is empty in direct messages.
type Invocation struct {
	UserID    string
	GuildID   string
	ChannelID string
	Command   string
}

// Decision is the gate's verdict. A denial with an empty Notice is silent.
type Decision struct {
	Allowed bool
	Notice  string
}

// Gate checks owners, disabled channels, disabled commands and blacklist
// flags, in that order.
type Gate struct {
	store  domain.KVStore
	owners map[string]bool
}

func New(store domain.KVStore, ownerIDs []string) *Gate {
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	return &Gate{store: store, owners: owners}
}

// IsOwner reports whether userID bypasses every check.
func (g *Gate) IsOwner(userID string) bool {
	return g.owners[userID]
}

func (g *Gate) Check(ctx context.Context, inv Invocation) (Decision, error) {
	d, reason, err := g.check(ctx, inv)
	if err != nil {
		return Decision{}, err
	}
	metrics.CommandGateDecisionsTotal.WithLabelValues(reason).Inc()
	return d, nil
}

func (g *Gate) check(ctx context.Context, inv Invocation) (Decision, string, error) {
	if g.owners[inv.UserID] {
		return Decision{Allowed: true}, "owner", nil
	}

	if inv.GuildID != "" {
		if inv.Command != CommandDisableChannel {
			disabled, err := record.Load(ctx, g.store, record.DisabledChannels, domain.DisabledChannelsKey(inv.GuildID))
			if err != nil {
				return Decision{}, "", err
			}
			if slices.Contains(disabled, inv.ChannelID) {
				return Decision{}, "channel_disabled", nil
			}
		}

		if !domain.IsReservedSetting(inv.Command) {
			_, found, err := g.store.Get(ctx, domain.NamespaceSettings, domain.DisabledCommandKey(inv.GuildID, inv.Command))
			if err != nil {
				return Decision{}, "", fmt.Errorf("failed to read command setting: %w", err)
			}
			if found {
				return Decision{Notice: NoticeCommandDisabled}, "command_disabled", nil
			}
		}
	}

	flag, err := record.FlagOf(ctx, g.store, inv.GuildID, inv.UserID)
	if err != nil {
		return Decision{}, "", err
	}
	if flag != record.FlagNone {
		return Decision{Notice: NoticeBlacklisted}, "blacklisted", nil
	}
	return Decision{Allowed: true}, "allowed", nil
}
