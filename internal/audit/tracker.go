package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/record"
)

// PingChecker flags members who mention someone and delete the message soon after.
type PingChecker interface {
	CheckPingDelete(ctx context.Context, msg domain.Message) (bool, error)
}

// Options configures a Tracker.
type Options struct {
	// SelfID is the agent's own user id; its messages are never tracked.
	SelfID string
	// AnnounceRate and AnnounceBurst bound logs channel posts per guild.
	AnnounceRate  rate.Limit
	AnnounceBurst int
}

// Tracker records member history and announces it.
type Tracker struct {
	store     domain.KVStore
	mutator   *record.Mutator
	platform  domain.Platform
	pings     PingChecker
	clock     clockwork.Clock
	selfID    string
	announcer *announcer
}

func NewTracker(store domain.KVStore, mutator *record.Mutator, platform domain.Platform, pings PingChecker, clock clockwork.Clock, opts Options) *Tracker {
	return &Tracker{
		store:     store,
		mutator:   mutator,
		platform:  platform,
		pings:     pings,
		clock:     clock,
		selfID:    opts.SelfID,
		announcer: newAnnouncer(platform, opts.AnnounceRate, opts.AnnounceBurst),
	}
}

func (t *Tracker) now() string {
	return t.clock.Now().Format(record.TimeLayout)
}

func (t *Tracker) loggingDisabled(ctx context.Context, guildID string) (bool, error) {
	_, found, err := t.store.Get(ctx, domain.NamespaceSettings, domain.LoggingDisabledKey(guildID))
	if err != nil {
		return false, fmt.Errorf("failed to read logging setting: %w", err)
	}
	return found, nil
}

// escapeBackticks keeps member text from closing a code block.
func escapeBackticks(s string) string {
	return strings.ReplaceAll(s, "`", "`\u200b")
}
