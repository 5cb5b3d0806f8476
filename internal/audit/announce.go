package audit

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
)

// announcer posts to logs channels through one token bucket per guild.
type announcer struct {
	platform domain.Platform
	limit    rate.Limit
	burst    int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newAnnouncer(platform domain.Platform, limit rate.Limit, burst int) *announcer {
	if burst < 1 {
		burst = 1
	}
	return &announcer{
		platform: platform,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (a *announcer) limiter(guildID string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[guildID]
	if !ok {
		l = rate.NewLimiter(a.limit, a.burst)
		a.limiters[guildID] = l
	}
	return l
}

// announce drops the entry when the guild is over its rate.
func (a *announcer) announce(ctx context.Context, guildID string, entry domain.LogEntry) error {
	if !a.limiter(guildID).Allow() {
		metrics.LogAnnouncementsDropped.Inc()
		slog.Debug("Log announcement dropped", "guild_id", guildID, "title", entry.Title)
		return nil
	}

	err := a.platform.SendLog(ctx, guildID, entry)
	metrics.SideEffect("send_log", err)
	if err != nil {
		return apperrors.ExternalError("failed to announce to logs channel", err).WithField("guild_id", guildID)
	}
	return nil
}
