package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/record"
)

// CacheWiper empties the cache namespace.
type CacheWiper interface {
	WipeCache(ctx context.Context) (int, error)
}

// PollClearer forgets every tracked poll.
type PollClearer interface {
	Clear(ctx context.Context) error
}

// Startup runs the housekeeping done once the gateway is ready.
type Startup struct {
	mutator    *record.Mutator
	cache      CacheWiper
	polls      PollClearer
	clock      clockwork.Clock
	clearPolls bool
}

func NewStartup(mutator *record.Mutator, cache CacheWiper, polls PollClearer, clock clockwork.Clock, clearPolls bool) *Startup {
	return &Startup{mutator: mutator, cache: cache, polls: polls, clock: clock, clearPolls: clearPolls}
}

// Run appends the boot duration since began to boot_times, wipes the cache
// and, when configured, clears polls. It returns the recorded duration.
func (s *Startup) Run(ctx context.Context, began time.Time) (float64, error) {
	elapsed := roundTo(s.clock.Since(began).Seconds(), 5)

	_, err := record.Update(ctx, s.mutator, record.BootTimes, domain.SettingBootTimes, func(times *[]float64) (record.Action, error) {
		*times = append(*times, elapsed)
		return record.Put, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record boot time: %w", err)
	}

	wiped, err := s.cache.WipeCache(ctx)
	if err != nil {
		return 0, err
	}

	if s.clearPolls {
		if err := s.polls.Clear(ctx); err != nil {
			return 0, err
		}
	}

	slog.InfoContext(ctx, "Startup complete", "boot_seconds", elapsed, "cache_wiped", wiped, "polls_cleared", s.clearPolls)
	return elapsed, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
