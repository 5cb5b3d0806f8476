// Package admin implements the owner and moderator commands that read and
// rewrite stored records: infractions, blacklist and setting toggles, the
// cache and reaction-role menus.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/record"
)

// Invoker identifies who ran a command and where.
type Invoker struct {
	UserID    string
	GuildID   string
	ChannelID string
}

// Service runs administrative commands.
type Service struct {
	store         domain.KVStore
	mutator       *record.Mutator
	platform      domain.Platform
	prompter      domain.Prompter
	clock         clockwork.Clock
	promptTimeout time.Duration
}

func NewService(store domain.KVStore, mutator *record.Mutator, platform domain.Platform, prompter domain.Prompter, clock clockwork.Clock, promptTimeout time.Duration) *Service {
	return &Service{
		store:         store,
		mutator:       mutator,
		platform:      platform,
		prompter:      prompter,
		clock:         clock,
		promptTimeout: promptTimeout,
	}
}

// ask waits for one reply, bounded by the prompt timeout.
func (s *Service) ask(ctx context.Context, inv Invoker, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.promptTimeout)
	defer cancel()

	answer, err := s.prompter.Ask(ctx, inv.ChannelID, inv.UserID, question)
	if err != nil {
		if apperrors.Is(err, apperrors.KindTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.TimeoutError("Timed out", err)
		}
		return "", err
	}
	return answer, nil
}
