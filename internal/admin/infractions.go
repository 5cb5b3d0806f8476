package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/record"
)

const noInfractions = "No infractions found for member"

func infractionKey(guildID, memberID string) string {
	return domain.CompositeKey(guildID, memberID)
}

// AddInfraction appends an entry of kind to a member's log.
func (s *Service) AddInfraction(ctx context.Context, guildID, memberID string, kind record.InfractionKind, reason, moderatorID string) (record.Infraction, error) {
	entry := record.Infraction{
		ID:        uuid.NewString(),
		Reason:    reason,
		Moderator: moderatorID,
		At:        s.clock.Now().Format(record.TimeLayout),
	}
	_, err := record.Update(ctx, s.mutator, record.Infractions, infractionKey(guildID, memberID), func(l *record.InfractionLog) (record.Action, error) {
		entries := l.Entries(kind)
		if entries == nil {
			return record.Keep, apperrors.ValidationError("Unknown infraction type " + string(kind))
		}
		*entries = append(*entries, entry)
		return record.Put, nil
	})
	if err != nil {
		return record.Infraction{}, err
	}
	return entry, nil
}

// ClearInfractions removes every infraction of a member.
func (s *Service) ClearInfractions(ctx context.Context, guildID, memberID string) error {
	err := s.mutator.Mutate(ctx, domain.NamespaceInfractions, infractionKey(guildID, memberID), func([]byte, bool) ([]byte, record.Action, error) {
		return nil, record.Delete, nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear infractions: %w", err)
	}
	return nil
}

// ShowInfractions returns a member's log, NotFound when it is empty.
func (s *Service) ShowInfractions(ctx context.Context, guildID, memberID string) (record.InfractionLog, error) {
	l, err := record.Load(ctx, s.store, record.Infractions, infractionKey(guildID, memberID))
	if err != nil {
		return record.InfractionLog{}, err
	}
	if l.Empty() {
		return record.InfractionLog{}, apperrors.NotFoundError(noInfractions)
	}
	return l, nil
}

// RemoveInfraction deletes the entry at index of one kind. An unknown kind or
// out-of-range index leaves the log untouched.
func (s *Service) RemoveInfraction(ctx context.Context, guildID, memberID, kind string, index int) (record.Infraction, error) {
	k, ok := record.ParseInfractionKind(strings.ToLower(kind))
	if !ok {
		return record.Infraction{}, apperrors.ValidationError("Unknown infraction type " + kind)
	}

	var removed record.Infraction
	_, err := record.Update(ctx, s.mutator, record.Infractions, infractionKey(guildID, memberID), func(l *record.InfractionLog) (record.Action, error) {
		if l.Empty() {
			return record.Keep, apperrors.NotFoundError(noInfractions)
		}
		entries := l.Entries(k)
		if index < 0 || index >= len(*entries) {
			return record.Keep, apperrors.ValidationError(fmt.Sprintf("No %s at index %d", k, index))
		}
		removed = (*entries)[index]
		*entries = append((*entries)[:index], (*entries)[index+1:]...)
		return record.Put, nil
	})
	if err != nil {
		return record.Infraction{}, err
	}
	return removed, nil
}

// InfractionSummary renders per-kind counts, e.g. "Warnings: 2, Mutes: 0, Kicks: 0, Bans: 1".
func InfractionSummary(l record.InfractionLog) string {
	return fmt.Sprintf("Warnings: %d, Mutes: %d, Kicks: %d, Bans: %d",
		len(l.Warnings), len(l.Mutes), len(l.Kicks), len(l.Bans))
}
