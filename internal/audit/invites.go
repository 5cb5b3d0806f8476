package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// OnMemberJoin attributes the new member to the first invite whose use count
// rose above its baseline. Unknown invites get a baseline and are skipped;
// every risen baseline is moved up to the live count.
func (t *Tracker) OnMemberJoin(ctx context.Context, ev domain.MemberJoin) error {
	invites, err := t.platform.ListInvites(ctx, ev.GuildID)
	metrics.SideEffect("list_invites", err)
	if err != nil {
		return apperrors.ExternalError("failed to list invites", err).WithField("guild_id", ev.GuildID)
	}

	attributed := ""
	for _, inv := range invites {
		rose := false
		key := domain.InviteBaselineKey(inv.Code, ev.GuildID)
		err := t.mutator.Mutate(ctx, domain.NamespaceInvites, key, func(current []byte, found bool) ([]byte, record.Action, error) {
			if !found {
				return record.EncodeCounter(int64(inv.Uses)), record.Put, nil
			}
			baseline, err := record.DecodeCounter(current, found)
			if err != nil {
				return nil, record.Keep, err
			}
			if int64(inv.Uses) <= baseline {
				return nil, record.Keep, nil
			}
			rose = true
			return record.EncodeCounter(int64(inv.Uses)), record.Put, nil
		})
		if err != nil {
			return fmt.Errorf("failed to update invite baseline %s: %w", inv.Code, err)
		}
		if rose && attributed == "" {
			attributed = inv.Code
		}
	}

	if attributed == "" {
		return nil
	}
	if err := t.store.Put(ctx, domain.NamespaceInvites, ev.MemberID, []byte(attributed)); err != nil {
		return fmt.Errorf("failed to store invite attribution: %w", err)
	}
	slog.Info("Member joined via invite", "guild_id", ev.GuildID, "member_id", ev.MemberID, "invite", attributed)
	return nil
}

// OnInviteCreate stores the baseline of a new invite.
func (t *Tracker) OnInviteCreate(ctx context.Context, ev domain.InviteChange) error {
	key := domain.InviteBaselineKey(ev.Code, ev.GuildID)
	if err := t.store.Put(ctx, domain.NamespaceInvites, key, record.EncodeCounter(int64(ev.Uses))); err != nil {
		return fmt.Errorf("failed to store invite baseline: %w", err)
	}
	return nil
}

// OnInviteDelete forgets the baseline of a deleted invite.
func (t *Tracker) OnInviteDelete(ctx context.Context, ev domain.InviteChange) error {
	key := domain.InviteBaselineKey(ev.Code, ev.GuildID)
	if err := t.store.Delete(ctx, domain.NamespaceInvites, key); err != nil {
		return fmt.Errorf("failed to delete invite baseline: %w", err)
	}
	return nil
}

// InviteOf returns the invite code a member joined with.
func (t *Tracker) InviteOf(ctx context.Context, memberID string) (string, bool, error) {
	b, found, err := t.store.Get(ctx, domain.NamespaceInvites, memberID)
	if err != nil {
		return "", false, fmt.Errorf("failed to read invite attribution: %w", err)
	}
	return string(b), found, nil
}
