package audit

import (
	"context"
	"fmt"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/record"
)

// OnMemberUpdate records a nickname change.
func (t *Tracker) OnMemberUpdate(ctx context.Context, ev domain.MemberUpdate) error {
	if ev.BeforeNick == ev.AfterNick {
		return nil
	}
	now := t.now()
	_, err := record.Update(ctx, t.mutator, record.Names, ev.MemberID, func(h *record.NameHistory) (record.Action, error) {
		h.Nicks.Record(ev.BeforeNick, ev.AfterNick, now)
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record nickname: %w", err)
	}
	return nil
}

// OnUserUpdate records a username change. The same change arrives once per
// shared guild; repeats are dropped.
func (t *Tracker) OnUserUpdate(ctx context.Context, ev domain.UserUpdate) error {
	if ev.BeforeName == ev.AfterName {
		return nil
	}
	now := t.now()
	_, err := record.Update(ctx, t.mutator, record.Names, ev.UserID, func(h *record.NameHistory) (record.Action, error) {
		if h.Names.Current == ev.AfterName {
			return record.Keep, nil
		}
		h.Names.Record(ev.BeforeName, ev.AfterName, now)
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record username: %w", err)
	}
	return nil
}

// History returns a member's nickname and username history.
func (t *Tracker) History(ctx context.Context, memberID string) (record.NameHistory, error) {
	return record.Load(ctx, t.store, record.Names, memberID)
}
