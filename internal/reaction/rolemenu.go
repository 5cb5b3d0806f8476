package reaction

import (
	"context"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// RoleMenus grants a role when a mapped emoji is added to a menu message and
// revokes it when the emoji is removed.
type RoleMenus struct {
	store    domain.KVStore
	platform domain.Platform
}

func NewRoleMenus(store domain.KVStore, platform domain.Platform) *RoleMenus {
	return &RoleMenus{store: store, platform: platform}
}

func (r *RoleMenus) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	if !ev.InGuild() {
		return nil
	}

	menu, err := record.Load(ctx, r.store, record.RoleMenus, ev.MessageID)
	if err != nil {
		return err
	}
	roleID, ok := menu.Resolve(ev.Emoji)
	if !ok {
		return nil
	}

	if ev.Action == domain.ReactionRemove {
		err = r.platform.RemoveRole(ctx, ev.GuildID, ev.UserID, roleID)
		metrics.SideEffect("remove_role", err)
		if err != nil {
			return apperrors.ExternalError("failed to revoke role", err).WithField("role_id", roleID)
		}
		return nil
	}

	err = r.platform.AddRole(ctx, ev.GuildID, ev.UserID, roleID)
	metrics.SideEffect("add_role", err)
	if err != nil {
		return apperrors.ExternalError("failed to grant role", err).WithField("role_id", roleID)
	}
	return nil
}
