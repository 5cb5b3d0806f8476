package admin

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// Prompts of the interactive role-menu setup.
const (
	PromptChannel = "Send the channel you want the message to be in"
	PromptBriefs  = "Send a brief for every emote separated by |"
	PromptRoles   = "Send a role id/name for every role separated by |"
)

const menuHeader = "**Role Menu:**\nReact for a role.\n"

var nonDigits = regexp.MustCompile(`\D+`)

// RoleMenu is one stored reaction-role menu.
type RoleMenu struct {
	MessageID string
	Roles     map[string]string
}

// ListRoleMenus returns every stored menu in message id order.
func (s *Service) ListRoleMenus(ctx context.Context) ([]RoleMenu, error) {
	var (
		menus  []RoleMenu
		decErr error
	)
	err := s.store.Iterate(ctx, domain.NamespaceRoleMenus, func(key string, value []byte) bool {
		m, err := record.RoleMenus.Decode(value, true)
		if err != nil {
			decErr = apperrors.AsStructuredError(err).WithField("key", key)
			return false
		}
		menus = append(menus, RoleMenu{MessageID: key, Roles: m.Roles})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list role menus: %w", err)
	}
	if decErr != nil {
		return nil, decErr
	}
	return menus, nil
}

// DeleteRoleMenu forgets a menu, then deletes its message.
func (s *Service) DeleteRoleMenu(ctx context.Context, channelID, messageID string) error {
	if err := s.store.Delete(ctx, domain.NamespaceRoleMenus, messageID); err != nil {
		return fmt.Errorf("failed to delete role menu: %w", err)
	}
	err := s.platform.DeleteMessage(ctx, channelID, messageID)
	metrics.SideEffect("delete_message", err)
	if err != nil {
		return apperrors.ExternalError("failed to delete role menu message", err).WithField("message_id", messageID)
	}
	return nil
}

// StartRoleMenu asks for a channel, briefs and roles, posts the menu and
// stores the emoji to role mapping. Nothing is stored unless every step
// succeeds.
func (s *Service) StartRoleMenu(ctx context.Context, inv Invoker, emojis []string) (string, error) {
	if len(emojis) == 0 {
		return "", apperrors.ValidationError("Put emojis as arguments in the command e.g rrole :fire:")
	}

	channelAnswer, err := s.ask(ctx, inv, PromptChannel)
	if err != nil {
		return "", err
	}
	briefs, roles, err := s.askBriefsAndRoles(ctx, inv, emojis)
	if err != nil {
		return "", err
	}

	channelID, err := s.resolveChannel(ctx, inv, channelAnswer)
	if err != nil {
		return "", err
	}

	messageID, err := s.platform.SendMessage(ctx, channelID, menuHeader+menuLines(emojis, briefs))
	metrics.SideEffect("send_message", err)
	if err != nil {
		return "", apperrors.ExternalError("failed to post role menu", err)
	}
	if err := s.react(ctx, channelID, messageID, emojis); err != nil {
		delErr := s.platform.DeleteMessage(ctx, channelID, messageID)
		metrics.SideEffect("delete_message", delErr)
		if delErr != nil {
			slog.Warn("Failed to delete aborted role menu", "message_id", messageID, "error", delErr)
		}
		return "", err
	}

	_, err = record.Update(ctx, s.mutator, record.RoleMenus, messageID, func(m *record.RoleMenu) (record.Action, error) {
		m.Roles = pairs(emojis, roles)
		return record.Put, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store role menu: %w", err)
	}
	slog.Info("Role menu created", "guild_id", inv.GuildID, "message_id", messageID, "roles", len(roles))
	return messageID, nil
}

// EditRoleMenu appends emojis to an existing menu, keeping its old pairs.
func (s *Service) EditRoleMenu(ctx context.Context, inv Invoker, channelID, messageID string, emojis []string) error {
	if len(emojis) == 0 {
		return apperrors.ValidationError("Put emojis as arguments in the command e.g rrole edit <message> :fire:")
	}
	existing, err := record.Load(ctx, s.store, record.RoleMenus, messageID)
	if err != nil {
		return err
	}
	if len(existing.Roles) == 0 {
		return apperrors.ValidationError("Message not found")
	}

	msg, err := s.platform.FetchMessage(ctx, channelID, messageID)
	metrics.SideEffect("fetch_message", err)
	if err != nil {
		return apperrors.ExternalError("failed to fetch role menu message", err).WithField("message_id", messageID)
	}

	briefs, roles, err := s.askBriefsAndRoles(ctx, inv, emojis)
	if err != nil {
		return err
	}

	err = s.platform.EditMessage(ctx, channelID, messageID, msg.Content+"\n"+menuLines(emojis, briefs))
	metrics.SideEffect("edit_message", err)
	if err != nil {
		return apperrors.ExternalError("failed to edit role menu message", err).WithField("message_id", messageID)
	}
	if err := s.react(ctx, channelID, messageID, emojis); err != nil {
		return err
	}

	// the menu may have been deleted while the prompts were open
	_, err = record.Update(ctx, s.mutator, record.RoleMenus, messageID, func(m *record.RoleMenu) (record.Action, error) {
		if len(m.Roles) == 0 {
			return record.Keep, apperrors.ValidationError("Message not found")
		}
		m.Merge(pairs(emojis, roles))
		return record.Put, nil
	})
	if apperrors.Is(err, apperrors.KindValidation) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to store role menu: %w", err)
	}
	return nil
}

func (s *Service) askBriefsAndRoles(ctx context.Context, inv Invoker, emojis []string) ([]string, []string, error) {
	briefsAnswer, err := s.ask(ctx, inv, PromptBriefs)
	if err != nil {
		return nil, nil, err
	}
	rolesAnswer, err := s.ask(ctx, inv, PromptRoles)
	if err != nil {
		return nil, nil, err
	}

	roles, err := s.resolveRoles(ctx, inv.GuildID, splitAnswer(rolesAnswer))
	if err != nil {
		return nil, nil, err
	}
	if len(roles) != len(emojis) {
		return nil, nil, apperrors.ValidationError(fmt.Sprintf("Expected %d roles, got %d", len(emojis), len(roles)))
	}
	return splitAnswer(briefsAnswer), roles, nil
}

// resolveRoles maps role names to ids; numeric answers are taken as ids.
func (s *Service) resolveRoles(ctx context.Context, guildID string, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" && nonDigits.FindStringIndex(name) == nil {
			ids = append(ids, name)
			continue
		}
		id, ok, err := s.platform.FindRole(ctx, guildID, name)
		if err != nil {
			return nil, apperrors.ExternalError("failed to look up role", err)
		}
		if !ok {
			return nil, apperrors.ValidationError("Couldn't find role " + name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveChannel picks the channel mentioned in answer, falling back to the
// invoker's channel when it is missing or foreign.
func (s *Service) resolveChannel(ctx context.Context, inv Invoker, answer string) (string, error) {
	id := nonDigits.ReplaceAllString(answer, "")
	if id == "" {
		return inv.ChannelID, nil
	}
	ok, err := s.platform.ChannelExists(ctx, inv.GuildID, id)
	if err != nil {
		return "", apperrors.ExternalError("failed to look up channel", err)
	}
	if !ok {
		return inv.ChannelID, nil
	}
	return id, nil
}

func (s *Service) react(ctx context.Context, channelID, messageID string, emojis []string) error {
	for _, e := range emojis {
		err := s.platform.AddReaction(ctx, channelID, messageID, e)
		metrics.SideEffect("add_reaction", err)
		if err != nil {
			return apperrors.ValidationError("Invalid emoji " + e)
		}
	}
	return nil
}

func menuLines(emojis, briefs []string) string {
	var b strings.Builder
	for i, e := range emojis {
		if i >= len(briefs) {
			break
		}
		fmt.Fprintf(&b, "\n%s: `%s`\n", e, briefs[i])
	}
	return b.String()
}

func pairs(emojis, roles []string) map[string]string {
	out := make(map[string]string, len(emojis))
	for i, e := range emojis {
		out[e] = roles[i]
	}
	return out
}

func splitAnswer(answer string) []string {
	parts := strings.Split(answer, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
