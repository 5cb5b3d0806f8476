package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/record"
)

// OnEdit records an edited guild message and announces it.
func (t *Tracker) OnEdit(ctx context.Context, ev domain.MessageEdit) error {
	before, after := ev.Before, ev.After
	if !after.InGuild() || after.Content == "" || before.Content == after.Content || after.AuthorID == t.selfID {
		return nil
	}
	disabled, err := t.loggingDisabled(ctx, after.GuildID)
	if err != nil || disabled {
		return err
	}

	now := t.now()
	_, err = record.Update(ctx, t.mutator, record.Edits, after.AuthorID, func(l *record.EditLog) (record.Action, error) {
		l.Append(now, before.Content, after.Content)
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}

	snipe, err := record.LastEdit.Encode(record.EditSnipe{Before: before.Content, After: after.Content, Author: after.AuthorDisplayName})
	if err != nil {
		return err
	}
	if err := t.store.Put(ctx, domain.NamespaceSettings, domain.EditSnipeKey(after.GuildID), snipe); err != nil {
		return fmt.Errorf("failed to store edit snipe: %w", err)
	}

	if strings.HasPrefix(after.Content, "https") {
		return nil
	}
	return t.announcer.announce(ctx, after.GuildID, domain.LogEntry{
		Title: after.AuthorDisplayName + " edited:",
		Fields: []domain.LogField{
			{Name: "From:", Value: "```" + escapeBackticks(before.Content) + "```"},
			{Name: "To:", Value: "```" + escapeBackticks(after.Content) + "```"},
		},
		Footer: "Member ID: " + after.AuthorID,
	})
}

// OnDelete records a deleted guild message, runs the ping-and-delete check
// and announces it.
func (t *Tracker) OnDelete(ctx context.Context, msg domain.Message) error {
	if !msg.InGuild() || msg.AuthorID == t.selfID || (msg.Content == "" && len(msg.Attachments) == 0) {
		return nil
	}
	disabled, err := t.loggingDisabled(ctx, msg.GuildID)
	if err != nil || disabled {
		return err
	}

	var images []string
	for _, a := range msg.Attachments {
		if a.IsImage() {
			images = append(images, a.URL)
		}
	}
	content := escapeBackticks(msg.Content) + "\n" + strings.Join(images, "\n")

	now := t.now()
	_, err = record.Update(ctx, t.mutator, record.Deletes, msg.AuthorID, func(l *record.DeleteLog) (record.Action, error) {
		l.Append(now, msg.Content)
		return record.Put, nil
	})
	if err != nil {
		return fmt.Errorf("failed to record delete: %w", err)
	}

	snipe, err := record.LastDelete.Encode(record.Snipe{Content: content, Author: msg.AuthorDisplayName})
	if err != nil {
		return err
	}
	if err := t.store.Put(ctx, domain.NamespaceSettings, domain.SnipeKey(msg.GuildID), snipe); err != nil {
		return fmt.Errorf("failed to store snipe: %w", err)
	}

	if _, err := t.pings.CheckPingDelete(ctx, msg); err != nil {
		return err
	}

	return t.announcer.announce(ctx, msg.GuildID, domain.LogEntry{
		Title:       msg.AuthorDisplayName + " deleted:",
		Description: "```\n" + content + "```",
		Footer:      "Member ID: " + msg.AuthorID,
	})
}

// OnMemberLeave announces a departure.
func (t *Tracker) OnMemberLeave(ctx context.Context, ev domain.MemberLeave) error {
	return t.announcer.announce(ctx, ev.GuildID, domain.LogEntry{
		Description: "```" + ev.DisplayName + " left the server\n\nMember ID: " + ev.MemberID + "```",
	})
}

// LastDelete returns the guild's most recently deleted message.
func (t *Tracker) LastDelete(ctx context.Context, guildID string) (record.Snipe, bool, error) {
	b, found, err := t.store.Get(ctx, domain.NamespaceSettings, domain.SnipeKey(guildID))
	if err != nil || !found {
		return record.Snipe{}, false, err
	}
	s, err := record.LastDelete.Decode(b, true)
	return s, err == nil, err
}

// LastEdit returns the guild's most recently edited message.
func (t *Tracker) LastEdit(ctx context.Context, guildID string) (record.EditSnipe, bool, error) {
	b, found, err := t.store.Get(ctx, domain.NamespaceSettings, domain.EditSnipeKey(guildID))
	if err != nil || !found {
		return record.EditSnipe{}, false, err
	}
	s, err := record.LastEdit.Decode(b, true)
	return s, err == nil, err
}

// Edits returns a member's edit history.
func (t *Tracker) Edits(ctx context.Context, memberID string) (record.EditLog, error) {
	return record.Load(ctx, t.store, record.Edits, memberID)
}

// Deletes returns a member's delete history.
func (t *Tracker) Deletes(ctx context.Context, memberID string) (record.DeleteLog, error) {
	return record.Load(ctx, t.store, record.Deletes, memberID)
}
