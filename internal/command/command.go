// Package command parses prefixed chat commands, passes them through the
// gate and runs them against the application handlers.
package command

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tukib/snakebot/internal/admin"
	"github.com/tukib/snakebot/internal/app"
	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/gate"
	"github.com/tukib/snakebot/internal/metrics"
)

const (
	noticeOwnerOnly = "This command is owner only"
	noticeFailed    = "Something went wrong"
)

var mention = regexp.MustCompile(`^<[@#][!&]?(\d+)>$`)

// call is one parsed invocation.
type call struct {
	msg  domain.Message
	name string
	args []string
	// rest is the raw text after the command name.
	rest string
}

func (c call) invoker() admin.Invoker {
	return admin.Invoker{UserID: c.msg.AuthorID, GuildID: c.msg.GuildID, ChannelID: c.msg.ChannelID}
}

// member returns the id mentioned by args[i], or the author when absent.
func (c call) member(i int) string {
	if i < len(c.args) {
		if id := parseID(c.args[i]); id != "" {
			return id
		}
	}
	return c.msg.AuthorID
}

type command struct {
	ownerOnly bool
	guildOnly bool
	run       func(ctx context.Context, c call) (string, error)
}

// Handler runs commands found in messages.
type Handler struct {
	app      *app.App
	platform domain.Platform
	prefix   string
	commands map[string]command
}

func NewHandler(a *app.App, platform domain.Platform, prefix string) *Handler {
	h := &Handler{app: a, platform: platform, prefix: prefix}
	h.commands = h.table()
	return h
}

// Handle runs msg as a command. It reports whether msg was one; errors are
// answered in the channel and logged, never returned.
func (h *Handler) Handle(ctx context.Context, msg domain.Message) bool {
	c, ok := h.parse(msg)
	if !ok {
		return false
	}
	cmd, ok := h.commands[c.name]
	if !ok {
		return false
	}

	decision, err := h.app.Gate.Check(ctx, gate.Invocation{
		UserID:    msg.AuthorID,
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		Command:   c.name,
	})
	if err != nil {
		h.fail(ctx, c, err)
		return true
	}
	if !decision.Allowed {
		if decision.Notice != "" {
			h.reply(ctx, c, decision.Notice)
		}
		return true
	}
	if cmd.ownerOnly && !h.app.Gate.IsOwner(msg.AuthorID) {
		h.reply(ctx, c, noticeOwnerOnly)
		return true
	}
	if cmd.guildOnly && !msg.InGuild() {
		return true
	}

	text, err := cmd.run(ctx, c)
	if err != nil {
		h.fail(ctx, c, err)
		return true
	}
	if text != "" {
		h.reply(ctx, c, text)
	}
	return true
}

func (h *Handler) parse(msg domain.Message) (call, bool) {
	if h.prefix == "" || !strings.HasPrefix(msg.Content, h.prefix) {
		return call{}, false
	}
	body := strings.TrimPrefix(msg.Content, h.prefix)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return call{}, false
	}
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body), fields[0]))
	return call{msg: msg, name: name, args: fields[1:], rest: rest}, true
}

func (h *Handler) fail(ctx context.Context, c call, err error) {
	slog.WarnContext(ctx, "Command failed", "command", c.name, "guild_id", c.msg.GuildID, "user_id", c.msg.AuthorID, "error", err)
	text := apperrors.UserMessage(err)
	if text == "" || apperrors.KindOf(err) == apperrors.KindInternal {
		text = noticeFailed
	}
	h.reply(ctx, c, text)
}

func (h *Handler) reply(ctx context.Context, c call, text string) {
	_, err := h.platform.SendMessage(ctx, c.msg.ChannelID, text)
	metrics.SideEffect("send_message", err)
	if err != nil {
		slog.WarnContext(ctx, "Failed to reply to command", "command", c.name, "channel_id", c.msg.ChannelID, "error", err)
	}
}

// parseID extracts the snowflake from a mention such as <@!123> or <#123>.
// Anything else is taken as a raw id.
func parseID(s string) string {
	if m := mention.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
