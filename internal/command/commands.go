package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tukib/snakebot/internal/admin"
	apperrors "github.com/tukib/snakebot/internal/errors"
	"github.com/tukib/snakebot/internal/metrics"
	"github.com/tukib/snakebot/internal/record"
)

// historyLimit bounds how many history entries one reply lists.
const historyLimit = 5

func (h *Handler) table() map[string]command {
	return map[string]command{
		// member commands
		"snipe":     {guildOnly: true, run: h.snipe},
		"editsnipe": {guildOnly: true, run: h.editSnipe},
		"karma":     {run: h.karma},
		"messages":  {guildOnly: true, run: h.messages},
		"names":     {run: h.names},
		"edits":     {run: h.edits},
		"deletes":   {run: h.deletes},
		"invite":    {guildOnly: true, run: h.invite},
		"poll":      {guildOnly: true, run: h.poll},
		"results":   {guildOnly: true, run: h.results},
		"emoji":     {guildOnly: true, run: h.submitEmoji},

		// owner commands
		"blacklist":         {ownerOnly: true, run: h.blacklist},
		"downvote":          {ownerOnly: true, run: h.downvote},
		"gdownvote":         {ownerOnly: true, guildOnly: true, run: h.guildDownvote},
		"disable":           {ownerOnly: true, guildOnly: true, run: h.disable},
		"disable_channel":   {ownerOnly: true, guildOnly: true, run: h.disableChannel},
		"logging":           {ownerOnly: true, guildOnly: true, run: h.logging},
		"infraction":        {ownerOnly: true, guildOnly: true, run: h.addInfraction},
		"infractions":       {ownerOnly: true, guildOnly: true, run: h.showInfractions},
		"clear_infractions": {ownerOnly: true, guildOnly: true, run: h.clearInfractions},
		"remove_infraction": {ownerOnly: true, guildOnly: true, run: h.removeInfraction},
		"cache":             {ownerOnly: true, run: h.cache},
		"boot_times":        {ownerOnly: true, run: h.bootTimes},
		"rrole":             {ownerOnly: true, guildOnly: true, run: h.roleMenu},
	}
}

func usage(text string) error {
	return apperrors.ValidationError("Usage: " + text)
}

// --- audit reads ---

func (h *Handler) snipe(ctx context.Context, c call) (string, error) {
	s, found, err := h.app.Tracker.LastDelete(ctx, c.msg.GuildID)
	if err != nil {
		return "", err
	}
	if !found {
		return "Nothing to snipe", nil
	}
	return fmt.Sprintf("**%s** deleted:\n```%s```", s.Author, s.Content), nil
}

func (h *Handler) editSnipe(ctx context.Context, c call) (string, error) {
	s, found, err := h.app.Tracker.LastEdit(ctx, c.msg.GuildID)
	if err != nil {
		return "", err
	}
	if !found {
		return "Nothing to snipe", nil
	}
	return fmt.Sprintf("**%s** edited:\n```%s``` to ```%s```", s.Author, s.Before, s.After), nil
}

func (h *Handler) names(ctx context.Context, c call) (string, error) {
	hist, err := h.app.Tracker.History(ctx, c.member(0))
	if err != nil {
		return "", err
	}
	if hist.Names.Current == "" && hist.Nicks.Current == "" {
		return "No name history found", nil
	}
	var b strings.Builder
	writeNames(&b, "Names", hist.Names)
	writeNames(&b, "Nicknames", hist.Nicks)
	return b.String(), nil
}

func writeNames(b *strings.Builder, title string, l record.NameLog) {
	if l.Current == "" {
		return
	}
	fmt.Fprintf(b, "**%s**\n", title)
	for _, at := range lastKeys(l.Past) {
		fmt.Fprintf(b, "%s: %s\n", at, l.Past[at])
	}
	fmt.Fprintf(b, "%s: %s (current)\n", l.CurrentSince, l.Current)
}

func (h *Handler) edits(ctx context.Context, c call) (string, error) {
	l, err := h.app.Tracker.Edits(ctx, c.member(0))
	if err != nil {
		return "", err
	}
	if len(l.Entries) == 0 {
		return "No edits found", nil
	}
	var b strings.Builder
	for _, at := range lastKeys(l.Entries) {
		e := l.Entries[at]
		fmt.Fprintf(&b, "%s: ```%s``` to ```%s```\n", at, e[0], e[1])
	}
	return b.String(), nil
}

func (h *Handler) deletes(ctx context.Context, c call) (string, error) {
	l, err := h.app.Tracker.Deletes(ctx, c.member(0))
	if err != nil {
		return "", err
	}
	if len(l.Entries) == 0 {
		return "No deletes found", nil
	}
	var b strings.Builder
	for _, at := range lastKeys(l.Entries) {
		fmt.Fprintf(&b, "%s: ```%s```\n", at, l.Entries[at])
	}
	return b.String(), nil
}

func (h *Handler) invite(ctx context.Context, c call) (string, error) {
	member := c.member(0)
	code, found, err := h.app.Tracker.InviteOf(ctx, member)
	if err != nil {
		return "", err
	}
	if !found {
		return "Invite not found", nil
	}
	return fmt.Sprintf("<@%s> joined with invite `%s`", member, code), nil
}

// --- moderation reads ---

func (h *Handler) karma(ctx context.Context, c call) (string, error) {
	member := c.member(0)
	n, err := h.app.Enforcer.Karma(ctx, member)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<@%s> has %d karma", member, n), nil
}

func (h *Handler) messages(ctx context.Context, c call) (string, error) {
	member := c.member(0)
	n, err := h.app.Enforcer.MessageCount(ctx, c.msg.GuildID, member)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<@%s> has sent %d messages", member, n), nil
}

// --- voting ---

// poll posts "question | emoji emoji ..." and starts tallying it.
func (h *Handler) poll(ctx context.Context, c call) (string, error) {
	question, options, ok := strings.Cut(c.rest, "|")
	emojis := strings.Fields(options)
	if !ok || strings.TrimSpace(question) == "" || len(emojis) == 0 {
		return "", usage("poll <question> | <emoji> <emoji> ...")
	}

	id, err := h.platform.SendMessage(ctx, c.msg.ChannelID, "**Poll:** "+strings.TrimSpace(question))
	metrics.SideEffect("send_message", err)
	if err != nil {
		return "", apperrors.ExternalError("failed to post poll", err)
	}
	// tracked before reacting so no early vote is missed
	if err := h.app.Polls.Track(ctx, c.msg.GuildID, id, emojis); err != nil {
		return "", err
	}
	for _, e := range emojis {
		err := h.platform.AddReaction(ctx, c.msg.ChannelID, id, e)
		metrics.SideEffect("add_reaction", err)
		if err != nil {
			return "", apperrors.ValidationError("Invalid emoji " + e)
		}
	}
	return "", nil
}

func (h *Handler) results(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("results <message id>")
	}
	counts, err := h.app.Polls.Results(ctx, c.msg.GuildID, parseID(c.args[0]))
	if err != nil {
		return "", err
	}
	if counts == nil {
		return "Poll not found", nil
	}
	emojis := make([]string, 0, len(counts))
	for e := range counts {
		emojis = append(emojis, e)
	}
	slices.SortFunc(emojis, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})
	var b strings.Builder
	for _, e := range emojis {
		fmt.Fprintf(&b, "%s: %d\n", e, counts[e])
	}
	return b.String(), nil
}

func (h *Handler) submitEmoji(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("emoji <name> with an image attached")
	}
	if len(c.msg.Attachments) == 0 || !c.msg.Attachments[0].IsImage() {
		return "", apperrors.ValidationError("Attach an image to submit an emoji")
	}
	if err := h.app.Submissions.Submit(ctx, c.msg.GuildID, c.msg.ID, c.args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Emoji `%s` submitted, upvote it to vote", c.args[0]), nil
}

// --- owner toggles ---

func (h *Handler) blacklist(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("blacklist <user>")
	}
	on, err := h.app.Admin.ToggleGlobalBlacklist(ctx, parseID(c.args[0]))
	return toggled("Blacklisted", "Unblacklisted", on), err
}

func (h *Handler) downvote(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("downvote <user>")
	}
	on, err := h.app.Admin.ToggleGlobalDownvote(ctx, parseID(c.args[0]))
	return toggled("Downvoting", "No longer downvoting", on), err
}

func (h *Handler) guildDownvote(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("gdownvote <member>")
	}
	on, err := h.app.Admin.ToggleGuildDownvote(ctx, c.msg.GuildID, parseID(c.args[0]))
	return toggled("Downvoting", "No longer downvoting", on), err
}

func (h *Handler) disable(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("disable <command>")
	}
	name := strings.ToLower(c.args[0])
	if _, ok := h.commands[name]; !ok {
		return "", apperrors.ValidationError("Unknown command " + name)
	}
	off, err := h.app.Admin.ToggleCommand(ctx, c.msg.GuildID, name)
	return toggled("Disabled "+name, "Enabled "+name, off), err
}

func (h *Handler) disableChannel(ctx context.Context, c call) (string, error) {
	off, err := h.app.Admin.ToggleChannel(ctx, c.msg.GuildID, c.msg.ChannelID)
	return toggled("Disabled commands in this channel", "Enabled commands in this channel", off), err
}

func (h *Handler) logging(ctx context.Context, c call) (string, error) {
	off, err := h.app.Admin.ToggleLogging(ctx, c.msg.GuildID)
	return toggled("Disabled logging", "Enabled logging", off), err
}

func toggled(on, off string, state bool) string {
	if state {
		return on
	}
	return off
}

// --- infractions ---

func (h *Handler) addInfraction(ctx context.Context, c call) (string, error) {
	if len(c.args) < 2 {
		return "", usage("infraction <member> <warn|mute|kick|ban> [reason]")
	}
	kind, ok := record.ParseInfractionKind(strings.ToLower(c.args[1]))
	if !ok {
		return "", apperrors.ValidationError("Unknown infraction type " + c.args[1])
	}
	reason := strings.Join(c.args[2:], " ")
	if reason == "" {
		reason = "No reason given"
	}
	member := parseID(c.args[0])
	if _, err := h.app.Admin.AddInfraction(ctx, c.msg.GuildID, member, kind, reason, c.msg.AuthorID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s to <@%s>", kind, member), nil
}

func (h *Handler) showInfractions(ctx context.Context, c call) (string, error) {
	l, err := h.app.Admin.ShowInfractions(ctx, c.msg.GuildID, c.member(0))
	if err != nil {
		return "", err
	}
	return admin.InfractionSummary(l), nil
}

func (h *Handler) clearInfractions(ctx context.Context, c call) (string, error) {
	if len(c.args) != 1 {
		return "", usage("clear_infractions <member>")
	}
	if err := h.app.Admin.ClearInfractions(ctx, c.msg.GuildID, parseID(c.args[0])); err != nil {
		return "", err
	}
	return "Cleared infractions", nil
}

func (h *Handler) removeInfraction(ctx context.Context, c call) (string, error) {
	if len(c.args) != 3 {
		return "", usage("remove_infraction <member> <kind> <index>")
	}
	index, err := strconv.Atoi(c.args[2])
	if err != nil {
		return "", apperrors.ValidationError("Index must be a number")
	}
	removed, err := h.app.Admin.RemoveInfraction(ctx, c.msg.GuildID, parseID(c.args[0]), c.args[1], index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed infraction `%s`: %s", removed.ID, removed.Reason), nil
}

// --- maintenance ---

func (h *Handler) cache(ctx context.Context, c call) (string, error) {
	sub := "list"
	if len(c.args) > 0 {
		sub = strings.ToLower(c.args[0])
	}
	switch sub {
	case "list":
		keys, err := h.app.Admin.ListCache(ctx)
		if err != nil {
			return "", err
		}
		if len(keys) == 0 {
			return "Nothing has been cached", nil
		}
		return "```" + strings.Join(keys, "\n") + "```", nil
	case "wipe":
		n, err := h.app.Admin.WipeCache(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Wiped %d cached items", n), nil
	default:
		return "", usage("cache [list|wipe]")
	}
}

func (h *Handler) bootTimes(ctx context.Context, _ call) (string, error) {
	times, err := h.app.Admin.BootTimes(ctx)
	if err != nil {
		return "", err
	}
	if len(times) == 0 {
		return "No boot times recorded", nil
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("Last boot: %.3fs, average: %.3fs over %d boots", times[len(times)-1], sum/float64(len(times)), len(times)), nil
}

// --- reaction roles ---

func (h *Handler) roleMenu(ctx context.Context, c call) (string, error) {
	if len(c.args) == 0 {
		return "", usage("rrole <start|edit|list|delete> ...")
	}
	switch strings.ToLower(c.args[0]) {
	case "start":
		id, err := h.app.Admin.StartRoleMenu(ctx, c.invoker(), c.args[1:])
		if err != nil {
			return "", err
		}
		return "Role menu created: " + id, nil
	case "edit":
		if len(c.args) < 3 {
			return "", usage("rrole edit <channel> <message id> <emoji> ...")
		}
		channelID := parseID(c.args[1])
		if err := h.app.Admin.EditRoleMenu(ctx, c.invoker(), channelID, parseID(c.args[2]), c.args[3:]); err != nil {
			return "", err
		}
		return "Role menu updated", nil
	case "list":
		menus, err := h.app.Admin.ListRoleMenus(ctx)
		if err != nil {
			return "", err
		}
		if len(menus) == 0 {
			return "No role menus", nil
		}
		var b strings.Builder
		for _, m := range menus {
			fmt.Fprintf(&b, "%s: %s\n", m.MessageID, formatRoles(m.Roles))
		}
		return b.String(), nil
	case "delete":
		if len(c.args) != 3 {
			return "", usage("rrole delete <channel> <message id>")
		}
		if err := h.app.Admin.DeleteRoleMenu(ctx, parseID(c.args[1]), parseID(c.args[2])); err != nil {
			return "", err
		}
		return "Role menu deleted", nil
	default:
		return "", usage("rrole <start|edit|list|delete> ...")
	}
}

func formatRoles(roles map[string]string) string {
	emojis := make([]string, 0, len(roles))
	for e := range roles {
		emojis = append(emojis, e)
	}
	slices.Sort(emojis)
	parts := make([]string, 0, len(emojis))
	for _, e := range emojis {
		parts = append(parts, fmt.Sprintf("%s <@&%s>", e, roles[e]))
	}
	return strings.Join(parts, ", ")
}

// lastKeys returns the newest historyLimit keys of a timestamp-keyed map in
// chronological order. Timestamps use record.TimeLayout and sort as strings.
func lastKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) > historyLimit {
		keys = keys[len(keys)-historyLimit:]
	}
	return keys
}
